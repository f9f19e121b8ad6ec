package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultControllerTimeout is the controller-lost threshold in seconds
// (one week).
const DefaultControllerTimeout uint32 = 604800

// Agent carries the daemon identity and reporting policy.
type Agent struct {
	AgentID           string // UUID string
	GroupID           string
	MeasurementPoint  string
	ReportAgentID     bool
	ReportGroupID     bool
	ReportMeasurement bool
	ControllerTimeout uint32
	LastStarted       time.Time
}

// NewAgent returns an Agent with defaults applied.
func NewAgent() *Agent {
	return &Agent{ControllerTimeout: DefaultControllerTimeout}
}

// Validate checks the identity invariants: each report-* flag requires
// the corresponding id, and agent-id must be a UUID when present.
func (a *Agent) Validate() error {
	if a.AgentID != "" {
		if _, err := uuid.Parse(a.AgentID); err != nil {
			return NewConfigError("agent", a.AgentID, "agent-id is not a valid UUID")
		}
	}
	if a.ReportAgentID && a.AgentID == "" {
		return NewConfigError("agent", "", "report-agent-id requires agent-id")
	}
	if a.ReportGroupID && a.GroupID == "" {
		return NewConfigError("agent", "", "report-group-id requires group-id")
	}
	if a.ReportMeasurement && a.MeasurementPoint == "" {
		return NewConfigError("agent", "", "report-measurement-point requires measurement-point")
	}
	return nil
}

// GenerateAgentID assigns a fresh random UUID if no agent-id is set.
func (a *Agent) GenerateAgentID() {
	if a.AgentID == "" {
		a.AgentID = uuid.NewString()
	}
}
