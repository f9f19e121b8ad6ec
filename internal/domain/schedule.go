package domain

import "time"

// State is the runtime state shared by Schedules and Actions.
type State int

const (
	StateEnabled State = iota
	StateDisabled
	StateRunning
	StateSuppressed
)

var stateNames = map[State]string{
	StateEnabled:    "enabled",
	StateDisabled:   "disabled",
	StateRunning:    "running",
	StateSuppressed: "suppressed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ExecMode selects how a Schedule launches its Actions.
type ExecMode int

const (
	ExecSequential ExecMode = iota
	ExecParallel
	ExecPipelined
)

func (m ExecMode) String() string {
	switch m {
	case ExecSequential:
		return "sequential"
	case ExecParallel:
		return "parallel"
	case ExecPipelined:
		return "pipelined"
	}
	return "unknown"
}

// ParseExecMode maps the wire name of an execution mode.
func ParseExecMode(s string) (ExecMode, error) {
	switch s {
	case "sequential":
		return ExecSequential, nil
	case "parallel":
		return ExecParallel, nil
	case "pipelined":
		return ExecPipelined, nil
	}
	return ExecSequential, NewConfigError("schedule", "", "unknown execution mode "+s)
}

// Action is the leaf unit of execution: one measurement program
// invocation bound to a Task, owned by a Schedule. The runtime fields
// are mutated only on the scheduler loop.
type Action struct {
	Name            string
	TaskName        string
	Destinations    []string // schedule names
	Options         []*Option
	Tags            Tags
	SuppressionTags Tags

	// Runtime state.
	State                State
	Pid                  int
	LastInvocation       time.Time
	LastCompletion       time.Time
	LastStatus           int
	LastFailedCompletion time.Time
	LastFailedStatus     int
	CntInvocations       uint32
	CntSuppressions      uint32
	CntOverlaps          uint32
	CntFailures          uint32
	CntActiveSupp        uint32
	Workspace            string
	Storage              uint64
}

// Validate checks the per-action invariants. Reference resolution
// happens at the configuration level.
func (a *Action) Validate() error {
	if a.Name == "" {
		return NewConfigError("action", "", "name is required")
	}
	if a.TaskName == "" {
		return NewConfigError("action", a.Name, "task is required")
	}
	if err := validateOptions(a.Options); err != nil {
		return &ConfigError{Entity: "action", Name: a.Name, Err: err}
	}
	return nil
}

// Schedule is an ordered group of Actions triggered by a start Event and
// bounded by an end Event or a duration.
type Schedule struct {
	Name            string
	StartEvent      string
	EndEvent        string
	Duration        uint32 // seconds; exclusive with EndEvent
	HasDuration     bool
	Mode            ExecMode
	Tags            Tags
	SuppressionTags Tags
	Actions         []*Action

	// Runtime state.
	State           State
	CntInvocations  uint32
	CntSuppressions uint32
	CntOverlaps     uint32
	CntFailures     uint32
	CntActiveSupp   uint32
	LastInvocation  time.Time
	CycleNumber     int64 // unix seconds bucket, 0 when unset
	StopRunning     bool
	Workspace       string
	Storage         uint64
}

// Validate checks the per-schedule invariants.
func (s *Schedule) Validate() error {
	if s.Name == "" {
		return NewConfigError("schedule", "", "name is required")
	}
	if s.StartEvent == "" {
		return NewConfigError("schedule", s.Name, "start event is required")
	}
	if s.EndEvent != "" && s.HasDuration {
		return NewConfigError("schedule", s.Name, "end and duration are mutually exclusive")
	}
	names := make(map[string]bool, len(s.Actions))
	for _, a := range s.Actions {
		if err := a.Validate(); err != nil {
			return err
		}
		if names[a.Name] {
			return NewConfigError("schedule", s.Name, "duplicate action "+a.Name)
		}
		names[a.Name] = true
	}
	return nil
}

// FindAction returns the named action or nil.
func (s *Schedule) FindAction(name string) *Action {
	for _, a := range s.Actions {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// NextAction returns the action following a in declaration order, or nil
// if a is the last one or not owned by s.
func (s *Schedule) NextAction(a *Action) *Action {
	for i, have := range s.Actions {
		if have == a && i+1 < len(s.Actions) {
			return s.Actions[i+1]
		}
	}
	return nil
}
