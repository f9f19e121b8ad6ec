package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalConfig() *Config {
	cfg := NewConfig()
	cfg.Events = append(cfg.Events, &Event{Name: "go", Kind: EventImmediate})
	cfg.Tasks = append(cfg.Tasks, &Task{Name: "noop", Program: "/bin/true"})
	cfg.Schedules = append(cfg.Schedules, &Schedule{
		Name:       "s1",
		StartEvent: "go",
		Actions:    []*Action{{Name: "a1", TaskName: "noop"}},
	})
	return cfg
}

func TestConfigValidateOK(t *testing.T) {
	require.NoError(t, minimalConfig().Validate())
}

func TestConfigValidateUnresolvedReferences(t *testing.T) {
	cfg := minimalConfig()
	cfg.Schedules[0].StartEvent = "nope"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = minimalConfig()
	cfg.Schedules[0].Actions[0].TaskName = "nope"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = minimalConfig()
	cfg.Schedules[0].Actions[0].Destinations = []string{"nope"}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestConfigValidateDuplicates(t *testing.T) {
	cfg := minimalConfig()
	cfg.Events = append(cfg.Events, &Event{Name: "go", Kind: EventStartup})
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = minimalConfig()
	cfg.Schedules[0].Actions = append(cfg.Schedules[0].Actions,
		&Action{Name: "a1", TaskName: "noop"})
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestScheduleEndXorDuration(t *testing.T) {
	cfg := minimalConfig()
	cfg.Events = append(cfg.Events, &Event{Name: "halt", Kind: EventImmediate})
	cfg.Schedules[0].EndEvent = "halt"
	require.NoError(t, cfg.Validate())

	cfg.Schedules[0].Duration = 60
	cfg.Schedules[0].HasDuration = true
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		ok    bool
	}{
		{"periodic ok", Event{Name: "e", Kind: EventPeriodic, Interval: 1}, true},
		{"periodic zero interval", Event{Name: "e", Kind: EventPeriodic}, false},
		{"one-off without start", Event{Name: "e", Kind: EventOneOff}, false},
		{"one-off ok", Event{Name: "e", Kind: EventOneOff, Start: time.Unix(1, 0)}, true},
		{"missing type", Event{Name: "e"}, false},
		{"nameless", Event{Kind: EventImmediate}, false},
		{"end before start", Event{Name: "e", Kind: EventPeriodic, Interval: 5,
			Start: time.Unix(100, 0), End: time.Unix(50, 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAgentValidate(t *testing.T) {
	agent := NewAgent()
	require.NoError(t, agent.Validate())
	assert.Equal(t, DefaultControllerTimeout, agent.ControllerTimeout)

	agent.AgentID = "not-a-uuid"
	assert.Error(t, agent.Validate())

	agent.AgentID = "550e8400-e29b-41d4-a716-446655440000"
	require.NoError(t, agent.Validate())

	agent.ReportGroupID = true
	assert.Error(t, agent.Validate(), "report-group-id requires group-id")
	agent.GroupID = "wifi-probes"
	require.NoError(t, agent.Validate())
}

func TestAgentGenerateAgentID(t *testing.T) {
	agent := NewAgent()
	agent.GenerateAgentID()
	require.NotEmpty(t, agent.AgentID)
	require.NoError(t, agent.Validate())

	id := agent.AgentID
	agent.GenerateAgentID()
	assert.Equal(t, id, agent.AgentID, "existing id must not be replaced")
}

func TestSuppressionValidate(t *testing.T) {
	supp := &Suppression{Name: "p", Match: Tags{"red*"}}
	require.NoError(t, supp.Validate())

	assert.Error(t, (&Suppression{Match: Tags{"x"}}).Validate())
	assert.Error(t, (&Suppression{Name: "p"}).Validate())
}

func TestConfigMerge(t *testing.T) {
	cfg := minimalConfig()
	other := NewConfig()
	other.Agent.GroupID = "lab"
	other.Tasks = append(other.Tasks, &Task{Name: "ping", Program: "/usr/bin/ping"})
	other.Events = append(other.Events, &Event{Name: "tick", Kind: EventPeriodic, Interval: 60})

	cfg.Merge(other)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "lab", cfg.Agent.GroupID)
	assert.NotNil(t, cfg.FindTask("ping"))
	assert.NotNil(t, cfg.FindEvent("tick"))
}

func TestPopulateCapabilities(t *testing.T) {
	cfg := minimalConfig()
	cfg.PopulateCapabilities()
	require.NotNil(t, cfg.Capabilities)
	assert.True(t, cfg.Capabilities.AllowsProgram("/bin/true"))
	assert.False(t, cfg.Capabilities.AllowsProgram("/bin/rm"))
	assert.Contains(t, cfg.Capabilities.Version, SoftwareName)
}

func TestEventReferenced(t *testing.T) {
	cfg := minimalConfig()
	cfg.Events = append(cfg.Events, &Event{Name: "orphan", Kind: EventStartup})
	assert.True(t, cfg.EventReferenced("go"))
	assert.False(t, cfg.EventReferenced("orphan"))
}
