package domain

// Config is the root aggregate owning every configured entity. It is
// built by the configuration codecs, validated once, and replaced
// wholesale on reload; the scheduler mutates only runtime fields.
type Config struct {
	Agent        *Agent
	Capabilities *Capability
	Events       []*Event
	Tasks        []*Task
	Schedules    []*Schedule
	Suppressions []*Suppression
	Results      []*Result
}

// NewConfig returns an empty configuration with an agent carrying
// defaults.
func NewConfig() *Config {
	return &Config{Agent: NewAgent()}
}

// FindEvent returns the named event or nil.
func (c *Config) FindEvent(name string) *Event {
	for _, e := range c.Events {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// FindTask returns the named task or nil.
func (c *Config) FindTask(name string) *Task {
	for _, t := range c.Tasks {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// FindSchedule returns the named schedule or nil.
func (c *Config) FindSchedule(name string) *Schedule {
	for _, s := range c.Schedules {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// FindSuppression returns the named suppression or nil.
func (c *Config) FindSuppression(name string) *Suppression {
	for _, s := range c.Suppressions {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddResult appends a result read back from the workspace.
func (c *Config) AddResult(r *Result) {
	c.Results = append(c.Results, r)
}

// Merge folds another configuration tree into this one. Later files of a
// configuration directory override the agent scalars and append to the
// entity lists; duplicate names are rejected by Validate afterwards.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Agent != nil {
		if c.Agent == nil {
			c.Agent = other.Agent
		} else {
			mergeAgent(c.Agent, other.Agent)
		}
	}
	c.Events = append(c.Events, other.Events...)
	c.Tasks = append(c.Tasks, other.Tasks...)
	c.Schedules = append(c.Schedules, other.Schedules...)
	c.Suppressions = append(c.Suppressions, other.Suppressions...)
}

func mergeAgent(dst, src *Agent) {
	if src.AgentID != "" {
		dst.AgentID = src.AgentID
	}
	if src.GroupID != "" {
		dst.GroupID = src.GroupID
	}
	if src.MeasurementPoint != "" {
		dst.MeasurementPoint = src.MeasurementPoint
	}
	dst.ReportAgentID = dst.ReportAgentID || src.ReportAgentID
	dst.ReportGroupID = dst.ReportGroupID || src.ReportGroupID
	dst.ReportMeasurement = dst.ReportMeasurement || src.ReportMeasurement
	if src.ControllerTimeout != DefaultControllerTimeout {
		dst.ControllerTimeout = src.ControllerTimeout
	}
}

// Validate checks every entity and resolves cross-references by name.
// On failure the whole tree is discarded by the caller; no partial state
// persists.
func (c *Config) Validate() error {
	if c.Agent != nil {
		if err := c.Agent.Validate(); err != nil {
			return err
		}
	}

	eventNames := make(map[string]bool, len(c.Events))
	for _, e := range c.Events {
		if err := e.Validate(); err != nil {
			return err
		}
		if eventNames[e.Name] {
			return NewConfigError("event", e.Name, "duplicate name")
		}
		eventNames[e.Name] = true
	}

	taskNames := make(map[string]bool, len(c.Tasks))
	for _, t := range c.Tasks {
		if err := t.Validate(); err != nil {
			return err
		}
		if taskNames[t.Name] {
			return NewConfigError("task", t.Name, "duplicate name")
		}
		taskNames[t.Name] = true
	}

	scheduleNames := make(map[string]bool, len(c.Schedules))
	for _, s := range c.Schedules {
		if err := s.Validate(); err != nil {
			return err
		}
		if scheduleNames[s.Name] {
			return NewConfigError("schedule", s.Name, "duplicate name")
		}
		scheduleNames[s.Name] = true
	}

	for _, s := range c.Schedules {
		if !eventNames[s.StartEvent] {
			return NewConfigError("schedule", s.Name, "start event "+s.StartEvent+" is not defined")
		}
		if s.EndEvent != "" && !eventNames[s.EndEvent] {
			return NewConfigError("schedule", s.Name, "end event "+s.EndEvent+" is not defined")
		}
		for _, a := range s.Actions {
			if !taskNames[a.TaskName] {
				return NewConfigError("action", a.Name, "task "+a.TaskName+" is not defined")
			}
			for _, dst := range a.Destinations {
				if !scheduleNames[dst] {
					return NewConfigError("action", a.Name, "destination "+dst+" is not defined")
				}
			}
		}
	}

	suppNames := make(map[string]bool, len(c.Suppressions))
	for _, s := range c.Suppressions {
		if err := s.Validate(); err != nil {
			return err
		}
		if suppNames[s.Name] {
			return NewConfigError("suppression", s.Name, "duplicate name")
		}
		suppNames[s.Name] = true
		if s.StartEvent != "" && !eventNames[s.StartEvent] {
			return NewConfigError("suppression", s.Name, "start event "+s.StartEvent+" is not defined")
		}
		if s.EndEvent != "" && !eventNames[s.EndEvent] {
			return NewConfigError("suppression", s.Name, "end event "+s.EndEvent+" is not defined")
		}
	}

	return nil
}

// EventReferenced reports whether any schedule or suppression refers to
// the named event. Unreferenced events are not armed by the dispatcher.
func (c *Config) EventReferenced(name string) bool {
	for _, s := range c.Schedules {
		if s.StartEvent == name || s.EndEvent == name {
			return true
		}
	}
	for _, s := range c.Suppressions {
		if s.StartEvent == name || s.EndEvent == name {
			return true
		}
	}
	return false
}

// PopulateCapabilities fills the capability allowlist from the
// configured tasks, keeping the version and system tags.
func (c *Config) PopulateCapabilities() {
	if c.Capabilities == nil {
		c.Capabilities = NewCapability()
	}
	c.Capabilities.Tasks = nil
	for _, t := range c.Tasks {
		c.Capabilities.Tasks = append(c.Capabilities.Tasks, &Task{
			Name:    t.Name,
			Program: t.Program,
		})
	}
}
