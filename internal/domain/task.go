package domain

// Option is a single program argument of a Task or Action. ID names the
// option within its owner; Name and Value are appended to the argument
// vector when non-empty.
type Option struct {
	ID    string
	Name  string
	Value string
}

// Function describes a registry entry (URI plus roles) a Task implements.
type Function struct {
	URI   string
	Roles []string
}

// Task defines an invocable measurement program.
type Task struct {
	Name      string
	Program   string
	Options   []*Option
	Tags      Tags
	Functions []*Function
}

// Validate checks the task invariants.
func (t *Task) Validate() error {
	if t.Name == "" {
		return NewConfigError("task", "", "name is required")
	}
	if t.Program == "" {
		return NewConfigError("task", t.Name, "program is required")
	}
	if err := validateOptions(t.Options); err != nil {
		return &ConfigError{Entity: "task", Name: t.Name, Err: err}
	}
	return nil
}

func validateOptions(options []*Option) error {
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		if o.ID == "" {
			return NewConfigError("option", "", "id is required")
		}
		if seen[o.ID] {
			return NewConfigError("option", o.ID, "duplicate option id")
		}
		seen[o.ID] = true
	}
	return nil
}
