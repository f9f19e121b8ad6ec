package domain

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/host"
)

// SoftwareName and SoftwareVersion identify this implementation in the
// capability version string and the meta sidecar magic line.
const (
	SoftwareName    = "lmapd"
	SoftwareVersion = "0.4.0"
)

// Magic is the first meta sidecar value: software name plus semantic
// version.
func Magic() string {
	return fmt.Sprintf("%s.%s", SoftwareName, SoftwareVersion)
}

// Capability is the daemon self-description exposed in state dumps. Its
// task list is the allowlist of runnable programs.
type Capability struct {
	Version string
	Tags    Tags
	Tasks   []*Task
}

// NewCapability returns a Capability populated with the software version
// and host system tags.
func NewCapability() *Capability {
	c := &Capability{Version: Magic()}
	if info, err := host.Info(); err == nil {
		c.Tags.Add("system:os:" + info.OS)
		if info.Platform != "" {
			c.Tags.Add("system:platform:" + info.Platform + "-" + info.PlatformVersion)
		}
		if info.KernelVersion != "" {
			c.Tags.Add("system:kernel:" + info.KernelVersion)
		}
	}
	return c
}

// AllowsProgram reports whether program appears in the capability task
// allowlist.
func (c *Capability) AllowsProgram(program string) bool {
	if c == nil || program == "" {
		return false
	}
	for _, t := range c.Tasks {
		if t.Program == program {
			return true
		}
	}
	return false
}
