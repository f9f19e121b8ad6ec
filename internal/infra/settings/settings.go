package settings

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"lmapd/internal/infra/logger"
)

// Compile-time defaults, overridable by the settings file, the
// environment, and finally the command line.
const (
	DefaultQueuePath  = "/var/lib/lmapd/queue"
	DefaultRunPath    = "/var/run/lmapd"
	DefaultConfigPath = "/etc/lmapd/lmapd-config.xml"
)

// Settings holds the daemon's own runtime settings, distinct from the
// measurement configuration (which is the LMAP XML/JSON tree).
type Settings struct {
	QueuePath   string        `yaml:"queue"`
	RunPath     string        `yaml:"run"`
	ConfigPath  string        `yaml:"config"`
	MetricsAddr string        `yaml:"metrics_addr"` // empty disables the listener
	Logger      logger.Config `yaml:"logger"`
}

// Defaults returns the compile-time settings.
func Defaults() Settings {
	return Settings{
		QueuePath:  DefaultQueuePath,
		RunPath:    DefaultRunPath,
		ConfigPath: DefaultConfigPath,
	}
}

// Load builds the settings: defaults, then the optional YAML settings
// file, then LMAPD_* environment variables (a .env file in the working
// directory is folded into the environment first).
func Load(path string) (Settings, error) {
	s := Defaults()

	// Missing .env is the normal case.
	_ = godotenv.Load()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return s, fmt.Errorf("read settings %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &s); err != nil {
			return s, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}

	applyEnv(&s)
	return s, nil
}

func applyEnv(s *Settings) {
	if v := os.Getenv("LMAPD_QUEUE"); v != "" {
		s.QueuePath = v
	}
	if v := os.Getenv("LMAPD_RUN"); v != "" {
		s.RunPath = v
	}
	if v := os.Getenv("LMAPD_CONFIG"); v != "" {
		s.ConfigPath = v
	}
	if v := os.Getenv("LMAPD_METRICS_ADDR"); v != "" {
		s.MetricsAddr = v
	}
	if v := os.Getenv("LMAPD_LOG_LEVEL"); v != "" {
		s.Logger.Level = v
	}
	if v := os.Getenv("LMAPD_LOG_FORMAT"); v != "" {
		s.Logger.Format = v
	}
	if v := os.Getenv("LMAPD_LOG_OUTPUT"); v != "" {
		s.Logger.Output = v
	}
}
