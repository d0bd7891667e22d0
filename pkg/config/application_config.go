package config

import (
	"fmt"

	"github.com/glowsphere/glowsphere/pkg/core/storage/dbconfig"
	"go.uber.org/zap/zapcore"
)

// ApplicationConfiguration config specific to the node.
type ApplicationConfiguration struct {
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`

	LogLevel    string `yaml:"LogLevel"`
	LogEncoding string `yaml:"LogEncoding"`
	LogPath     string `yaml:"LogPath"`

	Pprof      BasicService `yaml:"Pprof"`
	Prometheus BasicService `yaml:"Prometheus"`
	RPC        RPC          `yaml:"RPC"`
}

// EqualsButServices returns true when the o is the same as a except for services
// (RPC, Prometheus and Pprof) and logging settings.
func (a *ApplicationConfiguration) EqualsButServices(o *ApplicationConfiguration) bool {
	return a.DBConfiguration == o.DBConfiguration
}

// Validate checks ApplicationConfiguration for internal consistency and returns
// an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	switch a.DBConfiguration.Type {
	case dbconfig.BoltDB, dbconfig.LevelDB, dbconfig.InMemoryDB:
	default:
		return fmt.Errorf("%w: %q", errUnknownDB, a.DBConfiguration.Type)
	}
	if a.LogLevel != "" {
		if _, err := zapcore.ParseLevel(a.LogLevel); err != nil {
			return fmt.Errorf("invalid LogLevel: %w", err)
		}
	}
	switch a.LogEncoding {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid LogEncoding: %s", a.LogEncoding)
	}
	return a.RPC.Validate()
}
