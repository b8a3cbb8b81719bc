package cli

import (
	"github.com/appbuilder/appbuilder/internal/engine"
	"github.com/appbuilder/appbuilder/pkg/types"
)

// Config holds the CLI-level options that are not part of a build
type Config struct {
	ConfigFile string
	Verbosity  string
	LogFile    string
	Version    string
}

// NewConfig creates a CLI configuration with defaults
func NewConfig() *Config {
	return &Config{
		Verbosity: "info",
	}
}

// DependencyFunc builds the engine dependencies for one run
type DependencyFunc func(cfg *types.BuildConfig) engine.Dependencies
