package config

import (
	"fmt"

	"github.com/chrissnell/wellmrc/internal/hydro"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Analysis AnalysisData `json:"analysis"`
	Storage  StorageData  `json:"storage,omitempty"`
	Server   ServerData   `json:"server,omitempty"`
}

// AnalysisData holds the extrema detection and recession fit parameters
type AnalysisData struct {
	// Deltan is the extremum scale in samples
	Deltan             int    `json:"deltan"`
	Mode               string `json:"mode,omitempty"`
	Norm               string `json:"norm,omitempty"`
	MaxOuterIterations int    `json:"max_outer_iterations,omitempty"`
	MaxInnerIterations int    `json:"max_inner_iterations,omitempty"`
}

// StorageData selects where fit results are recorded. An empty backend disables
// the result store.
type StorageData struct {
	Backend          string `json:"backend,omitempty"`
	SQLitePath       string `json:"sqlite_path,omitempty"`
	ConnectionString string `json:"connection_string,omitempty"`
}

// ServerData holds the REST server settings
type ServerData struct {
	ListenAddr     string  `json:"listen_addr,omitempty"`
	HTTPPort       int     `json:"http_port,omitempty"`
	DeleteRadiusPx float64 `json:"delete_radius_px,omitempty"`
}

// Defaults
const (
	// DefaultDeltan is five days of readings taken four times a day.
	DefaultDeltan     = 4 * 5
	DefaultListenAddr = "0.0.0.0"
	DefaultHTTPPort   = 8080
)

// ApplyDefaults fills in every unset field
func (c *ConfigData) ApplyDefaults() {
	def := hydro.DefaultFitOptions()

	if c.Analysis.Deltan == 0 {
		c.Analysis.Deltan = DefaultDeltan
	}
	if c.Analysis.Mode == "" {
		c.Analysis.Mode = def.Mode.String()
	}
	if c.Analysis.Norm == "" {
		c.Analysis.Norm = def.Norm.String()
	}
	if c.Analysis.MaxOuterIterations == 0 {
		c.Analysis.MaxOuterIterations = def.MaxOuterIterations
	}
	if c.Analysis.MaxInnerIterations == 0 {
		c.Analysis.MaxInnerIterations = def.MaxInnerIterations
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = DefaultHTTPPort
	}
	if c.Server.DeleteRadiusPx == 0 {
		c.Server.DeleteRadiusPx = 15
	}
}

// Validate checks the configuration after defaults have been applied
func (c *ConfigData) Validate() error {
	if c.Analysis.Deltan < 1 {
		return fmt.Errorf("analysis.deltan must be at least 1, got %d", c.Analysis.Deltan)
	}
	if _, err := c.Analysis.FitOptions(); err != nil {
		return err
	}
	if c.Analysis.MaxOuterIterations < 0 || c.Analysis.MaxInnerIterations < 0 {
		return fmt.Errorf("analysis iteration caps must not be negative")
	}

	switch c.Storage.Backend {
	case "":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
		}
	case "postgres":
		if c.Storage.ConnectionString == "" {
			return fmt.Errorf("storage.connection_string is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q. Use 'sqlite' or 'postgres'", c.Storage.Backend)
	}

	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d out of range", c.Server.HTTPPort)
	}
	if c.Server.DeleteRadiusPx < 0 {
		return fmt.Errorf("server.delete_radius_px must not be negative")
	}
	return nil
}

// FitOptions converts the analysis section into fitter options
func (a AnalysisData) FitOptions() (hydro.FitOptions, error) {
	opts := hydro.DefaultFitOptions()

	if a.Mode != "" {
		mode, err := hydro.ParseMode(a.Mode)
		if err != nil {
			return opts, fmt.Errorf("analysis.mode: %w", err)
		}
		opts.Mode = mode
	}
	if a.Norm != "" {
		norm, err := hydro.ParseNorm(a.Norm)
		if err != nil {
			return opts, fmt.Errorf("analysis.norm: %w", err)
		}
		opts.Norm = norm
	}
	if a.MaxOuterIterations > 0 {
		opts.MaxOuterIterations = a.MaxOuterIterations
	}
	if a.MaxInnerIterations > 0 {
		opts.MaxInnerIterations = a.MaxInnerIterations
	}
	return opts, nil
}
