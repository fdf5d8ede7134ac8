package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// YAML-tagged mirrors of the configuration sections
type analysisYAML struct {
	Deltan             int    `yaml:"deltan"`
	Mode               string `yaml:"mode,omitempty"`
	Norm               string `yaml:"norm,omitempty"`
	MaxOuterIterations int    `yaml:"max_outer_iterations,omitempty"`
	MaxInnerIterations int    `yaml:"max_inner_iterations,omitempty"`
}

type storageYAML struct {
	Backend          string `yaml:"backend,omitempty"`
	SQLitePath       string `yaml:"sqlite_path,omitempty"`
	ConnectionString string `yaml:"connection_string,omitempty"`
}

type serverYAML struct {
	ListenAddr     string  `yaml:"listen_addr,omitempty"`
	HTTPPort       int     `yaml:"http_port,omitempty"`
	DeleteRadiusPx float64 `yaml:"delete_radius_px,omitempty"`
}

// LoadConfig loads the complete configuration from the YAML file, applies
// defaults and validates the result
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Analysis analysisYAML `yaml:"analysis"`
		Storage  storageYAML  `yaml:"storage,omitempty"`
		Server   serverYAML   `yaml:"server,omitempty"`
	}

	if err := yaml.Unmarshal(cfgFile, &yamlConfig); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", y.filename, err)
	}

	// Convert to our internal format
	config := &ConfigData{
		Analysis: AnalysisData{
			Deltan:             yamlConfig.Analysis.Deltan,
			Mode:               yamlConfig.Analysis.Mode,
			Norm:               yamlConfig.Analysis.Norm,
			MaxOuterIterations: yamlConfig.Analysis.MaxOuterIterations,
			MaxInnerIterations: yamlConfig.Analysis.MaxInnerIterations,
		},
		Storage: StorageData{
			Backend:          yamlConfig.Storage.Backend,
			SQLitePath:       yamlConfig.Storage.SQLitePath,
			ConnectionString: yamlConfig.Storage.ConnectionString,
		},
		Server: ServerData{
			ListenAddr:     yamlConfig.Server.ListenAddr,
			HTTPPort:       yamlConfig.Server.HTTPPort,
			DeleteRadiusPx: yamlConfig.Server.DeleteRadiusPx,
		},
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", y.filename, err)
	}

	return config, nil
}
