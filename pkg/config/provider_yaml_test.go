package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chrissnell/wellmrc/internal/hydro"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	path := writeConfig(t, `
analysis:
  deltan: 12
  mode: exponential
  norm: rmse
  max_outer_iterations: 500
storage:
  backend: sqlite
  sqlite_path: /var/lib/wellmrc/fits.db
server:
  http_port: 9090
`)

	cfg, err := NewYAMLProvider(path).LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Analysis.Deltan != 12 {
		t.Errorf("deltan = %d, expected 12", cfg.Analysis.Deltan)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.SQLitePath != "/var/lib/wellmrc/fits.db" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("http_port = %d, expected 9090", cfg.Server.HTTPPort)
	}
	if cfg.Server.ListenAddr != DefaultListenAddr {
		t.Errorf("listen_addr = %q, expected default %q", cfg.Server.ListenAddr, DefaultListenAddr)
	}
	if cfg.Server.DeleteRadiusPx != 15 {
		t.Errorf("delete_radius_px = %g, expected 15", cfg.Server.DeleteRadiusPx)
	}

	opts, err := cfg.Analysis.FitOptions()
	if err != nil {
		t.Fatalf("FitOptions: %v", err)
	}
	if opts.Norm != hydro.NormRMSE || opts.Mode != hydro.ModeExponential {
		t.Errorf("fit options = %+v", opts)
	}
	if opts.MaxOuterIterations != 500 {
		t.Errorf("max outer iterations = %d, expected 500", opts.MaxOuterIterations)
	}
	if opts.MaxInnerIterations != hydro.DefaultFitOptions().MaxInnerIterations {
		t.Errorf("max inner iterations = %d, expected the default", opts.MaxInnerIterations)
	}
}

func TestYAMLProviderDefaults(t *testing.T) {
	cfg, err := NewYAMLProvider(writeConfig(t, "analysis: {}\n")).LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Analysis.Deltan != DefaultDeltan {
		t.Errorf("deltan = %d, expected %d", cfg.Analysis.Deltan, DefaultDeltan)
	}
	if cfg.Analysis.Norm != "mae" || cfg.Analysis.Mode != "exponential" {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if cfg.Storage.Backend != "" {
		t.Errorf("storage should be disabled by default, got %q", cfg.Storage.Backend)
	}
}

func TestYAMLProviderInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unknown norm", "analysis:\n  norm: huber\n", "analysis.norm"},
		{"negative scale", "analysis:\n  deltan: -3\n", "deltan"},
		{"sqlite without path", "storage:\n  backend: sqlite\n", "sqlite_path"},
		{"postgres without dsn", "storage:\n  backend: postgres\n", "connection_string"},
		{"unknown backend", "storage:\n  backend: influxdb\n", "unsupported storage backend"},
		{"bad port", "server:\n  http_port: 70000\n", "http_port"},
		{"not yaml", "analysis: [\n", "error parsing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewYAMLProvider(writeConfig(t, tt.body)).LoadConfig()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestYAMLProviderMissingFile(t *testing.T) {
	if _, err := NewYAMLProvider(filepath.Join(t.TempDir(), "nope.yaml")).LoadConfig(); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
