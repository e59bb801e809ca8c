package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jensholdgaard/draft-tracker/internal/config"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "valid full config",
			yaml: `
server:
  port: 9090
storage:
  driver: "postgres"
  data_dir: "/var/lib/draft"
  host: "db.example.com"
  port: 5433
  user: "draft"
  password: "secret"
  dbname: "draft"
  sslmode: "require"
telemetry:
  service_name: "my-tracker"
  otlp_endpoint: "localhost:4318"
`,
			wantErr: false,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.Server.Port != 9090 {
					t.Errorf("got server port %d, want %d", cfg.Server.Port, 9090)
				}
				if cfg.Storage.Driver != "postgres" {
					t.Errorf("got driver %q, want %q", cfg.Storage.Driver, "postgres")
				}
				if cfg.Storage.Port != 5433 {
					t.Errorf("got db port %d, want %d", cfg.Storage.Port, 5433)
				}
				if cfg.Telemetry.ServiceName != "my-tracker" {
					t.Errorf("got service name %q, want %q", cfg.Telemetry.ServiceName, "my-tracker")
				}
			},
		},
		{
			name: "defaults applied",
			yaml: `
telemetry:
  otlp_endpoint: "localhost:4318"
`,
			wantErr: false,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.Storage.Driver != "file" {
					t.Errorf("got driver %q, want %q", cfg.Storage.Driver, "file")
				}
				if cfg.Storage.DataDir != "data" {
					t.Errorf("got data dir %q, want %q", cfg.Storage.DataDir, "data")
				}
				if cfg.Server.Port != 8175 {
					t.Errorf("got server port %d, want %d", cfg.Server.Port, 8175)
				}
				if cfg.Telemetry.ServiceName != "draft-tracker" {
					t.Errorf("got service name %q, want %q", cfg.Telemetry.ServiceName, "draft-tracker")
				}
			},
		},
		{
			name:    "invalid yaml",
			yaml:    `{{{invalid`,
			wantErr: true,
		},
		{
			name: "unknown storage driver",
			yaml: `
storage:
  driver: "redis"
`,
			wantErr: true,
		},
		{
			name: "empty data dir",
			yaml: `
storage:
  driver: "file"
  data_dir: ""
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatalf("writing config: %v", err)
			}

			cfg, err := config.Load(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && err == nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDSN(t *testing.T) {
	s := config.StorageConfig{
		Host: "h", Port: 5432, User: "u", Password: "p", DBName: "d", SSLMode: "disable",
	}
	want := "host=h port=5432 user=u password=p dbname=d sslmode=disable"
	if got := s.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
