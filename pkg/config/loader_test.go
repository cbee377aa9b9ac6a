package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

func writeYAML(t *testing.T, path string, content map[string]interface{}) {
	t.Helper()
	data, err := yaml.Marshal(content)
	if err != nil {
		t.Fatalf("failed to marshal yaml: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func validDefaults() *Config {
	cfg := DefaultConfig()
	cfg.Auth.JWTSecret = "test-secret"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Service.Name != "storefront" {
		t.Errorf("expected service name storefront, got %s", cfg.Service.Name)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected HTTP port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Type != DatabaseTypeMongoDB {
		t.Errorf("expected database type mongodb, got %s", cfg.Database.Type)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("expected token ttl 1h, got %v", cfg.Auth.TokenTTL)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "auth.jwt_secret") {
		t.Fatalf("expected the missing secret to fail validation, got %v", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeYAML(t, path, map[string]interface{}{
		"http":     map[string]interface{}{"port": 9000},
		"database": map[string]interface{}{"type": "memory"},
		"auth":     map[string]interface{}{"jwt_secret": "from-file", "token_ttl": "30m"},
	})
	t.Setenv("STOREFRONT_HTTP_PORT", "9100")

	cfg, err := NewViperLoader(path, "").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Port != 9100 {
		t.Errorf("expected env port 9100, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Type != DatabaseTypeMemory {
		t.Errorf("expected file database type memory, got %s", cfg.Database.Type)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("expected token ttl 30m, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Observability.MetricsPath != "/metrics" {
		t.Errorf("expected default metrics path, got %s", cfg.Observability.MetricsPath)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("STOREFRONT_JWT_SECRET", "env-secret")
	t.Setenv("STOREFRONT_HTTP_PORT", "9100")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("log-level", "", "")
	if err := flags.Parse([]string{"--port=9200"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := NewViperLoader("", "").WithFlags(flags).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Port != 9200 {
		t.Errorf("expected flag port 9200, got %d", cfg.HTTP.Port)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("unset flag must not override, got log level %q", cfg.Observability.LogLevel)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("expected secret from legacy env name, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadWithSecrets_DiscoversSiblingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeYAML(t, path, map[string]interface{}{
		"database": map[string]interface{}{"name": "shop"},
	})
	writeYAML(t, filepath.Join(dir, "secrets.yaml"), map[string]interface{}{
		"auth":     map[string]interface{}{"jwt_secret": "from-secrets"},
		"database": map[string]interface{}{"url": "mongodb://mongo:27017"},
	})

	cfg, secrets, err := NewViperLoader(path, "").LoadWithSecrets()
	if err != nil {
		t.Fatalf("LoadWithSecrets() error = %v", err)
	}
	if cfg.Auth.JWTSecret != "from-secrets" || cfg.Database.Name != "shop" {
		t.Fatalf("unexpected merged config %+v", cfg)
	}
	if secrets == nil || secrets.Database.URL != "mongodb://mongo:27017" {
		t.Fatalf("expected secrets to be reported, got %+v", secrets)
	}

	out := cfg.Redacted(secrets)
	if strings.Contains(out, "from-secrets") || strings.Contains(out, "mongodb://mongo:27017") {
		t.Fatalf("secrets leaked:\n%s", out)
	}
	if !strings.Contains(out, "name: shop") {
		t.Fatalf("non-secret value missing:\n%s", out)
	}
}

func TestLoadWithSecrets_ExplicitEnvMustExist(t *testing.T) {
	t.Setenv("STOREFRONT_SECRETS_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, _, err := NewViperLoader("", "").LoadWithSecrets(); err == nil {
		t.Fatal("expected error for missing secrets file")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := NewViperLoader("/does/not/exist.yaml", "").Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestRedacted_AlwaysHidesJWTSecretAndCredentials(t *testing.T) {
	cfg := validDefaults()
	cfg.Database.URL = "mongodb://admin:hunter2@db:27017"

	out := cfg.Redacted(nil)
	if strings.Contains(out, "test-secret") || strings.Contains(out, "hunter2") {
		t.Fatalf("secrets leaked:\n%s", out)
	}
	if !strings.Contains(cfg.String(), "hunter2") {
		t.Fatal("String() renders the unredacted configuration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "memory needs no url", mutate: func(c *Config) { c.Database.Type = DatabaseTypeMemory; c.Database.URL = "" }},
		{name: "unknown database", mutate: func(c *Config) { c.Database.Type = "postgres" }, want: "database.type"},
		{name: "mongodb needs name", mutate: func(c *Config) { c.Database.Name = "" }, want: "database.name"},
		{name: "bad log level", mutate: func(c *Config) { c.Observability.LogLevel = "loud" }, want: "log_level"},
		{name: "tracing without endpoint", mutate: func(c *Config) { c.Observability.TracingEnabled = true }, want: "tracing_endpoint"},
		{name: "tls half configured", mutate: func(c *Config) { c.HTTP.TLSCertFile = "cert.pem" }, want: "tls_key_file"},
		{name: "bcrypt cost", mutate: func(c *Config) { c.Auth.BcryptCost = 2 }, want: "bcrypt_cost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

// TestProperty_PortRange checks that exactly ports 1..65535 validate.
func TestProperty_PortRange(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("port validation", prop.ForAll(
		func(port int) bool {
			cfg := validDefaults()
			cfg.HTTP.Port = port
			err := cfg.Validate()
			inRange := port >= 1 && port <= 65535
			return inRange == (err == nil)
		},
		gen.IntRange(-1000, 70000),
	))
	properties.TestingRun(t)
}
