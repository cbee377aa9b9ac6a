package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nimburion/storefront/pkg/config"
	"github.com/nimburion/storefront/pkg/observability/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const memoryConfig = `
database:
  type: memory
auth:
  jwt_secret: super-secret-value
`

func TestNewServiceCommand_Subcommands(t *testing.T) {
	cmd := NewServiceCommand(ServiceCommandOptions{
		Name:          "storefront",
		RunServer:     func(context.Context, *config.Config, logger.Logger) error { return nil },
		RunMigrations: func(context.Context, *config.Config, logger.Logger) error { return nil },
	})

	want := map[string]bool{"serve": false, "migrate": false, "version": false, "config": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestServe_PassesLoadedConfig(t *testing.T) {
	path := writeConfig(t, memoryConfig)

	var got *config.Config
	cmd := NewServiceCommand(ServiceCommandOptions{
		Name: "storefront",
		RunServer: func(ctx context.Context, cfg *config.Config, log logger.Logger) error {
			got = cfg
			return nil
		},
	})
	cmd.SetArgs([]string{"serve", "--config-file", path, "--port", "9300", "--log-level", "error"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got == nil {
		t.Fatal("RunServer was not called")
	}
	if got.HTTP.Port != 9300 || got.Database.Type != config.DatabaseTypeMemory {
		t.Fatalf("unexpected config %+v", got)
	}
}

func TestConfigShow_RedactsSecrets(t *testing.T) {
	path := writeConfig(t, memoryConfig)
	cmd := NewServiceCommand(ServiceCommandOptions{Name: "storefront"})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "show", "--config-file", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.Contains(out.String(), "super-secret-value") {
		t.Fatalf("secret leaked:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "jwt_secret: ***") {
		t.Fatalf("expected redacted secret:\n%s", out.String())
	}
}

func TestConfigValidate_ReportsErrors(t *testing.T) {
	path := writeConfig(t, "database:\n  type: postgres\nauth:\n  jwt_secret: x\n")
	cmd := NewServiceCommand(ServiceCommandOptions{Name: "storefront"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "validate", "--config-file", path})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "database.type") {
		t.Fatalf("expected database.type error, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewServiceCommand(ServiceCommandOptions{Name: "storefront"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "Service:    storefront") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestApplySecretFileFlag(t *testing.T) {
	t.Setenv("STOREFRONT_SECRETS_FILE", "")
	if err := applySecretFileFlag("STOREFRONT", t.TempDir()); err == nil {
		t.Fatal("expected error for directory")
	}
	file := filepath.Join(t.TempDir(), "secrets.yaml")
	if err := os.WriteFile(file, []byte("auth:\n  jwt_secret: x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := applySecretFileFlag("STOREFRONT", file); err != nil {
		t.Fatalf("applySecretFileFlag() error = %v", err)
	}
	if os.Getenv("STOREFRONT_SECRETS_FILE") != file {
		t.Fatalf("env not set")
	}
}
