package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveDefaults(t *testing.T) {
	cfg := Resolver{}.Resolve()
	if cfg.NumInputs != 2 || cfg.NumOutputs != 2 {
		t.Fatalf("defaults = (%d, %d), want (2, 2)", cfg.NumInputs, cfg.NumOutputs)
	}
	if cfg.PreferredBufferSize != 1024 {
		t.Fatalf("default preferred buffer size = %d, want 1024", cfg.PreferredBufferSize)
	}
	if !cfg.ConnectToHardware {
		t.Fatal("default connect_to_hardware should be true")
	}
}

func TestResolveUserFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jackasio.conf")
	contents := "number_inputs=4\nnumber_outputs=6\nclient_name=test-client\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Resolver{UserConfigPath: path}.Resolve()
	if cfg.NumInputs != 4 || cfg.NumOutputs != 6 {
		t.Fatalf("got (%d, %d), want (4, 6)", cfg.NumInputs, cfg.NumOutputs)
	}
	if cfg.ClientName != "test-client" {
		t.Fatalf("client name = %q, want test-client", cfg.ClientName)
	}
}

func TestResolveClampsIllegalBufferSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jackasio.conf")
	if err := os.WriteFile(path, []byte("preferred_buffersize=999\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Resolver{UserConfigPath: path}.Resolve()
	if cfg.PreferredBufferSize != 1024 {
		t.Fatalf("non-power-of-two value should have been clamped to default, got %d", cfg.PreferredBufferSize)
	}
}

func TestResolveEnvOverridesDefaults(t *testing.T) {
	t.Setenv("JACKASIO_NUMBER_INPUTS", "8")
	cfg := Resolver{}.Resolve()
	if cfg.NumInputs != 8 {
		t.Fatalf("env override: NumInputs = %d, want 8", cfg.NumInputs)
	}
}
