// Package config resolves the driver's external configuration: a
// registry-like store at the lowest precedence, environment variables
// above it, and a per-user file at the highest.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/intuitionamiga/jackasio/bridge"
)

const envPrefix = "JACKASIO_"

// Source resolves a bridge.DriverConfig from the layered sources of §6.
// The concrete Resolver below is the only implementation; callers depend
// on this interface so tests can substitute literal configs.
type Source interface {
	Resolve() bridge.DriverConfig
}

// Resolver reads the registry-like TOML store, then env vars, then the
// per-user file, in ascending precedence, and clamps illegal values to
// defaults (logged, never fatal — §6 "Illegal values... are silently
// clamped to defaults and logged").
type Resolver struct {
	// RegistryPath is the fixed-key-path TOML store (lowest precedence);
	// empty means "not present", which is not an error.
	RegistryPath string
	// UserConfigPath is the per-user file (highest precedence); empty
	// means "not present".
	UserConfigPath string
}

// DefaultUserConfigPath mirrors the "fixed path under the user's home
// directory" §6 describes.
func DefaultUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "jackasio", "jackasio.conf")
}

func defaults() bridge.DriverConfig {
	return bridge.DriverConfig{
		NumInputs:           2,
		NumOutputs:          2,
		PreferredBufferSize: 1024,
		ConnectToHardware:   true,
		Format:              bridge.FormatFloat32LE,
	}
}

// Resolve implements Source.
func (r Resolver) Resolve() bridge.DriverConfig {
	k := koanf.New(".")
	cfg := defaults()

	if r.RegistryPath != "" {
		if err := k.Load(file.Provider(r.RegistryPath), toml.Parser()); err != nil {
			logf("registry store %s not loaded: %v", r.RegistryPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMap), nil); err != nil {
		logf("environment provider failed: %v", err)
	}

	if r.UserConfigPath != "" {
		if data, err := os.ReadFile(r.UserConfigPath); err == nil {
			for k2, v := range parseKeyValueLines(string(data)) {
				k.Set(k2, v)
			}
		}
	}

	applyInt(k, "number_inputs", &cfg.NumInputs, 1, 64)
	applyInt(k, "number_outputs", &cfg.NumOutputs, 1, 64)
	applyBool(k, "fixed_buffersize", &cfg.FixedBufferSize)
	applyPow2(k, "preferred_buffersize", &cfg.PreferredBufferSize, 16, 8192)
	applyBool(k, "autostart_server", &cfg.AutostartServer)
	applyBool(k, "connect_to_hardware", &cfg.ConnectToHardware)
	applyBool(k, "high_res_clock", &cfg.HighResClock)
	if name := k.String("client_name"); name != "" {
		cfg.ClientName = name
	}

	return cfg
}

// envKeyMap maps JACKASIO_NUMBER_INPUTS etc. to the koanf dotted keys
// above, matching the *_NUMBER_INPUTS-style names §6 specifies.
func envKeyMap(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ToLower(s)
}

func parseKeyValueLines(data string) map[string]interface{} {
	out := map[string]interface{}{}
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

func applyInt(k *koanf.Koanf, key string, dst *int, min, max int) {
	if !k.Exists(key) {
		return
	}
	v, err := toInt(k.Get(key))
	if err != nil || v < min || v > max {
		logf("config: ignoring out-of-range %s=%v, keeping default %d", key, k.Get(key), *dst)
		return
	}
	*dst = v
}

func applyPow2(k *koanf.Koanf, key string, dst *int, min, max int) {
	if !k.Exists(key) {
		return
	}
	v, err := toInt(k.Get(key))
	if err != nil || v < min || v > max || v&(v-1) != 0 {
		logf("config: ignoring non-power-of-two %s=%v, keeping default %d", key, k.Get(key), *dst)
		return
	}
	*dst = v
}

func applyBool(k *koanf.Koanf, key string, dst *bool) {
	if !k.Exists(key) {
		return
	}
	switch v := k.Get(key).(type) {
	case bool:
		*dst = v
	case string:
		switch strings.ToLower(v) {
		case "on", "true", "1":
			*dst = true
		case "off", "false", "0":
			*dst = false
		default:
			logf("config: ignoring unrecognized boolean %s=%q", key, v)
		}
	}
}

func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		return strconv.Atoi(t)
	default:
		return 0, strconvErr
	}
}

var strconvErr = strconv.ErrSyntax

var logf = defaultLogf
