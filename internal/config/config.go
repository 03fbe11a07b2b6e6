// Package config loads the daemon configuration shared by cmd/rpcbind,
// cmd/mountd, and cmd/nfsstub: listen addresses, the static MOUNT export
// list, and optional RPCBIND self-registrations. It follows the teacher's
// layered-source pattern (pkg/config/config.go): environment variables
// override a YAML config file, which overrides built-in defaults, all
// unmarshaled through viper + mapstructure and checked with
// go-playground/validator/v10 before being handed back to callers.
package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/marmos91/onc-rpc/internal/bytesize"
)

// Export describes one statically configured MOUNT export.
type Export struct {
	Dirpath string   `mapstructure:"dirpath" validate:"required,startswith=/"`
	Groups  []string `mapstructure:"groups"`
}

// Registration describes one RPCBIND registration entry in the
// configuration. It is loaded and validated only; see Config.Registrations.
type Registration struct {
	Program uint32 `mapstructure:"program" validate:"required"`
	Version uint32 `mapstructure:"version" validate:"required"`
	Netid   string `mapstructure:"netid" validate:"required"`
	Owner   string `mapstructure:"owner"`
}

// Config is the configuration shape every cmd/* daemon loads.
type Config struct {
	// RpcbindAddr is the address this daemon's RPCBIND client dials to
	// register or look up services. Empty disables registration.
	RpcbindAddr string `mapstructure:"rpcbind_addr"`

	// ListenAddr is the address the daemon's own Service binds to.
	ListenAddr string `mapstructure:"listen_addr" validate:"required"`

	// Exports is MOUNT's static export list. Only meaningful for cmd/mountd.
	Exports []Export `mapstructure:"exports"`

	// Registrations lists RPCBIND entries from the configuration. They are
	// validated but no cmd/* daemon SETs them: mountd and nfsstub register
	// only their own program and version when RpcbindAddr is set.
	Registrations []Registration `mapstructure:"registrations"`

	// LogLevel controls internal/logger's verbosity: one of debug, info,
	// warn, error.
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// MaxMessageSize caps the per-request payload internal/rpcserver will
	// read off the wire for this daemon, in human-readable form ("64KB",
	// "1MB"). Zero (the default) falls back to wire.MaxFragmentLength.
	MaxMessageSize bytesize.ByteSize `mapstructure:"max_message_size"`
}

// defaultConfig returns the configuration used when no file or environment
// override is present.
func defaultConfig() *Config {
	return &Config{
		ListenAddr: "0.0.0.0:0",
		LogLevel:   "info",
	}
}

// byteSizeDecodeHook lets config files and environment variables spell
// MaxMessageSize as a human-readable string ("64KB") or a plain number,
// the same convenience the teacher's pkg/config offers for cache sizes.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// envPrefix is the environment variable prefix every cmd/* daemon shares,
// e.g. ONCRPC_LISTEN_ADDR.
const envPrefix = "ONCRPC"

// Load reads configuration from configPath (when non-empty), layering
// ONCRPC_*-prefixed environment variables over it, and falling back to
// defaultConfig for anything left unset. The result is validated before
// being returned.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := defaultConfig()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(cfg, viper.DecodeHook(byteSizeDecodeHook())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return cfg, nil
}

// Validate checks cfg's struct tags with go-playground/validator and
// returns a readable error describing every violation found, rather than
// just the first.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		msgs := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
