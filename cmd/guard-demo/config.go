package main

import (
	"fmt"
	"strings"
	"time"

	guard "github.com/goliatone/go-route-guard"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Default values for serve command flags.
const (
	defaultAddr       = ":8572"
	defaultLogFormat  = "text"
	defaultSessionTTL = 8 * time.Hour
)

// userRecord is a demo account. PasswordHash is a bcrypt hash, see the
// hash subcommand.
type userRecord struct {
	ID           string `koanf:"id"`
	Username     string `koanf:"username"`
	PasswordHash string `koanf:"password_hash"`
	Role         string `koanf:"role"`
}

// serveConfig holds configuration for the serve command.
type serveConfig struct {
	Addr       string         `koanf:"addr"`
	LogFormat  string         `koanf:"log_format"`
	SigningKey string         `koanf:"signing_key"`
	RedisAddr  string         `koanf:"redis_addr"`
	SessionTTL time.Duration  `koanf:"session_ttl"`
	Users      []userRecord   `koanf:"users"`
	Guard      *guard.Options `koanf:"guard"`
}

func registerServeFlags(flags *pflag.FlagSet) {
	flags.String("addr", defaultAddr, "HTTP listen address")
	flags.String("log-format", defaultLogFormat, "log format (json or text)")
	flags.String("signing-key", "", "HS256 key for session tokens (random when empty)")
	flags.String("redis-addr", "", "store sessions in Redis at this address instead of tokens")
	flags.Duration("session-ttl", defaultSessionTTL, "session lifetime")
}

// loadConfig layers the config file and the command line flags over the
// defaults. Guard options start from GUARD_ environment variables.
func loadConfig(path string, flags *pflag.FlagSet) (*serveConfig, error) {
	opts, err := guard.OptionsFromEnv()
	if err != nil {
		return nil, err
	}

	cfg := &serveConfig{
		Addr:       defaultAddr,
		LogFormat:  defaultLogFormat,
		SessionTTL: defaultSessionTTL,
		Guard:      opts,
	}

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %q: %w", path, err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Guard.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
