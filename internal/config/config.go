// Package config loads server settings from defaults, an optional YAML file,
// a .env file, OTHELLO_* environment variables and command-line flags, in
// that order of precedence (later wins).
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"
)

const EnvPrefix = "OTHELLO_"

type Config struct {
	Addr           string        `mapstructure:"addr" validate:"required,hostname_port"`
	Dev            bool          `mapstructure:"dev"`
	LogLevel       string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" validate:"dive,required"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	PingInterval   time.Duration `mapstructure:"ping_interval" validate:"gt=0,ltfield=ReadTimeout"`
	OutboxLimit    int           `mapstructure:"outbox_limit" validate:"min=1"`
	DatabaseDSN    string        `mapstructure:"database_dsn"`
	RecorderQueue  int           `mapstructure:"recorder_queue" validate:"min=1"`
	ResultsLimit   int           `mapstructure:"results_limit" validate:"min=1,max=500"`
}

func Defaults() map[string]any {
	return map[string]any{
		"addr":            ":8080",
		"dev":             false,
		"log_level":       "info",
		"allowed_origins": "",
		"read_timeout":    "60s",
		"write_timeout":   "5s",
		"ping_interval":   "20s",
		"outbox_limit":    256,
		"database_dsn":    "",
		"recorder_queue":  64,
		"results_limit":   50,
	}
}

type Options struct {
	File      string         // YAML file, optional
	EnvFile   string         // .env file; a missing file is ignored
	Environ   []string       // KEY=VALUE pairs, usually os.Environ()
	Overrides map[string]any // explicitly set flags
}

func Load(opts Options) (Config, error) {
	defaults := Defaults()
	raw := Defaults()

	if opts.File != "" {
		fromFile, err := readYAML(opts.File)
		if err != nil {
			return Config{}, err
		}
		merge(raw, fromFile)
	}

	if opts.EnvFile != "" {
		env, err := godotenv.Read(opts.EnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.EnvFile, err)
		}
		merge(raw, fromEnv(env, defaults))
	}

	env := make(map[string]string, len(opts.Environ))
	for _, kv := range opts.Environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	merge(raw, fromEnv(env, defaults))
	merge(raw, opts.Overrides)

	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	origins := cfg.AllowedOrigins[:0]
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.AllowedOrigins = origins

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.DatabaseDSN != "" {
		if _, err := pgx.ParseConfig(c.DatabaseDSN); err != nil {
			return fmt.Errorf("config: database_dsn: %w", err)
		}
	}
	return nil
}

func readYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return out, nil
}

// fromEnv keeps OTHELLO_* variables that name a known key.
func fromEnv(env map[string]string, known map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range env {
		name, ok := strings.CutPrefix(k, EnvPrefix)
		if !ok {
			continue
		}
		name = strings.ToLower(name)
		if _, ok := known[name]; ok {
			out[name] = v
		}
	}
	return out
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

// FlagOverrides returns the flags that were set on the command line, keyed by
// config name (dashes become underscores).
func FlagOverrides(set *flag.FlagSet, known map[string]any) map[string]any {
	out := map[string]any{}
	set.Visit(func(f *flag.Flag) {
		name := strings.ReplaceAll(f.Name, "-", "_")
		if _, ok := known[name]; ok {
			out[name] = f.Value.String()
		}
	})
	return out
}
