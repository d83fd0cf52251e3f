// Package config loads the courseodds configuration.
//
// Layers, lowest priority first: built-in defaults, courseodds.json5 (searched
// upward from the working directory, or an explicit path),
// courseodds.local.json5, a .env file, then COURSEODDS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"courseodds/internal/components/telemetry"
	"courseodds/lib/configutil"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	FileName        = "courseodds.json5"
	EnvPrefix       = "COURSEODDS"
	DefaultBaseUrl  = "https://querycourse.ntust.edu.tw/querycourse/api"
	DefaultLanguage = "zh"
	DefaultTimeout  = 30 * time.Second
	DefaultLogLevel = "warn"
	ServiceName     = "courseodds"
)

// Duration is a time.Duration that decodes from strings like "30s" in json5
// files and environment variables.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) >= 2 && (data[0] == '"' || data[0] == '\'') {
		return d.Decode(string(data[1 : len(data)-1]))
	}
	return d.Decode(string(data))
}

// Decode implements envconfig.Decoder.
func (d *Duration) Decode(value string) error {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

type LogConfig struct {
	Level  string `json:"level" envconfig:"LEVEL" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Pretty *bool  `json:"pretty" envconfig:"PRETTY"`
}

type Config struct {
	BaseUrl          string           `json:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	Language         string           `json:"language" envconfig:"LANGUAGE" validate:"required,oneof=zh en"`
	Timeout          Duration         `json:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
	MaxConcurrency   int              `json:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"gte=0"`
	CloudflareBypass bool             `json:"cloudflare_bypass" envconfig:"CLOUDFLARE_BYPASS"`
	UserAgent        string           `json:"user_agent" envconfig:"USER_AGENT"`
	Pause            *bool            `json:"pause" envconfig:"PAUSE"`
	Log              LogConfig        `json:"log" envconfig:"LOG"`
	Telemetry        telemetry.Config `json:"telemetry" ignored:"true"`
}

func boolPtr(b bool) *bool {
	return &b
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		BaseUrl:  DefaultBaseUrl,
		Language: DefaultLanguage,
		Timeout:  Duration(DefaultTimeout),
		Pause:    boolPtr(true),
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Pretty: boolPtr(true),
		},
	}
}

// ShouldPause reports whether the CLI waits for Enter before exiting.
func (c Config) ShouldPause() bool {
	return c.Pause == nil || *c.Pause
}

// TelemetryLog converts the log section into the telemetry logger config.
func (c Config) TelemetryLog() telemetry.LogConfig {
	return telemetry.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty == nil || *c.Log.Pretty,
	}
}

type Options struct {
	// Path is an explicit config file, it must exist when set.
	Path string
	// SearchFrom is where the upward search for FileName starts, defaults to the working directory.
	SearchFrom string
	// EnvFile is loaded with godotenv if it exists, defaults to ".env".
	EnvFile string
}

// Load reads every configuration layer and validates the result.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.Path != "" {
		_, err := configutil.ReadConfig(opts.Path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", opts.Path, err)
		}
	} else {
		start := opts.SearchFrom
		if start == "" {
			start = "."
		}
		_, err := configutil.ReadRecursively(start, FileName, &cfg)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load %s: %w", envFile, err)
	}

	err = envconfig.Process(EnvPrefix, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}

	err = Validate(cfg)
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
