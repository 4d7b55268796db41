package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ambis/miniquiz/internal/validate"
)

// EnvPrefix namespaces environment overrides (MINIQUIZ_API_BASE_URL, ...).
const EnvPrefix = "MINIQUIZ"

// Config holds client settings loaded from defaults, config file, .env,
// environment and command-line flags, in increasing priority.
type Config struct {
	APIBaseURL      string        `mapstructure:"api_base_url" validate:"required,http_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	DBPath          string        `mapstructure:"db_path"`
	HistoryPageSize int           `mapstructure:"history_page_size" validate:"gte=1,lte=100"`
	Log             Log           `mapstructure:"log"`
}

// Log configures the zerolog output.
type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `mapstructure:"format" validate:"oneof=pretty json"`
	File   string `mapstructure:"file"` // empty means the default state-dir file
}

// Options tune where Load looks.
type Options struct {
	// ConfigFile is an explicit config path; empty searches the defaults.
	ConfigFile string
	// EnvFiles are dotenv files loaded before reading the environment.
	// Missing files are ignored.
	EnvFiles []string
	// Flags, when set, override file and environment values for any flag
	// the user actually passed.
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"api-url":    "api_base_url",
	"timeout":    "request_timeout",
	"db":         "db_path",
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIBaseURL:      "http://localhost:8080",
		RequestTimeout:  120 * time.Second,
		HistoryPageSize: 20,
		Log: Log{
			Level:  "info",
			Format: "pretty",
		},
	}
}

// Load reads configuration. A missing config file is not an error.
func Load(opts Options) (*Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	def := Default()
	v := viper.New()
	v.SetDefault("api_base_url", def.APIBaseURL)
	v.SetDefault("request_timeout", def.RequestTimeout.String())
	v.SetDefault("db_path", "")
	v.SetDefault("history_page_size", def.HistoryPageSize)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// MINIQUIZ_DB predates db_path and is still honoured.
	_ = v.BindEnv("db_path", EnvPrefix+"_DB_PATH", EnvPrefix+"_DB")

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings are usable.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LogPath returns the log file path, defaulting to
// $XDG_STATE_HOME/miniquiz/miniquiz.log.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "miniquiz", "miniquiz.log"), nil
}

func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "miniquiz"), nil
}
