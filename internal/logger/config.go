package logger

import (
	"os"
	"strings"

	"github.com/caarlos0/env"
)

// LogConfig holds the logging settings
type LogConfig struct {
	// trace, debug, info, warn, error, fatal
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// json, text
	Format string `env:"LOG_FORMAT" envDefault:"text"`

	// file, stdout, both
	Output string `env:"LOG_OUTPUT" envDefault:"stdout"`

	// Rotation
	MaxSize    int  `env:"LOG_MAX_SIZE" envDefault:"100"` // MB
	MaxBackups int  `env:"LOG_MAX_BACKUPS" envDefault:"7"`
	MaxAge     int  `env:"LOG_MAX_AGE" envDefault:"7"` // days
	Compress   bool `env:"LOG_COMPRESS" envDefault:"true"`

	LogPath   string `env:"LOG_PATH" envDefault:"./logs"`
	AppFile   string `env:"LOG_APP_FILE" envDefault:"app.log"`
	AuditFile string `env:"LOG_AUDIT_FILE" envDefault:"audit.log"`
	ErrorFile string `env:"LOG_ERROR_FILE" envDefault:"error.log"`

	// Comma separated allow lists, empty or * = everything
	FilterModules  string `env:"LOG_FILTER_MODULES"`
	FilterLogTypes string `env:"LOG_FILTER_TYPES"`
}

// DefaultConfig reads the logging settings from the environment.
// Development defaults to debug/text, everything else to info/json unless overridden.
func DefaultConfig() *LogConfig {
	cfg := &LogConfig{}
	if err := env.Parse(cfg); err != nil {
		cfg = &LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   true,
			LogPath:    "./logs",
			AppFile:    "app.log",
			AuditFile:  "audit.log",
			ErrorFile:  "error.log",
		}
	}

	goEnv := os.Getenv("GO_ENV")
	if os.Getenv("LOG_LEVEL") == "" {
		if goEnv == "" || goEnv == "development" {
			cfg.Level = "debug"
		}
	}
	if os.Getenv("LOG_FORMAT") == "" && goEnv == "production" {
		cfg.Format = "json"
	}

	cfg.Level = strings.ToLower(cfg.Level)
	cfg.Format = strings.ToLower(cfg.Format)
	cfg.Output = strings.ToLower(cfg.Output)
	return cfg
}
