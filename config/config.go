package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration holds the static settings needed to run the service
type Configuration struct {
	Address   string `env:"ADDRESS" envDefault:":8080"` // Listen address
	JwtSecret string `env:"JWT_SECRET,required"`       // HS256 secret shared with the identity service

	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`
	MongoDB_DBName        string `env:"MONGODB_DBNAME,required"`

	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"` // Comma separated, * = all
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"` // Requests per window (0 = disabled)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"` // Used to build absolute links in emails

	// TLS
	EnableTLS   bool   `env:"ENABLE_TLS" envDefault:"false"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	// SMTP transport. When SMTP_HOST is empty the sandbox transport is used.
	SMTP_Host     string `env:"SMTP_HOST"`
	SMTP_Port     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTP_Username string `env:"SMTP_USERNAME"`
	SMTP_Password string `env:"SMTP_PASSWORD"`
	SMTP_From     string `env:"SMTP_FROM" envDefault:"Tamil Language Society <no-reply@tamilsociety.org>"`
	SMTP_FromName string `env:"SMTP_FROM_NAME" envDefault:"Tamil Language Society"`

	MailSandboxDir string `env:"MAIL_SANDBOX_DIR" envDefault:"./tmp/mail"` // Where the dev transport writes .eml files

	// Delivery worker
	MailWorkers            int `env:"MAIL_WORKERS" envDefault:"8"`               // Per-batch recipient pool
	MailMaxInFlight        int `env:"MAIL_MAX_IN_FLIGHT" envDefault:"16"`        // Process-wide concurrent sends
	MailSendTimeoutSeconds int `env:"MAIL_SEND_TIMEOUT_SECONDS" envDefault:"15"` // Per-recipient cap
	DeliveryDeadlineSecs   int `env:"DELIVERY_DEADLINE_SECONDS" envDefault:"600"`

	// Fan-out
	FanOutWorkers int `env:"FANOUT_WORKERS" envDefault:"16"`

	// Redelivery sweeper (0 interval disables it)
	RedeliveryIntervalSeconds int `env:"REDELIVERY_INTERVAL_SECONDS" envDefault:"300"`
	RedeliveryGraceSeconds    int `env:"REDELIVERY_GRACE_SECONDS" envDefault:"900"`
	RedeliveryBatchSize       int `env:"REDELIVERY_BATCH_SIZE" envDefault:"50"`

	UploadDir string `env:"UPLOAD_DIR" envDefault:"./uploads"` // Root of uploaded assets

	UserCacheTTLSeconds int `env:"USER_CACHE_TTL_SECONDS" envDefault:"30"`
}

// MailSendTimeout returns the per-recipient send cap
func (c *Configuration) MailSendTimeout() time.Duration {
	return time.Duration(c.MailSendTimeoutSeconds) * time.Second
}

// DeliveryDeadline returns the overall cap of one detached delivery run
func (c *Configuration) DeliveryDeadline() time.Duration {
	return time.Duration(c.DeliveryDeadlineSecs) * time.Second
}

// getEnvPath returns the env file for GO_ENV, walking up from the working directory to find config/env
func getEnvPath() string {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		// logger is not ready yet
		fmt.Printf("Cannot resolve working directory: %v\n", err)
		return ""
	}

	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", env))
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig loads the env file (if any) then parses the process environment.
// Returns nil when required settings are missing.
func NewConfig() *Configuration {
	if envPath := getEnvPath(); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				fmt.Printf("Cannot load env file %s: %v\n", envPath, err)
				return nil
			}
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Printf("Failed to parse config: %+v\n", err)
		return nil
	}

	return &cfg
}
