package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AttachmentsBolt = "bolt"
	AttachmentsGCS  = "gcs"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"GrantLedger"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"grantledger"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}

	Auth struct {
		// An empty secret disables bearer-token auth.
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
	}

	Import struct {
		MaxUploadMB int64 `envconfig:"IMPORT_MAX_UPLOAD_MB" default:"10"`
		// 1 commits rows strictly one after another.
		Workers   int    `envconfig:"IMPORT_WORKERS" default:"1"`
		RulesPath string `envconfig:"CATEGORY_RULES_PATH"`
	}

	Attachments struct {
		Backend       string        `envconfig:"ATTACHMENTS_BACKEND" default:"bolt"`
		BoltPath      string        `envconfig:"ATTACHMENTS_BOLT_PATH" default:"attachments.db"`
		GCSBucket     string        `envconfig:"ATTACHMENTS_GCS_BUCKET"`
		URLTTL        time.Duration `envconfig:"ATTACHMENTS_URL_TTL" default:"15m"`
		PublicBaseURL string        `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// MaxUploadBytes is the import upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Import.MaxUploadMB << 20
}

func (c *Config) validate() error {
	switch c.Attachments.Backend {
	case AttachmentsBolt:
	case AttachmentsGCS:
		if c.Attachments.GCSBucket == "" {
			return fmt.Errorf("ATTACHMENTS_GCS_BUCKET is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown ATTACHMENTS_BACKEND %q", c.Attachments.Backend)
	}

	if c.Import.Workers < 1 {
		return fmt.Errorf("IMPORT_WORKERS must be at least 1, got %d", c.Import.Workers)
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
