package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Muniledger"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"muniledger"`
		Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}

	LLM struct {
		APIKey string `envconfig:"GEMINI_API_KEY"`
		Model  string `envconfig:"LLM_MODEL" default:"gemini-2.5-flash"`
	}

	Ingest struct {
		MaxRetries     int           `envconfig:"INGEST_MAX_RETRIES" default:"2"`
		RetrySleep     time.Duration `envconfig:"INGEST_RETRY_SLEEP" default:"2.5s"`
		GoalsThreshold int           `envconfig:"INGEST_GOALS_THRESHOLD" default:"50"`
		StagingEnabled bool          `envconfig:"INGEST_STAGING_ENABLED" default:"true"`
		EventLog       string        `envconfig:"INGEST_EVENT_LOG" default:"ingest_events.jsonl"`
	}

	Storage struct {
		Root           string `envconfig:"STORAGE_ROOT" default:"./data"`
		UploadMaxBytes int64  `envconfig:"UPLOAD_MAX_BYTES" default:"20971520"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// LLMEnabled reports whether model-backed strategies can run.
func (c *Config) LLMEnabled() bool {
	return c.LLM.APIKey != ""
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
