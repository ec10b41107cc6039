package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		CORSOrigins     []string      `yaml:"corsOrigins"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" validate:"oneof=json console"`
	} `yaml:"log"`

	Database struct {
		// memory is for local runs and demos only
		Driver   string `yaml:"driver" validate:"oneof=mysql postgres memory"`
		Host     string `yaml:"host" validate:"required_unless=Driver memory"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name" validate:"required_unless=Driver memory"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName" validate:"required_with=Endpoint"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey              string `yaml:"apiKey"`
		BaseURL             string `yaml:"baseURL"`
		Model               string `yaml:"model"`
		EmbeddingModel      string `yaml:"embeddingModel"`
		EmbeddingDimensions int    `yaml:"embeddingDimensions" validate:"min=0"`
	} `yaml:"openai"`

	Transcription struct {
		// Backend: http (job-based provider) or whisper (openai audio api)
		Backend        string        `yaml:"backend" validate:"oneof=http whisper"`
		BaseURL        string        `yaml:"baseURL" validate:"required_if=Backend http"`
		APIKey         string        `yaml:"apiKey"`
		Model          string        `yaml:"model"`
		RequestTimeout time.Duration `yaml:"requestTimeout"`
	} `yaml:"transcription"`

	Analysis struct {
		PollInterval    time.Duration `yaml:"pollInterval"`
		MaxPolls        int           `yaml:"maxPolls" validate:"min=0"`
		Timeout         time.Duration `yaml:"timeout"`
		RequestTimeout  time.Duration `yaml:"requestTimeout"`
		MaxKeywords     int           `yaml:"maxKeywords" validate:"min=0,max=100"`
		LanguageHint    string        `yaml:"languageHint"`
		FallbackSummary string        `yaml:"fallbackSummary"`
		RelatedLimit    int           `yaml:"relatedLimit" validate:"min=0"`
		RelatedMinScore float64       `yaml:"relatedMinScore" validate:"min=0,max=1"`
		CandidateLimit  int           `yaml:"candidateLimit" validate:"min=0"`
	} `yaml:"analysis"`

	Dispatcher struct {
		Interval      time.Duration `yaml:"interval"`
		BatchSize     int           `yaml:"batchSize" validate:"min=0"`
		Burst         int           `yaml:"burst" validate:"min=0"`
		Concurrency   int           `yaml:"concurrency" validate:"min=0"`
		RatePerSecond float64       `yaml:"ratePerSecond" validate:"min=0"`
		QueueSize     int           `yaml:"queueSize" validate:"min=0"`
		StaleAfter    time.Duration `yaml:"staleAfter"`
	} `yaml:"dispatcher"`

	Breaker struct {
		MaxRequests  uint32        `yaml:"maxRequests"`
		Interval     time.Duration `yaml:"interval"`
		Timeout      time.Duration `yaml:"timeout"`
		MinRequests  uint32        `yaml:"minRequests"`
		FailureRatio float64       `yaml:"failureRatio" validate:"min=0,max=1"`
	} `yaml:"breaker"`

	Auth struct {
		// APIKeys maps user id -> api key
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Requests int           `yaml:"requests" validate:"min=0"`
		Window   time.Duration `yaml:"window"`
	} `yaml:"rateLimit"`
}

// Load baca file config.yaml, lalu env override + default + validasi
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// secrets biasanya dari env, bukan file
func (c *Config) applyEnv() {
	setIf := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setIf(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setIf(&c.Transcription.APIKey, "TRANSCRIPTION_API_KEY")
	setIf(&c.Database.Password, "DATABASE_PASSWORD")
	setIf(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setIf(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 20 * time.Second
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "mysql":
			c.Database.Port = 3306
		case "postgres":
			c.Database.Port = 5432
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = "http"
	}
	if c.Transcription.RequestTimeout == 0 {
		c.Transcription.RequestTimeout = 30 * time.Second
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 100
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
}

var validate = validator.New()

// Validate checks struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.Database.Driver {
	case "postgres":
		return c.PostgresDSN()
	case "mysql":
		return c.MySQLDSN()
	}
	return ""
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (lib/pq)
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
