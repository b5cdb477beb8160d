package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is archivum.yaml. Every field can be overridden from the
// environment; the LLM API key and database passwords normally come from
// there rather than the file.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	LLM        LLMConfig        `yaml:"llm"`
	Server     ServerConfig     `yaml:"server"`
	Lock       LockConfig       `yaml:"lock"`
	Neo4j      Neo4jConfig      `yaml:"neo4j"`
	Layout     LayoutConfig     `yaml:"layout"`
	Log        LogConfig        `yaml:"log"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
}

type DatabaseConfig struct {
	// DSN is postgres://... or sqlite://path.
	DSN string `yaml:"dsn" env:"ARCHIVUM_DATABASE_DSN" env-default:"sqlite://archivum.db"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider" env:"ARCHIVUM_LLM_PROVIDER" env-default:"anthropic"`
	Model       string        `yaml:"model" env:"ARCHIVUM_LLM_MODEL" env-default:"claude-3-5-sonnet-latest"`
	BaseURL     string        `yaml:"base_url" env:"ARCHIVUM_LLM_BASE_URL" env-default:""`
	APIKey      string        `yaml:"api_key" env:"ARCHIVUM_LLM_API_KEY" env-default:""`
	AllowNoKey  bool          `yaml:"allow_no_key" env:"ARCHIVUM_LLM_ALLOW_NO_KEY" env-default:"false"`
	MaxTokens   int           `yaml:"max_tokens" env:"ARCHIVUM_LLM_MAX_TOKENS" env-default:"4096"`
	Temperature float64       `yaml:"temperature" env:"ARCHIVUM_LLM_TEMPERATURE" env-default:"0"`
	Timeout     time.Duration `yaml:"timeout" env:"ARCHIVUM_LLM_TIMEOUT" env-default:"2m"`
}

// IsAvailable reports whether extraction can be attempted at all. A blank
// key is only acceptable for OpenAI-compatible endpoints that opt in with
// allow_no_key (local model servers).
func (c *LLMConfig) IsAvailable() bool {
	if strings.TrimSpace(c.APIKey) != "" {
		return true
	}
	return c.AllowNoKey && c.Provider == ProviderOpenAI && c.BaseURL != ""
}

// APIKeyValue satisfies extract.CredentialSource.
func (c *LLMConfig) APIKeyValue() (string, bool) {
	if !c.IsAvailable() {
		return "", false
	}
	return strings.TrimSpace(c.APIKey), true
}

type ServerConfig struct {
	Addr         string        `yaml:"addr" env:"ARCHIVUM_SERVER_ADDR" env-default:"127.0.0.1:8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"ARCHIVUM_SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"ARCHIVUM_SERVER_WRITE_TIMEOUT" env-default:"3m"`
}

type LockConfig struct {
	Backend   string        `yaml:"backend" env:"ARCHIVUM_LOCK_BACKEND" env-default:"memory"`
	RedisAddr string        `yaml:"redis_addr" env:"ARCHIVUM_REDIS_ADDR" env-default:"localhost:6379"`
	TTL       time.Duration `yaml:"ttl" env:"ARCHIVUM_LOCK_TTL" env-default:"2m"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri" env:"NEO4J_URI" env-default:""`
	Username string `yaml:"username" env:"NEO4J_USERNAME" env-default:"neo4j"`
	Password string `yaml:"password" env:"NEO4J_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"NEO4J_DATABASE" env-default:"neo4j"`
}

// Enabled reports whether a Neo4j mirror is configured.
func (c *Neo4jConfig) Enabled() bool {
	return strings.TrimSpace(c.URI) != ""
}

type LayoutConfig struct {
	Width      float64       `yaml:"width" env:"ARCHIVUM_LAYOUT_WIDTH" env-default:"800"`
	Height     float64       `yaml:"height" env:"ARCHIVUM_LAYOUT_HEIGHT" env-default:"600"`
	Margin     float64       `yaml:"margin" env:"ARCHIVUM_LAYOUT_MARGIN" env-default:"40"`
	Repulsion  float64       `yaml:"repulsion" env:"ARCHIVUM_LAYOUT_REPULSION" env-default:"5000"`
	Attraction float64       `yaml:"attraction" env:"ARCHIVUM_LAYOUT_ATTRACTION" env-default:"0.01"`
	Gravity    float64       `yaml:"gravity" env:"ARCHIVUM_LAYOUT_GRAVITY" env-default:"0.005"`
	Damping    float64       `yaml:"damping" env:"ARCHIVUM_LAYOUT_DAMPING" env-default:"0.9"`
	Tick       time.Duration `yaml:"tick" env:"ARCHIVUM_LAYOUT_TICK" env-default:"50ms"`
	Duration   time.Duration `yaml:"duration" env:"ARCHIVUM_LAYOUT_DURATION" env-default:"3s"`
	// StopRule is "duration" or "energy".
	StopRule   string  `yaml:"stop_rule" env:"ARCHIVUM_LAYOUT_STOP_RULE" env-default:"duration"`
	Epsilon    float64 `yaml:"epsilon" env:"ARCHIVUM_LAYOUT_EPSILON" env-default:"0.5"`
	QuietTicks int     `yaml:"quiet_ticks" env:"ARCHIVUM_LAYOUT_QUIET_TICKS" env-default:"10"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"ARCHIVUM_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"ARCHIVUM_LOG_FORMAT" env-default:"console"`
}

type VocabularyConfig struct {
	Path string `yaml:"path" env:"ARCHIVUM_VOCABULARY" env-default:""`
}

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	LockMemory = "memory"
	LockRedis  = "redis"

	StopDuration = "duration"
	StopEnergy   = "energy"
)

// Load reads path with environment overrides. A missing file is not an
// error: defaults plus environment are used instead.
func Load(path string) (*Config, error) {
	var cfg Config

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	case errors.Is(statErr, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("loading config from environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("loading config: %w", statErr)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	dsn := strings.TrimSpace(c.Database.DSN)
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") && !strings.HasPrefix(dsn, "sqlite://") {
		return fmt.Errorf("database dsn must start with postgres:// or sqlite://")
	}

	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported llm provider: %q", c.LLM.Provider)
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return fmt.Errorf("llm model is required")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max_tokens must be positive")
	}

	switch c.Lock.Backend {
	case LockMemory:
	case LockRedis:
		if strings.TrimSpace(c.Lock.RedisAddr) == "" {
			return fmt.Errorf("lock redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported lock backend: %q", c.Lock.Backend)
	}

	l := c.Layout
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("layout width and height must be positive")
	}
	if l.Margin < 0 || 2*l.Margin >= l.Width || 2*l.Margin >= l.Height {
		return fmt.Errorf("layout margin %.0f does not fit a %.0fx%.0f canvas", l.Margin, l.Width, l.Height)
	}
	if l.Tick <= 0 || l.Duration <= 0 {
		return fmt.Errorf("layout tick and duration must be positive")
	}
	switch l.StopRule {
	case StopDuration, StopEnergy:
	default:
		return fmt.Errorf("unsupported layout stop_rule: %q", l.StopRule)
	}

	return nil
}

// IsPostgres reports whether the configured database is PostgreSQL.
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.DSN, "postgres://") || strings.HasPrefix(c.DSN, "postgresql://")
}
