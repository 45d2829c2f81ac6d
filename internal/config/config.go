package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

type DatabaseType string

const (
	JSON   DatabaseType = "json"
	SQLite DatabaseType = "sqlite"
)

const defaultEnvFile = ".env"

type Config struct {
	// Localization is the requested location key, empty means home
	Localization       string        `env:"LOCALIZATION"`
	Port               string        `env:"PORT" envDefault:"3000"`
	DatabaseType       DatabaseType  `env:"DATABASE_TYPE" envDefault:"json"`
	StorePath          string        `env:"STORE_PATH" envDefault:"data/locations.json"`
	SQLitePath         string        `env:"SQLITE_PATH" envDefault:"data/whereiam.db"`
	GeneratorProvider  string        `env:"GENERATOR_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIModel        string        `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	GeminiAPIKey       string        `env:"GEMINI_API_KEY"`
	GeminiModel        string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	HomeName           string        `env:"HOME_NAME" envDefault:"Rouen, France"`
	GenerationCacheTTL time.Duration `env:"GENERATION_CACHE_TTL" envDefault:"12h"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	EnvFile            string        `env:"ENV_FILE" envDefault:".env"`
	AuthorURL          string        `env:"AUTHOR_URL" envDefault:"https://prdhugo.fr"`
	RepoURL            string        `env:"REPO_URL" envDefault:"https://github.com/HugoPerard/whereiam"`

	// Admin API, disabled while JWTSecret is empty
	Username  string `env:"LOGIN_USERNAME"`
	Password  string `env:"LOGIN_PASSWORD"`
	JWTSecret string `env:"JWT_SECRET_KEY"`

	// LOCALIZATION as set in the process before the env file was loaded
	processLocalization string
}

// LoadConfig reads the optional env file, then parses the environment.
// Variables already set in the process win over the file.
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = defaultEnvFile
	}
	processLocalization := os.Getenv(localizationKey)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	config := Config{processLocalization: strings.TrimSpace(processLocalization)}
	if err := ParseEnv(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the values that have a fixed set of choices
func (c *Config) Validate() error {
	c.Localization = strings.TrimSpace(c.Localization)

	switch c.DatabaseType {
	case JSON:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is required when DATABASE_TYPE is %s", JSON)
		}
	case SQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DATABASE_TYPE is %s", SQLite)
		}
	default:
		return fmt.Errorf("unsupported DATABASE_TYPE: %s", c.DatabaseType)
	}

	switch c.GeneratorProvider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported GENERATOR_PROVIDER: %s", c.GeneratorProvider)
	}

	if c.GenerationCacheTTL <= 0 {
		return fmt.Errorf("GENERATION_CACHE_TTL must be positive, got %s", c.GenerationCacheTTL)
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if c.JWTSecret != "" && (c.Username == "" || c.Password == "") {
		return fmt.Errorf("LOGIN_USERNAME or LOGIN_PASSWORD is not set while JWT_SECRET_KEY is")
	}

	return nil
}

// RequestedKey returns the configured location key, nil for home
func (c *Config) RequestedKey() *string {
	if c.Localization == "" {
		return nil
	}
	key := c.Localization
	return &key
}

// LocalizationFallback is the key used when the env file does not set
// LOCALIZATION. Only a value from the process environment counts, a value
// that came from the env file itself goes away with it.
func (c *Config) LocalizationFallback() string {
	return c.processLocalization
}

// AdminEnabled reports whether the admin API is configured
func (c *Config) AdminEnabled() bool {
	return c.JWTSecret != ""
}

// JWTKey returns the signing key of admin tokens
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

// GeneratorAPIKey returns the credentials of the selected provider
func (c *Config) GeneratorAPIKey() string {
	if c.GeneratorProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}
