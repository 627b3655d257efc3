package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultModel        = "gpt-3.5-turbo"
	DefaultDatabasePath = "gmail-archive.db"
	DefaultTopicName    = "gmail-topic"
	DefaultNumWorkers   = 1
)

type Config struct {
	// OpenAI
	OpenAIAPIKey string
	ModelName    string

	// Google Cloud, used by the watch command
	GoogleCloudProject string
	SubscriptionID     string
	TopicName          string

	// Database
	DatabasePath string

	// App settings
	NumWorkers int
	LogLevel   string
}

// Load reads the given .env files (".env" when none are given) without
// overriding variables already set, then builds the configuration from the
// environment. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug("No .env file found, using environment variables", slog.Any("error", err))
	}

	numWorkers, err := getEnvInt("NUM_WORKERS", DefaultNumWorkers)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		ModelName:          getEnv("MODEL_NAME", DefaultModel),
		GoogleCloudProject: getEnv("GOOGLE_CLOUD_PROJECT", ""),
		SubscriptionID:     getEnv("SUBSCRIPTION_ID", ""),
		TopicName:          getEnv("TOPIC_NAME", DefaultTopicName),
		DatabasePath:       getEnv("DATABASE_PATH", DefaultDatabasePath),
		NumWorkers:         numWorkers,
		LogLevel:           getEnv("LOG_LEVEL", ""),
	}

	return cfg, nil
}

// ValidateWatch checks the settings the watch command needs.
func (c *Config) ValidateWatch() error {
	if c.GoogleCloudProject == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
	}
	if c.SubscriptionID == "" {
		return fmt.Errorf("SUBSCRIPTION_ID is required")
	}
	if c.NumWorkers < 1 {
		return fmt.Errorf("NUM_WORKERS must be at least 1, got %d", c.NumWorkers)
	}
	return nil
}

// TopicPath returns the fully qualified Pub/Sub topic name. A TopicName that
// is already qualified is returned as is.
func (c *Config) TopicPath() string {
	if strings.HasPrefix(c.TopicName, "projects/") {
		return c.TopicName
	}
	return fmt.Sprintf("projects/%s/topics/%s", c.GoogleCloudProject, c.TopicName)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
