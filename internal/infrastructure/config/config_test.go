package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"OPENAI_API_KEY", "MODEL_NAME", "GOOGLE_CLOUD_PROJECT", "SUBSCRIPTION_ID",
	"TOPIC_NAME", "DATABASE_PATH", "NUM_WORKERS", "LOG_LEVEL",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "", cfg.OpenAIAPIKey)
	assert.Equal(t, DefaultModel, cfg.ModelName)
	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, DefaultTopicName, cfg.TopicName)
	assert.Equal(t, DefaultNumWorkers, cfg.NumWorkers)
	assert.Equal(t, "", cfg.LogLevel)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MODEL_NAME", "gpt-4o-mini")
	t.Setenv("NUM_WORKERS", "3")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.ModelName)
	assert.Equal(t, 3, cfg.NumWorkers)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_API_KEY=from-file\nGOOGLE_CLOUD_PROJECT=file-project\n"), 0o600))

	// godotenv only fills variables that are unset, not ones set to "".
	require.NoError(t, os.Unsetenv("OPENAI_API_KEY"))
	require.NoError(t, os.Unsetenv("GOOGLE_CLOUD_PROJECT"))
	t.Setenv("DATABASE_PATH", "env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("GOOGLE_CLOUD_PROJECT")
	})

	assert.Equal(t, "from-file", cfg.OpenAIAPIKey)
	assert.Equal(t, "file-project", cfg.GoogleCloudProject)
	assert.Equal(t, "env.db", cfg.DatabasePath)
}

func TestLoad_InvalidWorkers(t *testing.T) {
	clearEnv(t)
	t.Setenv("NUM_WORKERS", "many")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidateWatch(t *testing.T) {
	cfg := &Config{NumWorkers: 1}
	assert.Error(t, cfg.ValidateWatch())

	cfg.GoogleCloudProject = "p"
	assert.Error(t, cfg.ValidateWatch())

	cfg.SubscriptionID = "s"
	assert.NoError(t, cfg.ValidateWatch())

	cfg.NumWorkers = 0
	assert.Error(t, cfg.ValidateWatch())
}

func TestTopicPath(t *testing.T) {
	cfg := &Config{GoogleCloudProject: "proj", TopicName: "gmail-topic"}
	assert.Equal(t, "projects/proj/topics/gmail-topic", cfg.TopicPath())

	cfg.TopicName = "projects/other/topics/t"
	assert.Equal(t, "projects/other/topics/t", cfg.TopicPath())
}
