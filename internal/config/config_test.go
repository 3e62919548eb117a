package config

import (
	"os"
	"path/filepath"
	"testing"

	"fleetbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "fleetbook"
database:
  path: "data/test.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, "x-api-extra", cfg.API.Auth.HeaderExtra)
	assert.Equal(t, models.DefaultMaxMailRetries, cfg.Worker.MaxRetries)
	assert.Equal(t, 2, cfg.Worker.InitialDelaySec)
	assert.Equal(t, 60, cfg.Worker.MaxDelaySec)
	assert.Equal(t, 20, cfg.Worker.BatchSize)
	assert.Equal(t, "exports", cfg.Exports.Path)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_SENDGRID_KEY", "sg-secret")
	t.Setenv("TEST_DB_PATH", "data/env.db")

	path := writeConfig(t, `
database:
  path: "${TEST_DB_PATH}"
mail:
  api_key: "${TEST_SENDGRID_KEY}"
  from_email: "noreply@example.com"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/env.db", cfg.Database.Path)
	assert.Equal(t, "sg-secret", cfg.Mail.APIKey)
}

func TestLoadValidation(t *testing.T) {
	// missing database path
	path := writeConfig(t, `
app:
  name: "fleetbook"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database path")

	// mail key without sender address
	path = writeConfig(t, `
database:
  path: "data/test.db"
mail:
  api_key: "sg-key"
`)
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from_email")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadAPIKeys(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "data/test.db"
api:
  auth:
    enabled: true
    api_keys:
      - key: "k1"
        extra: "e1"
        name: "admin"
        permissions: ["*"]
      - key: "k2"
        extra: "e2"
        name: "site"
        permissions: ["write:bookings", "read:vehicles"]
  rate_limit:
    rps: 5
    burst: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.API.Auth.APIKeys, 2)
	assert.True(t, cfg.API.Auth.Enabled)
	assert.Equal(t, []string{"*"}, cfg.API.Auth.APIKeys[0].Permissions)
	assert.Equal(t, 5.0, cfg.API.RateLimit.RPS)
	assert.Equal(t, 10, cfg.API.RateLimit.Burst)
}

func TestValidateFleet(t *testing.T) {
	assert.NoError(t, ValidateFleet([]models.Vehicle{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
	}))

	err := ValidateFleet([]models.Vehicle{{ID: "", Name: "Nameless"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty id")

	err = ValidateFleet([]models.Vehicle{{ID: "a", Name: "A"}, {ID: "a", Name: "A2"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
