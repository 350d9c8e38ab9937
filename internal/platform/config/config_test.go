package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLayersFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leavestride.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr = ":9000"
store_driver = "mongo"
mongo_uri = "mongodb://file"
rate_limit_requests = 42
kafka_brokers = ["k1:9092", "k2:9092"]
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MONGO_URI", "mongodb://env")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, "mongodb://env", cfg.MongoURI)
	assert.Equal(t, 42, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}

func TestGetEnvListTrimsEmptyEntries(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvList("CORS_ALLOWED_ORIGINS", nil))
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.StoreDriver = "memory"

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "memory defaults", mutate: func(c *Config) {}},
		{name: "postgres without dsn", mutate: func(c *Config) { c.StoreDriver = "postgres" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "sqlite" }, wantErr: true},
		{name: "redis lock without url", mutate: func(c *Config) { c.LockDriver = "redis" }, wantErr: true},
		{name: "production default secret", mutate: func(c *Config) {
			c.Environment = "production"
			c.StoreDriver = "postgres"
			c.DatabaseURL = "postgres://x"
		}, wantErr: true},
		{name: "memory in production", mutate: func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "a-long-secret"
		}, wantErr: true},
		{name: "bad recredit policy", mutate: func(c *Config) { c.LeaveRecreditPolicy = "always" }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.LeaveTimezone = "Mars/Olympus" }, wantErr: true},
		{name: "email without host", mutate: func(c *Config) { c.EmailEnabled = true }, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
