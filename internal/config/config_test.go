package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                "8390",
		JWTSecret:           "a-very-long-secret-used-only-in-tests-000",
		DBDriver:            "sqlite",
		Env:                 "test",
		ContentKey:          defaultContentKey,
		PostCooldownSeconds: 60,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Port = "" }, wantErr: "PORT is required"},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, wantErr: "unsupported DB_DRIVER"},
		{name: "negative cooldown", mutate: func(c *Config) { c.PostCooldownSeconds = -1 }, wantErr: "POST_COOLDOWN_SECONDS"},
		{name: "short content key", mutate: func(c *Config) { c.ContentKey = "abcd" }, wantErr: "must be 32 bytes"},
		{name: "non hex content key", mutate: func(c *Config) { c.ContentKey = "zz" }, wantErr: "must be hex"},
		{
			name: "production rejects default secret",
			mutate: func(c *Config) {
				c.Env = "production"
				c.JWTSecret = defaultJWTSecret
			},
			wantErr: "JWT_SECRET must be changed",
		},
		{
			name: "production rejects default content key",
			mutate: func(c *Config) {
				c.Env = "production"
			},
			wantErr: "CONTENT_ENCRYPTION_KEY must be changed",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("POST_COOLDOWN_SECONDS", "5")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5, cfg.PostCooldownSeconds)
	assert.Equal(t, "5s", cfg.PostCooldown().String())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokerList())
}
