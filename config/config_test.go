package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"MAIL_PROVIDER", "RESET_TOKEN_TTL", "MIN_PASSWORD_LENGTH", "RESET_PURGE_SPEC", "ENVIRONMENT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "log", cfg.Mail.Provider)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 1, cfg.Auth.MinPasswordLength)
	assert.Equal(t, "@every 15m", cfg.Scheduler.ResetPurgeSpec)
	assert.Empty(t, cfg.Mail.Archive.Bucket)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RESET_TOKEN_TTL", "30m")
	t.Setenv("MIN_PASSWORD_LENGTH", "8")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 8, cfg.Auth.MinPasswordLength)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "Log provider", mutate: func(c *Config) {}, wantErr: false},
		{name: "Unknown provider", mutate: func(c *Config) { c.Mail.Provider = "pigeon" }, wantErr: true},
		{name: "SMTP without credentials", mutate: func(c *Config) { c.Mail.Provider = "smtp" }, wantErr: true},
		{
			name: "SMTP with credentials",
			mutate: func(c *Config) {
				c.Mail.Provider = "smtp"
				c.Mail.SMTP.Username = "user"
				c.Mail.SMTP.Password = "pass"
			},
			wantErr: false,
		},
		{name: "Default secret in production", mutate: func(c *Config) { c.Server.Environment = "production" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Server: ServerConfig{Environment: "development"},
				JWT:    JWTConfig{Secret: "your-secret-key"},
				Mail:   MailConfig{Provider: "log"},
			}
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDuration_Fallback(t *testing.T) {
	assert.Equal(t, time.Hour, parseDuration("soon", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("-5m", time.Hour))
	assert.Equal(t, 2*time.Minute, parseDuration("2m", time.Hour))
}
