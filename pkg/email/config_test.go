package email_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/pkg/config"
	"github.com/dmitrymomot/mailrelay/pkg/email"
	"github.com/dmitrymomot/mailrelay/pkg/environment"
)

func TestConfig_Modes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*email.Config)
		testMode    bool
		useMailbox  bool
		environment environment.Environment
	}{
		{name: "production relay", mutate: func(*email.Config) {}, environment: environment.Production},
		{name: "no relay host", mutate: func(c *email.Config) { c.Host = "" }, useMailbox: true, environment: environment.Production},
		{name: "test environment", mutate: func(c *email.Config) { c.Environment = "test" }, testMode: true, useMailbox: true, environment: environment.Test},
		{name: "environment alias", mutate: func(c *email.Config) { c.Environment = "prod" }, environment: environment.Production},
		{name: "postmark with token", mutate: func(c *email.Config) {
			c.Host = ""
			c.Provider = email.ProviderPostmark
			c.PostmarkServerToken = "token"
		}, environment: environment.Production},
		{name: "postmark without token", mutate: func(c *email.Config) { c.Provider = email.ProviderPostmark }, useMailbox: true, environment: environment.Production},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig("production")
			tt.mutate(&cfg)
			assert.Equal(t, tt.testMode, cfg.TestMode())
			assert.Equal(t, tt.useMailbox, cfg.UseMailbox())
			assert.Equal(t, tt.environment, cfg.Env())
		})
	}
}

func TestConfig_DefaultFrom(t *testing.T) {
	t.Parallel()

	cfg := testConfig("production")
	assert.Equal(t, "Hope Foundation <noreply@example.org>", cfg.DefaultFrom())

	cfg.AppName = ""
	assert.Equal(t, "noreply@example.org", cfg.DefaultFrom())
}

func TestConfig_AdminRecipient(t *testing.T) {
	t.Parallel()

	cfg := testConfig("production")
	assert.Equal(t, "admin@example.org", cfg.AdminRecipient())

	cfg.AdminEmail = ""
	assert.Equal(t, "support@example.org", cfg.AdminRecipient())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*email.Config)
		errMsg string
	}{
		{name: "no retries", mutate: func(c *email.Config) { c.MaxRetries = 0 }, errMsg: "EMAIL_MAX_RETRIES"},
		{name: "negative delay", mutate: func(c *email.Config) { c.RetryDelay = -time.Second }, errMsg: "EMAIL_RETRY_DELAY"},
		{name: "no sender", mutate: func(c *email.Config) { c.From = "" }, errMsg: "SMTP_FROM"},
		{name: "bad port", mutate: func(c *email.Config) { c.Port = 0 }, errMsg: "SMTP_PORT"},
		{name: "empty pool", mutate: func(c *email.Config) { c.PoolSize = 0 }, errMsg: "SMTP_POOL_SIZE"},
		{name: "unknown provider", mutate: func(c *email.Config) { c.Provider = "sendgrid" }, errMsg: "EMAIL_PROVIDER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig("production")
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("mailbox skips relay settings", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig("development")
		cfg.Host = ""
		cfg.Port = 0
		cfg.PoolSize = 0
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_LoadFromEnvironment(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.org")
	t.Setenv("SMTP_FROM", "noreply@example.org")
	t.Setenv("APP_ENV", "staging")
	t.Setenv("EMAIL_RETRY_DELAY", "250ms")

	var cfg email.Config
	require.NoError(t, config.Parse(&cfg))

	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 5, cfg.PoolSize)
	assert.Equal(t, 100, cfg.MaxMessages)
	assert.Equal(t, time.Second, cfg.RateDelta)
	assert.Equal(t, email.ProviderSMTP, cfg.Provider)
	assert.Equal(t, environment.Staging, cfg.Env())
	assert.NoError(t, cfg.Validate())
}
