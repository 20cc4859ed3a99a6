package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/pkg/config"
)

type cachedConfig struct {
	Value string `env:"MAILRELAY_TEST_CACHED" envDefault:"default"`
}

type parsedConfig struct {
	Host    string        `env:"MAILRELAY_TEST_HOST"`
	Port    int           `env:"MAILRELAY_TEST_PORT" envDefault:"587"`
	Delay   time.Duration `env:"MAILRELAY_TEST_DELAY" envDefault:"5s"`
	Enabled bool          `env:"MAILRELAY_TEST_ENABLED" envDefault:"true"`
}

type requiredConfig struct {
	Required string `env:"MAILRELAY_TEST_REQUIRED,required"`
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("MAILRELAY_TEST_CACHED", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "first", first.Value)

	t.Setenv("MAILRELAY_TEST_CACHED", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *parsedConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoad_RequiredMissing(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestParse(t *testing.T) {
	t.Setenv("MAILRELAY_TEST_HOST", "smtp.example.com")
	t.Setenv("MAILRELAY_TEST_DELAY", "250ms")

	var cfg parsedConfig
	require.NoError(t, config.Parse(&cfg))
	assert.Equal(t, "smtp.example.com", cfg.Host)
	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Delay)
	assert.True(t, cfg.Enabled)
}

func TestMustLoad_Panics(t *testing.T) {
	type mustConfig struct {
		Required string `env:"MAILRELAY_TEST_MUST,required"`
	}

	assert.Panics(t, func() {
		var cfg mustConfig
		config.MustLoad(&cfg)
	})
}
