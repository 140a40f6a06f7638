package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasviinic/flashly-api/pkg/config"
)

type verifierConfig struct {
	PackageName string        `env:"TEST_PLAY_PACKAGE_NAME" envDefault:"com.example.app"`
	Timeout     time.Duration `env:"TEST_PLAY_TIMEOUT" envDefault:"10s"`
}

type requiredConfig struct {
	URL string `env:"TEST_REQUIRED_URL,required"`
}

type cachedConfig struct {
	Value string `env:"TEST_CACHED_VALUE" envDefault:"first"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config.Reset()

		var cfg verifierConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "com.example.app", cfg.PackageName)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_PLAY_PACKAGE_NAME", "com.flashly.app")
		t.Setenv("TEST_PLAY_TIMEOUT", "3s")

		var cfg verifierConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "com.flashly.app", cfg.PackageName)
		assert.Equal(t, 3*time.Second, cfg.Timeout)
	})

	t.Run("missing required value", func(t *testing.T) {
		config.Reset()

		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *verifierConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})

	t.Run("cached per type", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_CACHED_VALUE", "first")

		var first cachedConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("TEST_CACHED_VALUE", "second")
		var second cachedConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Value)

		config.Reset()
		var third cachedConfig
		require.NoError(t, config.Load(&third))
		assert.Equal(t, "second", third.Value)
	})
}

func TestMustLoad(t *testing.T) {
	config.Reset()

	var cfg requiredConfig
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}
