package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.Equal(t, 0.995, Default().Engine.CoolingRate)
	assert.Equal(t, 5, Default().Engine.DefaultDwellMinutes)
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "courier.yaml")
	body := `
http:
  addr: ":9090"
  rate_rps: 3
engine:
  max_iterations: 250
  textbook: true
routing:
  timeout: 3s
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 3.0, cfg.HTTP.RateRPS)
	assert.Equal(t, 40, cfg.HTTP.RateBurst)
	assert.Equal(t, 250, cfg.Engine.MaxIterations)
	assert.True(t, cfg.Engine.Textbook)
	assert.Equal(t, 100.0, cfg.Engine.Temperature)
	assert.Equal(t, 3*time.Second, cfg.Routing.Timeout)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  speed_kmh: 30\n"), 0o600))
	t.Setenv("ENGINE_SPEED_KMH", "25")
	t.Setenv("PORT", "7070")
	t.Setenv("ENGINE_TEXTBOOK", "true")
	t.Setenv("ENGINE_MAX_COURIERS", "12")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Engine.MaxCouriers)
	assert.Equal(t, 25.0, cfg.Engine.SpeedKmh)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.True(t, cfg.Engine.Textbook)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WEBHOOK_SECRET=shh\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("WEBHOOK_SECRET") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "shh", cfg.Webhooks.Secret)
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [1,2"), 0o600))
	_, err = Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("RATE_BURST", "lots")
	_, err = Load("")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"speed":    func(c *Config) { c.Engine.SpeedKmh = 0 },
		"cooling":  func(c *Config) { c.Engine.CoolingRate = 1 },
		"temp":     func(c *Config) { c.Engine.Temperature = -1 },
		"dwell":    func(c *Config) { c.Engine.DefaultDwellMinutes = -5 },
		"couriers": func(c *Config) { c.Engine.MaxCouriers = 0 },
		"attempts": func(c *Config) { c.Routing.MaxAttempts = 0 },
		"addr":     func(c *Config) { c.HTTP.Addr = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(&c)
			require.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}
