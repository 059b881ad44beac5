package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INSTANCE_CONNECTION_NAME", "")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ERRAND_ID_PREFIX", "meg")
	t.Setenv("OPS_WHATSAPP_TO", "")
	t.Setenv("REDIS_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "MEG", cfg.Errands.IDPrefix)
	assert.Equal(t, 8, cfg.Errands.IDMaxAttempts)
	assert.Equal(t, time.UTC, cfg.Errands.Location)
	assert.Equal(t, "Errand Log", cfg.Sheet.Name)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Jobs.DailySummaryOn)
}

func TestLoad_ResolvesRegionalTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Africa/Johannesburg")
	t.Setenv("OPS_WHATSAPP_TO", "+27820000000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Africa/Johannesburg", cfg.Errands.Location.String())
	assert.True(t, cfg.Jobs.DailySummaryOn)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown timezone", func(c *Config) { c.Errands.Timezone = "Mars/Olympus" }},
		{"zero id attempts", func(c *Config) { c.Errands.IDMaxAttempts = 0 }},
		{"summary hour out of range", func(c *Config) { c.Jobs.DailySummaryHour = 24 }},
		{"missing sheet name", func(c *Config) { c.Sheet.Name = "" }},
		{"production without twilio token", func(c *Config) {
			c.Server.Environment = "production"
			c.Twilio.AuthToken = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Name: "errands", Host: "db", Port: "5433"}
	assert.Equal(t, "host=db user=u password=p dbname=errands port=5433 sslmode=disable", d.DSN())

	d.InstanceConnectionName = "proj:region:inst"
	assert.Contains(t, d.DSN(), "host=/cloudsql/proj:region:inst")
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080", Environment: "development"},
		Sheet:   SheetConfig{Name: "Errand Log"},
		Errands: ErrandConfig{IDPrefix: "MEG", IDMaxAttempts: 3, Timezone: "UTC"},
		Jobs:    JobsConfig{DailySummaryHour: 20},
	}
}
