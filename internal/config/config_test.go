package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"HEDGE_NETWORK", "ORACLE_BASE_URL", "ORACLE_API_KEY", "ORACLE_IDENTITY",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "HTTPS_PROXY", "STORAGE_PATH",
	"SQLITE_PATH", "METRICS_ADDR",
}

func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesTestnetDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, NetworkTestnet, cfg.Network)
	assert.Equal(t, Presets[NetworkTestnet].OracleIdentity, cfg.Oracle.Identity)
	require.Len(t, cfg.Currencies, 1)
	assert.Equal(t, "ARS", cfg.Currencies[0].Code)
	assert.Equal(t, SourceYahoo, cfg.Oracle.Source)
	assert.Equal(t, uint32(14), cfg.Oracle.Decimals)
	assert.Equal(t, "leveldb", cfg.Storage.Backend)
	assert.Equal(t, uint32(7), cfg.Schedule.MetricsDays)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
network: mainnet
oracle:
  base_url: https://oracle.example
  requests_per_second: 5
admin: root
storage:
  backend: bolt
  path: /var/lib/hedge.db
watch: [alice, bob]
payroll:
  - user: alice
    amount: "150000000"
    cron: "0 0 10 1 * *"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, SourceHTTP, cfg.Oracle.Source)
	assert.Equal(t, Presets[NetworkMainnet].OracleIdentity, cfg.Oracle.Identity)
	assert.Len(t, cfg.Currencies, 3)
	assert.Equal(t, 5.0, cfg.Oracle.RequestsPerSecond)
	assert.Equal(t, "bolt", cfg.Storage.Backend)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Watch)
	require.Len(t, cfg.Payroll, 1)
	assert.Equal(t, "150000000", cfg.Payroll[0].Amount)
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", `
network = "testnet"

[oracle]
decimals = 2

[[oracle.fixtures]]
currency = "ARS"
age_seconds = 604800
price = "100"

[[oracle.fixtures]]
currency = "ARS"
price = "95"

[[currencies]]
code = "ARS"
asset = "ARS-ASSET"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, SourceManual, cfg.Oracle.Source)
	assert.Equal(t, uint32(2), cfg.Oracle.Decimals)
	require.Len(t, cfg.Oracle.Fixtures, 2)
	assert.Equal(t, uint64(604800), cfg.Oracle.Fixtures[0].AgeSeconds)
	assert.Equal(t, []CurrencyEntry{{Code: "ARS", Asset: "ARS-ASSET"}}, cfg.Currencies)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HEDGE_NETWORK", "mainnet")
	t.Setenv("ORACLE_BASE_URL", "https://env.example")
	t.Setenv("ORACLE_IDENTITY", "CUSTOM")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "1")
	t.Setenv("SQLITE_PATH", "/tmp/a.db")
	t.Setenv("METRICS_ADDR", ":9100")

	path := writeFile(t, "config.yaml", "network: testnet\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, NetworkMainnet, cfg.Network)
	assert.Equal(t, "CUSTOM", cfg.Oracle.Identity)
	assert.Equal(t, SourceHTTP, cfg.Oracle.Source)
	assert.Equal(t, "/tmp/a.db", cfg.Database.SQLitePath)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.True(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "config.yaml", "network: [\n"))
	assert.Error(t, err)
	_, err = Load(writeFile(t, "config.toml", "network = \n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"unknown network", func(c *Config) { c.Network = "devnet" }, "network"},
		{"no currencies", func(c *Config) { c.Currencies = nil }, "currencies"},
		{"blank code", func(c *Config) { c.Currencies = []CurrencyEntry{{Asset: "x"}} }, "currencies[0].code"},
		{"http without url", func(c *Config) { c.Oracle.Source = SourceHTTP }, "base_url"},
		{"unknown source", func(c *Config) { c.Oracle.Source = "carrier-pigeon" }, "oracle.source"},
		{"decimals", func(c *Config) { c.Oracle.Decimals = 39 }, "decimals"},
		{"fixture price", func(c *Config) {
			c.Oracle.Fixtures = []Fixture{{Currency: "ARS", Price: "1.5"}}
		}, "fixtures[0].price"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "tok" }, "telegram"},
		{"payroll amount", func(c *Config) {
			c.Payroll = []PayrollEntry{{User: "a", Cron: "* * * * * *", Amount: "ten"}}
		}, "payroll[0].amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
