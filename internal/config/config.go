package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"SalaryHedge/internal/model"
)

// Oracle sources.
const (
	SourceHTTP   = "http"
	SourceYahoo  = "yahoo"
	SourceManual = "manual"
)

// Networks with a built-in oracle identity and currency allow-list.
const (
	NetworkTestnet = "testnet"
	NetworkMainnet = "mainnet"
)

// CurrencyEntry binds a currency code to the oracle asset pricing it. An
// empty asset means the code itself.
type CurrencyEntry struct {
	Code  string `yaml:"code" toml:"code"`
	Asset string `yaml:"asset" toml:"asset"`
}

// Fixture is one price served by the offline oracle. When Timestamp is 0
// the observation is placed AgeSeconds before start-up.
type Fixture struct {
	Currency   string `yaml:"currency" toml:"currency"`
	Timestamp  uint64 `yaml:"timestamp" toml:"timestamp"`
	AgeSeconds uint64 `yaml:"age_seconds" toml:"age_seconds"`
	Price      string `yaml:"price" toml:"price"`
}

// PayrollEntry schedules ProcessSalary for a user.
type PayrollEntry struct {
	User   string `yaml:"user" toml:"user"`
	Amount string `yaml:"amount" toml:"amount"`
	Cron   string `yaml:"cron" toml:"cron"`
}

// Preset is the deployment-specific part of the configuration.
type Preset struct {
	OracleIdentity string
	Currencies     []CurrencyEntry
}

// Presets holds the known deployments. Only ARS is priced on testnet.
var Presets = map[string]Preset{
	NetworkTestnet: {
		OracleIdentity: "CCSSOHTBL3LEWUCBBEB5NJFC2OKFRC74OWEIJIZLRJBGAAU4VMU5N4W",
		Currencies: []CurrencyEntry{
			{Code: "ARS", Asset: "CCRPYMVKZLWGZHEDZ23FOE22E3T3HOCNP5Y2EFZFVRUVIXU5NJ7UNGV2"},
		},
	},
	NetworkMainnet: {
		OracleIdentity: "CALI2BYU2JE6WVRUFYTS6MSBNEHGJ35P4AVCZYF3B6QOE3QKOB2PLE6M",
		Currencies: []CurrencyEntry{
			{Code: "ARS"},
			{Code: "BRL"},
			{Code: "PEN"},
		},
	},
}

// Config holds all application configuration.
type Config struct {
	Network string `yaml:"network" toml:"network"`
	Oracle  struct {
		Source            string    `yaml:"source" toml:"source"`
		Identity          string    `yaml:"identity" toml:"identity"`
		BaseURL           string    `yaml:"base_url" toml:"base_url"`
		APIKey            string    `yaml:"api_key" toml:"api_key"`
		RequestsPerSecond float64   `yaml:"requests_per_second" toml:"requests_per_second"`
		Decimals          uint32    `yaml:"decimals" toml:"decimals"`
		Fixtures          []Fixture `yaml:"fixtures" toml:"fixtures"`
	} `yaml:"oracle" toml:"oracle"`
	Currencies []CurrencyEntry `yaml:"currencies" toml:"currencies"`
	Admin      string          `yaml:"admin" toml:"admin"`
	Storage    struct {
		Backend string `yaml:"backend" toml:"backend"`
		Path    string `yaml:"path" toml:"path"`
	} `yaml:"storage" toml:"storage"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
	} `yaml:"database" toml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token" toml:"bot_token"`
		ChatID   string `yaml:"chat_id" toml:"chat_id"`
	} `yaml:"telegram" toml:"telegram"`
	Schedule struct {
		MetricsCron string `yaml:"metrics_cron" toml:"metrics_cron"`
		MetricsDays uint32 `yaml:"metrics_days" toml:"metrics_days"`
	} `yaml:"schedule" toml:"schedule"`
	Watch   []string       `yaml:"watch" toml:"watch"`
	Payroll []PayrollEntry `yaml:"payroll" toml:"payroll"`
	Log     struct {
		File       string `yaml:"file" toml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
	} `yaml:"log" toml:"log"`
	MetricsAddr string `yaml:"metrics_addr" toml:"metrics_addr"`
	Proxy       string `yaml:"proxy" toml:"proxy"`
}

// Load reads config from a YAML file (TOML when the path ends in .toml),
// then applies environment variable overrides and defaults. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HEDGE_NETWORK"); v != "" {
		c.Network = v
	}
	if v := os.Getenv("ORACLE_BASE_URL"); v != "" {
		c.Oracle.BaseURL = v
	}
	if v := os.Getenv("ORACLE_API_KEY"); v != "" {
		c.Oracle.APIKey = v
	}
	if v := os.Getenv("ORACLE_IDENTITY"); v != "" {
		c.Oracle.Identity = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Network == "" {
		c.Network = NetworkTestnet
	}
	if preset, ok := Presets[c.Network]; ok {
		if c.Oracle.Identity == "" {
			c.Oracle.Identity = preset.OracleIdentity
		}
		if len(c.Currencies) == 0 {
			c.Currencies = append([]CurrencyEntry(nil), preset.Currencies...)
		}
	}
	if c.Oracle.Source == "" {
		switch {
		case len(c.Oracle.Fixtures) > 0:
			c.Oracle.Source = SourceManual
		case c.Oracle.BaseURL != "":
			c.Oracle.Source = SourceHTTP
		default:
			c.Oracle.Source = SourceYahoo
		}
	}
	if c.Oracle.Decimals == 0 {
		c.Oracle.Decimals = 14
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "leveldb"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/hedge.ldb"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/salary_hedge.db"
	}
	if c.Schedule.MetricsCron == "" {
		c.Schedule.MetricsCron = "0 0 9 * * 1"
	}
	if c.Schedule.MetricsDays == 0 {
		c.Schedule.MetricsDays = 7
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
}

// Validate checks the fields every binary needs. Telegram is optional.
func (c *Config) Validate() error {
	if _, ok := Presets[c.Network]; !ok {
		return fmt.Errorf("network %q is not one of testnet, mainnet", c.Network)
	}
	if len(c.Currencies) == 0 {
		return fmt.Errorf("currencies must not be empty")
	}
	for i, cur := range c.Currencies {
		if strings.TrimSpace(cur.Code) == "" {
			return fmt.Errorf("currencies[%d].code is required", i)
		}
	}
	switch c.Oracle.Source {
	case SourceHTTP:
		if c.Oracle.BaseURL == "" {
			return fmt.Errorf("oracle.base_url is required for the http source")
		}
		if c.Oracle.Identity == "" {
			return fmt.Errorf("oracle.identity is required")
		}
	case SourceYahoo, SourceManual:
	default:
		return fmt.Errorf("oracle.source %q is not one of http, yahoo, manual", c.Oracle.Source)
	}
	if c.Oracle.Decimals > 38 {
		return fmt.Errorf("oracle.decimals must be at most 38")
	}
	if c.Oracle.RequestsPerSecond < 0 {
		return fmt.Errorf("oracle.requests_per_second must not be negative")
	}
	for i, f := range c.Oracle.Fixtures {
		if f.Currency == "" {
			return fmt.Errorf("oracle.fixtures[%d].currency is required", i)
		}
		if _, err := model.ParseAmount(f.Price); err != nil {
			return fmt.Errorf("oracle.fixtures[%d].price: %w", i, err)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	for i, p := range c.Payroll {
		if p.User == "" || p.Cron == "" {
			return fmt.Errorf("payroll[%d] needs user and cron", i)
		}
		if _, err := model.ParseAmount(p.Amount); err != nil {
			return fmt.Errorf("payroll[%d].amount: %w", i, err)
		}
	}
	return nil
}

// TelegramEnabled reports whether the bot is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
