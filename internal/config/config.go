package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultMinConfidence = 70

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider          string  `yaml:"provider"` // "binance" or "mock"
		BaseURL           string  `yaml:"base_url"`
		APIKey            string  `yaml:"api_key"`
		CandleLimit       int     `yaml:"candle_limit"`
		VolumeLimit       int     `yaml:"volume_limit"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"data_source"`
	Screener struct {
		Cron          string   `yaml:"cron"`
		Workers       int      `yaml:"workers"`
		MinConfidence int      `yaml:"min_confidence"`
		TopN          int      `yaml:"top_n"`
		Symbols       []string `yaml:"symbols"`
	} `yaml:"screener"`
	Watchlist struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"watchlist"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables are kept.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// zero is a valid threshold, so the default is set before the file and env are read
	cfg.Screener.MinConfidence = defaultMinConfidence

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SCREENER_CRON"); v != "" {
		cfg.Screener.Cron = v
	}
	if v := os.Getenv("SCREENER_SYMBOLS"); v != "" {
		cfg.Screener.Symbols = SplitSymbols(v)
	}
	if v := os.Getenv("MIN_CONFIDENCE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Screener.MinConfidence = n
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "binance"
	}
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "https://api.binance.com"
	}
	if cfg.DataSource.CandleLimit == 0 {
		cfg.DataSource.CandleLimit = 250
	}
	if cfg.DataSource.VolumeLimit == 0 {
		cfg.DataSource.VolumeLimit = 20
	}
	if cfg.DataSource.RequestsPerSecond == 0 {
		cfg.DataSource.RequestsPerSecond = 10
	}
	if cfg.Screener.Cron == "" {
		cfg.Screener.Cron = "0 */15 * * * *"
	}
	if cfg.Screener.Workers == 0 {
		cfg.Screener.Workers = 4
	}
	if cfg.Screener.TopN == 0 {
		cfg.Screener.TopN = 5
	}
	if len(cfg.Screener.Symbols) == 0 {
		cfg.Screener.Symbols = []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT"}
	}
	if cfg.Watchlist.StateFile == "" {
		cfg.Watchlist.StateFile = "data/watchlist.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/coin_screener.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// SplitSymbols parses a comma or space separated symbol list.
func SplitSymbols(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToUpper(f))
	}
	return out
}

// NotificationsEnabled reports whether Telegram credentials are present.
func (c *Config) NotificationsEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	var errs []error
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		errs = append(errs, errors.New("telegram.chat_id is required when bot_token is set"))
	}
	switch c.DataSource.Provider {
	case "binance":
		if c.DataSource.BaseURL == "" {
			errs = append(errs, errors.New("data_source.base_url is required"))
		}
	case "mock":
	default:
		errs = append(errs, fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider))
	}
	if c.DataSource.CandleLimit < 20 || c.DataSource.CandleLimit > 1000 {
		errs = append(errs, errors.New("data_source.candle_limit must be within [20, 1000]"))
	}
	if c.DataSource.VolumeLimit < 1 {
		errs = append(errs, errors.New("data_source.volume_limit must be positive"))
	}
	if c.Screener.Workers < 1 {
		errs = append(errs, errors.New("screener.workers must be positive"))
	}
	if c.Screener.MinConfidence < 0 || c.Screener.MinConfidence > 100 {
		errs = append(errs, errors.New("screener.min_confidence must be within [0, 100]"))
	}
	if c.Screener.TopN < 1 {
		errs = append(errs, errors.New("screener.top_n must be positive"))
	}
	return errors.Join(errs...)
}
