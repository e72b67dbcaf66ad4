package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wschart/pkg/binance"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const appName = "wschart"

type Config struct {
	Symbol    string          `mapstructure:"symbol"`
	Interval  string          `mapstructure:"interval"`
	Chart     ChartConfig     `mapstructure:"chart"`
	Indicator IndicatorConfig `mapstructure:"indicator"`
	Alert     AlertConfig     `mapstructure:"alert"`
	Binance   BinanceConfig   `mapstructure:"binance"`
	Log       LogConfig       `mapstructure:"log"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Stats     StatsConfig     `mapstructure:"stats"`

	// Warnings collects non-fatal problems found while loading.
	// They are logged once the logger exists.
	Warnings []string `mapstructure:"-"`
}

type ChartConfig struct {
	Height          int           `mapstructure:"height"`
	Width           int           `mapstructure:"width"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Timezone        string        `mapstructure:"timezone"` // empty = local time
}

type IndicatorConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Period     int     `mapstructure:"period"`
	Multiplier float64 `mapstructure:"multiplier"`
}

type AlertConfig struct {
	RulesFile   string        `mapstructure:"rules_file"`
	Command     string        `mapstructure:"command"`
	Args        []string      `mapstructure:"args"`
	WebhookURL  string        `mapstructure:"webhook_url"`
	Repeat      int           `mapstructure:"repeat"`
	RepeatDelay time.Duration `mapstructure:"repeat_delay"`
}

type BinanceConfig struct {
	REST RESTConfig `mapstructure:"rest"`
	WS   WSConfig   `mapstructure:"ws"`
}

type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WSConfig struct {
	URL              string        `mapstructure:"url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	ReconnectDelay   time.Duration `mapstructure:"reconnect_delay"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
	Console     bool   `mapstructure:"console"`     // also log to stderr; stdout belongs to the chart
}

// JournalConfig selects where fired alerts are recorded: "postgres", "sqlite" or "" (off).
type JournalConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type StatsConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// CandleMode reports whether an interval was selected.
func (c *Config) CandleMode() bool {
	return c.Interval != ""
}

// Load loads application configuration using Viper.
// Precedence: command-line flags, WSCHART_* environment variables (a .env file
// in the working directory is loaded first), config.yaml, defaults.
func Load(args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	var warnings []string
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		warnings = append(warnings, fmt.Sprintf("failed to load .env: %v", err))
	}

	flags := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	flags.StringP("symbol", "s", "BTCUSDT", "Symbol to display (e.g., BTCUSDT, ETHUSDT).")
	flags.StringP("interval", "i", "", "Show candlestick chart for a given interval ("+strings.Join(binance.Intervals(), ", ")+").\nIf not provided, shows real-time trade stream.")
	flags.IntP("height", "H", 15, "Chart height in lines.")
	flags.IntP("width", "w", 50, "Chart width in characters.")
	flags.String("config", "", "Path to config.yaml.")
	flags.String("rules", "", "Path to the alert rules file (notification.md or .yaml).")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	bindings := map[string]string{
		"symbol":           "symbol",
		"interval":         "interval",
		"chart.height":     "height",
		"chart.width":      "width",
		"alert.rules_file": "rules",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // config.yaml
		v.SetConfigType("yaml")
		for _, dir := range configDirs() {
			v.AddConfigPath(dir)
		}
	}

	// Support environment variables with dot notation (e.g., WSCHART_BINANCE_WS_URL)
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			warnings = append(warnings, "no config file found, using defaults")
		} else {
			warnings = append(warnings, fmt.Sprintf("failed to read config, using defaults: %v", err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Warnings = warnings

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("symbol", "BTCUSDT")
	v.SetDefault("interval", "")

	v.SetDefault("chart.height", 15)
	v.SetDefault("chart.width", 50)
	v.SetDefault("chart.refresh_interval", 100*time.Millisecond)
	v.SetDefault("chart.timezone", "")

	v.SetDefault("indicator.enabled", false)
	v.SetDefault("indicator.period", 20)
	v.SetDefault("indicator.multiplier", 2.0)

	v.SetDefault("alert.rules_file", filepath.Join(userConfigDir(), "notification.md"))
	v.SetDefault("alert.command", "wall")
	v.SetDefault("alert.args", []string{})
	v.SetDefault("alert.webhook_url", "")
	v.SetDefault("alert.repeat", 3)
	v.SetDefault("alert.repeat_delay", 10*time.Second)

	v.SetDefault("binance.rest.base_url", "https://fapi.binance.com")
	v.SetDefault("binance.rest.timeout", 10*time.Second)
	v.SetDefault("binance.ws.url", "wss://fstream.binance.com/ws")
	v.SetDefault("binance.ws.handshake_timeout", 10*time.Second)
	v.SetDefault("binance.ws.read_timeout", 60*time.Second)
	v.SetDefault("binance.ws.reconnect_delay", time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_file", filepath.Join("logs", appName+".log"))
	v.SetDefault("log.environment", "prod")
	v.SetDefault("log.console", false)

	v.SetDefault("journal.driver", "")
	v.SetDefault("journal.sqlite_path", filepath.Join("data", "alerts.db"))

	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("metrics.addr", "")
	v.SetDefault("stats.schedule", "@every 30s")
}

// normalize rejects values the chart cannot be drawn with and falls back to
// defaults for the optional features.
func (c *Config) normalize() error {
	c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
	if c.Symbol == "" {
		return errors.New("symbol must not be empty")
	}
	if c.Interval != "" {
		if _, err := binance.ParseInterval(c.Interval); err != nil {
			return fmt.Errorf("invalid interval %q (choose from %s)", c.Interval, strings.Join(binance.Intervals(), ", "))
		}
	}
	if c.Chart.Height < 2 {
		return fmt.Errorf("chart height must be at least 2, got %d", c.Chart.Height)
	}
	if c.Chart.Width < 2 {
		return fmt.Errorf("chart width must be at least 2, got %d", c.Chart.Width)
	}
	if c.Chart.RefreshInterval <= 0 {
		c.Chart.RefreshInterval = 100 * time.Millisecond
	}

	if c.Indicator.Period < 1 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("indicator.period %d is invalid, using 20", c.Indicator.Period))
		c.Indicator.Period = 20
	}
	if c.Indicator.Multiplier < 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("indicator.multiplier %g is invalid, using 2", c.Indicator.Multiplier))
		c.Indicator.Multiplier = 2
	}
	if c.Alert.Repeat < 1 {
		c.Alert.Repeat = 1
	}
	if c.Binance.WS.ReconnectDelay <= 0 {
		c.Binance.WS.ReconnectDelay = time.Second
	}

	switch c.Journal.Driver {
	case "", "postgres", "sqlite":
	default:
		c.Warnings = append(c.Warnings, fmt.Sprintf("unknown journal driver %q, alert journal disabled", c.Journal.Driver))
		c.Journal.Driver = ""
	}
	return nil
}

// configDirs lists the directories searched for config.yaml.
func configDirs() []string {
	dirs := []string{userConfigDir(), "config", "."}
	if ex, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(ex), "../config"))
	}
	return dirs
}

func userConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", appName)
}
