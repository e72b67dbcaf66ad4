package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate keeps the user's own config and .env out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func hasWarning(cfg *Config, substr string) bool {
	for _, w := range cfg.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

// go test -v --run TestLoadDefaults
func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "BTCUSDT" || cfg.CandleMode() {
		t.Errorf("unexpected symbol/mode %q %q", cfg.Symbol, cfg.Interval)
	}
	if cfg.Chart.Height != 15 || cfg.Chart.Width != 50 {
		t.Errorf("unexpected size %dx%d", cfg.Chart.Height, cfg.Chart.Width)
	}
	if cfg.Chart.RefreshInterval != 100*time.Millisecond {
		t.Errorf("unexpected refresh %v", cfg.Chart.RefreshInterval)
	}
	if cfg.Indicator.Enabled || cfg.Indicator.Period != 20 || cfg.Indicator.Multiplier != 2 {
		t.Errorf("unexpected indicator defaults %+v", cfg.Indicator)
	}
	if cfg.Alert.Command != "wall" || cfg.Alert.Repeat != 3 || cfg.Alert.RepeatDelay != 10*time.Second {
		t.Errorf("unexpected alert defaults %+v", cfg.Alert)
	}
	if cfg.Binance.WS.URL != "wss://fstream.binance.com/ws" || cfg.Binance.WS.ReconnectDelay != time.Second {
		t.Errorf("unexpected ws defaults %+v", cfg.Binance.WS)
	}
	if cfg.Log.Console {
		t.Error("console logging must be off by default")
	}
	if !hasWarning(cfg, "no config file found") {
		t.Errorf("expected missing config warning, got %v", cfg.Warnings)
	}
}

// go test -v --run TestLoadFlags
func TestLoadFlags(t *testing.T) {
	isolate(t)

	cfg, err := Load([]string{"-s", "ethusdt", "-i", "5m", "-H", "10", "-w", "40"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "ETHUSDT" || cfg.Interval != "5m" || !cfg.CandleMode() {
		t.Errorf("unexpected %q %q", cfg.Symbol, cfg.Interval)
	}
	if cfg.Chart.Height != 10 || cfg.Chart.Width != 40 {
		t.Errorf("unexpected size %dx%d", cfg.Chart.Height, cfg.Chart.Width)
	}
}

// go test -v --run TestLoadRejectsInvalidValues
func TestLoadRejectsInvalidValues(t *testing.T) {
	isolate(t)

	cases := [][]string{
		{"-i", "7m"},
		{"-H", "1"},
		{"-w", "0"},
		{"-s", "  "},
		{"--height", "tall"},
	}
	for _, args := range cases {
		if _, err := Load(args); err == nil {
			t.Errorf("expected %v to be rejected", args)
		}
	}
}

// go test -v --run TestLoadConfigFileAndEnv
func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := isolate(t)

	yaml := `
symbol: solusdt
chart:
  width: 60
indicator:
  enabled: true
  period: 0
  multiplier: 2.5
journal:
  driver: mongo
`
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WSCHART_CHART_HEIGHT", "8")

	cfg, err := Load([]string{"--config", path, "-w", "30"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Symbol != "SOLUSDT" {
		t.Errorf("expected symbol from file, got %q", cfg.Symbol)
	}
	if cfg.Chart.Width != 30 {
		t.Errorf("flag should win over file, got width %d", cfg.Chart.Width)
	}
	if cfg.Chart.Height != 8 {
		t.Errorf("env should win over default, got height %d", cfg.Chart.Height)
	}
	if !cfg.Indicator.Enabled || cfg.Indicator.Multiplier != 2.5 {
		t.Errorf("unexpected indicator %+v", cfg.Indicator)
	}
	if cfg.Indicator.Period != 20 || !hasWarning(cfg, "indicator.period") {
		t.Errorf("invalid period should fall back to 20 with a warning, got %d %v", cfg.Indicator.Period, cfg.Warnings)
	}
	if cfg.Journal.Driver != "" || !hasWarning(cfg, "journal driver") {
		t.Errorf("unknown journal driver should be disabled, got %q %v", cfg.Journal.Driver, cfg.Warnings)
	}
}

// go test -v --run TestLoadDotEnv
func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("WSCHART_SYMBOL=bnbusdt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("WSCHART_SYMBOL") })

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "BNBUSDT" {
		t.Errorf("expected symbol from .env, got %q", cfg.Symbol)
	}
}
