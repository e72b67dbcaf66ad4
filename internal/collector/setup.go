package collector

import (
	"errors"
	"io/fs"

	"wschart/config"
	"wschart/internal/alert"
	"wschart/pkg/storage/postgres"
	"wschart/pkg/storage/sqlite"

	"go.uber.org/zap"
)

// loadMonitor returns nil when the rules file is missing or has no rule for
// the symbol; alerts are then off for the session.
func loadMonitor(cfg *config.Config, logger *zap.Logger) *alert.Monitor {
	if cfg.Alert.RulesFile == "" {
		return nil
	}

	rule, err := alert.LoadRule(cfg.Alert.RulesFile, cfg.Symbol)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("notification rules file not found, skipping notifications", zap.String("path", cfg.Alert.RulesFile))
		return nil
	case errors.Is(err, alert.ErrNoRule):
		logger.Info("no notification rule for symbol, skipping notifications", zap.String("symbol", cfg.Symbol))
		return nil
	case err != nil:
		logger.Warn("could not read notification rules, skipping notifications", zap.Error(err))
		return nil
	}

	logger.Info("notification rules loaded",
		zap.String("symbol", rule.Symbol), zap.Float64("less", rule.Lower), zap.Float64("more", rule.Upper))
	return alert.NewMonitor(rule)
}

// buildNotifier combines the configured channels. Every alert is also logged.
func buildNotifier(cfg *config.Config, logger *zap.Logger) alert.Notifier {
	notifiers := alert.MultiNotifier{alert.NewLogNotifier(logger)}
	if cfg.Alert.Command != "" {
		notifiers = append(notifiers, alert.NewCommandNotifier(cfg.Alert.Command, cfg.Alert.Args...))
	}
	if cfg.Alert.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewWebhookNotifier(cfg.Alert.WebhookURL))
	}
	return notifiers
}

// openJournal falls back to not recording when the store cannot be opened.
func openJournal(cfg *config.Config, logger *zap.Logger) alert.Recorder {
	switch cfg.Journal.Driver {
	case "postgres":
		client, err := postgres.InitializeAndMigrateAlertRecord(cfg.Postgres, cfg.Log.Environment, true)
		if err != nil {
			logger.Warn("alert journal disabled", zap.String("driver", "postgres"), zap.Error(err))
			return alert.NewNoopRecorder()
		}
		logger.Info("alert journal opened", zap.String("driver", "postgres"), zap.String("db", cfg.Postgres.DBName))
		return client
	case "sqlite":
		rec, err := sqlite.Open(cfg.Journal.SQLitePath)
		if err != nil {
			logger.Warn("alert journal disabled", zap.String("driver", "sqlite"), zap.Error(err))
			return alert.NewNoopRecorder()
		}
		logger.Info("alert journal opened", zap.String("driver", "sqlite"), zap.String("path", cfg.Journal.SQLitePath))
		return rec
	default:
		return alert.NewNoopRecorder()
	}
}
