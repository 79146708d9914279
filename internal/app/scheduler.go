package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"callmonitor-bridge/internal/common/logging"
)

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, err, kvFields(keysAndValues)...)
}

func kvFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{Key: fmt.Sprint(keysAndValues[i]), Value: keysAndValues[i+1]})
	}
	return fields
}

// initializeScheduler registers the periodic phonebook refresh. Runs never
// overlap; a run still busy when the next one is due is skipped.
func (app *App) initializeScheduler(logger logging.Logger) error {
	cl := cronLogger{logger: logger.WithFields(logging.String("component", "scheduler"))}
	app.scheduler = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	_, err := app.scheduler.AddFunc(app.Config.PhonebookRefreshSchedule, func() {
		entries, err := app.RefreshPhonebook(context.Background())
		if err != nil {
			app.Logger.Warn("Scheduled phonebook refresh failed", logging.Err(err))
			return
		}
		app.Logger.Info("Scheduled phonebook refresh completed", logging.Int("entries", entries))
	})
	if err != nil {
		return fmt.Errorf("invalid phonebook refresh schedule: %w", err)
	}
	return nil
}
