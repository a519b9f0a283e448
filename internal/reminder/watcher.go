package reminder

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/cadence/internal/logger"
)

// Watcher runs reminder passes on a fixed interval. Overlapping passes are
// skipped so at most one runs at a time.
type Watcher struct {
	reminder *Reminder
	cron     *cron.Cron
	interval time.Duration
}

func NewWatcher(r *Reminder, interval time.Duration) *Watcher {
	l := cronLogger{}
	return &Watcher{
		reminder: r,
		cron:     cron.New(cron.WithLogger(l), cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l))),
		interval: interval,
	}
}

func (w *Watcher) Start() error {
	spec := fmt.Sprintf("@every %s", w.interval.String())

	logger.Info("Starting reminder watcher", "interval", w.interval)
	if _, err := w.cron.AddFunc(spec, w.run); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	w.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (w *Watcher) Stop() {
	logger.Info("Stopping reminder watcher")
	ctx := w.cron.Stop()
	<-ctx.Done()
}

func (w *Watcher) run() {
	result, err := w.reminder.Check()
	if err != nil {
		logger.Error("Reminder pass failed", "error", err)
		return
	}
	if result.Reminded {
		logger.Debug("Reminder pass sent notification", "habit_id", result.Habit.ID)
	}
}

// cronLogger routes robfig/cron logging to the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error(msg, append(keysAndValues, "error", err)...)
}
