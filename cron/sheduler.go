package cron

import (
	"fmt"
	"sort"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"storefront.GO/core/logging"
)

// zapCronLogger adapts zap to the cron.Logger interface.
type zapCronLogger struct {
	s *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// StartCron schedules every registered job and starts the scheduler. Panicking jobs are
// recovered and logged. Stop the returned scheduler to shut down.
func StartCron(logger *zap.Logger) (*cron.Cron, error) {
	logger = logging.OrNop(logger)
	cl := zapCronLogger{s: logger.Sugar()}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))

	jobs := Jobs()
	names := make([]string, 0, len(jobs))
	for name := range jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		j := jobs[name]
		run := j.Run
		if _, err := c.AddFunc(j.Schedule, func() { run() }); err != nil {
			return nil, fmt.Errorf("register job %s: %w", name, err)
		}
		logger.Info("cron job scheduled", zap.String("job", name), zap.String("schedule", j.Schedule))
	}
	c.Start()
	return c, nil
}
