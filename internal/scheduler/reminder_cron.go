package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/azro1/flare-care-sub001/internal/handlers"
)

// StartReminderCron runs the reminder dispatcher from an in-process minute
// cron, for deployments without an external trigger. The returned cron must
// be stopped on shutdown.
func StartReminderCron(dispatcher *handlers.DispatchHandler, logger *zap.SugaredLogger) *cron.Cron {
	c := cron.New(cron.WithLocation(time.UTC))

	c.AddFunc("* * * * *", func() {
		result := dispatcher.Run(context.Background())
		if result.Sent > 0 {
			logger.Infow("scheduled reminder dispatch", "sent", result.Sent, "total", result.Total)
		}
	})

	c.Start()
	return c
}
