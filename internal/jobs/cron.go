// Package jobs wires the recurring expiry sweep and reminder run onto a
// cron schedule in the operating timezone.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is one periodic job invoked with the current operating-timezone
// instant.
type Runner interface {
	Run(ctx context.Context, now time.Time) error
}

// runTimeout bounds one full tick: a stalled store or gateway call should
// not wedge every subsequent tick behind it.
const runTimeout = time.Minute

// Start registers the runners on the given cron spec and starts the
// scheduler. Each tick runs the runners in order — the sweep must clear
// past-due rows before the reminder query looks at its window. A runner
// error is logged and does not stop later runners or ticks.
func Start(spec string, loc *time.Location, log *slog.Logger, runners ...Runner) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(loc))

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		now := time.Now().In(loc)
		for _, r := range runners {
			if err := r.Run(ctx, now); err != nil {
				log.Error("scheduled job failed", "error", err)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Info("job scheduler started", "spec", spec, "tz", loc.String())
	return c, nil
}
