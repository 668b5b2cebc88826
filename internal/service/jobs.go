package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/asehra/shuttle-pool/backend/internal/domain"
	"github.com/asehra/shuttle-pool/backend/internal/repo"
)

// SweepService marks past-due active requests expired. It runs on the same
// recurring trigger as ReminderService, ahead of it, so reminders never see
// stale rows.
type SweepService struct {
	requests repo.RequestRepo
	log      *slog.Logger
	metrics  Metrics
}

// NewSweepService constructs a SweepService. metrics may be nil.
func NewSweepService(requests repo.RequestRepo, log *slog.Logger, metrics Metrics) *SweepService {
	return &SweepService{requests: requests, log: log, metrics: metrics}
}

// Run soft-expires every active request scheduled before now as a single
// batch write. Idempotent: a repeat run over already-expired rows changes
// nothing. No notification is sent on expiry.
func (s *SweepService) Run(ctx context.Context, now time.Time) error {
	n, err := s.requests.ExpireBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("service.SweepService.Run: %w", err)
	}
	if n > 0 {
		s.log.Info("expired past-due requests", "count", n, "cutoff", now)
		if s.metrics != nil {
			s.metrics.RequestsExpiredAdd(n)
		}
	}
	return nil
}

// ReminderService notifies riders shortly before departure.
type ReminderService struct {
	requests repo.RequestRepo
	msgr     Messenger
	window   time.Duration
	log      *slog.Logger
	metrics  Metrics
}

// NewReminderService constructs a ReminderService looking window ahead of
// each run instant. metrics may be nil.
func NewReminderService(requests repo.RequestRepo, msgr Messenger, window time.Duration, log *slog.Logger, metrics Metrics) *ReminderService {
	return &ReminderService{requests: requests, msgr: msgr, window: window, log: log, metrics: metrics}
}

// Run finds active requests due in (now, now+window], groups them by their
// literal slot label, and notifies only the group whose label normalizes to
// the earliest instant. Groups further out stay silent this run and are
// picked up by a later run once they become nearest.
//
// Only the nearest group is notified per run. When the trigger cadence is
// coarser than the window, a group can be skipped entirely. Runs are not
// deduplicated against each other either: a repeat run inside the same
// window re-sends the reminders.
//
// Riders within one group are notified concurrently; individual send
// failures are collected and returned together without aborting the batch.
func (s *ReminderService) Run(ctx context.Context, now time.Time) error {
	due, err := s.requests.ListActiveDueWithin(ctx, now, now.Add(s.window))
	if err != nil {
		return fmt.Errorf("service.ReminderService.Run: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	// Group by the literal label. The query window is same-day only by
	// construction, so identical labels can never span two days here.
	groups := lo.GroupBy(due, func(r domain.Request) string { return r.SlotLabel })
	labels := lo.Keys(groups)
	nearest := lo.MinBy(labels, func(a, b string) bool {
		ta, errA := domain.ParseSlotLabel(a, now)
		tb, errB := domain.ParseSlotLabel(b, now)
		if errA != nil || errB != nil {
			return errB != nil
		}
		return ta.Before(tb)
	})
	batch := groups[nearest]

	s.log.Info("sending departure reminders", "slot", nearest, "riders", len(batch))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, req := range batch {
		wg.Add(1)
		go func(req domain.Request) {
			defer wg.Done()
			body := fmt.Sprintf(
				"Reminder: Your *%s* route at *%s* is about to start — %d rider(s) scheduled.\n"+
					"Send your live location to help us track you",
				req.Type.Label(), req.SlotLabel, len(batch))
			if err := s.msgr.SendText(ctx, req.Owner, body); err != nil {
				if s.metrics != nil {
					s.metrics.SendFailuresInc()
				}
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("remind %s: %w", req.Owner, err))
				mu.Unlock()
				return
			}
			if s.metrics != nil {
				s.metrics.RemindersSentInc()
			}
		}(req)
	}
	wg.Wait()

	if errs != nil {
		return fmt.Errorf("service.ReminderService.Run: %w", errs)
	}
	return nil
}
