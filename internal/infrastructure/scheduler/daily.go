package scheduler

import (
	"context"
	"time"

	"BeautyBot/internal/ports"
)

// DailyScheduler triggers the job once per day at a fixed local hour.
// The first trigger fires at the next occurrence of that hour, not
// immediately, so a late process start does not double-run a day the
// external scheduler already covered.
type DailyScheduler struct {
	hour     int
	location *time.Location
	stop     chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler builds a scheduler firing at the given hour in loc.
func NewDailyScheduler(hour int, loc *time.Location) *DailyScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyScheduler{hour: hour, location: loc}
}

// Start begins the daily trigger loop.
func (d *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if d.stop != nil {
		return nil
	}

	d.stop = make(chan struct{})
	go func() {
		for {
			timer := time.NewTimer(time.Until(d.nextRun(time.Now())))
			select {
			case t := <-timer.C:
				job(t.In(d.location))
			case <-ctx.Done():
				timer.Stop()
				return
			case <-d.stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop halts the trigger goroutine.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	return nil
}

func (d *DailyScheduler) nextRun(now time.Time) time.Time {
	now = now.In(d.location)
	next := time.Date(now.Year(), now.Month(), now.Day(), d.hour, 0, 0, 0, d.location)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
