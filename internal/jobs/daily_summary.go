package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/services"
)

// DailySummaryJob sends the day's errand summary to the ops number at a fixed
// local hour
type DailySummaryJob struct {
	summary *services.SummaryService
	sender  services.MessageSender
	to      string
	hour    int
	loc     *time.Location
	now     func() time.Time
	log     *logger.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewDailySummaryJob creates the job; it does nothing until Start
func NewDailySummaryJob(summary *services.SummaryService, sender services.MessageSender, to string, hour int, loc *time.Location, log *logger.Logger) *DailySummaryJob {
	if loc == nil {
		loc = time.Local
	}
	return &DailySummaryJob{
		summary: summary,
		sender:  sender,
		to:      to,
		hour:    hour,
		loc:     loc,
		now:     time.Now,
		log:     log.Named("daily_summary"),
	}
}

// Start runs the schedule in the background
func (j *DailySummaryJob) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		j.log.Warn("Daily summary job already running")
		return
	}
	j.running = true
	j.stop = make(chan struct{})
	j.done = make(chan struct{})

	go j.loop(j.stop, j.done)
	j.log.Info("Daily summary job started",
		logger.String("to", j.to), logger.Int("hour", j.hour))
}

// Stop halts the schedule and waits for an in-flight send to finish
func (j *DailySummaryJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	close(j.stop)
	done := j.done
	j.mu.Unlock()

	<-done
	j.log.Info("Daily summary job stopped")
}

func (j *DailySummaryJob) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		next := j.NextRun(j.now())
		wait := next.Sub(j.now())
		j.log.Debug("Next daily summary scheduled", logger.String("at", next.Format(time.RFC3339)))

		timer := time.NewTimer(wait)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := j.RunOnce(ctx); err != nil {
			j.log.Error("Daily summary failed", logger.Err(err))
		}
		cancel()
	}
}

// NextRun returns the first occurrence of the configured hour strictly after now
func (j *DailySummaryJob) NextRun(now time.Time) time.Time {
	local := now.In(j.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), j.hour, 0, 0, 0, j.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunOnce builds today's summary and sends it
func (j *DailySummaryJob) RunOnce(ctx context.Context) error {
	report, err := j.summary.Summarize(ctx, j.summary.Today())
	if err != nil {
		return fmt.Errorf("build summary: %w", err)
	}
	if err := j.sender.SendWhatsAppMessage(ctx, j.to, services.RenderSummary(report)); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}
	j.log.Info("Daily summary sent", logger.String("date", report.Date), logger.Int("errands", report.Total()))
	return nil
}
