package services

import (
	"context"
	"time"

	"github.com/Ananth-NQI/errandguy-backend/internal/apperrors"
	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/models"
)

// ErrandLister is the part of the record store the summary needs
type ErrandLister interface {
	ListAll(ctx context.Context) ([]*models.ErrandRecord, error)
}

// SummaryService aggregates the errand log into daily counts
type SummaryService struct {
	repo ErrandLister
	loc  *time.Location
	now  func() time.Time
	log  *logger.Logger
}

// NewSummaryService creates the daily summary aggregator
func NewSummaryService(repo ErrandLister, loc *time.Location, now func() time.Time, log *logger.Logger) *SummaryService {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &SummaryService{repo: repo, loc: loc, now: now, log: log.Named("summary")}
}

// Today returns the current local date as YYYY-MM-DD
func (s *SummaryService) Today() string {
	return s.now().In(s.loc).Format(models.DateLayout)
}

// Summarize counts errands last stamped on date. The match is on the date
// text of the timestamp, not a time range. Statuses outside the synonym
// groups are left out of the status counts but still counted paid or unpaid.
func (s *SummaryService) Summarize(ctx context.Context, date string) (*models.SummaryReport, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, apperrors.InvalidArgument("date must be YYYY-MM-DD. Usage: " + UsageSummary)
	}

	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &models.SummaryReport{Date: date}
	for _, rec := range records {
		if !rec.UpdatedOn(date) {
			continue
		}

		if status, ok := rec.Status.Canonical(); ok {
			switch status {
			case models.StatusPending:
				report.Pending++
			case models.StatusInProgress:
				report.InProgress++
			case models.StatusDelivered:
				report.Delivered++
			case models.StatusCanceled:
				report.Canceled++
			}
		}

		if rec.Paid {
			report.Paid++
		} else {
			report.Unpaid++
		}
	}

	s.log.Debug("Summary built", logger.String("date", date), logger.Int("errands", report.Total()))
	return report, nil
}
