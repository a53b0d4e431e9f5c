package scheduler

import (
	"context"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/internal/service"

	"github.com/sirupsen/logrus"
)

// ReportScheduler sweeps all active vendors shortly after local midnight and
// generates the previous day's report for each. Racing a manual "Generate"
// click is harmless: generation is idempotent and the upsert is atomic.
type ReportScheduler struct {
	reportService service.ReportService
	vendorRepo    repository.VendorRepository
	loc           *time.Location
}

func NewReportScheduler(reportService service.ReportService, vendorRepo repository.VendorRepository, loc *time.Location) *ReportScheduler {
	return &ReportScheduler{
		reportService: reportService,
		vendorRepo:    vendorRepo,
		loc:           loc,
	}
}

// Run blocks until ctx is cancelled, firing once per local midnight.
func (s *ReportScheduler) Run(ctx context.Context) {
	for {
		next := s.nextMidnight()
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.sweep(ctx)
		}
	}
}

func (s *ReportScheduler) nextMidnight() time.Time {
	now := time.Now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return midnight.AddDate(0, 0, 1)
}

// sweep generates yesterday's report for every active vendor. One vendor's
// failure is logged and skipped so a single bad store cannot stall the rest.
func (s *ReportScheduler) sweep(ctx context.Context) {
	date := time.Now().In(s.loc).AddDate(0, 0, -1).Format(model.ReportDateLayout)

	vendors, err := s.vendorRepo.ListActive(ctx)
	if err != nil {
		logrus.WithError(err).Error("report sweep: failed to list vendors")
		return
	}

	logrus.WithFields(logrus.Fields{
		"date":    date,
		"vendors": len(vendors),
	}).Info("nightly report sweep started")

	for _, vendor := range vendors {
		if _, err := s.reportService.Generate(ctx, vendor.ID, date); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"vendor_id": vendor.ID.String(),
				"date":      date,
			}).Error("report sweep: generation failed")
		}
	}

	logrus.WithField("date", date).Info("nightly report sweep finished")
}
