package billingsync

import (
	"context"
	"time"

	"github.com/zenpay/zenpay/internal/billingsync/domain"
	customerdomain "github.com/zenpay/zenpay/internal/customer/domain"
	"github.com/zenpay/zenpay/internal/observability/metrics"
	usagedomain "github.com/zenpay/zenpay/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	UsageRepo    usagedomain.Repository
	CustomerRepo customerdomain.Repository
	Reporter     domain.Reporter
	Metrics      *metrics.Metrics `optional:"true"`
	Config       Config           `optional:"true"`
}

// Worker drains unreported usage events to the billing provider. Outcomes
// only ever touch reporting_status; recorded usage and the ledger are
// already settled by the time an event reaches this loop.
type Worker struct {
	db           *gorm.DB
	log          *zap.Logger
	usageRepo    usagedomain.Repository
	customerRepo customerdomain.Repository
	reporter     domain.Reporter
	metrics      *metrics.Metrics
	cfg          Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:           p.DB,
		log:          p.Log.Named("billingsync.worker"),
		usageRepo:    p.UsageRepo,
		customerRepo: p.CustomerRepo,
		reporter:     p.Reporter,
		metrics:      p.Metrics,
		cfg:          p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.log.Warn("billing sync run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(parentCtx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	retryBefore := time.Now().UTC().Add(-w.cfg.RetryAfter)
	events, err := w.usageRepo.FetchUnreported(ctx, w.db, w.cfg.BatchSize, retryBefore)
	if err != nil {
		return 0, err
	}

	reported := 0
	for _, event := range events {
		if err := w.reportOne(ctx, event); err != nil {
			w.log.Warn("usage report failed",
				zap.Error(err),
				zap.String("event_id", event.ID.String()),
				zap.String("item_code", event.ItemCode),
			)
			w.metrics.RecordSyncReport(usagedomain.StatusReportFailed)
			if err := w.usageRepo.MarkReportFailed(ctx, w.db, event.ID); err != nil {
				w.log.Error("mark report_failed failed", zap.Error(err), zap.String("event_id", event.ID.String()))
			}
			continue
		}

		if err := w.usageRepo.MarkReported(ctx, w.db, event.ID); err != nil {
			// Next pass re-reports; the provider dedupes on the event id.
			w.log.Error("mark reported failed", zap.Error(err), zap.String("event_id", event.ID.String()))
			continue
		}
		w.metrics.RecordSyncReport(usagedomain.StatusReported)
		reported++
	}
	return reported, nil
}

func (w *Worker) reportOne(ctx context.Context, event usagedomain.UsageEvent) error {
	customer, err := w.customerRepo.FindByID(ctx, w.db, event.AccountID, event.CustomerID)
	if err != nil {
		return err
	}

	externalID := event.CustomerID.String()
	if customer != nil {
		externalID = customer.ExternalID
	}

	return w.reporter.Report(ctx, domain.ReportRequest{
		EventID:    event.ID.String(),
		ItemCode:   event.ItemCode,
		CustomerID: externalID,
		Quantity:   event.Quantity,
		RecordedAt: event.RecordedAt,
	})
}
