package billingsync

import (
	"context"

	"github.com/zenpay/zenpay/internal/billingsync/domain"
	"github.com/zenpay/zenpay/internal/billingsync/noop"
	"github.com/zenpay/zenpay/internal/billingsync/stripe"
	"github.com/zenpay/zenpay/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("billingsync",
	fx.Provide(provideConfig),
	fx.Provide(provideReporter),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func provideConfig(cfg config.Config) Config {
	return Config{
		BatchSize:    cfg.ReporterBatchSize,
		PollInterval: cfg.ReporterPollInterval,
		RetryAfter:   cfg.ReporterRetryAfter,
	}.withDefaults()
}

func provideReporter(cfg config.Config, log *zap.Logger) domain.Reporter {
	if cfg.StripeEnabled() {
		return stripe.NewReporter(cfg.StripeAPIKey, cfg.StripeBaseURL, log)
	}
	log.Named("billingsync").Info("no billing provider configured, reports are dropped")
	return noop.NewReporter()
}

func runWorker(lc fx.Lifecycle, worker *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go worker.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
