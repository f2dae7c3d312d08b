package api

import (
	"go.uber.org/fx"

	"github.com/medsync-org/medsync/accounts"
	"github.com/medsync-org/medsync/calls"
	"github.com/medsync-org/medsync/config"
	"github.com/medsync-org/medsync/intake"
	"github.com/medsync-org/medsync/logger"
	"github.com/medsync-org/medsync/outbox"
	"github.com/medsync-org/medsync/patients"
	"github.com/medsync-org/medsync/profiles"
	"github.com/medsync-org/medsync/risk"
	"github.com/medsync-org/medsync/signaling"
	"github.com/medsync-org/medsync/store"
)

// Dependencies is the service DI graph. Commands reuse it to run one-shot
// functions against the same wiring.
func Dependencies() []fx.Option {
	return []fx.Option{
		fx.Provide(
			config.NewConfig,
			logger.NewProductionLogger,
			logger.Suggar,
			store.NewConfig,
			store.GetConnectionString,
			store.NewClient,
			store.NewDatabase,
			accounts.NewRepository,
			patients.NewRepository,
			patients.NewService,
			intake.NewRepository,
			outbox.NewRepository,
			profiles.NewManager,
			signaling.NewRedisClient,
			signaling.NewRedisRelay,
			calls.NewManager,
			risk.NewConfig,
			risk.NewClient,
			NewHealthCheck,
			NewHandler,
			NewServer,
		),
	}
}

func MainLoop() {
	options := append(Dependencies(), fx.Invoke(SetReady), fx.Invoke(Start))
	fx.New(options...).Run()
}
