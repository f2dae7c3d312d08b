package api

import (
	"context"
	"fmt"

	"github.com/brpaz/echozap"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/config"
	"github.com/medsync-org/medsync/errors"
)

func NewServer(handler *Handler, healthCheck *HealthCheck, logger *zap.Logger, cfg *config.Config) (*echo.Echo, error) {
	e := echo.New()

	// Skip auth for the readiness probe
	skipper := RouteSkipper([]string{"/ready"})
	authMiddleware := NewAuthMiddleware(cfg.AuthSecret, AuthMiddlewareOpts{
		Skipper: skipper,
	})

	e.Use(middleware.Recover())
	e.Use(echozap.ZapLogger(logger))
	e.Use(authMiddleware)

	e.HTTPErrorHandler = errors.CustomHTTPErrorHandler

	e.GET("/ready", healthCheck.Ready)
	RegisterRoutes(e, handler)

	return e, nil
}

func Start(e *echo.Echo, cfg *config.Config, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(fmt.Sprintf(":%d", cfg.HttpPort)); err != nil {
					fmt.Println(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

func SetReady(healthCheck *HealthCheck, db *mongo.Database, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Client().Ping(ctx, nil); err != nil {
				return err
			}

			// It's important this is set after mongo is initialized, which is ensured
			// by taking a dependency on mongo in the constructor, because lifecycle hooks
			// are executed in topological order
			healthCheck.SetReady(true)
			return nil
		},
		OnStop: nil,
	})
}
