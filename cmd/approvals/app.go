package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/approvals/modules/requests"
	"github.com/iota-uz/approvals/modules/requests/domain/entities/option"
	"github.com/iota-uz/approvals/modules/requests/infrastructure/persistence"
	"github.com/iota-uz/approvals/modules/requests/services"
	"github.com/iota-uz/approvals/pkg/composables"
	"github.com/iota-uz/approvals/pkg/configuration"
	"github.com/iota-uz/approvals/pkg/metrics"
	"github.com/iota-uz/approvals/pkg/tracing"
)

// app holds what a single CLI invocation needs: a pooled context and the
// assembled workflow module.
type app struct {
	ctx    context.Context
	pool   *pgxpool.Pool
	logger *logrus.Logger
	module *requests.Module
	close  func()
}

func connect(ctx context.Context) (*pgxpool.Pool, *configuration.Configuration, error) {
	conf := configuration.Use()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, nil, withCode(exitDB, fmt.Errorf("connect db: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, withCode(exitDB, fmt.Errorf("ping db: %w", err))
	}
	return pool, conf, nil
}

func openApp(ctx context.Context) (*app, error) {
	pool, conf, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	logger := conf.Logger()

	shutdown := func(context.Context) error { return nil }
	if conf.OpenTelemetry.Enabled {
		shutdown, err = tracing.Setup(ctx, conf.OpenTelemetry.TempoURL, conf.OpenTelemetry.ServiceName)
		if err != nil {
			pool.Close()
			return nil, withCode(exitUsage, fmt.Errorf("setup tracing: %w", err))
		}
	}

	var options option.Source
	if conf.Options.Source == configuration.OptionsSourceYAML {
		src, err := persistence.LoadYAMLOptionSource(conf.Options.File)
		if err != nil {
			pool.Close()
			return nil, withCode(exitUsage, err)
		}
		options = src
	}

	module, err := requests.NewModule(requests.PostgresOptions(options, conf.Currency, logger))
	if err != nil {
		pool.Close()
		return nil, withCode(exitUsage, err)
	}

	pusher := metrics.NewPusher(conf.Metrics.PushURL, conf.Metrics.Job, nil)

	return &app{
		ctx:    composables.WithPool(ctx, pool),
		pool:   pool,
		logger: logger,
		module: module,
		close: func() {
			if err := pusher.Push(context.Background()); err != nil {
				logger.WithError(err).Warn("metrics push failed")
			}
			if err := shutdown(context.Background()); err != nil {
				logger.WithError(err).Warn("tracing shutdown failed")
			}
			pool.Close()
			conf.Unload()
		},
	}, nil
}

// actor resolves the --actor flag, failing with the workflow's own error
// shape so callers see the same JSON as for any other denial.
func (a *app) actor(id int64) (services.Actor, error) {
	if id <= 0 {
		return services.Actor{}, withCode(exitUsage, fmt.Errorf("--actor is required"))
	}
	actor, err := a.module.Actors.Resolve(a.ctx, id)
	if err != nil {
		return services.Actor{}, report(nil, err)
	}
	return actor, nil
}
