package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/lucasviinic/flashly-api/pkg/config"
	"github.com/lucasviinic/flashly-api/pkg/entitlement"
	"github.com/lucasviinic/flashly-api/pkg/httpserver"
	"github.com/lucasviinic/flashly-api/pkg/logger"
	"github.com/lucasviinic/flashly-api/pkg/metrics"
	"github.com/lucasviinic/flashly-api/pkg/pg"
	"github.com/lucasviinic/flashly-api/pkg/playbilling"
	"github.com/lucasviinic/flashly-api/pkg/quota"
	"github.com/lucasviinic/flashly-api/pkg/ratelimiter"
	"github.com/lucasviinic/flashly-api/pkg/redis"
	"github.com/lucasviinic/flashly-api/pkg/tier"
	"github.com/lucasviinic/flashly-api/svc/study"
	"github.com/lucasviinic/flashly-api/svc/study/httpapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("flashly stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg   appConfig
		pgCfg    pg.Config
		redisCfg redis.Config
		playCfg  playbilling.Config
		httpCfg  httpserver.Config
		rateCfg  ratelimiter.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&appCfg) },
		func() error { return config.Load(&pgCfg) },
		func() error { return config.Load(&redisCfg) },
		func() error { return config.Load(&playCfg) },
		func() error { return config.Load(&httpCfg) },
		func() error { return config.Load(&rateCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	log := logger.New(
		logger.WithEnvironment(appCfg.Env, appCfg.ServiceName),
		logger.WithContextExtractors(httpapi.RequestIDExtractor()),
	)
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log, study.Migrations(), entitlement.Migrations()); err != nil {
		return err
	}

	checks := []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}
	var rateStore ratelimiter.Store = ratelimiter.NewMemoryStore()
	displayCache := tier.DisplayCache(tier.NewMemoryCache(appCfg.TierCacheSize, appCfg.TierCacheTTL))
	if redisCfg.Enabled() {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
		displayCache = tier.NewRedisCache(client, appCfg.TierCacheTTL)
		rateStore = ratelimiter.NewRedisStore(client, appCfg.ServiceName+":ratelimit:")
	}

	verifier, err := playbilling.NewFromConfig(ctx, playCfg,
		playbilling.WithLogger(log.With(logger.Component("playbilling"))),
		playbilling.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	subscriptions := entitlement.NewPostgresStore(pool,
		entitlement.WithStoreLogger(log.With(logger.Component("entitlement"))),
		entitlement.WithStoreMetrics(m),
	)
	resolver := tier.NewResolver(verifier, subscriptions, study.NewPostgresUserStore(pool),
		tier.WithLogger(log.With(logger.Component("tier"))),
		tier.WithMetrics(m),
		tier.WithDisplayCache(displayCache),
	)

	policy, err := quota.NewPolicy(ctx, policySource(appCfg.QuotaPolicyFile))
	if err != nil {
		return err
	}
	guard := quota.NewGuard(policy, quota.NewPostgresLedger(pool),
		quota.WithLogger(log.With(logger.Component("quota"))),
		quota.WithMetrics(m),
	)

	svc, err := study.NewService(study.Deps{
		Resolver:      resolver,
		Guard:         guard,
		Verifier:      verifier,
		Subscriptions: subscriptions,
		Repository:    study.NewPostgresRepository(pool),
		Tx:            pg.NewTxManager(pool),
	}, study.WithLogger(log.With(logger.Component("study"))))
	if err != nil {
		return err
	}

	verifyLimiter, err := ratelimiter.New(rateStore, rateCfg)
	if err != nil {
		return err
	}

	api := chi.NewRouter()
	api.Get("/health/live", httpserver.Liveness())
	api.Get("/health/ready", httpserver.Readiness(log, appCfg.ReadinessTimeout, checks...))
	api.Mount("/", httpapi.NewRouter(svc,
		httpapi.WithLogger(log.With(logger.Component("http"))),
		httpapi.WithMetrics(m),
		httpapi.WithVerifyLimiter(verifyLimiter),
	))

	ops := chi.NewRouter()
	ops.Handle("/metrics", metrics.Handler(reg))

	metricsCfg := httpCfg
	metricsCfg.Addr = appCfg.MetricsAddr

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.New(httpCfg, api, httpserver.WithLogger(log.With(logger.Component("api")))).Run(ctx)
	})
	g.Go(func() error {
		return httpserver.New(metricsCfg, ops, httpserver.WithLogger(log.With(logger.Component("metrics")))).Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func policySource(path string) quota.Source {
	if path == "" {
		return quota.NewMemorySource(quota.DefaultLimits())
	}
	return quota.NewYAMLSource(path)
}
