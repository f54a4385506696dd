// Package app es el composition root del servicio: arma config, logging,
// storage, cache, servicios de dominio y el servidor HTTP.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	rdb "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/bridgehealth/consentbridge/internal/audit"
	"github.com/bridgehealth/consentbridge/internal/authz"
	"github.com/bridgehealth/consentbridge/internal/cache"
	memcache "github.com/bridgehealth/consentbridge/internal/cache/memory"
	rediscache "github.com/bridgehealth/consentbridge/internal/cache/redis"
	"github.com/bridgehealth/consentbridge/internal/config"
	consentsvc "github.com/bridgehealth/consentbridge/internal/consent"
	"github.com/bridgehealth/consentbridge/internal/domain/repository"
	"github.com/bridgehealth/consentbridge/internal/httpapi"
	healthctrl "github.com/bridgehealth/consentbridge/internal/httpapi/controllers/health"
	"github.com/bridgehealth/consentbridge/internal/jwt"
	"github.com/bridgehealth/consentbridge/internal/observability/logger"
	"github.com/bridgehealth/consentbridge/internal/rate"
	"github.com/bridgehealth/consentbridge/internal/scenario"
	memstore "github.com/bridgehealth/consentbridge/internal/store/memory"
	pgstore "github.com/bridgehealth/consentbridge/internal/store/pg"
)

// App agrupa las piezas ya cableadas del servicio.
type App struct {
	Cfg *config.Config

	Consents repository.ConsentRepository
	Audits   repository.AuditRepository

	ConsentSvc *consentsvc.Service
	Engine     *authz.Engine
	Issuer     *jwt.Issuer
	Catalog    *scenario.Catalog

	server  *httpapi.Server
	checks  map[string]healthctrl.Pinger
	closers []func()
}

// Build construye la aplicación a partir de la configuración.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.Init(logger.Config{Env: cfg.App.Env, Level: "info"})

	a := &App{Cfg: cfg, checks: make(map[string]healthctrl.Pinger)}

	// Storage
	switch cfg.Storage.Driver {
	case "postgres":
		st, err := pgstore.New(ctx, cfg.Storage.DSN, pgstore.Options{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			ConnMaxLifetime: config.Dur(cfg.Storage.Postgres.ConnMaxLifetime),
		})
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		a.Consents = st.Consents()
		a.Audits = st.Audit()
		a.closers = append(a.closers, st.Close)
		a.checks["postgres"] = st
	case "memory":
		st := memstore.New()
		a.Consents = st.Consents()
		a.Audits = st.Audit()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	// Cache (el cliente redis se comparte con el rate limiter)
	var cc cache.Client
	var redisClient *rdb.Client
	switch cfg.Cache.Kind {
	case "redis":
		rc := rediscache.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
		cc = rc
		redisClient = rc.Client()
		a.closers = append(a.closers, func() { _ = rc.Close() })
	case "memory":
		cc = memcache.New(config.Dur(cfg.Cache.TTL))
	default:
		return nil, fmt.Errorf("unknown cache kind %q", cfg.Cache.Kind)
	}

	recorder := audit.NewRecorder(a.Audits)
	a.ConsentSvc = consentsvc.NewService(a.Consents, cc, config.Dur(cfg.Cache.TTL), recorder)
	a.Engine = authz.NewEngine(authz.New(recorder), a.ConsentSvc)

	a.Issuer = jwt.NewIssuer(cfg.JWT.Issuer, []byte(cfg.JWT.Secret))
	a.Issuer.AccessTTL = config.Dur(cfg.JWT.AccessTTL)

	// Catálogo de escenarios: opcional, el server arranca sin él.
	catalog, err := scenario.Load(cfg.Scenarios.Dir)
	if err != nil {
		logger.L().Warn("scenario catalog not loaded",
			logger.String("dir", cfg.Scenarios.Dir), logger.Err(err))
	} else {
		a.Catalog = catalog
	}

	// HTTP
	metricsHandler, err := httpapi.RegisterMetrics(nil)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		window := config.Dur(cfg.Rate.Token.Window)
		if redisClient != nil {
			limiter = rate.NewRedisLimiter(redisClient, "rl:", cfg.Rate.Token.Limit, window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.Token.Limit, window)
		}
	}

	a.checks["cache"] = cc

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Issuer:         a.Issuer,
		Consent:        a.ConsentSvc,
		Engine:         a.Engine,
		Catalog:        a.Catalog,
		APIClients:     cfg.APIClients(),
		Audits:         a.Audits,
		TokenLimiter:   limiter,
		HealthChecks:   a.checks,
		MetricsHandler: metricsHandler,
	})

	a.server = httpapi.NewServer(router, httpapi.ServerOptions{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  config.Dur(cfg.Server.ReadTimeout),
		WriteTimeout: config.Dur(cfg.Server.WriteTimeout),
	})

	return a, nil
}

// Run sirve HTTP y corre el sweeper de expiración hasta recibir señal.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Start()
	})

	g.Go(func() error {
		a.ConsentSvc.RunSweeper(ctx, config.Dur(a.Cfg.Consent.SweepInterval))
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), config.Dur(a.Cfg.Server.ShutdownTimeout))
		defer cancel()
		return a.server.Shutdown(shCtx)
	})

	err := g.Wait()
	_ = logger.Sync()
	return err
}

// Close libera conexiones a dependencias externas.
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
}
