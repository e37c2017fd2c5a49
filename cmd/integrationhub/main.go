package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dropDatabas3/integrationhub/internal/cache"
	"github.com/dropDatabas3/integrationhub/internal/config"
	httpserver "github.com/dropDatabas3/integrationhub/internal/http"
	"github.com/dropDatabas3/integrationhub/internal/http/controllers/integrations"
	"github.com/dropDatabas3/integrationhub/internal/integration"
	"github.com/dropDatabas3/integrationhub/internal/integration/airtable"
	"github.com/dropDatabas3/integrationhub/internal/integration/hubspot"
	"github.com/dropDatabas3/integrationhub/internal/integration/notion"
	"github.com/dropDatabas3/integrationhub/internal/observability/logger"
)

func main() {
	var (
		configPath = flag.String("config", envOr("CONFIG_PATH", ""), "ruta al YAML de configuración (opcional)")
		logLevel   = flag.String("log-level", envOr("LOG_LEVEL", "info"), "debug | info | warn | error")
	)
	flag.Parse()

	// .env opcional: en dev pisa el entorno, en prod normalmente no existe.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// logger todavía no inicializado
		panic("config: " + err.Error())
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       *logLevel,
		ServiceName: "integrationhub",
	})
	log := logger.L().With(logger.Component("main"))
	defer func() { _ = logger.L().Sync() }()

	store, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		log.Fatal("cache init failed", logger.Err(err))
	}
	defer func() { _ = store.Close() }()
	log.Info("cache ready", logger.String("driver", cfg.Cache.Driver))

	registry := buildRegistry(cfg, store, log)
	if len(registry.Names()) == 0 {
		log.Warn("no providers configured; only /healthz and /metrics will respond usefully")
	}

	metricsHandler, err := httpserver.RegisterMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal("metrics init failed", logger.Err(err))
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Integrations: integrations.NewController(registry),
		Cache:        store,
		Metrics:      metricsHandler,
		CORSOrigins:  cfg.Server.CORSAllowedOrigins,
	})

	srv := httpserver.NewServer(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("env", cfg.App.Env),
		)
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", logger.Err(err))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", logger.Err(err))
		return
	}
	log.Info("server stopped")
}

// buildRegistry arma los flows de los proveedores con configuración completa.
// Un proveedor sin client_id/secret/redirect_uri se saltea con warning, no
// tumba el servicio.
func buildRegistry(cfg *config.Config, store cache.Client, log *zap.Logger) *integration.Registry {
	registry := integration.NewRegistry()
	ttl := cfg.HandoffTTL()

	add := func(name string, creds config.ProviderCredentials, build func(integration.ClientConfig) integration.Provider) {
		if !creds.Enabled() {
			log.Warn("provider not configured, skipping", logger.Provider(name))
			return
		}
		p := build(integration.ClientConfig{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURI:  creds.RedirectURI,
			Scopes:       creds.Scopes,
		})
		registry.Register(integration.NewFlow(store, p, integration.WithHandoffTTL(ttl)))
		log.Info("provider registered", logger.Provider(name))
	}

	add("airtable", cfg.Providers.Airtable, func(c integration.ClientConfig) integration.Provider { return airtable.New(c) })
	add("hubspot", cfg.Providers.HubSpot, func(c integration.ClientConfig) integration.Provider { return hubspot.New(c) })
	add("notion", cfg.Providers.Notion, func(c integration.ClientConfig) integration.Provider { return notion.New(c) })

	return registry
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
