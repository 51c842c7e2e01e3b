package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/avagql/internal/auth"
	"github.com/vyrodovalexey/avagql/internal/config"
	"github.com/vyrodovalexey/avagql/internal/graphql/client"
	"github.com/vyrodovalexey/avagql/internal/graphql/metrics"
	"github.com/vyrodovalexey/avagql/internal/graphql/transport"
	"github.com/vyrodovalexey/avagql/internal/observability"
	"github.com/vyrodovalexey/avagql/internal/vault"
)

// shutdownTimeout bounds metrics server and tracer shutdown.
const shutdownTimeout = 5 * time.Second

// application holds all application components.
type application struct {
	client        *client.Client
	registry      *prometheus.Registry
	metrics       *metrics.Metrics
	metricsServer *http.Server
	tracer        *observability.Tracer
}

// initApplication wires the transport stack, credentials and observability
// into a client.
func initApplication(ctx context.Context, cfg *config.Config, logger observability.Logger) (*application, error) {
	app := &application{}

	tracer, err := observability.NewTracer(cfg.TracerConfig())
	if err != nil {
		return nil, err
	}
	app.tracer = tracer

	app.registry = observability.NewRegistry()
	app.metrics = metrics.NewMetrics(app.registry)

	decorator, err := initAuth(ctx, cfg, logger)
	if err != nil {
		app.shutdown(logger)
		return nil, err
	}

	opts := []client.Option{
		client.WithLogger(logger),
		client.WithTransport(buildTransport(cfg, logger, app.metrics)),
		client.WithAuth(decorator),
		client.WithMetrics(app.metrics),
	}
	if tracer.Enabled() {
		opts = append(opts, client.WithTracerProvider(tracer.Provider()))
	}

	c, err := client.New(cfg.ClientConfig(), opts...)
	if err != nil {
		app.shutdown(logger)
		return nil, err
	}
	app.client = c

	if cfg.Observability.Metrics.Enabled {
		app.startMetricsServer(cfg.Observability.Metrics, logger)
	}

	return app, nil
}

// initAuth resolves credentials, reading Vault when configured.
func initAuth(ctx context.Context, cfg *config.Config, logger observability.Logger) (auth.Decorator, error) {
	opts := []auth.Option{auth.WithLogger(logger)}

	if vaultCfg := cfg.VaultClientConfig(); vaultCfg != nil {
		vc, err := vault.New(*vaultCfg, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, auth.WithSecretReader(vc))
	}

	return auth.New(ctx, cfg.AuthDecoratorConfig(), opts...)
}

// buildTransport stacks rate limiting over the circuit breaker over HTTP.
func buildTransport(cfg *config.Config, logger observability.Logger, m *metrics.Metrics) transport.Transport {
	var t transport.Transport = transport.NewHTTPTransport(
		transport.WithRoundTripper(transport.NewRoundTripper(cfg.PoolConfig())),
		transport.WithDefaultTimeout(cfg.Transport.Timeout.Duration()),
		transport.WithMaxResponseBytes(cfg.Transport.MaxResponseBytes),
		transport.WithLogger(logger),
	)

	if breakerCfg, ok := cfg.BreakerConfig(); ok {
		t = transport.NewBreakerTransport(t, breakerCfg, logger,
			func(name string, _, to gobreaker.State) {
				m.SetBreakerState(name, float64(to))
			},
		)
	}

	if rl := cfg.Transport.RateLimit; rl != nil && rl.Enabled {
		t = transport.NewRateLimitedTransport(t, rl.RequestsPerSecond, rl.Burst)
	}

	return t
}

// startMetricsServer serves Prometheus metrics in the background.
func (a *application) startMetricsServer(cfg config.MetricsConfig, logger observability.Logger) {
	a.metricsServer = observability.NewMetricsServer(cfg.Address, cfg.Path, a.registry)

	go func() {
		logger.Info("metrics server listening",
			observability.String("address", cfg.Address),
			observability.String("path", cfg.Path),
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", observability.Error(err))
		}
	}()
}

// shutdown releases all application resources.
func (a *application) shutdown(logger observability.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.client != nil {
		a.client.Close()
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("failed to stop metrics server", observability.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Warn("failed to shutdown tracer", observability.Error(err))
		}
	}
}
