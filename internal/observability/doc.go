// Package observability provides logging, metrics, and tracing
// functionality for the GraphQL client.
//
// It covers structured logging via zap, a Prometheus registry for
// client metrics, and distributed tracing via OpenTelemetry with OTLP
// export.
//
// # Logging
//
// The Logger interface provides structured logging:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("query executed",
//	    observability.String("endpoint", endpoint),
//	    observability.Int("attempts", 1),
//	)
//
// # Metrics
//
// A dedicated registry with runtime collectors, served over HTTP:
//
//	reg := observability.NewRegistry()
//	http.Handle("/metrics", observability.MetricsHandler(reg))
//
// # Tracing
//
// OpenTelemetry tracing with OTLP gRPC export:
//
//	tracer, err := observability.NewTracer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(ctx)
package observability
