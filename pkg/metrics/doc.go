// Package metrics provides the logging and tracing primitives shared by the
// rest of pqsock.
//
// # Overview
//
// The package offers:
//   - Structured, leveled logging (Logger, Fields, Format)
//   - A tracing interface shaped after OpenTelemetry (Tracer, SpanEnder)
//   - An optional real OpenTelemetry adapter, built with -tags otel
//
// # Structured Logging
//
// The Logger provides structured logging with levels:
//
//	logger := metrics.NewLogger(
//		metrics.WithLevel(metrics.LevelInfo),
//		metrics.WithFormat(metrics.FormatJSON),
//		metrics.WithFields(metrics.Fields{"service": "pqsock"}),
//	)
//
//	logger.Info("handshake complete", metrics.Fields{
//		"handle": h,
//		"role":   "initiator",
//	})
//
//	// Child loggers
//	connLog := logger.Named("endpoint").With(metrics.Fields{"handle": h})
//	connLog.Debug("encrypting message")
//
// # Tracing
//
// The package provides a Tracer interface compatible with OpenTelemetry:
//
//	// Use the simple tracer for testing
//	tracer := metrics.NewSimpleTracer()
//	metrics.SetTracer(tracer)
//
//	// OpenTelemetry adapter (uses global provider)
//	otelTracer := metrics.NewOTelTracer("pqsock")
//	metrics.SetTracer(otelTracer)
//	// Build with -tags otel to enable the adapter.
//
//	ctx, end := metrics.StartSpan(ctx, metrics.SpanHandshakeInitiator)
//	defer end(nil) // or end(err) on error
package metrics
