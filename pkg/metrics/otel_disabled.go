//go:build !otel
// +build !otel

package metrics

// OTelTracer is a stub tracer when built without OpenTelemetry support. It
// wraps NoOpTracer rather than re-implementing the no-op behavior, so the
// handshake/framer span calls (SpanHandshakeInitiator, SpanSend, ...) cost
// nothing in a binary built without -tags otel, without a second code path
// to keep in sync with NoOpTracer.
type OTelTracer struct {
	NoOpTracer
}

// NewOTelTracer returns a no-op tracer when OpenTelemetry is not enabled.
// serviceName is accepted for API compatibility with the otel-enabled build
// and otherwise unused.
func NewOTelTracer(serviceName string) *OTelTracer {
	return &OTelTracer{}
}

// OTelEnabled reports whether OpenTelemetry support is built in.
func OTelEnabled() bool {
	return false
}
