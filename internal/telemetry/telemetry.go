// Package telemetry exposes operational metrics through an OpenTelemetry
// meter with a Prometheus exporter, served in exposition format at /metrics.
package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Module owns the MeterProvider and the instruments the auth path records.
// A nil *Module is valid and records nothing, so wiring metrics stays
// optional in tests and the CLI.
type Module struct {
	provider *sdkmetric.MeterProvider

	authAttempts    otelmetric.Int64Counter
	webhookChecks   otelmetric.Int64Counter
	loginsThrottled otelmetric.Int64Counter
}

// New configures a Prometheus exporter as the metric reader, installs the
// provider globally, and creates the instruments.
func New(serviceName string) (*Module, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	m := &Module{provider: provider}

	m.authAttempts, err = meter.Int64Counter("auth_attempts_total",
		otelmetric.WithDescription("Authentication attempts by credential method and outcome"))
	if err != nil {
		return nil, err
	}
	m.webhookChecks, err = meter.Int64Counter("webhook_verifications_total",
		otelmetric.WithDescription("Webhook signature verifications by outcome"))
	if err != nil {
		return nil, err
	}
	m.loginsThrottled, err = meter.Int64Counter("logins_throttled_total",
		otelmetric.WithDescription("Login attempts rejected by the per-email rate limiter"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Shutdown flushes and stops the MeterProvider.
func (m *Module) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// Handler serves Prometheus metrics. Mount at "/metrics".
func (m *Module) Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAuth counts one pipeline run. outcome is "ok" or the failure class.
func (m *Module) RecordAuth(ctx context.Context, method, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))
}

// RecordWebhook counts one webhook signature verification.
func (m *Module) RecordWebhook(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "rejected"
	}
	m.webhookChecks.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordLoginThrottled counts one rate-limited login attempt.
func (m *Module) RecordLoginThrottled(ctx context.Context) {
	if m == nil {
		return
	}
	m.loginsThrottled.Add(ctx, 1)
}
