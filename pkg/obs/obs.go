// Package obs wires OpenTelemetry tracing and RED-pattern metrics around
// chain execution (spec §7 ambient stack), trimmed from the teacher's
// pkg/observability.Provider down to what a request kernel actually needs:
// a tracer/meter pair, three metrics (request count, error count, duration),
// and a Wrap helper that turns any reqkernel.Policy into a traced/measured
// one. Logging is left to log/slog directly, following the teacher's
// slog.Default().With(...) convention rather than bundling a logger here.
package obs

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/oorabona/unireq/pkg/reqkernel"
)

// Config configures the OpenTelemetry providers.
type Config struct {
	ServiceName  string
	OTLPEndpoint string // e.g. "localhost:4317"
	SampleRate   float64
	Enabled      bool
	Insecure     bool
}

// DefaultConfig returns the defaults used when no Config is supplied.
func DefaultConfig() Config {
	return Config{
		ServiceName:  "unireq",
		OTLPEndpoint: "localhost:4317",
		SampleRate:   1.0,
		Enabled:      true,
		Insecure:     true,
	}
}

// Provider holds the tracer/meter pair and the RED metrics every wrapped
// policy reports against.
type Provider struct {
	config Config

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter

	requestCounter metric.Int64Counter
	errorCounter   metric.Int64Counter
	durationHist   metric.Float64Histogram
}

// New initializes a Provider. When cfg.Enabled is false it returns a
// no-op Provider backed by the global (noop) otel providers, so callers
// can Wrap unconditionally without branching on whether telemetry is on.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{config: cfg}

	if !cfg.Enabled {
		p.tracer = otel.Tracer(cfg.ServiceName)
		p.meter = otel.Meter(cfg.ServiceName)
		if err := p.initREDMetrics(); err != nil {
			return nil, fmt.Errorf("obs: init RED metrics: %w", err)
		}
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("obs: build resource: %w", err)
	}

	if err := p.initTraceProvider(ctx, res); err != nil {
		return nil, fmt.Errorf("obs: init trace provider: %w", err)
	}
	if err := p.initMetricProvider(ctx, res); err != nil {
		return nil, fmt.Errorf("obs: init metric provider: %w", err)
	}

	p.tracer = otel.Tracer(cfg.ServiceName)
	p.meter = otel.Meter(cfg.ServiceName)

	if err := p.initREDMetrics(); err != nil {
		return nil, fmt.Errorf("obs: init RED metrics: %w", err)
	}

	return p, nil
}

func (p *Provider) initTraceProvider(ctx context.Context, res *resource.Resource) error {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(p.config.OTLPEndpoint)}
	if p.config.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return err
	}

	var sampler sdktrace.Sampler
	switch {
	case p.config.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case p.config.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(p.config.SampleRate)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(p.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return nil
}

func (p *Provider) initMetricProvider(ctx context.Context, res *resource.Resource) error {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(p.config.OTLPEndpoint)}
	if p.config.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return err
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(p.meterProvider)
	return nil
}

func (p *Provider) initREDMetrics() error {
	var err error

	p.requestCounter, err = p.meter.Int64Counter("unireq.requests.total",
		metric.WithDescription("Total number of chain invocations"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	p.errorCounter, err = p.meter.Int64Counter("unireq.errors.total",
		metric.WithDescription("Total number of chain invocations that returned an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	p.durationHist, err = p.meter.Float64Histogram("unireq.request.duration",
		metric.WithDescription("Chain invocation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	return err
}

// Shutdown flushes and stops the providers. Safe to call on a disabled
// Provider (both fields are nil, so it's a no-op).
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
	}
	if p.meterProvider != nil {
		return p.meterProvider.Shutdown(ctx)
	}
	return nil
}

// Wrap instruments a Policy with a span named after it plus the RED
// metrics, tagging attrs on every span/metric emitted for this policy.
// Grounded on the teacher's Provider.TrackOperation, generalized from an
// ad-hoc start/finish pair to a direct reqkernel.Policy decorator.
func (p *Provider) Wrap(name string, policy reqkernel.Policy, attrs ...attribute.KeyValue) reqkernel.Policy {
	return func(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
		start := time.Now()
		ctx, span := p.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
		defer span.End()

		p.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

		resp, err := policy(ctx, rc, next)

		p.durationHist.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
		if err != nil {
			span.RecordError(err)
			errAttrs := append(append([]attribute.KeyValue{}, attrs...), attribute.String("error.type", fmt.Sprintf("%T", err)))
			p.errorCounter.Add(ctx, 1, metric.WithAttributes(errAttrs...))
		}
		return resp, err
	}
}
