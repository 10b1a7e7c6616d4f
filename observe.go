package r2r

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const tracerName = "github.com/kailas-cloud/r2r"

// Telemetry event names passed to a Recorder.
const (
	EventOperationComplete = "OperationComplete"
	EventOperationError    = "OperationError"
)

// Recorder receives one event per finished operation. It is called
// synchronously and must not block; panics are swallowed.
type Recorder interface {
	Record(event string, attrs map[string]any)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(event string, attrs map[string]any)

// Record implements Recorder.
func (f RecorderFunc) Record(event string, attrs map[string]any) { f(event, attrs) }

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "r2r",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "r2r",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("r2r: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("r2r: register metric: %w", err)
	}
	return nil
}

// observer provides logging, metrics, tracing and telemetry events for SDK operations.
// None of them can change an operation's result.
type observer struct {
	logger   *zap.Logger
	metrics  *sdkMetrics
	tracer   trace.Tracer
	recorder Recorder
}

func newObserver(cfg *clientConfig) (*observer, error) {
	var m *sdkMetrics
	if cfg.metricsReg != nil {
		var err error
		m, err = newSDKMetrics(cfg.metricsReg)
		if err != nil {
			return nil, err
		}
	}
	tp := cfg.tracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &observer{
		logger:   logger,
		metrics:  m,
		tracer:   tp.Tracer(tracerName),
		recorder: cfg.recorder,
	}, nil
}

func (o *observer) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, "r2r."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("r2r.operation", op)),
	)
}

func (o *observer) observe(
	span trace.Span, op string, start time.Time, err error,
) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(
			dur.Seconds(),
		)
	}

	if o.logger != nil {
		if err != nil {
			o.logger.Warn("operation failed",
				zap.String("op", op),
				zap.Duration("duration", dur),
				zap.Error(err),
			)
		} else {
			o.logger.Debug("operation completed",
				zap.String("op", op),
				zap.Duration("duration", dur),
			)
		}
	}

	o.record(op, err)
}

func (o *observer) record(op string, err error) {
	if o.recorder == nil {
		return
	}
	defer func() { _ = recover() }()

	if err != nil {
		o.recorder.Record(EventOperationError, map[string]any{
			"operation":    op,
			"errorMessage": err.Error(),
		})
		return
	}
	o.recorder.Record(EventOperationComplete, map[string]any{"operation": op})
}

// call runs fn as the named operation with observation wrapped around it.
func call[T any](ctx context.Context, c *Client, op string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	ctx, span := c.obs.startSpan(ctx, op)
	v, err := fn(ctx)
	c.obs.observe(span, op, start, err)
	return v, err
}
