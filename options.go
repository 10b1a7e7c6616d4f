package r2r

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/r2r/internal/transport/httpapi"
)

// DefaultPrefix is the API version prefix appended to the base URL.
const DefaultPrefix = "/v1"

// HTTPDoer executes HTTP requests. *http.Client satisfies it.
type HTTPDoer = httpapi.Doer

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	prefix  string
	doer    HTTPDoer
	timeout time.Duration
	header  http.Header
	fs      FileSystem

	logger         *zap.Logger
	metricsReg     prometheus.Registerer
	tracerProvider trace.TracerProvider
	recorder       Recorder
}

// WithPrefix overrides the API prefix. Default: "/v1". Pass "" for none.
func WithPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.prefix = prefix
	})
}

// WithHTTPClient sets the transport used for every call.
// Timeouts and proxies are then the caller's responsibility.
func WithHTTPClient(d HTTPDoer) Option {
	return optionFunc(func(c *clientConfig) {
		c.doer = d
	})
}

// WithTimeout sets a whole-request timeout on the default HTTP client.
// It also bounds how long a stream may stay open. Ignored with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithHeader adds a header sent with every request.
// Content-Type is ignored: it always follows the body.
func WithHeader(key, value string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.header == nil {
			c.header = http.Header{}
		}
		c.header.Add(key, value)
	})
}

// WithFileSystem sets how path-based uploads are opened.
// Default: OSFileSystem. Use NoFileSystem where disk access is unavailable.
func WithFileSystem(fs FileSystem) Option {
	return optionFunc(func(c *clientConfig) {
		c.fs = fs
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// WithTracerProvider emits one span per operation. Default: no-op.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return optionFunc(func(c *clientConfig) {
		c.tracerProvider = tp
	})
}

// WithRecorder sets the telemetry recorder notified after each operation.
func WithRecorder(r Recorder) Option {
	return optionFunc(func(c *clientConfig) {
		c.recorder = r
	})
}
