// Package r2rfx wires an *r2r.Client into an Fx application.
package r2rfx

import (
	"context"
	"fmt"
	"time"

	env "github.com/netflix/go-env"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kailas-cloud/r2r"
)

// FXModule provides *r2r.Client and closes it on shutdown.
//
// It requires a *Config (see ConfigFromEnv). A *zap.Logger,
// prometheus.Registerer and trace.TracerProvider are used when present;
// extra r2r.Option values can be supplied in the "r2r_options" group.
var FXModule = fx.Module(
	"r2r",
	fx.Provide(NewClient),
	fx.Invoke(RegisterLifecycle),
)

// Config selects the R2R service.
type Config struct {
	BaseURL      string `env:"R2R_BASE_URL,default=http://localhost:8000"`
	Prefix       string `env:"R2R_PREFIX,default=/v1"`
	TimeoutSec   int    `env:"R2R_TIMEOUT_SEC"`
	CheckOnStart bool   `env:"R2R_CHECK_ON_START"`

	// Timeout overrides TimeoutSec when set directly.
	Timeout time.Duration
}

// ConfigFromEnv reads Config from R2R_* environment variables.
func ConfigFromEnv() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("r2rfx: parse environment: %w", err)
	}
	return &cfg, nil
}

// Params are the dependencies of NewClient.
type Params struct {
	fx.In

	Config         *Config
	Logger         *zap.Logger           `optional:"true"`
	Registerer     prometheus.Registerer `optional:"true"`
	TracerProvider trace.TracerProvider  `optional:"true"`
	Options        []r2r.Option          `group:"r2r_options"`
}

// NewClient builds the client from Params.
func NewClient(p Params) (*r2r.Client, error) {
	timeout := p.Config.Timeout
	if timeout == 0 && p.Config.TimeoutSec > 0 {
		timeout = time.Duration(p.Config.TimeoutSec) * time.Second
	}
	opts := []r2r.Option{
		r2r.WithPrefix(p.Config.Prefix),
		r2r.WithTimeout(timeout),
	}
	if p.Logger != nil {
		opts = append(opts, r2r.WithLogger(p.Logger.Named("r2r")))
	}
	if p.Registerer != nil {
		opts = append(opts, r2r.WithPrometheus(p.Registerer))
	}
	if p.TracerProvider != nil {
		opts = append(opts, r2r.WithTracerProvider(p.TracerProvider))
	}
	opts = append(opts, p.Options...)

	c, err := r2r.New(p.Config.BaseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("r2rfx: %w", err)
	}
	return c, nil
}

// RegisterLifecycle checks the service on start when Config.CheckOnStart is
// set, and releases idle connections on stop.
func RegisterLifecycle(lc fx.Lifecycle, cfg *Config, client *r2r.Client) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.CheckOnStart {
				return nil
			}
			if _, err := client.Health(ctx); err != nil {
				return fmt.Errorf("r2rfx: health check: %w", err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			client.Close()
			return nil
		},
	})
}
