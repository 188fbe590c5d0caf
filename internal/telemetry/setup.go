package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// Settings selects where telemetry is exported.
type Settings struct {
	ServiceName  string
	OTLPEndpoint string
	Environment  string
	Enabled      bool
}

// Providers owns the initialized telemetry pipeline.
type Providers struct {
	Logger   *slog.Logger
	shutdown []func(context.Context) error
}

// Setup initializes tracing, metrics and logging. With telemetry disabled,
// the global no-op providers stay in place and logs go to stdout as JSON.
func Setup(ctx context.Context, s Settings) (*Providers, error) {
	p := &Providers{}
	if !s.Enabled {
		p.Logger = NewLocalLogger(os.Stdout, s.ServiceName, s.Environment)
		return p, nil
	}

	tp, err := InitTracerProvider(ctx, s.ServiceName, s.OTLPEndpoint, s.Environment)
	if err != nil {
		return nil, err
	}
	p.shutdown = append(p.shutdown, tp.Shutdown)

	mp, err := InitMeterProvider(ctx, s.ServiceName, s.OTLPEndpoint, s.Environment)
	if err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}
	p.shutdown = append(p.shutdown, mp.Shutdown)

	// Logger provider comes last so startup logs already correlate with traces.
	lp, logger, err := InitLoggerProvider(ctx, s.ServiceName, s.OTLPEndpoint, s.Environment)
	if err != nil {
		return nil, errors.Join(err, p.Shutdown(ctx))
	}
	p.shutdown = append(p.shutdown, lp.Shutdown)
	p.Logger = logger

	return p, nil
}

// Shutdown flushes and stops every provider, newest first.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(p.shutdown) - 1; i >= 0; i-- {
		if err := p.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.shutdown = nil
	return errors.Join(errs...)
}
