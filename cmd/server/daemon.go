package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/config"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/control"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/metrics"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/runner"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/signal"
)

const shutdownTimeout = 10 * time.Second

// daemon wires the core components to the gRPC and metrics listeners.
type daemon struct {
	logger     *zap.SugaredLogger
	controller *control.Controller
	grpc       *GRPCServer
	metrics    *metrics.Server
}

func newDaemon(cfg *config.Config) (*daemon, error) {
	logger := logging.ComponentLogger("daemon")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollectorWithRegistry(registry)

	r := runner.NewRunner(
		runner.WithMetrics(collector),
		runner.WithPollInterval(cfg.Runner.PollInterval),
		runner.WithKillGrace(cfg.Runner.KillGrace),
		runner.WithHistory(cfg.Runner.History),
	)

	signaler, err := signal.New(cfg.Signal.Path, r,
		signal.WithMetrics(collector),
		signal.WithTTL(cfg.Signal.TTL),
		signal.WithSentinel(cfg.Signal.Sentinel),
	)
	if err != nil {
		return nil, err
	}

	outputLog := logging.ComponentLogger("output")
	controller := control.New(r, signaler,
		control.WithMetrics(collector),
		control.WithSink(func(line lib.OutputLine) {
			outputLog.Debugw(line.Text, logging.FieldStream, line.Stream.String())
		}),
	)

	service := NewScriptRunnerServiceServer(controller, r, signaler.Path())
	srv, err := NewGRPCServer(cfg.Address, cfg.TLS, service)
	if err != nil {
		_ = signaler.Close()
		return nil, err
	}

	d := &daemon{
		logger:     logger,
		controller: controller,
		grpc:       srv,
	}
	if cfg.Metrics.Address != "" {
		d.metrics = metrics.NewServer(cfg.Metrics.Address, registry, logging.ComponentLogger("metrics"))
	}
	return d, nil
}

// run serves until ctx is done, then cancels the active run and stops the listeners.
func (d *daemon) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.logger.Infow("Server listening", logging.FieldAddress, d.grpc.Addr().String())
		return errors.Wrap(d.grpc.Serve(), "grpc server")
	})
	if d.metrics != nil {
		g.Go(d.metrics.Serve)
	}

	g.Go(func() error {
		<-gctx.Done()
		d.logger.Infow("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := d.controller.Close(shutdownCtx)
		if err != nil {
			d.logger.Warnw("Controller close failed", logging.FieldError, err)
		}
		d.grpc.Stop(shutdownCtx)
		if d.metrics != nil {
			if merr := d.metrics.Shutdown(shutdownCtx); merr != nil {
				err = errors.CombineErrors(err, errors.Wrap(merr, "metrics shutdown"))
			}
		}
		return err
	})

	return g.Wait()
}
