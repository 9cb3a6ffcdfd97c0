// Package engine wires the exporting engine's components into a running
// process: the pipeline driver, one worker per configured instance,
// self-telemetry, and the admin HTTP server. Adapted from the teacher's
// Agent/Runtime Init->Start->Close lifecycle (internal/agent/agent.go,
// internal/agent/runtime.go), generalized to a bounded shutdown join
// (the teacher's own join is unbounded; §5 requires a bounded one).
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vigilantagent/exporting/internal/adminsrv"
	"github.com/vigilantagent/exporting/internal/config"
	"github.com/vigilantagent/exporting/internal/constants"
	"github.com/vigilantagent/exporting/internal/instance"
	"github.com/vigilantagent/exporting/internal/pipeline"
	"github.com/vigilantagent/exporting/internal/promexpo"
	"github.com/vigilantagent/exporting/internal/telemetry"
	"github.com/vigilantagent/exporting/internal/tsdb"
)

// tickInterval is the scheduler's base granularity: every instance's
// UpdateEvery must be a multiple of this for its due-check to land
// exactly (§4.3); instances with sub-second intervals are not supported.
const tickInterval = time.Second

// Engine owns every moving part of one running exporting process.
type Engine struct {
	logger *zap.Logger
	db     tsdb.Database
	driver *pipeline.Driver

	instances []*instance.Instance
	publisher *telemetry.Publisher

	registry *prometheus.Registry
	admin    *adminsrv.Server

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New builds an Engine from cfg against db. writer receives
// self-telemetry's TSDB push-back (§4.8); a MemDB implements both
// contracts, so callers pass it as db and writer alike.
func New(ctx context.Context, cfg *config.Config, db tsdb.Database, writer tsdb.Writer, logger *zap.Logger) (*Engine, error) {
	e := &Engine{
		logger:    logger,
		db:        db,
		driver:    pipeline.New(db),
		publisher: telemetry.NewPublisher(writer),
		registry:  prometheus.NewRegistry(),
	}

	for _, ic := range cfg.EnabledInstances() {
		ins, err := buildInstance(ctx, ic, cfg.Exporting.Hostname, cfg.Exporting.SendNames)
		if err != nil {
			return nil, err
		}
		e.instances = append(e.instances, ins)
		e.driver.Register(ins)
		e.publisher.Register(ic.Name, ins.Stats())
		logger.Info("instance configured", zap.String("name", ic.Name), zap.String("type", ic.Type), zap.Duration("update_every", ic.UpdateEvery()))
	}

	e.registry.MustRegister(telemetry.NewPromCollector(e.publisher))
	e.admin = adminsrv.New(cfg.Admin.Addr, e.registry, logger)
	if cfg.Admin.PrometheusScrape {
		build := telemetry.BuildInfo{Application: constants.Application, Version: constants.Version}
		e.admin.Handle(constants.PathAllMetrics, promexpo.NewHandler(db, build))
	}

	return e, nil
}

// Run starts every instance worker, the admin server, and the scheduler
// loop, blocking until ctx is canceled. Shutdown is bounded by
// constants.ShutdownTimeout.
func (e *Engine) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	for _, ins := range e.instances {
		ins := ins
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			ins.Run(runCtx)
		}()
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.admin.Start(); err != nil {
			e.logger.Error("admin server stopped with error", zap.Error(err))
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	lastPublish := time.Now()
	for {
		select {
		case <-ctx.Done():
			return e.shutdown()
		case now := <-ticker.C:
			e.driver.Tick(now)
			if now.Sub(lastPublish) >= constants.DefaultUpdateEvery {
				e.publisher.Publish(now)
				lastPublish = now
			}
		}
	}
}

func (e *Engine) shutdown() error {
	e.logger.Info("engine shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), constants.AdminShutdownTimeout)
	defer stopCancel()
	if err := e.admin.Stop(stopCtx); err != nil {
		e.logger.Warn("admin server shutdown error", zap.Error(err))
	}

	var g errgroup.Group
	for _, ins := range e.instances {
		g.Go(ins.Close)
	}
	if err := g.Wait(); err != nil {
		e.logger.Warn("instance close error", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("engine shutdown complete")
	case <-time.After(constants.ShutdownTimeout):
		e.logger.Warn("engine shutdown timed out waiting for workers")
	}
	return nil
}
