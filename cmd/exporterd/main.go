// Command exporterd runs the exporting engine against a demo in-memory
// TSDB, so the full scheduler -> formatter -> buffer -> transport -> sink
// pipeline can be exercised end to end without the real monitoring daemon.
package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vigilantagent/exporting/internal/config"
	"github.com/vigilantagent/exporting/internal/constants"
	"github.com/vigilantagent/exporting/internal/engine"
	"github.com/vigilantagent/exporting/internal/model"
	"github.com/vigilantagent/exporting/internal/tsdb"
)

func main() {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := os.Getenv(constants.EnvConfigPath)
	if path == "" {
		path = constants.DefaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	logger.Info("config loaded", zap.String("path", path), zap.Int("instances", len(cfg.Instances)))

	db := tsdb.NewMemDB(cfg.Exporting.Hostname)
	seedDemoData(db)

	eng, err := engine.New(ctx, cfg, db, db, logger)
	if err != nil {
		logger.Fatal("failed to build engine", zap.Error(err))
	}

	logger.Info("exporting engine starting",
		zap.String("version", constants.Version),
		zap.String("admin_addr", cfg.Admin.Addr))

	if err := eng.Run(ctx); err != nil {
		logger.Error("engine exited with error", zap.Error(err))
	}
	logger.Info("exporting engine stopped")
}

// seedDemoData populates a couple of charts with a synthetic collector so
// the pipeline has something to walk on every tick.
func seedDemoData(db *tsdb.MemDB) {
	cpu := tsdb.NewDimension("user", model.Average, time.Second)
	db.AddDimension("localhost", "system.cpu", cpu)

	net := tsdb.NewDimension("received", model.Sum, time.Second)
	db.AddDimension("localhost", "system.net", net)

	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for now := range t.C {
			db.Collect(mustChart(db, "localhost", "system.cpu"), now, map[string]float64{"user": rand.Float64() * 100})
			db.Collect(mustChart(db, "localhost", "system.net"), now, map[string]float64{"received": rand.Float64() * 1000})
		}
	}()
}

func mustChart(db *tsdb.MemDB, host, id string) tsdb.Chart {
	h, _ := db.Host(host)
	c, _ := h.Chart(id)
	return c
}
