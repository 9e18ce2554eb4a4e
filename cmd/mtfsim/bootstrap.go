package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mtf-simulator/internal/collector"
	"mtf-simulator/internal/interfaces"
	"mtf-simulator/internal/logger"
	"mtf-simulator/internal/simulator"
	"mtf-simulator/internal/simulator/simulatorobs"
	"mtf-simulator/internal/store"
	"mtf-simulator/internal/trace"
)

// system holds everything a command needs once config is loaded.
type system struct {
	cfg       *store.Config
	sim       interfaces.Simulator
	collector *collector.Collector
	registry  *prometheus.Registry
}

// initializeSystem loads configuration and wires logging, tracing, metrics
// and the simulator. Logs and spans go to diag so stdout carries only
// results.
func initializeSystem(configPath string, diag io.Writer) (*system, error) {
	if err := logger.InitWithConfig(logger.LoadConfigFromEnv(), diag); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := trace.Init(trace.ConfigFromEnv(diag)); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		_ = trace.Shutdown(context.Background())
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sim := simulatorobs.Wrap(simulator.FromConfig(cfg), simulatorobs.NewMetrics(reg))

	logger.Debug(context.Background(), "System initialized",
		"config", configPath,
		"symbol", cfg.Defaults.Symbol,
		"sweep_points", cfg.Sweep.Points(),
	)

	return &system{
		cfg:       cfg,
		sim:       sim,
		collector: collector.New(),
		registry:  reg,
	}, nil
}

func (s *system) close(ctx context.Context) {
	if err := trace.Shutdown(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Failed to flush traces", err)
	}
}
