package simulatorobs

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"

	"mtf-simulator/internal/interfaces"
	"mtf-simulator/internal/logger"
	"mtf-simulator/internal/trace"
	"mtf-simulator/internal/types"
)

// Metrics are the Prometheus collectors updated by the wrapper.
type Metrics struct {
	Simulations *prometheus.CounterVec
	Errors      prometheus.Counter
	Duration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mtf_simulations_total",
			Help: "Completed simulations by recommended financing mode",
		}, []string{"recommendation"}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mtf_simulation_errors_total",
			Help: "Simulations that returned an error",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mtf_simulation_duration_seconds",
			Help:    "Simulation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Simulations, m.Errors, m.Duration)
	}
	return m
}

type observableSimulator struct {
	simulator interfaces.Simulator
	metrics   *Metrics
}

var _ interfaces.Simulator = (*observableSimulator)(nil)

// Wrap adds tracing, logging and metrics around sim.
func Wrap(sim interfaces.Simulator, metrics *Metrics) interfaces.Simulator {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &observableSimulator{
		simulator: sim,
		metrics:   metrics,
	}
}

func (o *observableSimulator) Simulate(ctx context.Context, params types.TradeParameters) (*types.SimulationResult, error) {
	ctx, span := trace.StartSpan(ctx, "simulator.Simulate")
	defer span.End()

	span.SetAttributes(
		attribute.String("symbol", params.Symbol),
		attribute.Float64("ltp", params.LastTradedPrice),
		attribute.Float64("exposure", params.ExposureMultiplier),
		attribute.Int("holding_days", params.HoldingDays),
	)

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Starting simulation",
		"symbol", params.Symbol,
		"ltp", params.LastTradedPrice,
		"investment", params.Investment,
		"exposure", params.ExposureMultiplier,
	)

	result, err := o.simulator.Simulate(ctx, params)
	elapsed := time.Since(start)
	o.metrics.Duration.Observe(elapsed.Seconds())

	if err != nil {
		o.metrics.Errors.Inc()
		logger.ErrorWithErrSkip(ctx, 1, "Simulation failed", err,
			"symbol", params.Symbol,
			"duration_ms", elapsed.Milliseconds(),
		)
		return nil, err
	}

	o.metrics.Simulations.WithLabelValues(string(result.Recommendation.Mode)).Inc()
	span.SetAttributes(attribute.String("recommendation", string(result.Recommendation.Mode)))

	logger.InfoSkip(ctx, 1, "Simulation completed",
		"symbol", params.Symbol,
		"recommendation", result.Recommendation.Mode,
		"net_pnl_cnc", result.Economics.NetPnlCashMode,
		"net_pnl_mtf", result.Economics.NetPnlLeveragedMode,
		"duration_ms", elapsed.Milliseconds(),
	)

	return result, nil
}
