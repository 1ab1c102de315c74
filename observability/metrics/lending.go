package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LendingMetrics tracks the pool's operation outcomes and aggregate levels.
type LendingMetrics struct {
	operations      *prometheus.CounterVec
	liquidations    prometheus.Counter
	utilization     prometheus.Gauge
	totalCollateral prometheus.Gauge
}

var (
	lendingOnce     sync.Once
	lendingRegistry *LendingMetrics
)

// Lending returns the process-wide lending metrics registry.
func Lending() *LendingMetrics {
	lendingOnce.Do(func() {
		lendingRegistry = &LendingMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_operations_total",
				Help: "Count of pool operations by type and outcome.",
			}, []string{"op", "outcome"}),
			liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lending_liquidations_total",
				Help: "Count of executed liquidations.",
			}),
			utilization: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "lending_pool_utilization",
				Help: "Current pool utilization percentage.",
			}),
			totalCollateral: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "lending_pool_total_collateral",
				Help: "Aggregate collateral locked in the pool.",
			}),
		}
		prometheus.MustRegister(
			lendingRegistry.operations,
			lendingRegistry.liquidations,
			lendingRegistry.utilization,
			lendingRegistry.totalCollateral,
		)
	})
	return lendingRegistry
}

// ObserveOperation records one completed pool operation.
func (m *LendingMetrics) ObserveOperation(op string, success bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// ObserveLiquidation records one executed liquidation.
func (m *LendingMetrics) ObserveLiquidation() {
	if m == nil {
		return
	}
	m.liquidations.Inc()
}

// SetUtilization records the pool utilization percentage.
func (m *LendingMetrics) SetUtilization(pct uint64) {
	if m == nil {
		return
	}
	m.utilization.Set(float64(pct))
}

// SetTotalCollateral records the aggregate collateral level.
func (m *LendingMetrics) SetTotalCollateral(total float64) {
	if m == nil {
		return
	}
	m.totalCollateral.Set(total)
}
