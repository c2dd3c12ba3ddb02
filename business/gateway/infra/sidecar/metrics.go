package sidecar

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// clientMetrics holds OTEL metric instruments.
type clientMetrics struct {
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	feeEstimates  metric.Int64Counter
	feePerCU      metric.Float64Gauge
	warmupRuns    metric.Int64Counter
	txSubmissions metric.Int64Counter
}

// initMetrics initializes OTEL metric instruments.
func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.cacheHits, err = meter.Int64Counter(
		"gateway_cache_hits_total",
		metric.WithDescription("Gateway discovery cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	c.metrics.cacheMisses, err = meter.Int64Counter(
		"gateway_cache_misses_total",
		metric.WithDescription("Gateway discovery cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	c.metrics.feeEstimates, err = meter.Int64Counter(
		"gateway_fee_estimates_total",
		metric.WithDescription("Priority fee estimation attempts"),
		metric.WithUnit("{estimate}"),
	)
	if err != nil {
		return err
	}

	c.metrics.feePerCU, err = meter.Float64Gauge(
		"gateway_fee_per_compute_unit",
		metric.WithDescription("Last observed priority fee per compute unit"),
	)
	if err != nil {
		return err
	}

	c.metrics.warmupRuns, err = meter.Int64Counter(
		"gateway_warmup_runs_total",
		metric.WithDescription("Gateway cache warm-up passes"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return err
	}

	c.metrics.txSubmissions, err = meter.Int64Counter(
		"gateway_tx_submissions_total",
		metric.WithDescription("Transaction submissions through the gateway"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	return nil
}
