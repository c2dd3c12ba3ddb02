package sidecar

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/helix-trading/gateway-core/business/gateway/domain"
	"github.com/helix-trading/gateway-core/internal/circuitbreaker"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

// initCircuitBreaker initializes the fee estimator's circuit breaker.
// Short-circuiting is safe here: estimation is best-effort and degrades to
// zero.
func (c *Client) initCircuitBreaker() {
	cfg := circuitbreaker.DefaultConfig("gateway-fee-estimator")
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		c.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	c.feeCB = circuitbreaker.New[decimal.Decimal](cfg)
}

type estimateGasResponse struct {
	FeePerComputeUnit float64 `json:"feePerComputeUnit"`
	Denomination      string  `json:"denomination"`
	Timestamp         int64   `json:"timestamp"`
}

// feeKey builds the per-(chain,network) fee cache key.
func feeKey(chain, network string) string {
	return chain + ":" + network
}

// hintKey builds the compute-unit hint key.
func hintKey(txType, connector, network string) string {
	return fmt.Sprintf("%s:%s:%s", txType, connector, network)
}

// CacheComputeUnits records a compute-unit cost learned by a caller, e.g.
// from a prior quote. Hints do not expire.
func (c *Client) CacheComputeUnits(txType, connector, network string, units uint64) {
	c.hintsMu.Lock()
	c.hints[hintKey(txType, connector, network)] = units
	c.hintsMu.Unlock()
}

// CachedComputeUnits reads a previously recorded compute-unit hint.
func (c *Client) CachedComputeUnits(txType, connector, network string) (uint64, bool) {
	c.hintsMu.RLock()
	units, ok := c.hints[hintKey(txType, connector, network)]
	c.hintsMu.RUnlock()
	return units, ok
}

// GetNetworkFeeConfig reads the fee bounds for a (chain, network) pair from
// the sidecar's per-network config namespace, falling back to the configured
// defaults for any value the namespace omits. A failed namespace fetch
// degrades to the defaults entirely, with an empty payload cached so the
// endpoint is not hammered within the TTL; it never blocks a submission.
func (c *Client) GetNetworkFeeConfig(ctx context.Context, chain, network string) (domain.NetworkFeeConfig, error) {
	cfg := c.feeDefaults

	namespace := fmt.Sprintf("%s-%s", chain, network)
	payload, err := c.GetConfiguration(ctx, namespace)
	if err != nil {
		c.logger.Warn(ctx, "network fee config fetch failed, using defaults",
			"namespace", namespace, "error", err)
		c.configCache.Set(ctx, namespace, Payload{}, c.cacheTTL)
		return cfg, nil
	}

	if v, ok := payload["minFee"].(float64); ok {
		cfg.MinFee = decimal.NewFromFloat(v)
	}
	if v, ok := payload["maxFee"].(float64); ok {
		cfg.MaxFee = decimal.NewFromFloat(v)
	}
	if v, ok := payload["defaultComputeUnits"].(float64); ok && v > 0 {
		cfg.DefaultComputeUnits = uint64(v)
	}
	if v, ok := payload["gasEstimateInterval"].(float64); ok && v > 0 {
		cfg.GasEstimateInterval = time.Duration(v * float64(time.Second))
	}

	return cfg, nil
}

// EstimatePriorityFee returns the fee-per-compute-unit for a (chain,
// network) pair. The sidecar's estimate-gas endpoint is called at most once
// per gasEstimateInterval; any failure degrades to zero so submission is
// never blocked on estimation.
func (c *Client) EstimatePriorityFee(ctx context.Context, chain, network string, interval time.Duration) decimal.Decimal {
	key := feeKey(chain, network)

	if est, found := c.feeCache.Get(ctx, key); found {
		c.metrics.cacheHits.Add(ctx, 1)
		return est.FeePerComputeUnit
	}
	c.metrics.cacheMisses.Add(ctx, 1)

	ctx, span := c.tracerSpan(ctx, "gateway.estimate_fee", chain, network)
	defer span.End()

	fee, err := c.feeCB.Execute(func() (decimal.Decimal, error) {
		var resp estimateGasResponse
		body := Payload{"network": network}
		if err := c.do(ctx, "POST", fmt.Sprintf("chains/%s/estimate-gas", chain), nil, body, &resp); err != nil {
			return decimal.Zero, err
		}

		est := domain.FeeEstimate{
			FeePerComputeUnit: decimal.NewFromFloat(resp.FeePerComputeUnit),
			Denomination:      resp.Denomination,
			ObservedAt:        time.Now(),
		}
		c.feeCache.Set(ctx, key, est, interval)
		return est.FeePerComputeUnit, nil
	})

	c.metrics.feeEstimates.Add(ctx, 1)

	if err != nil {
		span.RecordError(err)
		c.logger.Warn(ctx, "priority fee estimation failed, using zero",
			"chain", chain, "network", network, "error", err)
		return decimal.Zero
	}

	feeFloat, _ := fee.Float64()
	c.metrics.feePerCU.Record(ctx, feeFloat,
		metric.WithAttributes(attribute.String("chain", chain), attribute.String("network", network)))
	span.SetAttributes(attribute.Float64("fee_per_cu", feeFloat))

	return fee
}
