// Package app contains the gateway context's application services: the
// transaction executor, the liveness monitor and the confirmation poller.
package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helix-trading/gateway-core/business/gateway/domain"
)

// SidecarAPI is the slice of the sidecar client the application services
// depend on. The infra layer provides the real implementation; tests use
// fakes.
type SidecarAPI interface {
	// Ping probes the sidecar's liveness endpoint.
	Ping(ctx context.Context) error

	// InitializeGateway warms the discovery caches.
	InitializeGateway(ctx context.Context) error

	// GetNetworkFeeConfig loads the fee bounds for a (chain, network) pair.
	GetNetworkFeeConfig(ctx context.Context, chain, network string) (domain.NetworkFeeConfig, error)

	// EstimatePriorityFee returns a fee per compute unit, zero on failure.
	EstimatePriorityFee(ctx context.Context, chain, network string, interval time.Duration) decimal.Decimal

	// CachedComputeUnits reads a compute-unit hint seeded by a prior quote.
	CachedComputeUnits(txType, connector, network string) (uint64, bool)

	// SubmitTransaction posts to connectors/{connector}/{method} exactly once.
	SubmitTransaction(ctx context.Context, connector, method string, params map[string]any) (domain.SubmissionResponse, error)

	// GetTransactionStatus polls one transaction.
	GetTransactionStatus(ctx context.Context, chain, network, signature string) (domain.PollResponse, error)
}

// EventCallback receives transaction lifecycle events.
type EventCallback func(event domain.Event)
