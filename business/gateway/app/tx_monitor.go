package app

import (
	"context"
	"fmt"
	"time"

	"github.com/helix-trading/gateway-core/business/gateway/domain"
	"github.com/helix-trading/gateway-core/internal/logger"
)

// Confirmation polling defaults.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxPollTime  = 60 * time.Second
)

// TransactionMonitor polls a submitted transaction until it reaches a
// terminal state or the attempt budget runs out. It never returns an error:
// its contract is to always resolve to a terminal callback event.
type TransactionMonitor struct {
	sidecar SidecarAPI
	logger  logger.LoggerInterface

	pollInterval time.Duration
	maxPollTime  time.Duration
}

// NewTransactionMonitor creates a monitor. Zero durations fall back to the
// defaults.
func NewTransactionMonitor(api SidecarAPI, log logger.LoggerInterface, pollInterval, maxPollTime time.Duration) *TransactionMonitor {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if maxPollTime <= 0 {
		maxPollTime = DefaultMaxPollTime
	}
	return &TransactionMonitor{
		sidecar:      api,
		logger:       log,
		pollInterval: pollInterval,
		maxPollTime:  maxPollTime,
	}
}

// MonitorTransaction tracks one submission to its terminal state.
//
// With a transaction hash present, the callback receives the tx_hash event
// followed by exactly one terminal event. Poll errors and unrecognized
// payloads count as still-pending. The attempt budget is a fixed iteration
// count, so the loop terminates deterministically even with a zero poll
// interval.
func (m *TransactionMonitor) MonitorTransaction(ctx context.Context, resp domain.SubmissionResponse, chain, network, orderID string, callback EventCallback) {
	hash := resp.Hash()
	if hash == "" {
		return
	}

	callback(domain.Event{Kind: domain.EventTxHash, OrderID: orderID, Payload: hash})

	// Sidecars that resolve synchronously need no polling at all.
	if status := resp.InitialStatus(); status.IsTerminal() {
		deliverTerminal(callback, status, orderID, resp)
		return
	}

	attempts := int(m.maxPollTime / m.pollInterval)
	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			callback(domain.Event{
				Kind:    domain.EventFailed,
				OrderID: orderID,
				Payload: fmt.Sprintf("monitoring of %s cancelled", hash),
			})
			return
		default:
		}

		poll, err := m.sidecar.GetTransactionStatus(ctx, chain, network, hash)
		if err != nil {
			// Transient: still pending for this cycle.
			m.logger.Debug(ctx, "transaction poll failed, still pending",
				"order_id", orderID, "hash", hash, "error", err)
		} else if status := poll.Status(); status.IsTerminal() {
			deliverTerminal(callback, status, orderID, poll)
			return
		}

		if i < attempts-1 && m.pollInterval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(m.pollInterval):
			}
		}
	}

	callback(domain.Event{
		Kind:    domain.EventFailed,
		OrderID: orderID,
		Payload: fmt.Sprintf("transaction %s timed out after %s", hash, m.maxPollTime),
	})
}

func deliverTerminal(callback EventCallback, status domain.TxStatus, orderID string, payload any) {
	kind := domain.EventConfirmed
	if status == domain.TxStatusFailed {
		kind = domain.EventFailed
	}
	callback(domain.Event{Kind: kind, OrderID: orderID, Payload: payload})
}
