package app

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/helix-trading/gateway-core/business/gateway/domain"
	"github.com/helix-trading/gateway-core/internal/apperror"
	"github.com/helix-trading/gateway-core/internal/logger"
)

const executorTracerName = "gateway.executor"

// ExecuteRequest describes one transaction to submit.
type ExecuteRequest struct {
	Chain     string
	Network   string
	Connector string
	Method    string
	OrderID   string
	Params    map[string]any

	// Callback, when set, receives lifecycle events from a supervised
	// confirmation monitor. When nil the submission is not tracked.
	Callback EventCallback
}

// TransactionExecutor turns a trade intent into a fee-bounded submission
// and supervises its confirmation tracking.
type TransactionExecutor struct {
	sidecar    SidecarAPI
	converters *domain.FeeConverterRegistry
	monitor    *TransactionMonitor
	logger     logger.LoggerInterface
	tracer     trace.Tracer

	// Supervision of confirmation goroutines
	wg       sync.WaitGroup
	closeCtx context.Context
	closeFn  context.CancelFunc
}

// NewTransactionExecutor creates an executor. The converter registry decides
// the per-chain fee arithmetic; the monitor handles confirmation polling.
func NewTransactionExecutor(api SidecarAPI, converters *domain.FeeConverterRegistry, monitor *TransactionMonitor, log logger.LoggerInterface) *TransactionExecutor {
	ctx, cancel := context.WithCancel(context.Background())
	return &TransactionExecutor{
		sidecar:    api,
		converters: converters,
		monitor:    monitor,
		logger:     log,
		tracer:     otel.Tracer(executorTracerName),
		closeCtx:   ctx,
		closeFn:    cancel,
	}
}

// ExecuteTransaction resolves the fee, submits exactly once, and on success
// with a callback spawns a supervised confirmation monitor. A submission
// failure is delivered to the callback as a failed event and returned; it is
// never retried here.
func (e *TransactionExecutor) ExecuteTransaction(ctx context.Context, req ExecuteRequest) (domain.SubmissionResponse, error) {
	ctx, span := e.tracer.Start(ctx, "gateway.execute_transaction",
		trace.WithAttributes(
			attribute.String("chain", req.Chain),
			attribute.String("network", req.Network),
			attribute.String("connector", req.Connector),
			attribute.String("method", req.Method),
			attribute.String("order_id", req.OrderID),
		),
	)
	defer span.End()

	feeCfg, err := e.sidecar.GetNetworkFeeConfig(ctx, req.Chain, req.Network)
	if err != nil {
		return domain.SubmissionResponse{}, apperror.Wrap(err, apperror.CodeFeeConfigMissing,
			fmt.Sprintf("%s/%s", req.Chain, req.Network))
	}

	computeUnits, err := e.resolveComputeUnits(req, feeCfg)
	if err != nil {
		return domain.SubmissionResponse{}, err
	}

	conv := e.converters.For(req.Chain)

	// Estimation degrades to zero; the clamp below raises it to the floor.
	estimate := e.sidecar.EstimatePriorityFee(ctx, req.Chain, req.Network, feeCfg.GasEstimateInterval)

	minPerCU := conv.PerComputeUnit(feeCfg.MinFee, computeUnits)
	maxPerCU := conv.PerComputeUnit(feeCfg.MaxFee, computeUnits)
	feePerCU := domain.ClampFee(estimate, minPerCU, maxPerCU)

	span.SetAttributes(
		attribute.Int64("compute_units", int64(computeUnits)),
		attribute.String("fee_per_cu", feePerCU.String()),
		attribute.String("fee_denomination", conv.Denomination()),
	)

	params := make(map[string]any, len(req.Params)+2)
	for k, v := range req.Params {
		params[k] = v
	}
	// The sidecar expects a JSON number; decimals marshal as strings.
	params["priorityFeePerCU"] = feePerCU.IntPart()
	params["computeUnits"] = computeUnits

	resp, err := e.sidecar.SubmitTransaction(ctx, req.Connector, req.Method, params)
	if err != nil {
		span.RecordError(err)
		e.logger.Error(ctx, "transaction submission failed",
			"order_id", req.OrderID, "connector", req.Connector, "method", req.Method, "error", err)
		if req.Callback != nil {
			req.Callback(domain.Event{
				Kind:    domain.EventFailed,
				OrderID: req.OrderID,
				Payload: err.Error(),
			})
		}
		return domain.SubmissionResponse{}, err
	}

	e.logger.Info(ctx, "transaction submitted",
		"order_id", req.OrderID, "hash", resp.Hash(), "fee_per_cu", feePerCU.String())

	if req.Callback != nil {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.monitor.MonitorTransaction(e.closeCtx, resp, req.Chain, req.Network, req.OrderID, req.Callback)
		}()
	}

	return resp, nil
}

// resolveComputeUnits picks the unit budget: an explicit override in the
// params, else a cached hint, else the network default.
func (e *TransactionExecutor) resolveComputeUnits(req ExecuteRequest, feeCfg domain.NetworkFeeConfig) (uint64, error) {
	if v, ok := req.Params["computeUnits"]; ok {
		if units := toUint64(v); units > 0 {
			return units, nil
		}
	}

	if units, ok := e.sidecar.CachedComputeUnits(req.Method, req.Connector, req.Network); ok && units > 0 {
		return units, nil
	}

	if feeCfg.DefaultComputeUnits > 0 {
		return feeCfg.DefaultComputeUnits, nil
	}

	return 0, apperror.New(apperror.CodeComputeUnitsUnavailable,
		apperror.WithContext(fmt.Sprintf("%s %s on %s", req.Method, req.Connector, req.Network)))
}

// toUint64 coerces the numeric types a params map may carry.
func toUint64(v any) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int:
		if n > 0 {
			return uint64(n)
		}
	case int64:
		if n > 0 {
			return uint64(n)
		}
	case float64:
		if n > 0 {
			return uint64(n)
		}
	}
	return 0
}

// Close cancels all supervised confirmation monitors and waits for them to
// finish delivering their terminal events.
func (e *TransactionExecutor) Close() error {
	e.closeFn()
	e.wg.Wait()
	return nil
}
