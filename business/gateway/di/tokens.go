// Package di contains dependency injection tokens for the gateway context.
package di

import (
	"github.com/helix-trading/gateway-core/business/gateway/app"
	"github.com/helix-trading/gateway-core/business/gateway/domain"
	"github.com/helix-trading/gateway-core/business/gateway/infra/sidecar"
	"github.com/helix-trading/gateway-core/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Client        = di.NewToken[*sidecar.Client]("gateway.Client")
	Executor      = di.NewToken[*app.TransactionExecutor]("gateway.TransactionExecutor")
	StatusMonitor = di.NewToken[*app.StatusMonitor]("gateway.StatusMonitor")
)

// Private dependency tokens - internal to gateway module
var (
	TransactionMonitor = di.NewToken[*app.TransactionMonitor]("gateway:transactionMonitor")
	FeeConverters      = di.NewToken[*domain.FeeConverterRegistry]("gateway:feeConverters")
)

// Helper functions for type-safe access
func GetClient(c di.ServiceRegistry) *sidecar.Client {
	return di.GetToken(c, Client)
}

func GetExecutor(c di.ServiceRegistry) *app.TransactionExecutor {
	return di.GetToken(c, Executor)
}

func GetStatusMonitor(c di.ServiceRegistry) *app.StatusMonitor {
	return di.GetToken(c, StatusMonitor)
}

func GetTransactionMonitor(c di.ServiceRegistry) *app.TransactionMonitor {
	return di.GetToken(c, TransactionMonitor)
}

func GetFeeConverters(c di.ServiceRegistry) *domain.FeeConverterRegistry {
	return di.GetToken(c, FeeConverters)
}
