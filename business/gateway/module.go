// Package gateway implements the gateway bounded context: the sidecar
// HTTP client, fee estimation, transaction execution and the liveness
// and confirmation monitors.
package gateway

import (
	"context"

	"github.com/helix-trading/gateway-core/business/gateway/app"
	gatewayDI "github.com/helix-trading/gateway-core/business/gateway/di"
	"github.com/helix-trading/gateway-core/business/gateway/domain"
	"github.com/helix-trading/gateway-core/business/gateway/infra/sidecar"
	"github.com/helix-trading/gateway-core/internal/config"
	"github.com/helix-trading/gateway-core/internal/di"
	"github.com/helix-trading/gateway-core/internal/logger"
	"github.com/helix-trading/gateway-core/internal/monolith"
)

// Module implements the gateway bounded context.
type Module struct{}

// RegisterServices registers all gateway services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register sidecar client (public - exposed to other modules)
	di.RegisterToken(c, gatewayDI.Client, func(sr di.ServiceRegistry) *sidecar.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		clientCfg := sidecar.Config{
			Host:              cfg.Gateway.Host,
			Port:              cfg.Gateway.Port,
			UseSSL:            cfg.Gateway.UseSSL,
			CertsPath:         cfg.Gateway.CertsPath,
			RequestTimeout:    cfg.Gateway.RequestTimeout,
			RequestsPerMinute: cfg.Gateway.RequestsPerMinute,
			CacheTTL:          cfg.Gateway.CacheTTL,
			Fees: domain.NetworkFeeConfig{
				MinFee:              cfg.Fees.MinFeeDecimal(),
				MaxFee:              cfg.Fees.MaxFeeDecimal(),
				DefaultComputeUnits: cfg.Fees.DefaultComputeUnits,
				GasEstimateInterval: cfg.Fees.GasEstimateInterval,
			},
			DefaultWallets: cfg.Wallets.Default,
		}

		client, err := sidecar.NewClient(clientCfg, log)
		if err != nil {
			panic("failed to create gateway client: " + err.Error())
		}
		return client
	})

	// Register fee unit converters - private dependency
	di.RegisterToken(c, gatewayDI.FeeConverters, func(sr di.ServiceRegistry) *domain.FeeConverterRegistry {
		return domain.NewFeeConverterRegistry()
	})

	// Register transaction monitor - private dependency
	di.RegisterToken(c, gatewayDI.TransactionMonitor, func(sr di.ServiceRegistry) *app.TransactionMonitor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := gatewayDI.GetClient(sr)

		return app.NewTransactionMonitor(client, log, cfg.Monitor.PollInterval, cfg.Monitor.MaxPollTime)
	})

	// Register transaction executor (public - exposed to other modules)
	di.RegisterToken(c, gatewayDI.Executor, func(sr di.ServiceRegistry) *app.TransactionExecutor {
		log := sr.Get("logger").(logger.LoggerInterface)
		client := gatewayDI.GetClient(sr)
		converters := gatewayDI.GetFeeConverters(sr)
		monitor := gatewayDI.GetTransactionMonitor(sr)

		return app.NewTransactionExecutor(client, converters, monitor, log)
	})

	// Register status monitor (public - exposed to other modules)
	di.RegisterToken(c, gatewayDI.StatusMonitor, func(sr di.ServiceRegistry) *app.StatusMonitor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := gatewayDI.GetClient(sr)

		return app.NewStatusMonitor(client, log, cfg.Monitor.PingInterval, cfg.Monitor.MaxBackoffInterval)
	})

	return nil
}

// Startup starts the gateway liveness monitor.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	monitor := gatewayDI.GetStatusMonitor(mono.Services())
	monitor.Start(ctx)

	if monitor.Status() == app.StatusOnline {
		log.Info(ctx, "gateway module started", "gateway", "online")
	} else {
		log.Warn(ctx, "gateway module started with gateway offline, will keep retrying")
	}
	return nil
}
