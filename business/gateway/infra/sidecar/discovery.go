package sidecar

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/helix-trading/gateway-core/business/gateway/domain"
	"github.com/helix-trading/gateway-core/internal/apperror"
)

// Cache keys for the wholesale-replaced discovery caches.
const (
	keyChains     = "chains"
	keyConnectors = "connectors"
	keyWallets    = "wallets"
)

// ChainInfo describes one chain the sidecar supports.
type ChainInfo struct {
	Chain          string   `json:"chain"`
	Networks       []string `json:"networks"`
	DefaultNetwork string   `json:"defaultNetwork"`
	DefaultWallet  string   `json:"defaultWallet"`
}

type chainsResponse struct {
	Chains []ChainInfo `json:"chains"`
}

type connectorsResponse struct {
	Connectors []domain.ConnectorInfo `json:"connectors"`
}

type walletsResponse []domain.WalletRecord

type namespacesResponse struct {
	Namespaces []string `json:"namespaces"`
}

// GetChains returns the chain catalogue, cached for the client's TTL.
func (c *Client) GetChains(ctx context.Context) ([]ChainInfo, error) {
	if chains, found := c.chainsCache.Get(ctx, keyChains); found {
		c.metrics.cacheHits.Add(ctx, 1)
		return chains, nil
	}
	c.metrics.cacheMisses.Add(ctx, 1)

	var resp chainsResponse
	if err := c.do(ctx, "GET", "config/chains", nil, nil, &resp); err != nil {
		return nil, err
	}

	c.chainsCache.Set(ctx, keyChains, resp.Chains, c.cacheTTL)
	return resp.Chains, nil
}

// GetConnectors returns the connector catalogue, cached for the client's TTL.
func (c *Client) GetConnectors(ctx context.Context) ([]domain.ConnectorInfo, error) {
	if connectors, found := c.connectorsCache.Get(ctx, keyConnectors); found {
		c.metrics.cacheHits.Add(ctx, 1)
		return connectors, nil
	}
	c.metrics.cacheMisses.Add(ctx, 1)

	var resp connectorsResponse
	if err := c.do(ctx, "GET", "config/connectors", nil, nil, &resp); err != nil {
		return nil, err
	}

	c.connectorsCache.Set(ctx, keyConnectors, resp.Connectors, c.cacheTTL)
	return resp.Connectors, nil
}

// GetWallets returns the wallet records, optionally filtered to one chain.
// The fetch always retrieves the complete set including hardware and
// read-only wallets, then rebuilds the cache wholesale; filtering happens
// on the way out.
func (c *Client) GetWallets(ctx context.Context, chain string) ([]domain.WalletRecord, error) {
	records, found := c.walletsCache.Get(ctx, keyWallets)
	if found {
		c.metrics.cacheHits.Add(ctx, 1)
	} else {
		c.metrics.cacheMisses.Add(ctx, 1)

		var resp walletsResponse
		query := map[string]string{
			"showHardware": "true",
			"showReadOnly": "true",
		}
		if err := c.do(ctx, "GET", "wallet", query, nil, &resp); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeWalletFetchFailed, "wallet fetch")
		}

		records = resp
		c.walletsCache.Set(ctx, keyWallets, records, c.cacheTTL)
	}

	if chain == "" {
		return records, nil
	}

	filtered := make([]domain.WalletRecord, 0, 1)
	for _, r := range records {
		if r.Chain == chain {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// GetConfiguration returns the configuration for one namespace, cached per
// namespace. An empty namespace returns the full configuration tree.
func (c *Client) GetConfiguration(ctx context.Context, namespace string) (Payload, error) {
	if cfg, found := c.configCache.Get(ctx, namespace); found {
		c.metrics.cacheHits.Add(ctx, 1)
		return cfg, nil
	}
	c.metrics.cacheMisses.Add(ctx, 1)

	var query map[string]string
	if namespace != "" {
		query = map[string]string{"namespace": namespace}
	}

	var cfg Payload
	if err := c.do(ctx, "GET", "config/", query, nil, &cfg); err != nil {
		return nil, err
	}

	c.configCache.Set(ctx, namespace, cfg, c.cacheTTL)
	return cfg, nil
}

// GetNamespaces returns the configuration namespaces the sidecar exposes.
func (c *Client) GetNamespaces(ctx context.Context) ([]string, error) {
	var resp namespacesResponse
	if err := c.do(ctx, "GET", "config/namespaces", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Namespaces, nil
}

// GetDefaultNetworkForChain returns the chain's default network from the
// cached chain catalogue.
func (c *Client) GetDefaultNetworkForChain(ctx context.Context, chain string) (string, error) {
	chains, err := c.GetChains(ctx)
	if err != nil {
		return "", err
	}
	for _, ci := range chains {
		if ci.Chain == chain {
			return ci.DefaultNetwork, nil
		}
	}
	return "", apperror.NotFound(apperror.CodeNotFound, fmt.Sprintf("chain %s", chain))
}

// GetDefaultWalletForChain returns the chain's default wallet address from
// the cached chain catalogue, falling back to the locally configured default
// when the catalogue carries none.
func (c *Client) GetDefaultWalletForChain(ctx context.Context, chain string) (string, error) {
	chains, err := c.GetChains(ctx)
	if err != nil {
		return "", err
	}
	for _, ci := range chains {
		if ci.Chain == chain {
			if ci.DefaultWallet != "" {
				return ci.DefaultWallet, nil
			}
			if addr, ok := c.config.DefaultWallets[chain]; ok && addr != "" {
				return addr, nil
			}
			return "", apperror.NotFound(apperror.CodeWalletNotFound, fmt.Sprintf("no default wallet for chain %s", chain))
		}
	}
	return "", apperror.NotFound(apperror.CodeNotFound, fmt.Sprintf("chain %s", chain))
}

// InitializeGateway warms the discovery caches in one pass and pushes the
// results to the completion sink when one is registered. Repeated calls
// within the cache window are near no-ops thanks to the freshness guard.
func (c *Client) InitializeGateway(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if time.Since(c.lastInitialized) < c.cacheTTL {
		return nil
	}

	ctx, span := c.tracer.Start(ctx, "gateway.initialize")
	defer span.End()

	chains, err := c.GetChains(ctx)
	if err != nil {
		return err
	}

	connectors, err := c.GetConnectors(ctx)
	if err != nil {
		return err
	}
	swapConnectors := domain.SwapConnectors(connectors)

	wallets, err := c.GetWallets(ctx, "")
	if err != nil {
		return err
	}

	namespaces, err := c.GetNamespaces(ctx)
	if err != nil {
		return err
	}

	c.lastInitialized = time.Now()
	c.metrics.warmupRuns.Add(ctx, 1)
	span.SetAttributes(
		attribute.Int("chains", len(chains)),
		attribute.Int("connectors", len(connectors)),
		attribute.Int("swap_connectors", len(swapConnectors)),
		attribute.Int("wallets", len(wallets)),
	)

	if c.sink != nil {
		chainNames := make([]string, 0, len(chains))
		for _, ci := range chains {
			chainNames = append(chainNames, ci.Chain)
		}

		connectorNames := make([]string, 0, len(swapConnectors))
		for _, ci := range swapConnectors {
			connectorNames = append(connectorNames, ci.Name)
		}

		var addresses []string
		for _, w := range wallets {
			addresses = append(addresses, w.SigningAddresses()...)
		}

		c.sink.UpdateChains(chainNames)
		c.sink.UpdateConnectors(connectorNames)
		c.sink.UpdateWallets(addresses)
		c.sink.UpdateNamespaces(namespaces)
	}

	c.logger.Info(ctx, "gateway caches initialized",
		"chains", len(chains),
		"connectors", len(connectors),
		"wallets", len(wallets),
		"namespaces", len(namespaces))

	return nil
}

// tracerSpan is a small helper for endpoint helpers that want a span with
// chain/network attributes.
func (c *Client) tracerSpan(ctx context.Context, name, chain, network string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("chain", chain),
			attribute.String("network", network),
		),
	)
}
