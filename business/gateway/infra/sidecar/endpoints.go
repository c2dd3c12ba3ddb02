package sidecar

import (
	"context"
	"fmt"

	"github.com/helix-trading/gateway-core/business/gateway/domain"
	"github.com/helix-trading/gateway-core/internal/apperror"
)

// AddWallet registers a private key with the sidecar for the given chain.
// The wallet cache is invalidated so the next read refetches.
func (c *Client) AddWallet(ctx context.Context, chain, privateKey string) (Payload, error) {
	var resp Payload
	body := Payload{"chain": chain, "privateKey": privateKey}
	if err := c.do(ctx, "POST", "wallet/add", nil, body, &resp); err != nil {
		return nil, err
	}
	c.walletsCache.Delete(ctx, keyWallets)
	return resp, nil
}

// AddHardwareWallet registers a hardware wallet address for the given chain.
func (c *Client) AddHardwareWallet(ctx context.Context, chain, address string) (Payload, error) {
	var resp Payload
	body := Payload{"chain": chain, "address": address}
	if err := c.do(ctx, "POST", "wallet/add-hardware", nil, body, &resp); err != nil {
		return nil, err
	}
	c.walletsCache.Delete(ctx, keyWallets)
	return resp, nil
}

// AddReadOnlyWallet registers a watch-only address for the given chain.
func (c *Client) AddReadOnlyWallet(ctx context.Context, chain, address string) (Payload, error) {
	var resp Payload
	body := Payload{"chain": chain, "address": address, "readOnly": true}
	if err := c.do(ctx, "POST", "wallet/add-read-only", nil, body, &resp); err != nil {
		return nil, err
	}
	c.walletsCache.Delete(ctx, keyWallets)
	return resp, nil
}

// RemoveWallet removes a wallet address from the sidecar.
func (c *Client) RemoveWallet(ctx context.Context, chain, address string) error {
	body := Payload{"chain": chain, "address": address}
	if err := c.do(ctx, "DELETE", "wallet/remove", nil, body, nil); err != nil {
		return err
	}
	c.walletsCache.Delete(ctx, keyWallets)
	return nil
}

// SetDefaultWallet marks an address as the chain's default wallet.
func (c *Client) SetDefaultWallet(ctx context.Context, chain, address string) error {
	body := Payload{"chain": chain, "address": address}
	if err := c.do(ctx, "POST", "wallet/setDefault", nil, body, nil); err != nil {
		return err
	}
	// Defaults live in the chain catalogue, so drop that too.
	c.chainsCache.Delete(ctx, keyChains)
	return nil
}

// TokenInfo describes one token known to the sidecar.
type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	Name     string `json:"name,omitempty"`
	Chain    string `json:"chain,omitempty"`
	Network  string `json:"network,omitempty"`
}

type tokensResponse struct {
	Tokens []TokenInfo `json:"tokens"`
}

// GetTokens lists the tokens for one chain/network.
func (c *Client) GetTokens(ctx context.Context, chain, network string) ([]TokenInfo, error) {
	query := map[string]string{"chain": chain, "network": network}
	var resp tokensResponse
	if err := c.do(ctx, "GET", "tokens", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

// GetToken looks up one token by symbol or address.
func (c *Client) GetToken(ctx context.Context, chain, network, symbolOrAddress string) (*TokenInfo, error) {
	query := map[string]string{"chain": chain, "network": network}
	var token TokenInfo
	if err := c.do(ctx, "GET", "tokens/"+symbolOrAddress, query, nil, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// AddToken registers a custom token with the sidecar.
func (c *Client) AddToken(ctx context.Context, chain, network string, token TokenInfo) error {
	body := Payload{
		"chain":    chain,
		"network":  network,
		"symbol":   token.Symbol,
		"address":  token.Address,
		"decimals": token.Decimals,
		"name":     token.Name,
	}
	return c.do(ctx, "POST", "tokens", nil, body, nil)
}

// RemoveToken deletes a custom token by address.
func (c *Client) RemoveToken(ctx context.Context, chain, network, address string) error {
	query := map[string]string{"chain": chain, "network": network}
	return c.do(ctx, "DELETE", "tokens/"+address, query, nil, nil)
}

// GetBalances fetches token balances for an address.
func (c *Client) GetBalances(ctx context.Context, chain, network, address string, tokens []string) (Payload, error) {
	ctx, span := c.tracerSpan(ctx, "gateway.balances", chain, network)
	defer span.End()

	body := Payload{
		"network": network,
		"address": address,
		"tokens":  tokens,
	}
	var resp Payload
	if err := c.do(ctx, "POST", fmt.Sprintf("chains/%s/balances", chain), nil, body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetAllowances fetches ERC-20 allowances for a spender. Ethereum family only.
func (c *Client) GetAllowances(ctx context.Context, network, address, spender string, tokens []string) (Payload, error) {
	body := Payload{
		"network": network,
		"address": address,
		"spender": spender,
		"tokens":  tokens,
	}
	var resp Payload
	if err := c.do(ctx, "POST", "chains/ethereum/allowances", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ApproveToken issues an ERC-20 approval. Ethereum family only.
func (c *Client) ApproveToken(ctx context.Context, network, address, spender, token string) (domain.SubmissionResponse, error) {
	body := Payload{
		"network": network,
		"address": address,
		"spender": spender,
		"token":   token,
	}
	var resp domain.SubmissionResponse
	if err := c.do(ctx, "POST", "chains/ethereum/approve", nil, body, &resp); err != nil {
		return domain.SubmissionResponse{}, err
	}
	return resp, nil
}

// SwapQuote is the sidecar's reply to a quote request.
type SwapQuote struct {
	Price            float64 `json:"price"`
	AmountIn         float64 `json:"amountIn"`
	AmountOut        float64 `json:"amountOut"`
	MinAmountOut     float64 `json:"minAmountOut"`
	MaxAmountIn      float64 `json:"maxAmountIn"`
	GasEstimate      float64 `json:"gasEstimate,omitempty"`
	ComputeUnits     uint64  `json:"computeUnits,omitempty"`
	PriceImpactPct   float64 `json:"priceImpactPct,omitempty"`
	PoolAddress      string  `json:"poolAddress,omitempty"`
	QuoteID          string  `json:"quoteId,omitempty"`
	BaseTokenAddress string  `json:"baseTokenAddress,omitempty"`
}

// QuoteSwap asks a connector to price a swap. When the quote reports a
// compute-unit cost, it is cached as a hint for the matching submission.
func (c *Client) QuoteSwap(ctx context.Context, connector, network, baseToken, quoteToken, side string, amount float64) (*SwapQuote, error) {
	query := map[string]string{
		"network":    network,
		"baseToken":  baseToken,
		"quoteToken": quoteToken,
		"side":       side,
		"amount":     fmt.Sprintf("%v", amount),
	}

	var quote SwapQuote
	if err := c.do(ctx, "GET", fmt.Sprintf("connectors/%s/quote-swap", connector), query, nil, &quote); err != nil {
		return nil, err
	}

	if quote.ComputeUnits > 0 {
		c.CacheComputeUnits("execute-swap", connector, network, quote.ComputeUnits)
	}

	return &quote, nil
}

// ExecuteSwap submits a swap through a connector. Submission happens exactly
// once; confirmation tracking is the caller's concern.
func (c *Client) ExecuteSwap(ctx context.Context, connector string, params Payload) (domain.SubmissionResponse, error) {
	var resp domain.SubmissionResponse
	if err := c.do(ctx, "POST", fmt.Sprintf("connectors/%s/execute-swap", connector), nil, params, &resp); err != nil {
		return domain.SubmissionResponse{}, err
	}
	c.metrics.txSubmissions.Add(ctx, 1)
	return resp, nil
}

// SubmitTransaction posts a transaction to the generic connector method
// endpoint. Used by the executor after fee resolution.
func (c *Client) SubmitTransaction(ctx context.Context, connector, method string, params map[string]any) (domain.SubmissionResponse, error) {
	var resp domain.SubmissionResponse
	if err := c.do(ctx, "POST", fmt.Sprintf("connectors/%s/%s", connector, method), nil, params, &resp); err != nil {
		return domain.SubmissionResponse{}, err
	}
	c.metrics.txSubmissions.Add(ctx, 1)
	return resp, nil
}

// PoolInfo describes one liquidity pool.
type PoolInfo struct {
	Address    string  `json:"address"`
	BaseToken  string  `json:"baseSymbol"`
	QuoteToken string  `json:"quoteSymbol"`
	Type       string  `json:"type,omitempty"`
	Fee        float64 `json:"fee,omitempty"`
}

type poolsResponse struct {
	Pools []PoolInfo `json:"pools"`
}

// GetPools lists the pools tracked for a connector/network.
func (c *Client) GetPools(ctx context.Context, connector, network string) ([]PoolInfo, error) {
	query := map[string]string{"connector": connector, "network": network}
	var resp poolsResponse
	if err := c.do(ctx, "GET", "pools", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Pools, nil
}

// GetPoolInfo fetches live state for one pool through its connector.
func (c *Client) GetPoolInfo(ctx context.Context, connector, network, poolAddress string) (Payload, error) {
	query := map[string]string{"network": network, "poolAddress": poolAddress}
	var resp Payload
	if err := c.do(ctx, "GET", fmt.Sprintf("connectors/%s/pool-info", connector), query, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AddPool registers a pool with the sidecar.
func (c *Client) AddPool(ctx context.Context, connector, network string, pool PoolInfo) error {
	body := Payload{
		"connector":   connector,
		"network":     network,
		"address":     pool.Address,
		"baseSymbol":  pool.BaseToken,
		"quoteSymbol": pool.QuoteToken,
		"type":        pool.Type,
	}
	return c.do(ctx, "POST", "pools", nil, body, nil)
}

// RemovePool deletes a pool by address.
func (c *Client) RemovePool(ctx context.Context, connector, network, address string) error {
	query := map[string]string{"connector": connector, "network": network}
	return c.do(ctx, "DELETE", "pools/"+address, query, nil, nil)
}

// GetTransactionStatus polls one transaction's status.
func (c *Client) GetTransactionStatus(ctx context.Context, chain, network, signature string) (domain.PollResponse, error) {
	ctx, span := c.tracerSpan(ctx, "gateway.poll", chain, network)
	defer span.End()

	body := Payload{"network": network, "signature": signature}
	var resp domain.PollResponse
	if err := c.do(ctx, "POST", fmt.Sprintf("chains/%s/poll", chain), nil, body, &resp); err != nil {
		return domain.PollResponse{}, apperror.Wrap(err, apperror.CodePollFailed, signature)
	}
	return resp, nil
}

// GetNetworkStatus fetches chain/network status, e.g. the current block.
func (c *Client) GetNetworkStatus(ctx context.Context, chain, network string) (Payload, error) {
	query := map[string]string{"network": network}
	var resp Payload
	if err := c.do(ctx, "GET", fmt.Sprintf("chains/%s/status", chain), query, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetGatewayStatus reports basic info about the chain's connected network,
// falling back to the sidecar's root status payload when the chain status
// endpoint fails.
func (c *Client) GetGatewayStatus(ctx context.Context, chain, network string) (Payload, error) {
	status, err := c.GetNetworkStatus(ctx, chain, network)
	if err == nil {
		return status, nil
	}
	c.logger.Warn(ctx, "network status fetch failed, falling back to root status",
		"chain", chain, "network", network, "error", err)

	var root Payload
	if err := c.do(ctx, "GET", "", nil, nil, &root); err != nil {
		return nil, err
	}
	return root, nil
}

// GetNativeCurrencySymbol returns the native currency for a chain/network.
func (c *Client) GetNativeCurrencySymbol(ctx context.Context, chain, network string) (string, error) {
	status, err := c.GetNetworkStatus(ctx, chain, network)
	if err != nil {
		return "", err
	}
	if sym, ok := status["nativeCurrency"].(string); ok {
		return sym, nil
	}
	return "", apperror.NotFound(apperror.CodeNotFound, fmt.Sprintf("nativeCurrency for %s/%s", chain, network))
}

// UpdateConfig mutates one configuration value and restarts the sidecar,
// which is how the sidecar applies config changes. Config caches are
// dropped so the next read observes the new values.
func (c *Client) UpdateConfig(ctx context.Context, namespace, path string, value any) error {
	body := Payload{
		"namespace": namespace,
		"path":      path,
		"value":     value,
	}
	if err := c.do(ctx, "POST", "config/update", nil, body, nil); err != nil {
		return err
	}

	c.configCache.Delete(ctx, namespace)

	if err := c.PostRestart(ctx); err != nil {
		c.logger.Warn(ctx, "gateway restart after config update failed", "error", err)
	}
	return nil
}

// PostRestart asks the sidecar to restart itself.
func (c *Client) PostRestart(ctx context.Context) error {
	return c.do(ctx, "POST", "restart", nil, nil, nil)
}
