// Package sidecar implements the HTTP client for the blockchain-gateway
// sidecar's REST API.
package sidecar

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/helix-trading/gateway-core/business/gateway/domain"
	"github.com/helix-trading/gateway-core/internal/apperror"
	"github.com/helix-trading/gateway-core/internal/cache"
	"github.com/helix-trading/gateway-core/internal/circuitbreaker"
	"github.com/helix-trading/gateway-core/internal/httpclient"
	"github.com/helix-trading/gateway-core/internal/logger"
	"github.com/helix-trading/gateway-core/internal/ratelimit"
	"github.com/shopspring/decimal"
)

const (
	tracerName = "gateway.sidecar"
	meterName  = "gateway.sidecar"

	defaultRequestTimeout = 10 * time.Second
	defaultCacheTTL       = 10 * time.Second

	cacheJanitorInterval = 5 * time.Minute
)

// Certificate file names expected under the certs path.
const (
	caCertFile     = "ca_cert.pem"
	clientCertFile = "client_cert.pem"
	clientKeyFile  = "client_key.pem"
)

// Config holds the sidecar connection settings.
type Config struct {
	Host              string
	Port              int
	UseSSL            bool
	CertsPath         string
	RequestTimeout    time.Duration
	RequestsPerMinute int
	CacheTTL          time.Duration

	// Fees seeds the fee bounds used when a network's config namespace
	// omits them or cannot be fetched. Zero fields fall back to the
	// built-in defaults.
	Fees domain.NetworkFeeConfig

	// DefaultWallets maps chain names to a locally configured default
	// wallet, consulted when the chain catalogue carries none.
	DefaultWallets map[string]string
}

// BaseURL derives the sidecar base URL from the config.
func (c Config) BaseURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// Payload is a generically parsed sidecar response body.
type Payload map[string]any

// Client speaks the sidecar's REST protocol. It owns one persistent
// instrumented HTTP session, rebuilt only on certificate rotation or a
// base-URL change, plus the TTL caches for discovery data and fee
// estimates.
type Client struct {
	config Config
	logger logger.LoggerInterface
	tracer trace.Tracer

	session   httpclient.Client
	sessionMu sync.RWMutex

	limiter *ratelimit.Limiter

	// Discovery caches, replaced wholesale on refresh
	chainsCache     *cache.Cache[string, []ChainInfo]
	connectorsCache *cache.Cache[string, []domain.ConnectorInfo]
	walletsCache    *cache.Cache[string, []domain.WalletRecord]
	configCache     *cache.Cache[string, Payload]
	cacheTTL        time.Duration

	// Fee estimation
	feeCache    *cache.Cache[string, domain.FeeEstimate]
	feeCB       *circuitbreaker.CircuitBreaker[decimal.Decimal]
	feeDefaults domain.NetworkFeeConfig

	// Compute-unit hints, written explicitly by callers, no expiry
	hintsMu sync.RWMutex
	hints   map[string]uint64

	// Warm-up freshness guard
	initMu          sync.Mutex
	lastInitialized time.Time
	sink            CompletionSink

	metrics *clientMetrics
}

// CompletionSink receives discovery results from InitializeGateway. The
// command/UI layer registers one to keep its completion data fresh.
type CompletionSink interface {
	UpdateChains(chains []string)
	UpdateConnectors(connectors []string)
	UpdateWallets(addresses []string)
	UpdateNamespaces(namespaces []string)
}

// NewClient creates a sidecar client. The HTTP session is established
// lazily on first use.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaultCacheTTL
	}

	builtin := domain.DefaultNetworkFeeConfig()
	if cfg.Fees.MinFee.IsZero() {
		cfg.Fees.MinFee = builtin.MinFee
	}
	if cfg.Fees.MaxFee.IsZero() {
		cfg.Fees.MaxFee = builtin.MaxFee
	}
	if cfg.Fees.DefaultComputeUnits == 0 {
		cfg.Fees.DefaultComputeUnits = builtin.DefaultComputeUnits
	}
	if cfg.Fees.GasEstimateInterval == 0 {
		cfg.Fees.GasEstimateInterval = builtin.GasEstimateInterval
	}

	c := &Client{
		config:          cfg,
		logger:          log,
		tracer:          otel.Tracer(tracerName),
		chainsCache:     cache.New[string, []ChainInfo](cacheJanitorInterval),
		connectorsCache: cache.New[string, []domain.ConnectorInfo](cacheJanitorInterval),
		walletsCache:    cache.New[string, []domain.WalletRecord](cacheJanitorInterval),
		configCache:     cache.New[string, Payload](cacheJanitorInterval),
		cacheTTL:        cfg.CacheTTL,
		feeCache:        cache.New[string, domain.FeeEstimate](cacheJanitorInterval),
		feeDefaults:     cfg.Fees,
		hints:           make(map[string]uint64),
	}

	if cfg.RequestsPerMinute > 0 {
		c.limiter = ratelimit.New(cfg.RequestsPerMinute)
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	c.initCircuitBreaker()

	session, err := c.buildSession()
	if err != nil {
		return nil, err
	}
	c.session = session

	return c, nil
}

// SetCompletionSink registers the collaborator that receives discovery
// results during warm-up.
func (c *Client) SetCompletionSink(sink CompletionSink) {
	c.initMu.Lock()
	c.sink = sink
	c.initMu.Unlock()
}

// buildSession constructs the instrumented HTTP session, loading client
// certificates when SSL is enabled.
func (c *Client) buildSession() (httpclient.Client, error) {
	opts := []httpclient.ClientOption{
		httpclient.WithProviderName("gateway"),
		httpclient.WithBaseURL(c.config.BaseURL()),
		httpclient.WithRequestTimeout(c.config.RequestTimeout),
		httpclient.WithTraceOptions(c.tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	}

	if c.config.UseSSL {
		tlsCfg, err := loadTLSConfig(c.config.CertsPath)
		if err != nil {
			return nil, apperror.New(apperror.CodeCertificateError,
				apperror.WithCause(err),
				apperror.WithContext(c.config.CertsPath))
		}
		opts = append(opts, httpclient.WithTLSClientConfig(tlsCfg))
	}

	return httpclient.NewInstrumentedClient(opts...)
}

// loadTLSConfig loads the CA plus client certificate pair from certsPath.
func loadTLSConfig(certsPath string) (*tls.Config, error) {
	caPEM, err := os.ReadFile(filepath.Join(certsPath, caCertFile))
	if err != nil {
		return nil, fmt.Errorf("read CA cert: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no CA certificates found in %s", caCertFile)
	}

	clientCert, err := tls.LoadX509KeyPair(
		filepath.Join(certsPath, clientCertFile),
		filepath.Join(certsPath, clientKeyFile),
	)
	if err != nil {
		return nil, fmt.Errorf("load client cert pair: %w", err)
	}

	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{clientCert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// ReloadCerts tears down the session and rebuilds it with freshly loaded
// certificates. Never called mid-request; in-flight calls keep the old
// transport.
func (c *Client) ReloadCerts() error {
	session, err := c.buildSession()
	if err != nil {
		return err
	}

	c.sessionMu.Lock()
	c.session = session
	c.sessionMu.Unlock()

	c.logger.Info(context.Background(), "gateway session rebuilt after cert reload")
	return nil
}

// SetBaseURL points the client at a different host/port/TLS mode and
// rebuilds the session.
func (c *Client) SetBaseURL(host string, port int, useSSL bool) error {
	c.config.Host = host
	c.config.Port = port
	c.config.UseSSL = useSSL

	session, err := c.buildSession()
	if err != nil {
		return err
	}

	c.sessionMu.Lock()
	c.session = session
	c.sessionMu.Unlock()

	c.logger.Info(context.Background(), "gateway session rebuilt", "base_url", c.config.BaseURL())
	return nil
}

// currentSession returns the live session under the read lock.
func (c *Client) currentSession() httpclient.Client {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.session
}

// exec performs one sidecar request and returns the raw response. Transport
// failures map to connection/timeout errors, status >= 400 to a protocol
// error carrying endpoint, status and body. No retry at this layer.
func (c *Client) exec(ctx context.Context, method, endpoint string, query map[string]string, body any) (*httpclient.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperror.New(apperror.CodeRateLimitExceeded,
				apperror.WithCause(err),
				apperror.WithContext(endpoint))
		}
	}

	req := c.currentSession().NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", endpoint)),
	)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	var (
		resp *httpclient.Response
		err  error
	)
	switch method {
	case "GET":
		resp, err = req.Get(ctx, endpoint)
	case "POST":
		resp, err = req.Post(ctx, endpoint)
	case "PUT":
		resp, err = req.Put(ctx, endpoint)
	case "DELETE":
		resp, err = req.Delete(ctx, endpoint)
	default:
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("unsupported method %s", method)))
	}

	if err != nil {
		return nil, transportError(err, endpoint)
	}

	if resp.IsError() {
		return nil, apperror.New(apperror.CodeGatewayHTTPError,
			apperror.WithStatusCode(resp.StatusCode),
			apperror.WithContext(fmt.Sprintf("%s %s: HTTP %d: %s", method, endpoint, resp.StatusCode, resp.String())))
	}

	return resp, nil
}

// transportError classifies a network failure as timeout or connection.
func transportError(err error, endpoint string) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperror.New(apperror.CodeGatewayTimeout,
			apperror.WithCause(err),
			apperror.WithContext(endpoint))
	}
	return apperror.New(apperror.CodeGatewayConnectionFailed,
		apperror.WithCause(err),
		apperror.WithContext(endpoint))
}

// do performs a request and decodes the JSON body into out when non-nil.
func (c *Client) do(ctx context.Context, method, endpoint string, query map[string]string, body, out any) error {
	resp, err := c.exec(ctx, method, endpoint, query, body)
	if err != nil {
		return err
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return apperror.New(apperror.CodeInvalidFormat,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s %s: unparseable body", method, endpoint)))
	}
	return nil
}

// Request is the generic sidecar primitive: it returns the parsed JSON
// body, or the raw text when the response is not JSON.
func (c *Client) Request(ctx context.Context, method, endpoint string, query map[string]string, body any) (any, error) {
	resp, err := c.exec(ctx, method, endpoint, query, body)
	if err != nil {
		return nil, err
	}

	raw := resp.Body()
	if len(raw) == 0 {
		return nil, nil
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "json") {
		return resp.String(), nil
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return resp.String(), nil
	}
	return parsed, nil
}

// ConnectorRequest issues a request against connectors/{connector}/{endpoint}.
// With failSilently set, any error is converted into a {"error": msg} payload.
func (c *Client) ConnectorRequest(ctx context.Context, method, connector, endpoint string, query map[string]string, body any, failSilently bool) (any, error) {
	path := fmt.Sprintf("connectors/%s/%s", connector, endpoint)
	result, err := c.Request(ctx, method, path, query, body)
	if err != nil {
		if failSilently {
			c.logger.Debug(ctx, "connector request failed silently", "path", path, "error", err)
			return Payload{"error": err.Error()}, nil
		}
		return nil, err
	}
	return result, nil
}

// ChainRequest issues a request against chains/{chain}/{endpoint}. With
// failSilently set, any error is converted into a {"error": msg} payload.
func (c *Client) ChainRequest(ctx context.Context, method, chain, endpoint string, query map[string]string, body any, failSilently bool) (any, error) {
	path := fmt.Sprintf("chains/%s/%s", chain, endpoint)
	result, err := c.Request(ctx, method, path, query, body)
	if err != nil {
		if failSilently {
			c.logger.Debug(ctx, "chain request failed silently", "path", path, "error", err)
			return Payload{"error": err.Error()}, nil
		}
		return nil, err
	}
	return result, nil
}

// Ping probes the sidecar root endpoint. Used by the status monitor. A
// reachable sidecar that does not report status "ok" counts as offline.
func (c *Client) Ping(ctx context.Context) error {
	var root struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, "GET", "", nil, nil, &root); err != nil {
		return err
	}
	if root.Status != "ok" {
		return apperror.New(apperror.CodeGatewayOffline,
			apperror.WithContext(fmt.Sprintf("gateway status %q", root.Status)))
	}
	return nil
}

// Close releases the client's caches.
func (c *Client) Close() error {
	c.chainsCache.Close()
	c.connectorsCache.Close()
	c.walletsCache.Close()
	c.configCache.Close()
	c.feeCache.Close()
	return nil
}
