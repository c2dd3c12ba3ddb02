package sidecar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/helix-trading/gateway-core/internal/apperror"
	"github.com/helix-trading/gateway-core/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

// newTestClient builds a Client pointed at the test server.
func newTestClient(t *testing.T, serverURL string, cacheTTL time.Duration) *Client {
	t.Helper()

	u, err := url.Parse(serverURL)
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("failed to parse server port: %v", err)
	}

	c, err := NewClient(Config{
		Host:           u.Hostname(),
		Port:           port,
		RequestTimeout: 5 * time.Second,
		CacheTTL:       cacheTTL,
	}, &mockLogger{})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return c
}

func TestGetChainsCachedUntilTTL(t *testing.T) {
	var fetches atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/config/chains" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"chains": []map[string]any{
				{"chain": "solana", "networks": []string{"mainnet-beta"}, "defaultNetwork": "mainnet-beta"},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, 50*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		chains, err := c.GetChains(ctx)
		if err != nil {
			t.Fatalf("GetChains: %v", err)
		}
		if len(chains) != 1 || chains[0].Chain != "solana" {
			t.Fatalf("unexpected chains: %+v", chains)
		}
	}
	if got := fetches.Load(); got != 1 {
		t.Fatalf("fetches within TTL = %d, want 1", got)
	}

	time.Sleep(80 * time.Millisecond)

	if _, err := c.GetChains(ctx); err != nil {
		t.Fatalf("GetChains after expiry: %v", err)
	}
	if got := fetches.Load(); got != 2 {
		t.Fatalf("fetches after TTL = %d, want exactly one refetch", got)
	}
}

func TestGetWalletsFetchesFullSetAndFilters(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"chain":                   "solana",
				"walletAddresses":         []string{"sol1"},
				"hardwareWalletAddresses": []string{"solhw"},
				"readOnlyWalletAddresses": []string{"solro"},
			},
			{
				"chain":           "ethereum",
				"walletAddresses": []string{"eth1"},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, time.Minute)
	ctx := context.Background()

	wallets, err := c.GetWallets(ctx, "solana")
	if err != nil {
		t.Fatalf("GetWallets: %v", err)
	}

	if gotQuery.Get("showHardware") != "true" || gotQuery.Get("showReadOnly") != "true" {
		t.Errorf("wallet fetch query = %v, want showHardware=true and showReadOnly=true", gotQuery)
	}

	if len(wallets) != 1 || wallets[0].Chain != "solana" {
		t.Fatalf("filtered wallets = %+v, want only solana", wallets)
	}

	signing := wallets[0].SigningAddresses()
	if len(signing) != 2 || signing[0] != "sol1" || signing[1] != "solhw" {
		t.Errorf("SigningAddresses = %v, want [sol1 solhw]", signing)
	}

	// Full set was cached; an unfiltered read serves both chains without refetch.
	all, err := c.GetWallets(ctx, "")
	if err != nil {
		t.Fatalf("GetWallets all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all wallets = %d records, want 2", len(all))
	}
}

func TestProtocolErrorCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"node unavailable"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, time.Minute)

	_, err := c.Request(context.Background(), "GET", "config/chains", nil, nil)
	if err == nil {
		t.Fatal("expected error for HTTP 503")
	}
	if code := apperror.GetCode(err); code != apperror.CodeGatewayHTTPError {
		t.Errorf("error code = %s, want %s", code, apperror.CodeGatewayHTTPError)
	}

	var appErr *apperror.AppError
	if !apperror.IsAppError(err) {
		t.Fatal("expected AppError")
	}
	appErr = err.(*apperror.AppError)
	if appErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", appErr.StatusCode)
	}
}

func TestConnectorRequestFailSilently(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, time.Minute)
	ctx := context.Background()

	// Propagating mode surfaces the error.
	if _, err := c.ConnectorRequest(ctx, "GET", "jupiter", "quote-swap", nil, nil, false); err == nil {
		t.Fatal("expected error without failSilently")
	}

	// Silent mode converts it into an error payload.
	result, err := c.ConnectorRequest(ctx, "GET", "jupiter", "quote-swap", nil, nil, true)
	if err != nil {
		t.Fatalf("failSilently returned error: %v", err)
	}
	payload, ok := result.(Payload)
	if !ok {
		t.Fatalf("result = %T, want Payload", result)
	}
	if payload["error"] == "" || payload["error"] == nil {
		t.Errorf("payload = %v, want non-empty error entry", payload)
	}
}

func TestRequestReturnsRawTextForNonJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("pong"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, time.Minute)

	result, err := c.Request(context.Background(), "GET", "ping", nil, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if result != "pong" {
		t.Errorf("result = %v, want raw text pong", result)
	}
}

func TestPingOfflineGateway(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	c := newTestClient(t, server.URL, time.Minute)

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping against live server: %v", err)
	}

	server.Close()

	err := c.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error pinging closed server")
	}
	if code := apperror.GetCode(err); code != apperror.CodeGatewayConnectionFailed && code != apperror.CodeGatewayTimeout {
		t.Errorf("error code = %s, want a transport error", code)
	}
}

func TestPingRequiresOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"initializing"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, time.Minute)

	err := c.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error for a reachable gateway not reporting ok")
	}
	if code := apperror.GetCode(err); code != apperror.CodeGatewayOffline {
		t.Errorf("error code = %s, want %s", code, apperror.CodeGatewayOffline)
	}
}

func TestInitializeGatewayWarmsCachesAndNotifiesSink(t *testing.T) {
	var chainFetches atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/config/chains", func(w http.ResponseWriter, r *http.Request) {
		chainFetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"chains": []map[string]any{{"chain": "solana", "networks": []string{"mainnet-beta"}}},
		})
	})
	mux.HandleFunc("/config/connectors", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"connectors": []map[string]any{
				{"name": "jupiter", "trading_types": []string{"router"}},
				{"name": "oracle-feed", "trading_types": []string{}},
			},
		})
	})
	mux.HandleFunc("/wallet", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"chain": "solana", "walletAddresses": []string{"sol1"}},
		})
	})
	mux.HandleFunc("/config/namespaces", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"namespaces": []string{"solana-mainnet-beta"}})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(t, server.URL, time.Minute)
	sink := &recordingSink{}
	c.SetCompletionSink(sink)

	ctx := context.Background()
	if err := c.InitializeGateway(ctx); err != nil {
		t.Fatalf("InitializeGateway: %v", err)
	}

	if len(sink.chains) != 1 || sink.chains[0] != "solana" {
		t.Errorf("sink chains = %v, want [solana]", sink.chains)
	}
	// Only swap-capable connectors reach the sink.
	if len(sink.connectors) != 1 || sink.connectors[0] != "jupiter" {
		t.Errorf("sink connectors = %v, want [jupiter]", sink.connectors)
	}
	if len(sink.wallets) != 1 || sink.wallets[0] != "sol1" {
		t.Errorf("sink wallets = %v, want [sol1]", sink.wallets)
	}
	if len(sink.namespaces) != 1 {
		t.Errorf("sink namespaces = %v, want one entry", sink.namespaces)
	}

	// Freshness guard: a second warm-up inside the window is a no-op.
	if err := c.InitializeGateway(ctx); err != nil {
		t.Fatalf("second InitializeGateway: %v", err)
	}
	if got := chainFetches.Load(); got != 1 {
		t.Errorf("chain fetches = %d, want 1 (guard should skip the pass)", got)
	}
}

type recordingSink struct {
	chains, connectors, wallets, namespaces []string
}

func (s *recordingSink) UpdateChains(chains []string)         { s.chains = chains }
func (s *recordingSink) UpdateConnectors(connectors []string) { s.connectors = connectors }
func (s *recordingSink) UpdateWallets(addresses []string)     { s.wallets = addresses }
func (s *recordingSink) UpdateNamespaces(namespaces []string) { s.namespaces = namespaces }

func TestGetDefaultWalletFallsBackToConfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"chains": []map[string]any{
				{"chain": "solana", "networks": []string{"mainnet-beta"}, "defaultNetwork": "mainnet-beta"},
				{"chain": "ethereum", "networks": []string{"mainnet"}, "defaultNetwork": "mainnet", "defaultWallet": "0xcatalogue"},
			},
		})
	}))
	defer server.Close()

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("failed to parse server port: %v", err)
	}

	c, err := NewClient(Config{
		Host:           u.Hostname(),
		Port:           port,
		RequestTimeout: 5 * time.Second,
		CacheTTL:       time.Minute,
		DefaultWallets: map[string]string{"solana": "So1anaDefau1tAddr"},
	}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	// Catalogue default wins when present.
	addr, err := c.GetDefaultWalletForChain(ctx, "ethereum")
	if err != nil {
		t.Fatalf("GetDefaultWalletForChain(ethereum): %v", err)
	}
	if addr != "0xcatalogue" {
		t.Errorf("ethereum default = %s, want 0xcatalogue", addr)
	}

	// Configured default fills in when the catalogue has none.
	addr, err = c.GetDefaultWalletForChain(ctx, "solana")
	if err != nil {
		t.Fatalf("GetDefaultWalletForChain(solana): %v", err)
	}
	if addr != "So1anaDefau1tAddr" {
		t.Errorf("solana default = %s, want the configured fallback", addr)
	}

	// No catalogue entry and no configured fallback is still not-found.
	if _, err := c.GetDefaultWalletForChain(ctx, "polygon"); err == nil {
		t.Error("expected not-found for chain without any default wallet")
	}
}

func TestGetGatewayStatusFallsBackToRoot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chains/solana/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "version": "2.0.0"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(t, server.URL, time.Minute)

	status, err := c.GetGatewayStatus(context.Background(), "solana", "mainnet-beta")
	if err != nil {
		t.Fatalf("GetGatewayStatus: %v", err)
	}
	if status["status"] != "ok" || status["version"] != "2.0.0" {
		t.Errorf("fallback status = %v, want the root payload", status)
	}
}
