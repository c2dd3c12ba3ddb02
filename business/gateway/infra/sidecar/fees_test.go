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

	"github.com/helix-trading/gateway-core/business/gateway/domain"
	"github.com/shopspring/decimal"
)

func TestEstimatePriorityFeeCachedPerInterval(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chains/solana/estimate-gas" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"feePerComputeUnit": 1500.0,
			"denomination":      "microlamports",
			"timestamp":         time.Now().Unix(),
		})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, time.Minute)
	ctx := context.Background()

	want := decimal.NewFromInt(1500)
	for i := 0; i < 3; i++ {
		got := c.EstimatePriorityFee(ctx, "solana", "mainnet-beta", 40*time.Millisecond)
		if !got.Equal(want) {
			t.Fatalf("fee = %s, want %s", got, want)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("estimate-gas calls within interval = %d, want 1", got)
	}

	time.Sleep(60 * time.Millisecond)

	c.EstimatePriorityFee(ctx, "solana", "mainnet-beta", 40*time.Millisecond)
	if got := calls.Load(); got != 2 {
		t.Fatalf("estimate-gas calls after interval = %d, want 2", got)
	}
}

func TestEstimatePriorityFeeDegradesToZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, time.Minute)

	got := c.EstimatePriorityFee(context.Background(), "solana", "mainnet-beta", time.Minute)
	if !got.IsZero() {
		t.Errorf("fee on failure = %s, want 0", got)
	}
}

func TestComputeUnitHints(t *testing.T) {
	c := &Client{hints: make(map[string]uint64)}

	if _, ok := c.CachedComputeUnits("execute-swap", "jupiter", "mainnet-beta"); ok {
		t.Fatal("expected no hint before caching")
	}

	c.CacheComputeUnits("execute-swap", "jupiter", "mainnet-beta", 140000)

	units, ok := c.CachedComputeUnits("execute-swap", "jupiter", "mainnet-beta")
	if !ok || units != 140000 {
		t.Fatalf("hint = %d,%v, want 140000,true", units, ok)
	}

	// Hints are keyed by the full (txType, connector, network) triple.
	if _, ok := c.CachedComputeUnits("execute-swap", "jupiter", "devnet"); ok {
		t.Error("expected no hint for a different network")
	}
}

func TestGetNetworkFeeConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("namespace") {
		case "solana-mainnet-beta":
			json.NewEncoder(w).Encode(map[string]any{
				"minFee":              0.001,
				"maxFee":              0.05,
				"defaultComputeUnits": 350000,
				"gasEstimateInterval": 30,
			})
		default:
			json.NewEncoder(w).Encode(map[string]any{})
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, time.Minute)
	ctx := context.Background()

	cfg, err := c.GetNetworkFeeConfig(ctx, "solana", "mainnet-beta")
	if err != nil {
		t.Fatalf("GetNetworkFeeConfig: %v", err)
	}
	if !cfg.MinFee.Equal(decimal.NewFromFloat(0.001)) {
		t.Errorf("MinFee = %s, want 0.001", cfg.MinFee)
	}
	if !cfg.MaxFee.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("MaxFee = %s, want 0.05", cfg.MaxFee)
	}
	if cfg.DefaultComputeUnits != 350000 {
		t.Errorf("DefaultComputeUnits = %d, want 350000", cfg.DefaultComputeUnits)
	}
	if cfg.GasEstimateInterval != 30*time.Second {
		t.Errorf("GasEstimateInterval = %s, want 30s", cfg.GasEstimateInterval)
	}

	// Empty namespace config falls back to the built-in defaults.
	cfg, err = c.GetNetworkFeeConfig(ctx, "solana", "devnet")
	if err != nil {
		t.Fatalf("GetNetworkFeeConfig defaults: %v", err)
	}
	if !cfg.MinFee.Equal(decimal.NewFromFloat(domain.DefaultMinFee)) {
		t.Errorf("default MinFee = %s, want %v", cfg.MinFee, domain.DefaultMinFee)
	}
	if cfg.DefaultComputeUnits != domain.DefaultComputeUnits {
		t.Errorf("default DefaultComputeUnits = %d, want %d", cfg.DefaultComputeUnits, domain.DefaultComputeUnits)
	}
}

func TestGetNetworkFeeConfigDegradesToDefaults(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, time.Minute)
	ctx := context.Background()

	cfg, err := c.GetNetworkFeeConfig(ctx, "solana", "mainnet-beta")
	if err != nil {
		t.Fatalf("config endpoint failure must not block submission: %v", err)
	}
	if !cfg.MinFee.Equal(decimal.NewFromFloat(domain.DefaultMinFee)) {
		t.Errorf("degraded MinFee = %s, want %v", cfg.MinFee, domain.DefaultMinFee)
	}
	if cfg.DefaultComputeUnits != domain.DefaultComputeUnits {
		t.Errorf("degraded DefaultComputeUnits = %d, want %d", cfg.DefaultComputeUnits, domain.DefaultComputeUnits)
	}

	// The failure is cached, so a second read within the TTL does not
	// hit the endpoint again.
	if _, err := c.GetNetworkFeeConfig(ctx, "solana", "mainnet-beta"); err != nil {
		t.Fatalf("second degraded read: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("config fetches = %d, want 1", got)
	}
}

func TestGetNetworkFeeConfigUsesConfiguredDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{})
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
		Fees: domain.NetworkFeeConfig{
			MinFee:              decimal.NewFromFloat(0.0005),
			MaxFee:              decimal.NewFromFloat(0.02),
			DefaultComputeUnits: 400000,
			GasEstimateInterval: 45 * time.Second,
		},
	}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	cfg, err := c.GetNetworkFeeConfig(context.Background(), "solana", "devnet")
	if err != nil {
		t.Fatalf("GetNetworkFeeConfig: %v", err)
	}
	if !cfg.MinFee.Equal(decimal.NewFromFloat(0.0005)) {
		t.Errorf("MinFee = %s, want configured 0.0005", cfg.MinFee)
	}
	if !cfg.MaxFee.Equal(decimal.NewFromFloat(0.02)) {
		t.Errorf("MaxFee = %s, want configured 0.02", cfg.MaxFee)
	}
	if cfg.DefaultComputeUnits != 400000 {
		t.Errorf("DefaultComputeUnits = %d, want configured 400000", cfg.DefaultComputeUnits)
	}
	if cfg.GasEstimateInterval != 45*time.Second {
		t.Errorf("GasEstimateInterval = %s, want configured 45s", cfg.GasEstimateInterval)
	}
}

func TestQuoteSwapSeedsComputeUnitHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"price":        142.5,
			"amountIn":     1.0,
			"amountOut":    142.5,
			"computeUnits": 180000,
		})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, time.Minute)

	quote, err := c.QuoteSwap(context.Background(), "jupiter", "mainnet-beta", "SOL", "USDC", "SELL", 1.0)
	if err != nil {
		t.Fatalf("QuoteSwap: %v", err)
	}
	if quote.ComputeUnits != 180000 {
		t.Fatalf("quote compute units = %d, want 180000", quote.ComputeUnits)
	}

	units, ok := c.CachedComputeUnits("execute-swap", "jupiter", "mainnet-beta")
	if !ok || units != 180000 {
		t.Errorf("hint after quote = %d,%v, want 180000,true", units, ok)
	}
}
