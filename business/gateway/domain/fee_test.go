package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeUnitPricedConverter(t *testing.T) {
	tests := []struct {
		name         string
		nativeFee    string
		computeUnits uint64
		want         string
	}{
		{
			name:         "min fee over default units",
			nativeFee:    "0.0001",
			computeUnits: 200000,
			want:         "500",
		},
		{
			name:         "max fee over default units",
			nativeFee:    "0.01",
			computeUnits: 200000,
			want:         "50000",
		},
		{
			name:         "zero units yields zero",
			nativeFee:    "0.01",
			computeUnits: 0,
			want:         "0",
		},
	}

	conv := ComputeUnitPricedConverter{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := decimal.RequireFromString(tt.nativeFee)
			got := conv.PerComputeUnit(fee, tt.computeUnits)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("PerComputeUnit(%s, %d) = %s, want %s", tt.nativeFee, tt.computeUnits, got, want)
			}
		})
	}
}

func TestGasPricedConverter(t *testing.T) {
	conv := GasPricedConverter{}

	got := conv.PerComputeUnit(decimal.RequireFromString("0.0001"), 21000)
	want := decimal.RequireFromString("100000")
	if !got.Equal(want) {
		t.Errorf("PerComputeUnit = %s, want %s (compute units must not affect gas-priced chains)", got, want)
	}
}

func TestClampFee(t *testing.T) {
	min := decimal.NewFromInt(500)
	max := decimal.NewFromInt(50000)

	tests := []struct {
		name     string
		estimate int64
		want     int64
	}{
		{"below min clamps up", 10, 500},
		{"above max clamps down", 100000, 50000},
		{"within bounds unchanged", 7500, 7500},
		{"zero estimate clamps to min", 0, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampFee(decimal.NewFromInt(tt.estimate), min, max)
			if !got.Equal(decimal.NewFromInt(tt.want)) {
				t.Errorf("ClampFee(%d) = %s, want %d", tt.estimate, got, tt.want)
			}
		})
	}
}

func TestFeeConverterRegistry(t *testing.T) {
	r := NewFeeConverterRegistry()

	if got := r.For("solana").Denomination(); got != "microlamports" {
		t.Errorf("solana denomination = %s, want microlamports", got)
	}
	if got := r.For("ethereum").Denomination(); got != "gwei" {
		t.Errorf("ethereum denomination = %s, want gwei", got)
	}

	r.Register("base", GasPricedConverter{})
	if got := r.For("base").Denomination(); got != "gwei" {
		t.Errorf("base denomination = %s, want gwei", got)
	}
}

func TestFeeConverterRegistryFallsBackToGasPricing(t *testing.T) {
	r := NewFeeConverterRegistry()

	conv := r.For("polygon")
	if conv.Denomination() != "gwei" {
		t.Fatalf("fallback denomination = %s, want gwei", conv.Denomination())
	}

	// Fallback conversion ignores the unit budget: native → gwei.
	got := conv.PerComputeUnit(decimal.NewFromFloat(0.0001), 200000)
	if !got.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("fallback PerComputeUnit = %s, want 100000", got)
	}
}
