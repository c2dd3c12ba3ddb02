package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fee configuration defaults applied when the per-network namespace does
// not override them.
const (
	DefaultMinFee              = 0.0001
	DefaultMaxFee              = 0.01
	DefaultComputeUnits        = 200000
	DefaultGasEstimateInterval = 60 * time.Second
)

// NetworkFeeConfig holds the fee bounds for one (chain, network) pair.
// MinFee and MaxFee are denominated in the chain's native token.
type NetworkFeeConfig struct {
	MinFee              decimal.Decimal
	MaxFee              decimal.Decimal
	DefaultComputeUnits uint64
	GasEstimateInterval time.Duration
}

// DefaultNetworkFeeConfig returns the built-in fee configuration.
func DefaultNetworkFeeConfig() NetworkFeeConfig {
	return NetworkFeeConfig{
		MinFee:              decimal.NewFromFloat(DefaultMinFee),
		MaxFee:              decimal.NewFromFloat(DefaultMaxFee),
		DefaultComputeUnits: DefaultComputeUnits,
		GasEstimateInterval: DefaultGasEstimateInterval,
	}
}

// FeeEstimate is a priority fee observation for one (chain, network) pair.
type FeeEstimate struct {
	FeePerComputeUnit decimal.Decimal
	Denomination      string
	ObservedAt        time.Time
}

// FeeUnitConverter converts a native-currency fee into the per-compute-unit
// denomination a chain family prices priority fees in.
type FeeUnitConverter interface {
	// PerComputeUnit converts a total native fee to a fee per compute unit.
	PerComputeUnit(nativeFee decimal.Decimal, computeUnits uint64) decimal.Decimal
	// Denomination names the per-unit currency, e.g. "microlamports" or "gwei".
	Denomination() string
}

var (
	nanoFactor  = decimal.NewFromInt(1_000_000_000)
	microFactor = decimal.NewFromInt(1_000_000)
)

// ComputeUnitPricedConverter handles chains that price execution in compute
// units (Solana family): native → micro-units spread over the unit budget.
type ComputeUnitPricedConverter struct{}

func (ComputeUnitPricedConverter) PerComputeUnit(nativeFee decimal.Decimal, computeUnits uint64) decimal.Decimal {
	if computeUnits == 0 {
		return decimal.Zero
	}
	return nativeFee.
		Mul(nanoFactor).
		Mul(microFactor).
		Div(decimal.NewFromUint64(computeUnits))
}

func (ComputeUnitPricedConverter) Denomination() string { return "microlamports" }

// GasPricedConverter handles chains that price execution in gas (Ethereum
// family): native → gwei, independent of the unit budget.
type GasPricedConverter struct{}

func (GasPricedConverter) PerComputeUnit(nativeFee decimal.Decimal, _ uint64) decimal.Decimal {
	return nativeFee.Mul(nanoFactor)
}

func (GasPricedConverter) Denomination() string { return "gwei" }

// FeeConverterRegistry selects a FeeUnitConverter by chain name. Adding a
// chain is a registration, not a change to the submission routine. Chains
// without a registration get the gas-priced conversion, which every
// non-Solana family uses.
type FeeConverterRegistry struct {
	converters map[string]FeeUnitConverter
	fallback   FeeUnitConverter
}

// NewFeeConverterRegistry returns a registry pre-populated with the known
// chain families.
func NewFeeConverterRegistry() *FeeConverterRegistry {
	r := &FeeConverterRegistry{
		converters: make(map[string]FeeUnitConverter),
		fallback:   GasPricedConverter{},
	}
	r.Register("solana", ComputeUnitPricedConverter{})
	r.Register("ethereum", GasPricedConverter{})
	return r
}

// Register associates a chain with a converter, replacing any previous one.
func (r *FeeConverterRegistry) Register(chain string, conv FeeUnitConverter) {
	r.converters[chain] = conv
}

// For returns the converter for chain, falling back to the gas-priced
// conversion for unregistered chains.
func (r *FeeConverterRegistry) For(chain string) FeeUnitConverter {
	if conv, ok := r.converters[chain]; ok {
		return conv
	}
	return r.fallback
}

// ClampFee bounds estimate into [min, max].
func ClampFee(estimate, min, max decimal.Decimal) decimal.Decimal {
	if estimate.LessThan(min) {
		return min
	}
	if estimate.GreaterThan(max) {
		return max
	}
	return estimate
}
