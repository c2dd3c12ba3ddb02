package domain

// TradingType is a category of trading a connector supports.
type TradingType string

const (
	TradingTypeAMM    TradingType = "amm"
	TradingTypeCLMM   TradingType = "clmm"
	TradingTypeRouter TradingType = "router"
)

// ConnectorInfo describes one trading-venue adapter exposed by the gateway.
type ConnectorInfo struct {
	Name         string        `json:"name"`
	Chain        string        `json:"chain"`
	Networks     []string      `json:"networks"`
	TradingTypes []TradingType `json:"trading_types"`
}

// Supports reports whether the connector supports the given trading type.
func (c ConnectorInfo) Supports(t TradingType) bool {
	for _, tt := range c.TradingTypes {
		if tt == t {
			return true
		}
	}
	return false
}

// IsSwapCapable reports whether the connector can execute swaps through any
// of its trading types.
func (c ConnectorInfo) IsSwapCapable() bool {
	return c.Supports(TradingTypeAMM) || c.Supports(TradingTypeCLMM) || c.Supports(TradingTypeRouter)
}

// SwapConnectors filters connectors down to the swap-capable ones.
func SwapConnectors(connectors []ConnectorInfo) []ConnectorInfo {
	out := make([]ConnectorInfo, 0, len(connectors))
	for _, c := range connectors {
		if c.IsSwapCapable() {
			out = append(out, c)
		}
	}
	return out
}
