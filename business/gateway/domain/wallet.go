// Package domain contains the core domain types for the gateway context.
package domain

// WalletRecord describes the wallets the gateway holds for one chain.
// Read-only addresses are watch-only and never sign.
type WalletRecord struct {
	Chain                   string   `json:"chain"`
	WalletAddresses         []string `json:"walletAddresses"`
	ReadOnlyWalletAddresses []string `json:"readOnlyWalletAddresses"`
	HardwareWalletAddresses []string `json:"hardwareWalletAddresses"`
}

// SigningAddresses returns the addresses that can sign transactions:
// regular wallets first, then hardware wallets.
func (w WalletRecord) SigningAddresses() []string {
	out := make([]string, 0, len(w.WalletAddresses)+len(w.HardwareWalletAddresses))
	out = append(out, w.WalletAddresses...)
	out = append(out, w.HardwareWalletAddresses...)
	return out
}

// HasAddress reports whether addr appears in any of the record's address sets.
func (w WalletRecord) HasAddress(addr string) bool {
	for _, set := range [][]string{w.WalletAddresses, w.HardwareWalletAddresses, w.ReadOnlyWalletAddresses} {
		for _, a := range set {
			if a == addr {
				return true
			}
		}
	}
	return false
}
