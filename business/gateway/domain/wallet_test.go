package domain

import (
	"reflect"
	"testing"
)

func TestSigningAddressesOrder(t *testing.T) {
	w := WalletRecord{
		Chain:                   "solana",
		WalletAddresses:         []string{"regular1", "regular2"},
		HardwareWalletAddresses: []string{"hw1"},
		ReadOnlyWalletAddresses: []string{"ro1"},
	}

	got := w.SigningAddresses()
	want := []string{"regular1", "regular2", "hw1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SigningAddresses() = %v, want %v (regular first, read-only excluded)", got, want)
	}
}

func TestSigningAddressesEmpty(t *testing.T) {
	w := WalletRecord{Chain: "ethereum", ReadOnlyWalletAddresses: []string{"ro1"}}

	if got := w.SigningAddresses(); len(got) != 0 {
		t.Errorf("SigningAddresses() = %v, want empty (read-only never signs)", got)
	}
}

func TestHasAddress(t *testing.T) {
	w := WalletRecord{
		WalletAddresses:         []string{"a"},
		HardwareWalletAddresses: []string{"b"},
		ReadOnlyWalletAddresses: []string{"c"},
	}

	for _, addr := range []string{"a", "b", "c"} {
		if !w.HasAddress(addr) {
			t.Errorf("HasAddress(%q) = false, want true", addr)
		}
	}
	if w.HasAddress("d") {
		t.Error("HasAddress(d) = true, want false")
	}
}
