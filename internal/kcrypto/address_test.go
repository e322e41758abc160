package kcrypto

import "testing"

func TestMakeV2AddressVector(t *testing.T) {
	if got := MakeV2Address("test123", 'k'); got != "krcgbmalxg" {
		t.Fatalf("expected krcgbmalxg, got %q", got)
	}
}

func TestMakeV2AddressDeterministic(t *testing.T) {
	a := MakeV2Address("another-key", 'k')
	b := MakeV2Address("another-key", 'k')
	if a != b {
		t.Fatalf("expected deterministic output, got %q and %q", a, b)
	}
	if len(a) != AddressLength {
		t.Fatalf("expected length %d, got %d (%q)", AddressLength, len(a), a)
	}
}

func TestMakeV2AddressPrefix(t *testing.T) {
	addr := MakeV2Address("test123", 'z')
	if addr[0] != 'z' {
		t.Fatalf("expected prefix 'z', got %q", addr)
	}
}

func TestDoubleSha256Hex(t *testing.T) {
	single := Sha256Hex("abc")
	double := DoubleSha256Hex("abc")
	if double != Sha256Hex(single) {
		t.Fatalf("DoubleSha256Hex should equal Sha256Hex(Sha256Hex(s))")
	}
	if len(double) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(double))
	}
}

func TestRandomPassword(t *testing.T) {
	p1, err := RandomPassword()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p1) != 32 {
		t.Fatalf("expected length 32, got %d", len(p1))
	}
	p2, err := RandomPassword()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("expected two independent passwords to differ")
	}
}
