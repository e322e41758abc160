package motd

import (
	"testing"
	"time"

	pkgconfig "kromer/pkg/config"
)

func TestBuildFixedConstants(t *testing.T) {
	cfg := &pkgconfig.Config{}
	cfg.Server.PublicURL = "kromer.example.com"
	now := time.Unix(1700000000, 0).UTC()

	d := Build(cfg, now)

	if !d.OK || d.MiningEnabled || !d.TransactionsEnabled {
		t.Fatalf("unexpected flags: %+v", d)
	}
	if d.Constants.NameCost != 500 || d.Constants.WalletVersion != 16 {
		t.Fatalf("unexpected constants: %+v", d.Constants)
	}
	if d.Currency.AddressPrefix != "k" || d.Currency.NameSuffix != "kro" {
		t.Fatalf("unexpected currency: %+v", d.Currency)
	}
	if !d.ServerTime.Equal(now) {
		t.Fatalf("expected injected time to be used verbatim")
	}
}

func TestBuildWebSocketURLScheme(t *testing.T) {
	cfg := &pkgconfig.Config{}
	cfg.Server.PublicURL = "kromer.example.com"

	cfg.Server.ForceInsecureWS = false
	secure := Build(cfg, time.Time{})
	if secure.PublicWSURL != "wss://kromer.example.com" {
		t.Fatalf("expected wss scheme, got %q", secure.PublicWSURL)
	}

	cfg.Server.ForceInsecureWS = true
	insecure := Build(cfg, time.Time{})
	if insecure.PublicWSURL != "ws://kromer.example.com" {
		t.Fatalf("expected ws scheme when forced insecure, got %q", insecure.PublicWSURL)
	}
}
