// Package motd builds the static server descriptor returned by
// GET /api/krist/motd and embedded in the WS `hello` frame.
package motd

import (
	"time"

	pkgconfig "kromer/pkg/config"
)

// PackageInfo mirrors Krist's "package" block: static build metadata.
type PackageInfo struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Author     string `json:"author"`
	License    string `json:"license"`
	Repository string `json:"repository"`
	GitHash    string `json:"git_hash,omitempty"`
}

// Constants is the fixed set of protocol constants, never derived
// from config since mining/work are permanently disabled non-goals.
type Constants struct {
	WalletVersion  int     `json:"wallet_version"`
	NonceMaxSize   int     `json:"nonce_max_size"`
	NameCost       int     `json:"name_cost"`
	MinWork        int     `json:"min_work"`
	MaxWork        int     `json:"max_work"`
	WorkFactor     float64 `json:"work_factor"`
	SecondsPerBlock int    `json:"seconds_per_block"`
}

// Currency is the fixed currency descriptor.
type Currency struct {
	AddressPrefix  string `json:"address_prefix"`
	NameSuffix     string `json:"name_suffix"`
	CurrencyName   string `json:"currency_name"`
	CurrencySymbol string `json:"currency_symbol"`
}

// Descriptor is the full MOTD/hello payload.
type Descriptor struct {
	OK                  bool        `json:"ok"`
	ServerTime          time.Time   `json:"server_time"`
	MOTD                string      `json:"motd"`
	PublicURL           string      `json:"public_url"`
	PublicWSURL         string      `json:"public_ws_url"`
	MiningEnabled       bool        `json:"mining_enabled"`
	TransactionsEnabled bool        `json:"transactions_enabled"`
	Work                int         `json:"work"`
	Package             PackageInfo `json:"package"`
	Constants           Constants   `json:"constants"`
	Currency            Currency    `json:"currency"`
}

// defaultConstants holds the protocol's literal values. They never vary
// by config: mining/work are permanently disabled non-goals.
var defaultConstants = Constants{
	WalletVersion:   16,
	NonceMaxSize:    24,
	NameCost:        500,
	MinWork:         1,
	MaxWork:         100000,
	WorkFactor:      0.025,
	SecondsPerBlock: 300,
}

var defaultCurrency = Currency{
	AddressPrefix:  "k",
	NameSuffix:     "kro",
	CurrencyName:   "Kromer",
	CurrencySymbol: "KRO",
}

// Build assembles the descriptor from the live config. now is injected so
// callers (and tests) control the timestamp rather than reading the clock
// inside this package.
func Build(cfg *pkgconfig.Config, now time.Time) Descriptor {
	return Descriptor{
		OK:                  true,
		ServerTime:          now,
		MOTD:                "Welcome to Kromer.",
		PublicURL:           cfg.Server.PublicURL,
		PublicWSURL:         cfg.PublicWebSocketScheme() + "://" + cfg.Server.PublicURL,
		MiningEnabled:       false,
		TransactionsEnabled: true,
		Work:                defaultConstants.MinWork,
		Package: PackageInfo{
			Name:       "kromer",
			Version:    pkgconfig.Version,
			Author:     "Kromer contributors",
			License:    "MIT",
			Repository: "https://github.com/kromer-project/kromer",
		},
		Constants: defaultConstants,
		Currency:  defaultCurrency,
	}
}
