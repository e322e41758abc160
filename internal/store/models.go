// Package store is the Ledger Store: wallet, name, and transaction
// persistence behind a small, transactional API. All multi-row mutations
// run inside a single DB transaction with explicit row locks where
// correctness requires them; everything else is one parameterized query.
//
// A relational store offering ACID transactions, row-level locks, and
// parameterized queries, built on pgx against Postgres.
package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServerWelfareAddress is the reserved mint/sink address: debits from it
// skip the balance >= 0 invariant, and it is excluded from supply
// reporting.
const ServerWelfareAddress = "serverwelf"

// NamePurchaseSentinel is the literal counterparty string used for
// name_purchase transactions: it is never a real
// address and must never be looked up as a wallet.
const NamePurchaseSentinel = "name"

// NameCost is the KRO cost of registering a name.
var NameCost = decimal.NewFromInt(500)

// Wallet mirrors the `wallets` table.
type Wallet struct {
	ID             int64           `json:"-"`
	Address        string          `json:"address"`
	Balance        decimal.Decimal `json:"balance"`
	CreatedAt      time.Time       `json:"created_at"`
	Locked         bool            `json:"locked"`
	TotalIn        decimal.Decimal `json:"total_in"`
	TotalOut       decimal.Decimal `json:"total_out"`
	PrivateKeyHash *string         `json:"-"`
	NameCount      *int64          `json:"names,omitempty"` // populated only by lookups that ask fetchNames=true
}

// Name mirrors the `names` table.
type Name struct {
	ID              int64           `json:"-"`
	Name            string          `json:"name"`
	Owner           string          `json:"owner"`
	OriginalOwner   string          `json:"original_owner"`
	TimeRegistered  time.Time       `json:"time_registered"`
	LastUpdated     *time.Time      `json:"last_updated,omitempty"`
	LastTransferred *time.Time      `json:"last_transferred,omitempty"`
	Unpaid          decimal.Decimal `json:"unpaid"`
	Metadata        *string         `json:"a,omitempty"` // the a-record
}

// TransactionType is the closed set of transaction kinds.
type TransactionType string

const (
	TxMined        TransactionType = "mined"
	TxTransfer     TransactionType = "transfer"
	TxNamePurchase TransactionType = "name_purchase"
	TxNameARecord  TransactionType = "name_a_record"
	TxNameTransfer TransactionType = "name_transfer"
	TxUnknown      TransactionType = "unknown"
)

// Transaction mirrors the append-only `transactions` table.
type Transaction struct {
	ID           int64           `json:"id"`
	Amount       decimal.Decimal `json:"value"`
	From         *string         `json:"from"`
	To           string          `json:"to"`
	Metadata     *string         `json:"metadata,omitempty"`
	Name         *string         `json:"name,omitempty"`
	SentMetaname *string         `json:"sent_metaname,omitempty"`
	SentName     *string         `json:"sent_name,omitempty"`
	Type         TransactionType `json:"type"`
	Date         time.Time       `json:"time"`
}

// Player maps an external player identity to the wallets they own. Not
// on the hot ledger path.
type Player struct {
	ID           string // UUID
	Name         string
	OwnedWallets []int64
}
