package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"kromer/internal/kcrypto"
	"kromer/internal/kerrors"
)

const walletColumns = `id, address, balance, created_at, locked, total_in, total_out, private_key_hash`

func scanWallet(row pgx.Row) (*Wallet, error) {
	var w Wallet
	if err := row.Scan(&w.ID, &w.Address, &w.Balance, &w.CreatedAt, &w.Locked, &w.TotalIn, &w.TotalOut, &w.PrivateKeyHash); err != nil {
		return nil, err
	}
	return &w, nil
}

// FetchWalletByID returns the wallet with the given id, or nil if none
// exists.
func FetchWalletByID(ctx context.Context, ex Executor, id int64) (*Wallet, error) {
	row := ex.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
	w, err := scanWallet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// FetchWalletByAddress returns the wallet with the given address, or nil if
// none exists.
func FetchWalletByAddress(ctx context.Context, ex Executor, address string) (*Wallet, error) {
	row := ex.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE address = $1`, address)
	w, err := scanWallet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// FetchAllWallets returns up to p.Limit wallets starting at p.Offset,
// ordered by id.
func FetchAllWallets(ctx context.Context, ex Executor, p Pagination) ([]*Wallet, error) {
	rows, err := ex.Query(ctx, `SELECT `+walletColumns+` FROM wallets ORDER BY id LIMIT $1 OFFSET $2`, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWallets(rows)
}

// FetchRichestWallets returns up to p.Limit wallets ordered by balance
// descending.
func FetchRichestWallets(ctx context.Context, ex Executor, p Pagination) ([]*Wallet, error) {
	rows, err := ex.Query(ctx, `SELECT `+walletColumns+` FROM wallets ORDER BY balance DESC LIMIT $1 OFFSET $2`, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWallets(rows)
}

func collectWallets(rows pgx.Rows) ([]*Wallet, error) {
	var out []*Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// TotalWalletCount returns COUNT(*) over wallets.
func TotalWalletCount(ctx context.Context, ex Executor) (int64, error) {
	var n int64
	err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM wallets`).Scan(&n)
	return n, err
}

// MoneySupply returns SUM(balance) over every wallet except the reserved
// welfare sink.
func MoneySupply(ctx context.Context, ex Executor) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := ex.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM wallets WHERE address != $1`, ServerWelfareAddress).Scan(&sum)
	return sum, err
}

// LookupAddresses fetches each of addrs that exists, optionally populating
// NameCount via one grouped count query over the names table, not N+1.
func LookupAddresses(ctx context.Context, ex Executor, addrs []string, fetchNames bool) ([]*Wallet, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	rows, err := ex.Query(ctx, `SELECT `+walletColumns+` FROM wallets WHERE address = ANY($1)`, addrs)
	if err != nil {
		return nil, err
	}
	wallets, err := collectWallets(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if !fetchNames || len(wallets) == 0 {
		return wallets, nil
	}

	counts := make(map[string]int64, len(wallets))
	crows, err := ex.Query(ctx, `SELECT owner, COUNT(*) FROM names WHERE owner = ANY($1) GROUP BY owner`, addrs)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var owner string
		var n int64
		if err := crows.Scan(&owner, &n); err != nil {
			return nil, err
		}
		counts[owner] = n
	}
	if err := crows.Err(); err != nil {
		return nil, err
	}
	for _, w := range wallets {
		if n, ok := counts[w.Address]; ok {
			n := n
			w.NameCount = &n
		}
	}
	return wallets, nil
}

// VerifyAddressResult is the outcome of VerifyAddress.
type VerifyAddressResult struct {
	Authed bool
	Wallet *Wallet
}

// VerifyAddress derives the address for privateKey, auto-registering a
// zero-balance wallet on first sight, and reports whether the supplied key
// actually matches the stored hash. The caller decides whether to trust
// Authed for the operation at hand.
func VerifyAddress(ctx context.Context, ex Executor, privateKey string) (VerifyAddressResult, error) {
	address := kcrypto.MakeV2Address(privateKey, 'k')
	hash := kcrypto.Sha256Hex(address + privateKey)

	wallet, err := FetchWalletByAddress(ctx, ex, address)
	if err != nil {
		return VerifyAddressResult{}, err
	}
	if wallet == nil {
		wallet, err = createWallet(ctx, ex, address, &hash)
		if err != nil {
			return VerifyAddressResult{}, err
		}
		log.WithFields(log.Fields{"address": address}).Info("wallet auto-registered")
	}

	authed := wallet.PrivateKeyHash != nil && *wallet.PrivateKeyHash == hash
	return VerifyAddressResult{Authed: authed, Wallet: wallet}, nil
}

func createWallet(ctx context.Context, ex Executor, address string, privateKeyHash *string) (*Wallet, error) {
	row := ex.QueryRow(ctx, `
		INSERT INTO wallets (address, balance, total_in, total_out, private_key_hash)
		VALUES ($1, 0, 0, 0, $2)
		RETURNING `+walletColumns,
		address, privateKeyHash)
	return scanWallet(row)
}

// CreateWalletWithBalance inserts a new wallet with an explicit initial
// balance.
func CreateWalletWithBalance(ctx context.Context, ex Executor, address string, initial decimal.Decimal) (*Wallet, error) {
	row := ex.QueryRow(ctx, `
		INSERT INTO wallets (address, balance, total_in, total_out)
		VALUES ($1, $2, $2, 0)
		RETURNING `+walletColumns,
		address, initial)
	return scanWallet(row)
}

// UpdateBalance is the single atomic primitive for balance change:
// UPDATE wallets SET balance = balance + delta, total_in += max(delta,0),
// total_out += max(-delta,0) WHERE address = ? RETURNING *.
//
// It does not itself enforce balance >= 0; callers that need the invariant
// (everyone except the serverwelf sink) must check beforehand under a row
// lock, as Transaction.Create does.
func UpdateBalance(ctx context.Context, ex Executor, address string, delta decimal.Decimal) (*Wallet, error) {
	zero := decimal.Zero
	row := ex.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance + $2,
		    total_in = total_in + GREATEST($2, $3),
		    total_out = total_out + GREATEST(-$2, $3)
		WHERE address = $1
		RETURNING `+walletColumns,
		address, delta, zero)
	w, err := scanWallet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, kerrors.New(kerrors.AddressNotFound, "address not found").WithField(address)
	}
	return w, err
}

// LockWalletForUpdate selects a wallet FOR UPDATE inside tx, used to take a
// row lock ahead of a balance check + mutation within the same transaction.
func LockWalletForUpdate(ctx context.Context, tx pgx.Tx, address string) (*Wallet, error) {
	row := tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE address = $1 FOR UPDATE`, address)
	w, err := scanWallet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return w, err
}
