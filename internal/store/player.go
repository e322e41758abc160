package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// InitialWalletBalance is granted to a wallet created via the player-create
// endpoint.
var InitialWalletBalance = decimal.NewFromInt(100)

// FetchPlayerByID returns the player with the given UUID, or nil.
func FetchPlayerByID(ctx context.Context, ex Executor, id string) (*Player, error) {
	row := ex.QueryRow(ctx, `SELECT id, name, owned_wallets FROM players WHERE id = $1`, id)
	var p Player
	if err := row.Scan(&p.ID, &p.Name, &p.OwnedWallets); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// CreatePlayerWallet creates a Player row (if absent) plus a fresh Wallet
// with InitialWalletBalance, linking the wallet id onto the player's
// owned_wallets array.
func CreatePlayerWallet(ctx context.Context, beginner TxBeginner, playerID, playerName, address string) (*Wallet, error) {
	var wallet *Wallet
	err := BeginFunc(ctx, beginner, func(tx pgx.Tx) error {
		w, err := CreateWalletWithBalance(ctx, tx, address, InitialWalletBalance)
		if err != nil {
			return err
		}
		wallet = w

		_, err = tx.Exec(ctx, `
			INSERT INTO players (id, name, owned_wallets)
			VALUES ($1, $2, ARRAY[$3]::BIGINT[])
			ON CONFLICT (id) DO UPDATE
			SET owned_wallets = array_append(players.owned_wallets, $3)
		`, playerID, playerName, w.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}
