package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"kromer/internal/kerrors"
)

const txColumns = `id, amount, sender, recipient, metadata, name, sent_metaname, sent_name, transaction_type, date`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	var txType string
	if err := row.Scan(&t.ID, &t.Amount, &t.From, &t.To, &t.Metadata, &t.Name, &t.SentMetaname, &t.SentName, &txType, &t.Date); err != nil {
		return nil, err
	}
	t.Type = TransactionType(txType)
	return &t, nil
}

// TransactionData is the input to Create and CreateNoUpdate.
type TransactionData struct {
	Amount       decimal.Decimal
	From         *string
	To           string
	Metadata     *string
	Name         *string
	SentMetaname *string
	SentName     *string
	Type         TransactionType
}

func insertTransactionRow(ctx context.Context, ex Executor, d TransactionData) (*Transaction, error) {
	row := ex.QueryRow(ctx, `
		INSERT INTO transactions (amount, sender, recipient, metadata, name, sent_metaname, sent_name, transaction_type, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING `+txColumns,
		d.Amount, d.From, d.To, d.Metadata, d.Name, d.SentMetaname, d.SentName, string(d.Type))
	return scanTransaction(row)
}

// Create performs the single atomic transfer primitive: inside one
// DB transaction it row-locks sender and recipient, asserts
// sender.balance >= amount (InsufficientFunds otherwise), moves the
// balance via UpdateBalance for both sides, and inserts the transaction
// row. d.From == nil is only legal for TxMined (minting has no sender row
// to lock or debit).
func Create(ctx context.Context, beginner TxBeginner, d TransactionData) (*Transaction, error) {
	var result *Transaction
	err := BeginFunc(ctx, beginner, func(tx pgx.Tx) error {
		if d.From != nil {
			sender, err := LockWalletForUpdate(ctx, tx, *d.From)
			if err != nil {
				return err
			}
			if sender == nil {
				return kerrors.New(kerrors.AddressNotFound, "address not found").WithField(*d.From)
			}
			if sender.Address != ServerWelfareAddress && sender.Balance.LessThan(d.Amount) {
				return kerrors.New(kerrors.InsufficientFunds, "insufficient funds")
			}
			if _, err := UpdateBalance(ctx, tx, *d.From, d.Amount.Neg()); err != nil {
				return err
			}
		}
		if d.To != NamePurchaseSentinel {
			if _, err := LockWalletForUpdate(ctx, tx, d.To); err != nil {
				return err
			}
			if _, err := UpdateBalance(ctx, tx, d.To, d.Amount); err != nil {
				return err
			}
		}

		t, err := insertTransactionRow(ctx, tx, d)
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		log.WithFields(log.Fields{"to": d.To, "amount": d.Amount}).Warn("transaction create failed: ", err)
		return nil, err
	}
	log.WithFields(log.Fields{"id": result.ID, "to": d.To, "amount": d.Amount}).Info("transaction committed")
	return result, nil
}

// CreateNoUpdate inserts a transaction row without moving any balance:
// used for the welfare/mined initial grant where the balance was already
// set via an explicit UpdateBalance call, and for bookkeeping-only events
// such as name_transfer (amount 0).
func CreateNoUpdate(ctx context.Context, ex Executor, d TransactionData) (*Transaction, error) {
	return insertTransactionRow(ctx, ex, d)
}

// GiveMoney performs the welfare-grant primitive: inside one DB
// transaction it debits ServerWelfareAddress, credits address via
// UpdateBalance, then records the grant as a mined transaction via
// CreateNoUpdate (the balance was already moved explicitly, so the
// transaction row must not move it again).
func GiveMoney(ctx context.Context, beginner TxBeginner, address string, amount decimal.Decimal) (*Transaction, error) {
	var result *Transaction
	err := BeginFunc(ctx, beginner, func(tx pgx.Tx) error {
		if _, err := LockWalletForUpdate(ctx, tx, address); err != nil {
			return err
		}
		if _, err := UpdateBalance(ctx, tx, ServerWelfareAddress, amount.Neg()); err != nil {
			return err
		}
		if _, err := UpdateBalance(ctx, tx, address, amount); err != nil {
			return err
		}
		from := ServerWelfareAddress
		t, err := CreateNoUpdate(ctx, tx, TransactionData{
			Amount: amount,
			From:   &from,
			To:     address,
			Type:   TxMined,
		})
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"address": address, "amount": amount}).Info("welfare grant committed")
	return result, nil
}

// FetchTransactionByID returns the transaction with the given id, or nil.
func FetchTransactionByID(ctx context.Context, ex Executor, id int64) (*Transaction, error) {
	row := ex.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// SortedByDate returns transactions ordered by date descending, optionally
// excluding type='mined'.
func SortedByDate(ctx context.Context, ex Executor, p Pagination, excludeMined bool) ([]*Transaction, error) {
	q := `SELECT ` + txColumns + ` FROM transactions`
	args := []any{p.Limit, p.Offset}
	if excludeMined {
		q += ` WHERE transaction_type != 'mined'`
	}
	q += ` ORDER BY date DESC LIMIT $1 OFFSET $2`
	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// FetchAllTransactions returns transactions ordered by id, optionally
// excluding type='mined'.
func FetchAllTransactions(ctx context.Context, ex Executor, p Pagination, excludeMined bool) ([]*Transaction, error) {
	q := `SELECT ` + txColumns + ` FROM transactions`
	if excludeMined {
		q += ` WHERE transaction_type != 'mined'`
	}
	q += ` ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := ex.Query(ctx, q, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// TransactionsForAddress returns transactions where the address is either
// sender or recipient.
func TransactionsForAddress(ctx context.Context, ex Executor, address string, p Pagination, excludeMined bool) ([]*Transaction, error) {
	q := `SELECT ` + txColumns + ` FROM transactions WHERE (sender = $1 OR recipient = $1)`
	if excludeMined {
		q += ` AND transaction_type != 'mined'`
	}
	q += ` ORDER BY date DESC LIMIT $2 OFFSET $3`
	rows, err := ex.Query(ctx, q, address, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]*Transaction, error) {
	var out []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TotalTransactionCount returns COUNT(*), optionally excluding type='mined'.
func TotalTransactionCount(ctx context.Context, ex Executor, excludeMined bool) (int64, error) {
	q := `SELECT COUNT(*) FROM transactions`
	if excludeMined {
		q += ` WHERE transaction_type != 'mined'`
	}
	var n int64
	err := ex.QueryRow(ctx, q).Scan(&n)
	return n, err
}
