package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"kromer/internal/kerrors"
	"kromer/internal/validation"
)

const nameColumns = `id, name, owner, original_owner, time_registered, last_updated, last_transferred, unpaid, a_record`

func scanName(row pgx.Row) (*Name, error) {
	var n Name
	if err := row.Scan(&n.ID, &n.Name, &n.Owner, &n.OriginalOwner, &n.TimeRegistered, &n.LastUpdated, &n.LastTransferred, &n.Unpaid, &n.Metadata); err != nil {
		return nil, err
	}
	return &n, nil
}

// FetchNameByID returns the name with the given id, or nil.
func FetchNameByID(ctx context.Context, ex Executor, id int64) (*Name, error) {
	row := ex.QueryRow(ctx, `SELECT `+nameColumns+` FROM names WHERE id = $1`, id)
	n, err := scanName(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return n, err
}

// FetchNameByName returns the (lowercased) name, or nil.
func FetchNameByName(ctx context.Context, ex Executor, name string) (*Name, error) {
	row := ex.QueryRow(ctx, `SELECT `+nameColumns+` FROM names WHERE name = $1`, strings.ToLower(name))
	n, err := scanName(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return n, err
}

// FetchAllNames returns up to p.Limit names ordered by id.
func FetchAllNames(ctx context.Context, ex Executor, p Pagination) ([]*Name, error) {
	rows, err := ex.Query(ctx, `SELECT `+nameColumns+` FROM names ORDER BY id LIMIT $1 OFFSET $2`, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNames(rows)
}

// NamesForOwner returns up to p.Limit names owned by address.
func NamesForOwner(ctx context.Context, ex Executor, address string, p Pagination) ([]*Name, error) {
	rows, err := ex.Query(ctx, `SELECT `+nameColumns+` FROM names WHERE owner = $1 ORDER BY id LIMIT $2 OFFSET $3`, address, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNames(rows)
}

// AllUnpaidNames returns names with unpaid > 0.
func AllUnpaidNames(ctx context.Context, ex Executor, p Pagination) ([]*Name, error) {
	rows, err := ex.Query(ctx, `SELECT `+nameColumns+` FROM names WHERE unpaid > 0 ORDER BY id LIMIT $1 OFFSET $2`, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNames(rows)
}

// CountUnpaidNames returns COUNT(*) WHERE unpaid > 0.
func CountUnpaidNames(ctx context.Context, ex Executor) (int64, error) {
	var n int64
	err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM names WHERE unpaid > 0`).Scan(&n)
	return n, err
}

// TotalNameCount returns COUNT(*) over names.
func TotalNameCount(ctx context.Context, ex Executor) (int64, error) {
	var n int64
	err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM names`).Scan(&n)
	return n, err
}

// uniqueViolation is the Postgres SQLSTATE for a unique-index conflict.
const uniqueViolation = "23505"

// CreateName inserts a new name row with original_owner = owner = owner,
// failing with NameTaken if the unique index on name trips.
func CreateName(ctx context.Context, ex Executor, name, owner string) (*Name, error) {
	lower := strings.ToLower(name)
	row := ex.QueryRow(ctx, `
		INSERT INTO names (name, owner, original_owner, time_registered, unpaid)
		VALUES ($1, $2, $2, now(), 0)
		RETURNING `+nameColumns,
		lower, owner)
	n, err := scanName(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, kerrors.New(kerrors.NameTaken, "name already registered").WithField(lower)
		}
		return nil, err
	}
	return n, nil
}

// UpdateMetadata sets the a-record on name and returns the updated row.
func UpdateMetadata(ctx context.Context, ex Executor, name string, aRecord *string) (*Name, error) {
	row := ex.QueryRow(ctx, `
		UPDATE names SET a_record = $2, last_updated = now()
		WHERE name = $1
		RETURNING `+nameColumns,
		strings.ToLower(name), aRecord)
	n, err := scanName(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, kerrors.New(kerrors.NameNotFound, "name not found").WithField(name)
	}
	return n, err
}

// TransferOwnership moves name to newOwner inside one DB transaction:
// update owner/last_updated/last_transferred, insert a name_transfer
// transaction row (amount 0) via CreateNoUpdate, and publish the resulting
// Transaction event through publish. publish may be nil in tests
// that don't care about fan-out.
func TransferOwnership(ctx context.Context, beginner TxBeginner, name, newOwner string, publish func(*Transaction)) (*Name, error) {
	var updated *Name
	var tx *Transaction
	lower := strings.ToLower(name)
	err := BeginFunc(ctx, beginner, func(dbtx pgx.Tx) error {
		existing, err := scanName(dbtx.QueryRow(ctx, `SELECT `+nameColumns+` FROM names WHERE name = $1 FOR UPDATE`, lower))
		if errors.Is(err, pgx.ErrNoRows) {
			return kerrors.New(kerrors.NameNotFound, "name not found").WithField(name)
		}
		if err != nil {
			return err
		}
		previousOwner := existing.Owner

		row := dbtx.QueryRow(ctx, `
			UPDATE names SET owner = $2, last_updated = now(), last_transferred = now()
			WHERE name = $1
			RETURNING `+nameColumns,
			lower, newOwner)
		n, err := scanName(row)
		if err != nil {
			return err
		}
		updated = n

		t, err := CreateNoUpdate(ctx, dbtx, TransactionData{
			Amount: decimal.Zero,
			From:   &previousOwner,
			To:     newOwner,
			Name:   &lower,
			Type:   TxNameTransfer,
		})
		if err != nil {
			return err
		}
		tx = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if publish != nil {
		publish(tx)
	}
	log.WithFields(log.Fields{"name": name, "owner": newOwner}).Info("name transferred")
	return updated, nil
}

// CtrlUpdateMetadata orchestrates the full PUT/POST /names/{name}/update
// flow: validate name + a-record, verify the private key, check
// ownership, short-circuit if unchanged, else persist.
func CtrlUpdateMetadata(ctx context.Context, ex Executor, name string, aRecord *string, privateKey string) (*Name, error) {
	if !validation.IsNameValidForFetch(name) {
		return nil, kerrors.New(kerrors.InvalidParameter, "invalid name").WithField("name")
	}
	if aRecord != nil && *aRecord != "" && !validation.IsARecordValid(*aRecord) {
		return nil, kerrors.New(kerrors.InvalidParameter, "invalid a-record").WithField("a")
	}

	verify, err := VerifyAddress(ctx, ex, privateKey)
	if err != nil {
		return nil, err
	}
	if !verify.Authed {
		return nil, kerrors.New(kerrors.AuthFailed, "authentication failed")
	}

	n, err := FetchNameByName(ctx, ex, name)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, kerrors.New(kerrors.NameNotFound, "name not found").WithField(name)
	}
	if n.Owner != verify.Wallet.Address {
		return nil, kerrors.New(kerrors.NotNameOwner, "not the name owner").WithField(name)
	}

	var normalized *string
	if aRecord != nil && *aRecord != "" {
		normalized = aRecord
	}
	if (n.Metadata == nil && normalized == nil) || (n.Metadata != nil && normalized != nil && *n.Metadata == *normalized) {
		return n, nil // unchanged; short-circuit
	}

	return UpdateMetadata(ctx, ex, name, normalized)
}

func collectNames(rows pgx.Rows) ([]*Name, error) {
	var out []*Name
	for rows.Next() {
		n, err := scanName(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
