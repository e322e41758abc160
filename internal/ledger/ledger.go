// Package ledger orchestrates the multi-step flows that both the HTTP
// contract and the WS protocol handler need to run identically, so neither surface
// reimplements the round/validate/verify/resolve/debit sequence on its own.
//
// Structured as a controller-calls-store layer, collapsed to one package
// since Kromer's store is already transactional.
package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"kromer/internal/eventbus"
	"kromer/internal/kerrors"
	"kromer/internal/store"
	"kromer/internal/validation"
)

// Pool is satisfied by *pgxpool.Pool: both a store.Executor for read-only
// calls and a store.TxBeginner for the orchestrations that need one.
type Pool interface {
	store.Executor
	store.TxBeginner
}

// Ledger wires the Ledger Store to the Event Bus for every mutating flow.
type Ledger struct {
	Pool Pool
	Bus  *eventbus.Bus
}

// New returns a Ledger ready to serve orchestration calls.
func New(pool Pool, bus *eventbus.Bus) *Ledger {
	return &Ledger{Pool: pool, Bus: bus}
}

const maxRecipientLength = 64

// SendTransaction runs the full `POST /transactions` orchestration:
// round the amount, validate the recipient, authenticate the sender,
// resolve a metaname recipient to its name owner, reject a same-wallet or
// under-funded transfer, move the balance, and publish the resulting event.
func (l *Ledger) SendTransaction(ctx context.Context, privateKey, to string, amount decimal.Decimal, metadata *string) (*store.Transaction, error) {
	amount = amount.RoundBank(2)
	if !amount.IsPositive() {
		return nil, kerrors.New(kerrors.InvalidParameter, "amount must be positive").WithField("amount")
	}
	if to == "" || len(to) > maxRecipientLength {
		return nil, kerrors.New(kerrors.InvalidParameter, "invalid recipient").WithField("to")
	}

	verify, err := store.VerifyAddress(ctx, l.Pool, privateKey)
	if err != nil {
		return nil, err
	}
	if !verify.Authed {
		return nil, kerrors.New(kerrors.AuthFailed, "authentication failed")
	}
	sender := verify.Wallet.Address

	var recipient string
	var sentMetaname, sentName *string
	if m, ok := validation.ParseMetaname(to); ok {
		n, err := store.FetchNameByName(ctx, l.Pool, m.Name)
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, kerrors.New(kerrors.NameNotFound, "name not found").WithField("to")
		}
		recipient = n.Owner
		if m.Metaname != "" {
			sentMetaname = &m.Metaname
		}
		lowerName := strings.ToLower(m.Name)
		sentName = &lowerName
	} else {
		if !validation.IsAddressValid(to) {
			return nil, kerrors.New(kerrors.InvalidParameter, "invalid recipient").WithField("to")
		}
		w, err := store.FetchWalletByAddress(ctx, l.Pool, to)
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, kerrors.New(kerrors.AddressNotFound, "address not found").WithField("to")
		}
		recipient = w.Address
	}

	if recipient == sender {
		return nil, kerrors.New(kerrors.SameWalletTransfer, "cannot send to the sending wallet")
	}
	if verify.Wallet.Address != store.ServerWelfareAddress && verify.Wallet.Balance.LessThan(amount) {
		return nil, kerrors.New(kerrors.InsufficientFunds, "insufficient funds")
	}

	t, err := store.Create(ctx, l.Pool, store.TransactionData{
		Amount:       amount,
		From:         &sender,
		To:           recipient,
		Metadata:     metadata,
		SentMetaname: sentMetaname,
		SentName:     sentName,
		Type:         store.TxTransfer,
	})
	if err != nil {
		return nil, err
	}

	l.Bus.Publish(eventbus.NewTransactionEvent(t))
	log.WithFields(log.Fields{"from": sender, "to": recipient, "amount": amount}).Info("transaction orchestrated")
	return t, nil
}

// RegisterName runs the full `POST /names/{name}` orchestration:
// validate the name, authenticate the owner-to-be, require balance >= 500,
// debit the cost as a name_purchase transaction, insert the name row, and
// publish the resulting event.
func (l *Ledger) RegisterName(ctx context.Context, name, privateKey string) (*store.Name, error) {
	if !validation.IsNameValidForRegistration(name) {
		return nil, kerrors.New(kerrors.InvalidParameter, "invalid name").WithField("name")
	}

	verify, err := store.VerifyAddress(ctx, l.Pool, privateKey)
	if err != nil {
		return nil, err
	}
	if !verify.Authed {
		return nil, kerrors.New(kerrors.AuthFailed, "authentication failed")
	}
	if verify.Wallet.Balance.LessThan(store.NameCost) {
		return nil, kerrors.New(kerrors.InsufficientFunds, "insufficient funds")
	}

	owner := verify.Wallet.Address
	lower := strings.ToLower(name)

	t, err := store.Create(ctx, l.Pool, store.TransactionData{
		Amount: store.NameCost,
		From:   &owner,
		To:     store.NamePurchaseSentinel,
		Name:   &lower,
		Type:   store.TxNamePurchase,
	})
	if err != nil {
		return nil, err
	}

	n, err := store.CreateName(ctx, l.Pool, lower, owner)
	if err != nil {
		return nil, err
	}

	l.Bus.Publish(eventbus.NewTransactionEvent(t))
	log.WithFields(log.Fields{"name": lower, "owner": owner}).Info("name registered")
	return n, nil
}

// TransferName runs transfer_ownership and publishes its event.
func (l *Ledger) TransferName(ctx context.Context, name, newOwner string) (*store.Name, error) {
	return store.TransferOwnership(ctx, l.Pool, name, newOwner, func(t *store.Transaction) {
		l.Bus.Publish(eventbus.NewTransactionEvent(t))
	})
}
