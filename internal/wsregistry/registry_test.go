package wsregistry

import (
	"testing"

	"kromer/internal/eventbus"
	"kromer/internal/store"
)

func newTestSession(address string, subs ...SubType) *SessionData {
	set := make(map[SubType]bool, len(subs))
	for _, s := range subs {
		set[s] = true
	}
	return &SessionData{
		address:       address,
		subscriptions: set,
		Out:           make(chan []byte, 1),
	}
}

func TestShouldDeliverTransactionsGlobal(t *testing.T) {
	r := New()
	s := newTestSession("kabc123456", SubTransactions)
	from := "kother00000"
	ev := eventbus.NewTransactionEvent(&store.Transaction{From: &from, To: "kdest000000"})
	if !r.shouldDeliver(s, ev) {
		t.Fatalf("expected global transactions subscriber to receive every transaction")
	}
}

func TestShouldDeliverOwnTransactions(t *testing.T) {
	r := New()
	s := newTestSession("kabc123456", SubOwnTransactions)

	other := "kother00000"
	notInvolved := eventbus.NewTransactionEvent(&store.Transaction{From: &other, To: "kdest000000"})
	if r.shouldDeliver(s, notInvolved) {
		t.Fatalf("expected ownTransactions subscriber to reject a transaction it's not party to")
	}

	asSender := eventbus.NewTransactionEvent(&store.Transaction{From: &s.address, To: "kdest000000"})
	if !r.shouldDeliver(s, asSender) {
		t.Fatalf("expected ownTransactions subscriber to receive a transaction where it is the sender")
	}

	asRecipient := eventbus.NewTransactionEvent(&store.Transaction{From: &other, To: s.address})
	if !r.shouldDeliver(s, asRecipient) {
		t.Fatalf("expected ownTransactions subscriber to receive a transaction where it is the recipient")
	}
}

func TestShouldDeliverOwnTransactionsGuestExcluded(t *testing.T) {
	r := New()
	guest := newTestSession("guest", SubOwnTransactions)
	ev := eventbus.NewTransactionEvent(&store.Transaction{From: &guest.address, To: "kdest000000"})
	if r.shouldDeliver(guest, ev) {
		t.Fatalf("a guest session has no address to match against, ownTransactions must never fire for it")
	}
}

func TestShouldDeliverNames(t *testing.T) {
	r := New()
	s := newTestSession("kabc123456", SubOwnNames)

	ev := eventbus.NewNameEvent(&store.Name{Owner: "kabc123456"})
	if !r.shouldDeliver(s, ev) {
		t.Fatalf("expected ownNames subscriber to receive a name event it owns")
	}

	other := eventbus.NewNameEvent(&store.Name{Owner: "ksomeoneelse"})
	if r.shouldDeliver(s, other) {
		t.Fatalf("expected ownNames subscriber to reject a name event it doesn't own")
	}
}

func TestShouldDeliverBlocksNeverOwnBlocks(t *testing.T) {
	r := New()
	s := newTestSession("kabc123456", SubOwnBlocks)
	ev := eventbus.WebSocketEvent{Kind: eventbus.KindBlock}
	if r.shouldDeliver(s, ev) {
		t.Fatalf("ownBlocks has no minter to fire for; only a plain blocks subscription should deliver block events")
	}

	s2 := newTestSession("kabc123456", SubBlocks)
	if !r.shouldDeliver(s2, ev) {
		t.Fatalf("expected a blocks subscriber to receive the block event")
	}
}

func TestRegistryTokenLifecycle(t *testing.T) {
	r := New()
	id := r.IssueToken(TokenData{Address: "kabc123456"})
	data, ok := r.UseToken(id)
	if !ok || data.Address != "kabc123456" {
		t.Fatalf("expected to retrieve issued token data, got %+v, ok=%v", data, ok)
	}
	if _, ok := r.UseToken(id); ok {
		t.Fatalf("expected token to be consumed after first use")
	}
}

func TestRegistryInsertDefaultSubscriptions(t *testing.T) {
	r := New()
	s := r.Insert("kabc123456", "pk")
	defer r.Remove(s.ID)

	subs := s.Subscriptions()
	if !subs[SubOwnTransactions] || !subs[SubBlocks] {
		t.Fatalf("expected default subscriptions {ownTransactions, blocks}, got %+v", subs)
	}
	if len(subs) != 2 {
		t.Fatalf("expected exactly 2 default subscriptions, got %d", len(subs))
	}
}

func TestRegistryCount(t *testing.T) {
	r := New()
	if r.Count() != 0 {
		t.Fatalf("expected empty registry")
	}
	s1 := r.Insert("kabc123456", "pk1")
	r.Insert("kdef123456", "pk2")
	if r.Count() != 2 {
		t.Fatalf("expected count 2, got %d", r.Count())
	}
	r.Remove(s1.ID)
	if r.Count() != 1 {
		t.Fatalf("expected count 1 after removal, got %d", r.Count())
	}
}
