// Package wsregistry is the Session Registry: the live WS session
// map, the pending-token handshake cache, and the per-session subscription
// sets the broadcast filter consults.
//
// Built as a map-plus-mutex registry over live WS sessions, widened with a
// TTL-scheduled token cache for the connect handshake.
package wsregistry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"kromer/internal/eventbus"
)

// SubType is the closed set of subscription topics, using their exact wire
// names.
type SubType string

const (
	SubBlocks          SubType = "blocks"
	SubOwnBlocks       SubType = "ownBlocks"
	SubTransactions    SubType = "transactions"
	SubOwnTransactions SubType = "ownTransactions"
	SubNames           SubType = "names"
	SubOwnNames        SubType = "ownNames"
	SubMOTD            SubType = "motd"
)

// ValidSubTypes lists the full closed set, in wire order, for
// get_valid_subscription_levels.
var ValidSubTypes = []SubType{SubBlocks, SubOwnBlocks, SubTransactions, SubOwnTransactions, SubNames, SubOwnNames, SubMOTD}

// tokenTTL is the lifetime of a pending token issued by POST /ws/start.
const tokenTTL = 30 * time.Second

// TokenData is what a pending token resolves to once the client connects.
type TokenData struct {
	Address    string
	PrivateKey string // empty for a guest token
}

// SessionData is the live per-connection state. Out is the sink the
// WS write loop drains. Address/PrivateKey and the subscription set are
// written only from the session's own inbound loop (via Registry.SetAddress
// /Subscribe/Unsubscribe) and read by concurrent Broadcast calls; mu guards
// both, since "single writer" alone does not make shared state safe for a
// concurrent reader in Go.
type SessionData struct {
	ID  uuid.UUID
	Out chan []byte

	mu            sync.RWMutex
	address       string
	privateKey    string
	subscriptions map[SubType]bool
}

// Address returns the session's current address ("guest" or "" if never
// authenticated).
func (s *SessionData) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

// PrivateKey returns the session's stored private key, if any.
func (s *SessionData) PrivateKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.privateKey
}

func (s *SessionData) setAddress(address, privateKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = address
	s.privateKey = privateKey
}

// Subscriptions returns a snapshot of the session's current subscription
// set.
func (s *SessionData) Subscriptions() map[SubType]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[SubType]bool, len(s.subscriptions))
	for k, v := range s.subscriptions {
		out[k] = v
	}
	return out
}

func (s *SessionData) setSubscription(sub SubType, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.subscriptions[sub] = true
	} else {
		delete(s.subscriptions, sub)
	}
}

func (s *SessionData) hasSubscription(sub SubType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscriptions[sub]
}

// IsGuest reports whether the session never authenticated.
func (s *SessionData) IsGuest() bool {
	a := s.Address()
	return a == "" || a == "guest"
}

// sessionOutBuffer bounds how many unsent frames a session may queue before
// Broadcast gives up and the session is torn down as unresponsive.
const sessionOutBuffer = 32

// Registry holds the session map and the pending-token cache behind one
// coarse lock, so a token insert and its TTL-scheduled removal never race.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*SessionData
	pending  map[uuid.UUID]TokenData
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*SessionData),
		pending:  make(map[uuid.UUID]TokenData),
	}
}

// IssueToken allocates a fresh pending token for data and schedules its TTL
// removal, returning the token id.
func (r *Registry) IssueToken(data TokenData) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.pending[id] = data
	r.mu.Unlock()

	time.AfterFunc(tokenTTL, func() {
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	})
	return id
}

// UseToken atomically removes and returns the token data for id, reporting
// whether it was present.
func (r *Registry) UseToken(id uuid.UUID) (TokenData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	return data, ok
}

// Insert creates a live session for address/privateKey with the default
// subscriptions {ownTransactions, blocks} and returns it.
func (r *Registry) Insert(address, privateKey string) *SessionData {
	s := &SessionData{
		ID:         uuid.New(),
		address:    address,
		privateKey: privateKey,
		subscriptions: map[SubType]bool{
			SubOwnTransactions: true,
			SubBlocks:          true,
		},
		Out: make(chan []byte, sessionOutBuffer),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Remove drops a session from the registry and closes its outbound channel.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok {
		close(s.Out)
	}
}

// Get returns the session for id, or nil.
func (r *Registry) Get(id uuid.UUID) *SessionData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// SetAddress mutates only the session's address/private_key (login/logout)
// — never the persisted wallet.
func (r *Registry) SetAddress(id uuid.UUID, address, privateKey string) {
	if s := r.Get(id); s != nil {
		s.setAddress(address, privateKey)
	}
}

// Subscribe/Unsubscribe mutate a session's own subscription set; this is
// only ever called from the session's own inbound loop.
func (r *Registry) Subscribe(id uuid.UUID, sub SubType) {
	if s := r.Get(id); s != nil {
		s.setSubscription(sub, true)
	}
}

func (r *Registry) Unsubscribe(id uuid.UUID, sub SubType) {
	if s := r.Get(id); s != nil {
		s.setSubscription(sub, false)
	}
}

// Count reports the live session count, for diagnostics.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// snapshot returns a copy of the current session slice, safe to range over
// without holding the lock while delivering frames.
func (r *Registry) snapshot() []*SessionData {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*SessionData, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Broadcast applies the filter rules to ev against every live session
// and pushes the serialized frame (built by encode) to each that should
// receive it. A send that fails (buffer full) tears that session down.
func (r *Registry) Broadcast(ev eventbus.WebSocketEvent, encode func(eventbus.WebSocketEvent) []byte) {
	for _, s := range r.snapshot() {
		if !r.shouldDeliver(s, ev) {
			continue
		}
		frame := encode(ev)
		select {
		case s.Out <- frame:
		default:
			log.WithFields(log.Fields{"session": s.ID}).Debug("wsregistry: send buffer full, dropping session")
			r.Remove(s.ID)
		}
	}
}

func (r *Registry) shouldDeliver(s *SessionData, ev eventbus.WebSocketEvent) bool {
	switch ev.Kind {
	case eventbus.KindTransaction:
		t := ev.Transaction
		if s.hasSubscription(SubTransactions) {
			return true
		}
		if !s.IsGuest() && s.hasSubscription(SubOwnTransactions) {
			address := s.Address()
			if (t.From != nil && *t.From == address) || t.To == address {
				return true
			}
		}
		return false
	case eventbus.KindName:
		n := ev.Name
		if s.hasSubscription(SubNames) {
			return true
		}
		return s.hasSubscription(SubOwnNames) && n.Owner == s.Address()
	case eventbus.KindBlock:
		// OwnBlocks never fires: there is no minter.
		return s.hasSubscription(SubBlocks)
	default:
		return false
	}
}
