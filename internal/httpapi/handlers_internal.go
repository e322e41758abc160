package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kromer/internal/eventbus"
	"kromer/internal/kcrypto"
	"kromer/internal/kerrors"
	"kromer/internal/store"
)

// handleInternalWalletCreate provisions a wallet for a game player: POST
// {player_id, player_name} -> a fresh address/private key pair, a wallet
// seeded with store.InitialWalletBalance, and the wallet linked onto the
// player's owned_wallets array.
func (s *Server) handleInternalWalletCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlayerID   string `json:"player_id"`
		PlayerName string `json:"player_name"`
	}
	_ = decodeJSON(r, &body)
	if body.PlayerID == "" || body.PlayerName == "" {
		writeErr(w, kerrors.New(kerrors.MissingParameter, "player_id and player_name are required"))
		return
	}

	privateKey := uuid.NewString()
	address := kcrypto.MakeV2Address(privateKey, 'k')

	wallet, err := store.CreatePlayerWallet(r.Context(), s.Pool, body.PlayerID, body.PlayerName, address)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"wallet":      wallet,
		"private_key": privateKey,
	})
}

// handleInternalGiveMoney grants amount to an existing wallet from the
// reserved welfare sink via store.GiveMoney: debits serverwelf, credits
// the target wallet, and records a mined transaction after the balance
// move.
func (s *Server) handleInternalGiveMoney(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address string `json:"address"`
		Amount  string `json:"amount"`
	}
	_ = decodeJSON(r, &body)
	if body.Address == "" {
		writeErr(w, kerrors.New(kerrors.MissingParameter, "address").WithField("address"))
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil || amount.Sign() <= 0 {
		writeErr(w, kerrors.New(kerrors.InvalidParameter, "invalid amount").WithField("amount"))
		return
	}

	wallet, err := store.FetchWalletByAddress(r.Context(), s.Store, body.Address)
	if err != nil {
		writeErr(w, err)
		return
	}
	if wallet == nil {
		writeErr(w, kerrors.New(kerrors.AddressNotFound, "address not found").WithField(body.Address))
		return
	}

	t, err := store.GiveMoney(r.Context(), s.Pool, body.Address, amount)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.Bus.Publish(eventbus.NewTransactionEvent(t))
	writeJSON(w, http.StatusOK, map[string]any{"transaction": t})
}

// handleInternalWalletByPlayer lists a player's wallet addresses and
// balances for the game server's own bookkeeping.
func (s *Server) handleInternalWalletByPlayer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["uuid"]
	player, err := store.FetchPlayerByID(r.Context(), s.Store, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if player == nil {
		writeErr(w, kerrors.New(kerrors.AddressNotFound, "player not found").WithField(id))
		return
	}

	wallets := make([]*store.Wallet, 0, len(player.OwnedWallets))
	for _, wid := range player.OwnedWallets {
		wallet, err := store.FetchWalletByID(r.Context(), s.Store, wid)
		if err != nil {
			writeErr(w, err)
			return
		}
		if wallet != nil {
			wallets = append(wallets, wallet)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"player": player, "wallets": wallets})
}

// handleInternalWSSession reports whether a given session id is currently
// connected, for the game server to sanity-check a player's live socket.
func (s *Server) handleInternalWSSession(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeErr(w, kerrors.New(kerrors.InvalidParameter, "invalid session id").WithField("id"))
		return
	}
	session := s.Registry.Get(id)
	if session == nil {
		writeJSON(w, http.StatusOK, map[string]any{"connected": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"connected":     true,
		"address":       session.Address(),
		"guest":         session.IsGuest(),
		"subscriptions": session.Subscriptions(),
	})
}

// handleInternalWSSessions reports the live session count for operational
// visibility into the gateway.
func (s *Server) handleInternalWSSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"count": s.Registry.Count()})
}
