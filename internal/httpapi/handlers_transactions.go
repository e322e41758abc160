package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"kromer/internal/kerrors"
	"kromer/internal/store"
)

func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	txs, err := store.FetchAllTransactions(r.Context(), s.Store, p, excludeMined(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	total, err := store.TotalTransactionCount(r.Context(), s.Store, excludeMined(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs, "total": total, "count": len(txs)})
}

func (s *Server) handleTransactionLatest(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	txs, err := store.SortedByDate(r.Context(), s.Store, p, excludeMined(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs, "count": len(txs)})
}

func (s *Server) handleTransactionGet(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeErr(w, kerrors.New(kerrors.InvalidParameter, "invalid transaction id").WithField("id"))
		return
	}
	t, err := store.FetchTransactionByID(r.Context(), s.Store, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if t == nil {
		writeErr(w, kerrors.New(kerrors.TransactionNotFound, "transaction not found").WithField(idStr))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": t})
}

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PrivateKey string  `json:"privatekey"`
		To         string  `json:"to"`
		Amount     string  `json:"amount"`
		Metadata   *string `json:"metadata"`
	}
	_ = decodeJSON(r, &body)
	if body.PrivateKey == "" {
		writeErr(w, kerrors.New(kerrors.MissingParameter, "privatekey").WithField("privatekey"))
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		writeErr(w, kerrors.New(kerrors.InvalidParameter, "invalid amount").WithField("amount"))
		return
	}

	t, err := s.Ledger.SendTransaction(r.Context(), body.PrivateKey, body.To, amount, body.Metadata)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": t})
}
