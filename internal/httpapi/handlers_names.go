package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"kromer/internal/kerrors"
	"kromer/internal/store"
	"kromer/internal/validation"
)

func (s *Server) handleNameList(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	names, err := store.FetchAllNames(r.Context(), s.Store, p)
	if err != nil {
		writeErr(w, err)
		return
	}
	total, err := store.TotalNameCount(r.Context(), s.Store)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"names": names, "total": total, "count": len(names)})
}

func (s *Server) handleNameCost(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"name_cost": store.NameCost})
}

func (s *Server) handleNameCheck(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !validation.IsNameValidForRegistration(name) {
		writeJSON(w, http.StatusOK, map[string]any{"available": false})
		return
	}
	n, err := store.FetchNameByName(r.Context(), s.Store, name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": n == nil})
}

func (s *Server) handleNameBonus(w http.ResponseWriter, r *http.Request) {
	n, err := store.CountUnpaidNames(r.Context(), s.Store)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name_bonus": n})
}

func (s *Server) handleNameNew(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	names, err := store.AllUnpaidNames(r.Context(), s.Store, p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"names": names, "count": len(names)})
}

func (s *Server) handleNameGet(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !validation.IsNameValidForFetch(name) {
		writeErr(w, kerrors.New(kerrors.InvalidParameter, "invalid name").WithField("name"))
		return
	}
	n, err := store.FetchNameByName(r.Context(), s.Store, name)
	if err != nil {
		writeErr(w, err)
		return
	}
	if n == nil {
		writeErr(w, kerrors.New(kerrors.NameNotFound, "name not found").WithField(name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": n})
}

func (s *Server) handleNameRegister(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var body struct {
		PrivateKey string `json:"privatekey"`
	}
	_ = decodeJSON(r, &body)
	if body.PrivateKey == "" {
		writeErr(w, kerrors.New(kerrors.MissingParameter, "privatekey").WithField("privatekey"))
		return
	}

	n, err := s.Ledger.RegisterName(r.Context(), name, body.PrivateKey)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": n})
}

func (s *Server) handleNameUpdate(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var body struct {
		PrivateKey string  `json:"privatekey"`
		A          *string `json:"a"`
	}
	_ = decodeJSON(r, &body)
	if body.PrivateKey == "" {
		writeErr(w, kerrors.New(kerrors.MissingParameter, "privatekey").WithField("privatekey"))
		return
	}

	n, err := store.CtrlUpdateMetadata(r.Context(), s.Store, name, body.A, body.PrivateKey)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": n})
}

func (s *Server) handleNameTransfer(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var body struct {
		PrivateKey string `json:"privatekey"`
		Address    string `json:"address"`
	}
	_ = decodeJSON(r, &body)
	if body.PrivateKey == "" {
		writeErr(w, kerrors.New(kerrors.MissingParameter, "privatekey").WithField("privatekey"))
		return
	}
	if !validation.IsAddressValid(body.Address) {
		writeErr(w, kerrors.New(kerrors.InvalidParameter, "invalid address").WithField("address"))
		return
	}

	verify, err := store.VerifyAddress(r.Context(), s.Store, body.PrivateKey)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !verify.Authed {
		writeErr(w, kerrors.New(kerrors.AuthFailed, "authentication failed"))
		return
	}
	existing, err := store.FetchNameByName(r.Context(), s.Store, name)
	if err != nil {
		writeErr(w, err)
		return
	}
	if existing == nil {
		writeErr(w, kerrors.New(kerrors.NameNotFound, "name not found").WithField(name))
		return
	}
	if existing.Owner != verify.Wallet.Address {
		writeErr(w, kerrors.New(kerrors.NotNameOwner, "not the name owner").WithField(name))
		return
	}

	n, err := s.Ledger.TransferName(r.Context(), name, body.Address)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": n})
}
