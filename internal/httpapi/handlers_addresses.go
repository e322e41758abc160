package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"kromer/internal/kerrors"
	"kromer/internal/store"
	"kromer/internal/validation"
)

func (s *Server) handleAddressList(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	wallets, err := store.FetchAllWallets(r.Context(), s.Store, p)
	if err != nil {
		writeErr(w, err)
		return
	}
	total, err := store.TotalWalletCount(r.Context(), s.Store)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"addresses": wallets, "total": total, "count": len(wallets)})
}

func (s *Server) handleAddressRich(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	wallets, err := store.FetchRichestWallets(r.Context(), s.Store, p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"addresses": wallets, "count": len(wallets)})
}

func (s *Server) handleAddressGet(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["addr"]
	if !validation.IsAddressValid(addr) {
		writeErr(w, kerrors.New(kerrors.InvalidParameter, "invalid address").WithField("address"))
		return
	}
	wallets, err := store.LookupAddresses(r.Context(), s.Store, []string{addr}, fetchNames(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	if len(wallets) == 0 {
		writeErr(w, kerrors.New(kerrors.AddressNotFound, "address not found").WithField(addr))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"address": wallets[0]})
}

func (s *Server) handleAddressTransactions(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["addr"]
	p := parsePagination(r)
	txs, err := store.TransactionsForAddress(r.Context(), s.Store, addr, p, excludeMined(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs, "count": len(txs)})
}

func (s *Server) handleAddressNames(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["addr"]
	p := parsePagination(r)
	names, err := store.NamesForOwner(r.Context(), s.Store, addr, p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"names": names, "count": len(names)})
}

func (s *Server) handleLookupAddresses(w http.ResponseWriter, r *http.Request) {
	csv := mux.Vars(r)["csv"]
	addrs := splitCSV(csv)
	wallets, err := store.LookupAddresses(r.Context(), s.Store, addrs, fetchNames(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	found := make(map[string]*store.Wallet, len(wallets))
	for _, w := range wallets {
		found[w.Address] = w
	}
	result := make(map[string]*store.Wallet, len(addrs))
	for _, a := range addrs {
		result[a] = found[a] // nil for addresses with no wallet row
	}
	writeJSON(w, http.StatusOK, map[string]any{"addresses": result})
}
