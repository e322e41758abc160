// Package httpapi is the HTTP Contract: gorilla/mux routing, the
// Krist-style envelope, pagination, and the handlers for every endpoint.
//
// Built on gorilla/mux with a router.Use(...) middleware chain, the way the
// rest of this codebase composes an HTTP server.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"kromer/internal/eventbus"
	"kromer/internal/ledger"
	pkgconfig "kromer/pkg/config"
	"kromer/internal/store"
	"kromer/internal/wsproto"
	"kromer/internal/wsregistry"
)

// Server bundles every dependency a handler needs.
type Server struct {
	Store    store.Executor
	Pool     ledger.Pool
	Ledger   *ledger.Ledger
	Bus      *eventbus.Bus
	Registry *wsregistry.Registry
	Config   *pkgconfig.Config
	WS       *wsproto.Handler
}

// NewRouter builds the full gorilla/mux router for the Kromer HTTP surface,
// wiring middleware via router.Use(RequestLogger, JSONHeaders).
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger, JSONHeaders)

	api := r.PathPrefix("/api/krist").Subrouter()
	api.HandleFunc("/motd", s.handleMOTD).Methods(http.MethodGet)
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/v2", s.handleV2).Methods(http.MethodPost)
	api.HandleFunc("/walletversion", s.handleWalletVersion).Methods(http.MethodGet)
	api.HandleFunc("/supply", s.handleSupply).Methods(http.MethodGet)

	api.HandleFunc("/addresses", s.handleAddressList).Methods(http.MethodGet)
	api.HandleFunc("/addresses/rich", s.handleAddressRich).Methods(http.MethodGet)
	api.HandleFunc("/addresses/{addr}", s.handleAddressGet).Methods(http.MethodGet)
	api.HandleFunc("/addresses/{addr}/transactions", s.handleAddressTransactions).Methods(http.MethodGet)
	api.HandleFunc("/addresses/{addr}/names", s.handleAddressNames).Methods(http.MethodGet)

	api.HandleFunc("/transactions", s.handleTransactionList).Methods(http.MethodGet)
	api.HandleFunc("/transactions/latest", s.handleTransactionLatest).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", s.handleTransactionGet).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleTransactionCreate).Methods(http.MethodPost)

	api.HandleFunc("/names", s.handleNameList).Methods(http.MethodGet)
	api.HandleFunc("/names/cost", s.handleNameCost).Methods(http.MethodGet)
	api.HandleFunc("/names/check/{name}", s.handleNameCheck).Methods(http.MethodGet)
	api.HandleFunc("/names/bonus", s.handleNameBonus).Methods(http.MethodGet)
	api.HandleFunc("/names/new", s.handleNameNew).Methods(http.MethodGet)
	api.HandleFunc("/names/{name}/update", s.handleNameUpdate).Methods(http.MethodPut, http.MethodPost)
	api.HandleFunc("/names/{name}/transfer", s.handleNameTransfer).Methods(http.MethodPost)
	api.HandleFunc("/names/{name}", s.handleNameGet).Methods(http.MethodGet)
	api.HandleFunc("/names/{name}", s.handleNameRegister).Methods(http.MethodPost)

	api.HandleFunc("/lookup/addresses/{csv}", s.handleLookupAddresses).Methods(http.MethodGet)

	api.HandleFunc("/ws/start", s.WS.HandleStart).Methods(http.MethodPost)
	api.HandleFunc("/ws/gateway/{token}", s.handleWSGateway).Methods(http.MethodGet)

	internal := r.PathPrefix("/api/_internal").Subrouter()
	internal.Use(RequireInternalKey(s.Config.Internal.Key))
	internal.HandleFunc("/wallet/create", s.handleInternalWalletCreate).Methods(http.MethodPost)
	internal.HandleFunc("/wallet/give-money", s.handleInternalGiveMoney).Methods(http.MethodPost)
	internal.HandleFunc("/wallet/by-player/{uuid}", s.handleInternalWalletByPlayer).Methods(http.MethodGet)
	internal.HandleFunc("/ws/session", s.handleInternalWSSession).Methods(http.MethodGet)
	internal.HandleFunc("/ws/sessions", s.handleInternalWSSessions).Methods(http.MethodGet)

	return r
}

func (s *Server) handleWSGateway(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	s.WS.HandleGateway(w, r, token)
}
