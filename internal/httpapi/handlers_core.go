package httpapi

import (
	"net/http"
	"time"

	"kromer/internal/kcrypto"
	"kromer/internal/kerrors"
	"kromer/internal/motd"
	"kromer/internal/store"
)

func (s *Server) handleMOTD(w http.ResponseWriter, r *http.Request) {
	d := motd.Build(s.Config, time.Now())
	writeJSON(w, http.StatusOK, map[string]any{
		"server_time":          d.ServerTime,
		"motd":                 d.MOTD,
		"public_url":           d.PublicURL,
		"public_ws_url":        d.PublicWSURL,
		"mining_enabled":       d.MiningEnabled,
		"transactions_enabled": d.TransactionsEnabled,
		"work":                 d.Work,
		"package":              d.Package,
		"constants":            d.Constants,
		"currency":             d.Currency,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PrivateKey string `json:"privatekey"`
	}
	_ = decodeJSON(r, &body)
	if body.PrivateKey == "" {
		writeErr(w, kerrors.New(kerrors.MissingParameter, "privatekey").WithField("privatekey"))
		return
	}

	verify, err := store.VerifyAddress(r.Context(), s.Store, body.PrivateKey)
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := map[string]any{"authed": verify.Authed}
	if verify.Authed {
		resp["address"] = verify.Wallet.Address
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleV2(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PrivateKey string `json:"privatekey"`
	}
	_ = decodeJSON(r, &body)
	if body.PrivateKey == "" {
		writeErr(w, kerrors.New(kerrors.MissingParameter, "privatekey").WithField("privatekey"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"address": kcrypto.MakeV2Address(body.PrivateKey, 'k')})
}

func (s *Server) handleWalletVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"walletVersion": 16})
}

func (s *Server) handleSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := store.MoneySupply(r.Context(), s.Store)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"money_supply": supply})
}
