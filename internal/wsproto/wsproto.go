// Package wsproto is the WS Protocol Handler: frame-length
// discipline, inbound JSON dispatch across the closed set of ten message
// kinds, and the fixed wire shapes for responses, events, and errors.
//
// Built on the gorilla/websocket upgrader plus a per-connection write pump,
// generalized from a broadcast-only socket into the full
// request/response/event protocol Kromer clients speak.
package wsproto

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"kromer/internal/eventbus"
	"kromer/internal/kerrors"
	"kromer/internal/ledger"
	"kromer/internal/motd"
	pkgconfig "kromer/pkg/config"
	"kromer/internal/store"
	"kromer/internal/wsregistry"
)

// maxFrameLength is the inbound frame size limit in characters.
const maxFrameLength = 512

const (
	heartbeatPeriod = 5 * time.Second
	pongTimeout     = 10 * time.Second
)

// Kind is the closed set of inbound message kinds.
type Kind string

const (
	KindAddress                    Kind = "address"
	KindLogin                      Kind = "login"
	KindLogout                     Kind = "logout"
	KindMe                         Kind = "me"
	KindSubscribe                  Kind = "subscribe"
	KindUnsubscribe                Kind = "unsubscribe"
	KindGetSubscriptionLevel       Kind = "get_subscription_level"
	KindGetValidSubscriptionLevels Kind = "get_valid_subscription_levels"
	KindMakeTransaction            Kind = "make_transaction"
	KindWork                       Kind = "work"
)

// inboundFrame is the generic envelope every inbound message parses into
// first; payload fields are re-decoded per kind from Raw.
type inboundFrame struct {
	Type Kind `json:"type"`
	ID   *int `json:"id,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler wires the registry, ledger, store, event bus, and config together
// to serve one upgraded WS connection per HandleGateway call.
type Handler struct {
	Registry *wsregistry.Registry
	Ledger   *ledger.Ledger
	Store    store.Executor
	Bus      *eventbus.Bus
	Config   *pkgconfig.Config
}

// HandleStart serves POST /api/krist/ws/start.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PrivateKey string `json:"privatekey"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	data := wsregistry.TokenData{Address: "guest"}
	if body.PrivateKey != "" {
		verify, err := store.VerifyAddress(r.Context(), h.Store, body.PrivateKey)
		if err != nil || !verify.Authed {
			writeJSONError(w, kerrors.New(kerrors.AuthFailed, "authentication failed"))
			return
		}
		data = wsregistry.TokenData{Address: verify.Wallet.Address, PrivateKey: body.PrivateKey}
	}

	id := h.Registry.IssueToken(data)
	scheme := h.Config.PublicWebSocketScheme()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"url":     scheme + "://" + h.Config.Server.PublicURL + "/api/krist/ws/gateway/" + id.String(),
		"expires": 30,
	})
}

// HandleGateway serves GET /api/krist/ws/gateway/{token}: upgrades the
// connection, resolves the pending token, and runs the session's loops.
func (h *Handler) HandleGateway(w http.ResponseWriter, r *http.Request, tokenStr string) {
	id, err := uuid.Parse(tokenStr)
	if err != nil {
		writeJSONError(w, kerrors.New(kerrors.InvalidWebSocketTok, "invalid websocket token"))
		return
	}
	data, ok := h.Registry.UseToken(id)
	if !ok {
		writeJSONError(w, kerrors.New(kerrors.InvalidWebSocketTok, "invalid websocket token"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("wsproto: upgrade failed")
		return
	}

	session := h.Registry.Insert(data.Address, data.PrivateKey)
	log.WithFields(log.Fields{"session": session.ID, "address": data.Address}).Info("ws session opened")

	hello := motd.Build(h.Config, time.Now())
	helloFrame := map[string]any{
		"ok":                    hello.OK,
		"type":                  "hello",
		"server_time":           hello.ServerTime,
		"motd":                  hello.MOTD,
		"public_url":            hello.PublicURL,
		"public_ws_url":         hello.PublicWSURL,
		"mining_enabled":        hello.MiningEnabled,
		"transactions_enabled":  hello.TransactionsEnabled,
		"work":                  hello.Work,
		"package":               hello.Package,
		"constants":             hello.Constants,
		"currency":              hello.Currency,
	}
	if b, err := json.Marshal(helloFrame); err == nil {
		session.Out <- b
	}

	go h.writeLoop(conn, session)
	h.readLoop(conn, session)
}

func (h *Handler) writeLoop(conn *websocket.Conn, session *wsregistry.SessionData) {
	ticker := time.NewTicker(heartbeatPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case frame, ok := <-session.Out:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.WithFields(log.Fields{"session": session.ID}).Debug("wsproto: write failed, closing")
				return
			}
		case <-ticker.C:
			keepalive, _ := json.Marshal(map[string]any{"type": "keepalive", "server_time": time.Now()})
			if err := conn.WriteMessage(websocket.TextMessage, keepalive); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) readLoop(conn *websocket.Conn, session *wsregistry.SessionData) {
	defer func() {
		h.Registry.Remove(session.ID)
		conn.Close()
		log.WithFields(log.Fields{"session": session.ID}).Debug("ws session closed")
	}()

	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if utf8.RuneCount(raw) > maxFrameLength {
			h.sendError(session, nil, kerrors.ErrMessageTooLong)
			continue
		}
		h.dispatch(context.Background(), session, raw)
	}
}

func (h *Handler) dispatch(ctx context.Context, session *wsregistry.SessionData, raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.sendError(session, nil, kerrors.New(kerrors.InvalidParameter, "malformed frame"))
		return
	}

	switch frame.Type {
	case KindAddress:
		h.handleAddress(ctx, session, frame.ID, raw)
	case KindLogin:
		h.handleLogin(ctx, session, frame.ID, raw)
	case KindLogout:
		h.handleLogout(session, frame.ID)
	case KindMe:
		h.handleMe(session, frame.ID)
	case KindSubscribe:
		h.handleSubscribe(session, frame.ID, raw, true)
	case KindUnsubscribe:
		h.handleSubscribe(session, frame.ID, raw, false)
	case KindGetSubscriptionLevel:
		h.handleGetSubscriptionLevel(session, frame.ID)
	case KindGetValidSubscriptionLevels:
		h.handleGetValidSubscriptionLevels(session, frame.ID)
	case KindMakeTransaction:
		h.handleMakeTransaction(ctx, session, frame.ID, raw)
	case KindWork:
		h.sendError(session, frame.ID, kerrors.ErrMiningDisabled)
	default:
		h.sendError(session, frame.ID, kerrors.New(kerrors.InvalidParameter, "unknown message type"))
	}
}

func (h *Handler) handleAddress(ctx context.Context, session *wsregistry.SessionData, id *int, raw []byte) {
	var body struct {
		Address    string `json:"address"`
		FetchNames bool   `json:"fetchNames"`
	}
	_ = json.Unmarshal(raw, &body)

	wallets, err := store.LookupAddresses(ctx, h.Store, []string{body.Address}, body.FetchNames)
	if err != nil {
		h.sendError(session, id, err)
		return
	}
	if len(wallets) == 0 {
		h.sendError(session, id, kerrors.New(kerrors.AddressNotFound, "address not found").WithField(body.Address))
		return
	}
	h.sendResponse(session, id, KindAddress, map[string]any{"address": wallets[0]})
}

func (h *Handler) handleLogin(ctx context.Context, session *wsregistry.SessionData, id *int, raw []byte) {
	var body struct {
		PrivateKey string `json:"privatekey"`
	}
	_ = json.Unmarshal(raw, &body)

	verify, err := store.VerifyAddress(ctx, h.Store, body.PrivateKey)
	if err != nil || !verify.Authed {
		h.sendError(session, id, kerrors.New(kerrors.AuthFailed, "authentication failed"))
		return
	}
	h.Registry.SetAddress(session.ID, verify.Wallet.Address, body.PrivateKey)
	h.sendResponse(session, id, KindLogin, map[string]any{"isGuest": false, "address": verify.Wallet.Address})
}

func (h *Handler) handleLogout(session *wsregistry.SessionData, id *int) {
	h.Registry.SetAddress(session.ID, "guest", "")
	h.sendResponse(session, id, KindLogout, map[string]any{"isGuest": true})
}

func (h *Handler) handleMe(session *wsregistry.SessionData, id *int) {
	h.sendResponse(session, id, KindMe, map[string]any{
		"isGuest": session.IsGuest(),
		"address": session.Address(),
	})
}

func (h *Handler) handleSubscribe(session *wsregistry.SessionData, id *int, raw []byte, subscribe bool) {
	var body struct {
		Event string `json:"event"`
	}
	_ = json.Unmarshal(raw, &body)
	sub := wsregistry.SubType(body.Event)
	if !isValidSubType(sub) {
		h.sendError(session, id, kerrors.New(kerrors.InvalidParameter, "invalid subscription type"))
		return
	}
	if subscribe {
		h.Registry.Subscribe(session.ID, sub)
	} else {
		h.Registry.Unsubscribe(session.ID, sub)
	}
	kind := KindUnsubscribe
	if subscribe {
		kind = KindSubscribe
	}
	subs := session.Subscriptions()
	levels := make([]string, 0, len(subs))
	for s := range subs {
		levels = append(levels, string(s))
	}
	h.sendResponse(session, id, kind, map[string]any{"subscription_level": levels})
}

func (h *Handler) handleGetSubscriptionLevel(session *wsregistry.SessionData, id *int) {
	subs := session.Subscriptions()
	levels := make([]string, 0, len(subs))
	for sub := range subs {
		levels = append(levels, string(sub))
	}
	h.sendResponse(session, id, KindGetSubscriptionLevel, map[string]any{"subscription_level": levels})
}

func (h *Handler) handleGetValidSubscriptionLevels(session *wsregistry.SessionData, id *int) {
	h.sendResponse(session, id, KindGetValidSubscriptionLevels, map[string]any{"valid_subscription_levels": wsregistry.ValidSubTypes})
}

func (h *Handler) handleMakeTransaction(ctx context.Context, session *wsregistry.SessionData, id *int, raw []byte) {
	var body struct {
		PrivateKey string `json:"privatekey"`
		To         string `json:"to"`
		Amount     string `json:"amount"`
		Metadata   *string `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		h.sendError(session, id, kerrors.New(kerrors.InvalidParameter, "malformed frame"))
		return
	}

	privateKey := body.PrivateKey
	if privateKey == "" {
		privateKey = session.PrivateKey()
	}
	if privateKey == "" {
		h.sendError(session, id, kerrors.New(kerrors.AuthFailed, "unauthorized"))
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		h.sendError(session, id, kerrors.New(kerrors.InvalidParameter, "invalid amount"))
		return
	}

	t, err := h.Ledger.SendTransaction(ctx, privateKey, body.To, amount, body.Metadata)
	if err != nil {
		h.sendError(session, id, err)
		return
	}
	h.sendResponse(session, id, KindMakeTransaction, map[string]any{"transaction": t})
}

func isValidSubType(sub wsregistry.SubType) bool {
	for _, v := range wsregistry.ValidSubTypes {
		if v == sub {
			return true
		}
	}
	return false
}

// sendResponse pushes a "response" frame: {ok, id, type:"response",
// responding_to, ...fields}.
func (h *Handler) sendResponse(session *wsregistry.SessionData, id *int, kind Kind, fields map[string]any) {
	frame := map[string]any{
		"ok":            true,
		"type":          "response",
		"responding_to": string(kind),
	}
	if id != nil {
		frame["id"] = *id
	}
	for k, v := range fields {
		frame[k] = v
	}
	b, _ := json.Marshal(frame)
	select {
	case session.Out <- b:
	default:
		log.WithFields(log.Fields{"session": session.ID}).Debug("wsproto: response dropped, outbound buffer full")
	}
}

// sendError pushes a "error" frame: {ok:false, id?, type:"error", error,
// message}.
func (h *Handler) sendError(session *wsregistry.SessionData, id *int, err error) {
	frame := map[string]any{
		"ok":      false,
		"type":    "error",
		"error":   kerrors.WSCode(err),
		"message": err.Error(),
	}
	if id != nil {
		frame["id"] = *id
	}
	b, _ := json.Marshal(frame)
	select {
	case session.Out <- b:
	default:
	}
}

// EncodeEvent renders a bus event as the "event" frame:
// {type:"event", event:<blocks|transactions|names>, ...payload}.
func EncodeEvent(ev eventbus.WebSocketEvent) []byte {
	var frame map[string]any
	switch ev.Kind {
	case eventbus.KindTransaction:
		frame = map[string]any{"type": "event", "event": "transactions", "transaction": ev.Transaction}
	case eventbus.KindName:
		frame = map[string]any{"type": "event", "event": "names", "name": ev.Name}
	case eventbus.KindBlock:
		frame = map[string]any{"type": "event", "event": "blocks", "block": ev.Block}
	default:
		return nil
	}
	b, _ := json.Marshal(frame)
	return b
}

// Pump subscribes to bus and forwards every event to registry.Broadcast
// until ctx is cancelled. Run it once per server process.
func Pump(ctx context.Context, bus *eventbus.Bus, registry *wsregistry.Registry) {
	sub := bus.Subscribe()
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			registry.Broadcast(ev, EncodeEvent)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, err error) {
	status, code, message, info := kerrors.ToWire(err)
	body := map[string]any{"ok": false, "error": code, "message": message}
	if info != "" {
		body["info"] = info
	}
	writeJSON(w, status, body)
}
