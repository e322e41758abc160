package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"kromer/internal/kerrors"
	"kromer/internal/store"
)

// writeJSON writes body as a Krist-style success envelope merged with
// {"ok": true}.
func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	if body == nil {
		body = map[string]any{}
	}
	body["ok"] = true
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeJSONError writes a Krist-style error envelope directly (used where no
// domain error exists yet, e.g. the internal-key guard).
func writeJSONError(w http.ResponseWriter, status int, code, message, info string) {
	body := map[string]any{"ok": false, "error": code, "message": message}
	if info != "" {
		body["info"] = info
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeErr maps err (typically a *kerrors.Error) to its wire envelope via
// kerrors.ToWire.
func writeErr(w http.ResponseWriter, err error) {
	status, code, message, info := kerrors.ToWire(err)
	writeJSONError(w, status, code, message, info)
}

// parsePagination reads limit/offset query params, defaulting to 50/0 and
// clamping into [1,1000]/[0,∞). An absent or
// unparsable limit falls back to the default rather than clamping to 1 — a
// limit of literal "0" still clamps to 1 via store.NewPagination.
func parsePagination(r *http.Request) store.Pagination {
	const defaultLimit = 50
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	return store.NewPagination(limit, offset)
}

func excludeMined(r *http.Request) bool {
	return r.URL.Query().Get("excludeMined") == "true"
}

func fetchNames(r *http.Request) bool {
	return r.URL.Query().Get("fetchNames") == "true"
}

// decodeJSON decodes the request body into v, treating an empty body as an
// empty JSON object so optional-everything handlers (e.g. /ws/start) don't
// need a special case.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// splitCSV splits a comma-separated path segment into its non-empty parts
// (the bulk address lookup's {csvAddresses}).
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
