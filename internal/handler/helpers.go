package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rosterhq/roster/internal/model"
	"github.com/rosterhq/roster/internal/server/middleware"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeText writes a plain-text body. The user endpoints answer in plain text
// because the web client renders the body verbatim.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(msg))
}

// writeError writes the {"error": message} envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, model.ErrorResponse{Error: message})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// mayActFor reports whether the caller may operate on adminID's account or
// users. Without token authentication every caller may; with it, a token
// holder may act only for itself unless it is the super admin.
func mayActFor(r *http.Request, adminID string) bool {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		return true
	}
	return p.IsSuperAdmin() || p.AdminID == adminID
}
