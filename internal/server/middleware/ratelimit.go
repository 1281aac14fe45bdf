package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/rosterhq/roster/internal/model"
)

// RateLimit returns an HTTP middleware that limits requests per IP address
// to the specified number per minute. Uses a sliding window algorithm.
// A non-positive limit disables limiting.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return passthrough
	}
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}

// LoginRateLimit limits login attempts per client IP. Rejected attempts get
// the same JSON envelope as a failed login, with status 429.
func LoginRateLimit(attemptsPerMinute int) func(http.Handler) http.Handler {
	if attemptsPerMinute <= 0 {
		return passthrough
	}
	return httprate.Limit(
		attemptsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(model.LoginResponse{
				Status:  "error",
				Message: "Too many login attempts, try again later",
			})
		}),
	)
}

func passthrough(next http.Handler) http.Handler { return next }
