package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nexship/freightgate/internal/core/ports"
	"github.com/nexship/freightgate/internal/infrastructure/metrics"
)

type contextKey string

// CtxCustomerID carries the authenticated customer id through the request.
const CtxCustomerID contextKey = "customer_id"

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type, Authorization, X-Client-Info, Apikey",
}

// CORS opens the API to all origins and short-circuits preflight requests.
// Wrap the whole mux with it so OPTIONS never reaches route matching.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range corsHeaders {
			w.Header().Set(k, v)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware authenticates the bearer credential and applies the
// per-customer rate limit before the handler runs. Auth failures are uniform
// 401s; no detail about why the credential was rejected leaks to the caller.
func AuthMiddleware(auth ports.Authenticator, limiter ports.RateLimiter, maxRequests int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "Missing Authorization header",
				})
				return
			}

			authCtx := auth.Authenticate(r.Context(), authHeader)
			if authCtx == nil || !authCtx.IsAuthenticated {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "Invalid authentication credentials",
				})
				return
			}

			if limiter.IsRateLimited(r.Context(), authCtx.CustomerID) {
				metrics.RateLimitedTotal.Inc()
				writeJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":   "Rate limit exceeded",
					"message": fmt.Sprintf("Maximum %d requests per minute allowed", maxRequests),
				})
				return
			}

			ctx := context.WithValue(r.Context(), CtxCustomerID, authCtx.CustomerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
