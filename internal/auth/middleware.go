package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Policy decides which requests skip authentication and which role a
// request needs.
type Policy struct {
	ExemptPaths map[string]struct{}
}

// NewPolicy builds a policy exempting the given paths.
func NewPolicy(exemptPaths ...string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set}
}

// IsExempt returns true when a request should skip auth.
func (p Policy) IsExempt(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	_, ok := p.ExemptPaths[r.URL.Path]
	return ok
}

// RequiredRole resolves the role a request needs. Catalog writes are
// reserved to admins; running and saving simulations to advisors; reads
// are open to viewers.
func (p Policy) RequiredRole(r *http.Request) Role {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return RoleViewer
	}
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/api/v1/administrators"),
		strings.HasPrefix(path, "/api/v1/products"),
		strings.HasPrefix(path, "/api/v1/properties"):
		return RoleAdmin
	}
	return RoleAdvisor
}

// Middleware authenticates bearer tokens and enforces the policy.
type Middleware struct {
	secret []byte
	policy Policy
}

// NewMiddleware creates the auth middleware.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{secret: secret, policy: policy}
}

// Wrap returns next guarded by token verification.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			// Browsers cannot set headers on WebSocket upgrades.
			token = r.URL.Query().Get("access_token")
		}
		claims, err := ParseJWT(token, m.secret)
		if err != nil {
			slog.Debug("auth rejected", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		role, _ := NormalizeRole(claims.Role)
		if !role.Allows(m.policy.RequiredRole(r)) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		ctx := WithIdentity(r.Context(), claims.CompanyID, role, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
