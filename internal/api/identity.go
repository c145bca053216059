package api

import (
	"context"
	"net/http"
	"strings"
)

type identityKey struct{}

func withIdentity(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, identityKey{}, userID)
}

// identityFrom returns the authenticated user id, if the request carried a
// valid session token.
func identityFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey{}).(string)
	return id, ok && id != ""
}

// identity resolves an optional bearer token into the request context. A
// present but invalid token is always rejected; a missing one only when the
// server requires authentication.
func (s *Server) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			if s.cfg.RequireAuth {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		userID, err := s.signer.Validate(strings.TrimSpace(token))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), userID)))
	})
}

// authorizeOwner rejects a caller-supplied owner id that differs from the
// authenticated identity. Without an identity the id is trusted as given;
// that keeps existing clients, which only send userId, working until
// VAULTBOX_REQUIRE_AUTH is switched on.
func authorizeOwner(w http.ResponseWriter, r *http.Request, ownerID string) bool {
	if userID, ok := identityFrom(r.Context()); ok && userID != ownerID {
		writeError(w, http.StatusForbidden, "Forbidden")
		return false
	}
	return true
}

// ownerParam reads and authorizes the userId query parameter.
func ownerParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return "", false
	}
	if !authorizeOwner(w, r, userID) {
		return "", false
	}
	return userID, true
}
