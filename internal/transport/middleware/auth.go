package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/matekasse/matekasse-backend/internal/auth"
	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/pkg/ctxutil"
)

// applicationRegistry resolves applications by the name carried in the
// Authorization header.
type applicationRegistry interface {
	GetByName(ctx context.Context, name string) (*domain.Application, error)
}

// maxBodySize caps request bodies read for signature verification.
const maxBodySize = 1 << 20

// Auth returns middleware that authenticates requests with the
// signature scheme. The body is read for digest verification and
// restored for the handler. On success the application id is stored in
// the request context.
func Auth(registry applicationRegistry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			appName, digest, err := auth.ParseAuthorization(r.Header.Get("Authorization"))
			if err != nil {
				writeUnauthorized(w, "missing or malformed authorization header")
				return
			}

			app, err := registry.GetByName(r.Context(), appName)
			if err != nil {
				writeUnauthorized(w, "unknown application")
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
			if err != nil {
				writeUnauthorized(w, "unreadable request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			// RequestURI includes the query string, binding GET
			// parameters into the signature.
			signer := auth.NewSigner(app.Secret)
			if !signer.Verify(r.Method, r.URL.RequestURI(), body, digest) {
				writeUnauthorized(w, "invalid signature")
				return
			}

			ctx := ctxutil.WithApplicationID(r.Context(), app.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, info string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"code":    "UNAUTHORIZED",
		"info":    info,
	})
}
