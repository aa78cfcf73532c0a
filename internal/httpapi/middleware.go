package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/storage/postgres"
)

type contextKey int

const (
	accountKey contextKey = iota
	requestIDKey
)

// accountFrom returns the authenticated account stored by requireAuth.
// Handlers behind requireAuth may assume it is present.
func accountFrom(ctx context.Context) postgres.Account {
	acct, _ := ctx.Value(accountKey).(postgres.Account)
	return acct
}

// requestIDFrom returns the request id assigned by the requestID middleware,
// or an empty string outside of it.
func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requireAuth authenticates the request with HTTP Basic credentials and
// stores the resolved account in the request context. Navigation handlers
// never see an unauthenticated request.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="textworld"`)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		acct, err := h.accounts.Authenticate(r.Context(), username, password)
		if err != nil {
			h.logger.Debug("authentication failed",
				zap.String("username", username),
				zap.String("request_id", requestIDFrom(r.Context())),
			)
			w.Header().Set("WWW-Authenticate", `Basic realm="textworld"`)
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		ctx := context.WithValue(r.Context(), accountKey, acct)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestID tags every request with a unique id, echoed in the
// X-Request-ID response header.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response status for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// accessLog logs one line per completed request.
func accessLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", requestIDFrom(r.Context())),
		)
	})
}
