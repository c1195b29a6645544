package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cardcycle/cardcycle/internal/auth"
)

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Logger logs one line per request. Headers are never logged, so API keys
// cannot leak into the output.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Auth runs further down the chain and stores the identity on a
			// derived request, so the owner is read through a holder.
			var owner string
			next.ServeHTTP(rec, r.WithContext(withOwnerSink(r.Context(), &owner)))

			attrs := []slog.Attr{
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", rec.status),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if owner != "" {
				attrs = append(attrs, slog.String("owner_id", owner))
			}

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "http request", attrs...)
		})
	}
}

// recordOwner copies the authenticated owner into the holder installed by Logger.
func recordOwner(r *http.Request) {
	if sink := ownerSink(r.Context()); sink != nil {
		*sink = auth.OwnerID(r.Context())
	}
}

type ownerSinkKey struct{}

func withOwnerSink(ctx context.Context, owner *string) context.Context {
	return context.WithValue(ctx, ownerSinkKey{}, owner)
}

func ownerSink(ctx context.Context) *string {
	s, _ := ctx.Value(ownerSinkKey{}).(*string)
	return s
}
