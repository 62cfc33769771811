package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/grantledger/internal/logger"
)

type contextKey string

const submitterKey contextKey = "submitter"

// Logger attaches a request-scoped logger carrying the chi request id to the
// context and logs every request once it has been served.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := log.With().Str("request_id", chimiddleware.GetReqID(r.Context())).Logger()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			reqLog.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}

// Auth requires an HS256 bearer token signed with secret. The token subject is
// recorded as the submitter of anything written during the request.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			subject, err := ParseToken(secret, raw)
			if err != nil {
				logger.FromContext(r.Context()).Debug().Err(err).Msg("rejected bearer token")
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)

				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubmitter(r.Context(), subject)))
		})
	}
}

// ParseToken validates raw and returns its subject.
func ParseToken(secret []byte, raw string) (string, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}

	if subject == "" {
		return "", errors.New("token has no subject")
	}

	return subject, nil
}

// IssueToken signs a token for subject valid for ttl.
func IssueToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}).SignedString(secret)
}

func WithSubmitter(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, submitterKey, subject)
}

// SubmitterFromContext returns the authenticated subject, or "" when auth is off.
func SubmitterFromContext(ctx context.Context) string {
	s, _ := ctx.Value(submitterKey).(string)
	return s
}
