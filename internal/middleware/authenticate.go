package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/logging"
)

const subjectKey ctxKey = "subject"

type ctxKey string

// TokenVerifier recovers the subject from a presented access token.
type TokenVerifier interface {
	Verify(accessToken string) (auth.Subject, error)
}

// ErrorResponder writes err to the client in the service's response format.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// Authenticate attaches the subject of a bearer access token to the request
// context. Requests without a token pass through anonymously; requests with
// an unusable token are rejected with 401.
func Authenticate(verifier TokenVerifier, deny ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				logging.FromContext(r.Context()).Warn("access token rejected", slog.Any("error", err))
				message := "invalid access token"
				if errors.Is(err, auth.ErrTokenExpired) {
					message = "access token expired"
				}
				deny(w, r, apperrors.Unauthorized(message))
				return
			}

			ctx := WithSubject(r.Context(), subject)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(slog.String("user_id", subject.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithSubject stores the authenticated subject on the context.
func WithSubject(ctx context.Context, subject auth.Subject) context.Context {
	if subject.ID == "" {
		return ctx
	}
	return context.WithValue(ctx, subjectKey, subject)
}

// SubjectFromContext returns the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) (auth.Subject, bool) {
	subject, ok := ctx.Value(subjectKey).(auth.Subject)
	return subject, ok && subject.ID != ""
}
