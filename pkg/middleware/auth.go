package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

type subjectKey struct{}

// ErrNoSubject indicates no authenticated subject could be resolved for the request.
var ErrNoSubject = errors.New("no authenticated subject")

// Authenticator resolves the requesting subject for each request.
// With auth enabled it verifies OIDC bearer tokens and extracts the sub claim;
// disabled, it trusts the configured subject header (local development only).
type Authenticator struct {
	cfg      *AuthConfig
	verifier *oidc.IDTokenVerifier
	logger   *slog.Logger
}

// NewAuthenticator creates an Authenticator. When auth is enabled it performs
// OIDC discovery against the configured issuer, so it requires network access
// at construction time.
func NewAuthenticator(ctx context.Context, cfg *AuthConfig, logger *slog.Logger) (*Authenticator, error) {
	a := &Authenticator{
		cfg:    cfg,
		logger: logger.With("system", "auth"),
	}

	if cfg.Enabled {
		provider, err := oidc.NewProvider(ctx, cfg.Issuer)
		if err != nil {
			return nil, err
		}
		a.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	}

	return a, nil
}

// Middleware returns the authentication middleware. Requests without a
// resolvable subject are rejected with 401 before reaching the handler.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := a.resolve(r)
			if err != nil {
				a.logger.Warn("unauthenticated request",
					"uri", r.URL.RequestURI(),
					"error", err,
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}

func (a *Authenticator) resolve(r *http.Request) (string, error) {
	if !a.cfg.Enabled {
		subject := r.Header.Get(a.cfg.SubjectHeader)
		if subject == "" {
			return "", ErrNoSubject
		}
		return subject, nil
	}

	raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
	if raw == "" {
		return "", ErrNoSubject
	}

	token, err := a.verifier.Verify(r.Context(), raw)
	if err != nil {
		return "", err
	}
	if token.Subject == "" {
		return "", ErrNoSubject
	}

	return token.Subject, nil
}

// WithSubject returns a context carrying the authenticated subject.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFrom extracts the authenticated subject from the context.
func SubjectFrom(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey{}).(string)
	return subject, ok && subject != ""
}
