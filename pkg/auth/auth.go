// Package auth guards the layout-changing endpoints. Callers present either
// an HS256 bearer token or an API key checked against bcrypt hashes.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

// Role orders what a caller may do. Each role includes the ones below it.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

var roleRank = map[Role]int{RoleViewer: 1, RoleEditor: 2, RoleAdmin: 3}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return roleRank[r] > 0
}

// Includes reports whether r grants at least need.
func (r Role) Includes(need Role) bool {
	return r.Valid() && roleRank[r] >= roleRank[need]
}

// Authentication methods.
const (
	MethodToken  = "token"
	MethodAPIKey = "api_key"
)

// APIKeyHeader carries an API key.
const APIKeyHeader = "X-API-Key"

var (
	ErrInvalidRole      = errors.New("invalid role")
	ErrNoCredentials    = errors.New("no credentials")
	ErrInsufficientRole = errors.New("insufficient role")
)

// Principal is an authenticated caller.
type Principal struct {
	Subject string `json:"subject"`
	Role    Role   `json:"role"`
	Method  string `json:"method"`
}

// Validator checks one kind of credential.
type Validator interface {
	Validate(ctx context.Context, credential string) (*Principal, error)
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by Require, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// Authenticator resolves request credentials. Either validator may be nil.
type Authenticator struct {
	tokens Validator
	keys   Validator
	logger logging.Logger
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(tokens, keys Validator, logger logging.Logger) *Authenticator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Authenticator{
		tokens: tokens,
		keys:   keys,
		logger: logger.With(logging.Component("auth")),
	}
}

// Authenticate returns the caller behind r. A bearer token wins over an API
// key when both are sent.
func (a *Authenticator) Authenticate(r *http.Request) (*Principal, error) {
	if h := r.Header.Get("Authorization"); h != "" && a.tokens != nil {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return nil, errors.Wrap(ErrInvalidToken, "authorization scheme")
		}
		return a.tokens.Validate(r.Context(), strings.TrimSpace(token))
	}
	if key := r.Header.Get(APIKeyHeader); key != "" && a.keys != nil {
		return a.keys.Validate(r.Context(), key)
	}
	return nil, ErrNoCredentials
}

// Authorize authenticates r and checks that the caller holds need.
func (a *Authenticator) Authorize(r *http.Request, need Role) (*Principal, error) {
	p, err := a.Authenticate(r)
	if err != nil {
		return nil, err
	}
	if !p.Role.Includes(need) {
		return p, errors.Wrapf(ErrInsufficientRole, "%s needs %s", p.Role, need)
	}
	return p, nil
}

// Require rejects requests whose caller does not hold need: 401 without
// valid credentials, 403 with too small a role.
func (a *Authenticator) Require(need Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authorize(r, need)
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, ErrInsufficientRole) {
					status = http.StatusForbidden
				} else {
					w.Header().Set("WWW-Authenticate", `Bearer realm="socialgraph"`)
				}
				a.logger.Debug("request rejected",
					logging.String("path", r.URL.Path),
					logging.Error(err),
				)
				writeError(w, status)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   http.StatusText(status),
		"message": strings.ToLower(http.StatusText(status)),
		"code":    status,
	})
}
