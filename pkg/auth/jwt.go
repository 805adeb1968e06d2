package auth

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest accepted HMAC signing secret.
const MinSecretLength = 32

// DefaultTokenTTL is used when NewTokenManager is given no lifetime.
const DefaultTokenTTL = 24 * time.Hour

const issuer = "socialgraph"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrShortSecret  = errors.New("secret must be at least 32 characters")
	ErrEmptySubject = errors.New("subject cannot be empty")
)

// Claims are the token claims: the registered set plus a role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager. ttl <= 0 uses DefaultTokenTTL.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrShortSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns how long issued tokens stay valid.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for subject with role.
func (m *TokenManager) Issue(subject string, role Role) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	if !role.Valid() {
		return "", errors.Wrapf(ErrInvalidRole, "%q", role)
	}

	now := m.now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Validate parses token and returns the principal it names.
func (m *TokenManager) Validate(_ context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, errors.Mark(errors.Wrap(err, "parse token"), ErrInvalidToken)
	}

	role := Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return nil, errors.Wrap(ErrInvalidToken, "missing subject or role")
	}
	return &Principal{Subject: claims.Subject, Role: role, Method: MethodToken}, nil
}
