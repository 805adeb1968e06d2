package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/bcrypt"
)

// KeyPrefix starts every generated API key.
const KeyPrefix = "sg_"

const keyRandomBytes = 32

var (
	ErrInvalidKey  = errors.New("invalid api key")
	ErrInvalidHash = errors.New("api key hash is not a bcrypt hash")
)

// APIKey is one configured key, stored only as its bcrypt hash.
type APIKey struct {
	Name string
	Hash string
	Role Role
}

// KeyRing validates presented API keys against bcrypt hashes.
type KeyRing struct {
	keys []APIKey
}

// NewKeyRing checks every hash and role up front so a typo fails at startup.
func NewKeyRing(keys []APIKey) (*KeyRing, error) {
	ring := &KeyRing{keys: make([]APIKey, 0, len(keys))}
	for _, k := range keys {
		if k.Name == "" {
			return nil, errors.New("api key without a name")
		}
		if _, err := bcrypt.Cost([]byte(k.Hash)); err != nil {
			return nil, errors.Wrapf(ErrInvalidHash, "key %q", k.Name)
		}
		if k.Role == "" {
			k.Role = RoleEditor
		}
		if !k.Role.Valid() {
			return nil, errors.Wrapf(ErrInvalidRole, "key %q: %q", k.Name, k.Role)
		}
		ring.keys = append(ring.keys, k)
	}
	sort.Slice(ring.keys, func(i, j int) bool { return ring.keys[i].Name < ring.keys[j].Name })
	return ring, nil
}

// Len returns the number of configured keys.
func (r *KeyRing) Len() int {
	return len(r.keys)
}

// Validate compares key against each hash. bcrypt comparison is constant
// time per hash.
func (r *KeyRing) Validate(_ context.Context, key string) (*Principal, error) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return nil, ErrInvalidKey
	}
	for _, k := range r.keys {
		if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(key)) == nil {
			return &Principal{Subject: k.Name, Role: k.Role, Method: MethodAPIKey}, nil
		}
	}
	return nil, ErrInvalidKey
}

// GenerateKey returns a new random key.
func GenerateKey() (string, error) {
	buf := make([]byte, keyRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}
	return KeyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashKey returns the bcrypt hash to put in the configuration.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash api key")
	}
	return string(hash), nil
}
