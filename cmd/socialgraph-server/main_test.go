package main

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-socialgraph/pkg/auth"
	"github.com/dd0wney/cluso-socialgraph/pkg/config"
)

func TestNewAuthenticator_Disabled(t *testing.T) {
	a, err := newAuthenticator(config.AuthConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestNewAuthenticator_KeysOnly(t *testing.T) {
	key, err := auth.GenerateKey()
	require.NoError(t, err)
	hash, err := auth.HashKey(key)
	require.NoError(t, err)

	a, err := newAuthenticator(config.AuthConfig{
		APIKeys: []config.APIKeyConfig{{Name: "importer", Hash: hash}},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, a)

	req := httptest.NewRequest("POST", "/graph", nil)
	req.Header.Set(auth.APIKeyHeader, key)
	p, err := a.Authorize(req, auth.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, "importer", p.Subject)

	req = httptest.NewRequest("POST", "/graph", nil)
	req.Header.Set("Authorization", "Bearer anything")
	_, err = a.Authenticate(req)
	assert.ErrorIs(t, err, auth.ErrNoCredentials, "tokens are not accepted without a secret")
}

func TestNewAuthenticator_BadHash(t *testing.T) {
	_, err := newAuthenticator(config.AuthConfig{
		APIKeys: []config.APIKeyConfig{{Name: "importer", Hash: "plain"}},
	}, nil)
	assert.ErrorIs(t, err, auth.ErrInvalidHash)
}

func TestMemoryUsage(t *testing.T) {
	alloc, sys := memoryUsage()
	assert.Positive(t, alloc)
	assert.GreaterOrEqual(t, sys, alloc)
}
