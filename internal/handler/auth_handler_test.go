package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_RegisterLoginProfile(t *testing.T) {
	s := newTestServer(t)

	body := map[string]string{"username": "alice", "email": "alice@example.com", "password": "secret1"}
	status, _ := s.do(t, http.MethodPost, "/api/register", body, nil)
	require.Equal(t, http.StatusCreated, status)

	status, env := s.do(t, http.MethodPost, "/api/register", body, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "user_exists", env.Error)

	status, env = s.do(t, http.MethodPost, "/api/register", map[string]string{"username": "bo", "email": "x", "password": "1"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", env.Error)

	status, env = s.do(t, http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_credentials", env.Error)

	status, env = s.do(t, http.MethodPost, "/api/login", map[string]string{"username": "alice@example.com", "password": "secret1"}, nil)
	require.Equal(t, http.StatusOK, status)
	var token struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, env.Data, &token)
	require.NotEmpty(t, token.AccessToken)
	auth := map[string]string{"Authorization": "Bearer " + token.AccessToken}

	status, env = s.do(t, http.MethodGet, "/api/profile", nil, auth)
	require.Equal(t, http.StatusOK, status)
	var profile map[string]interface{}
	decode(t, env.Data, &profile)
	assert.Equal(t, "alice", profile["username"])
	assert.NotContains(t, profile, "password_hash")

	status, _ = s.do(t, http.MethodGet, "/api/profile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/profile/password", map[string]string{"old_password": "secret1", "new_password": "secret2"}, auth)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "secret2"}, nil)
	assert.Equal(t, http.StatusOK, status)
}
