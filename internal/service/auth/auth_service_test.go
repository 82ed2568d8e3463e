package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/welfare-portal/internal/domain/dto"
)

func TestLoginFallsBackToDefaults(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": 5}).SignedString([]byte("k"))
	require.NoError(t, err)

	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c dto.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		seen = append(seen, c.Username)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	}))
	defer srv.Close()

	svc := NewService(srv.Client(), srv.URL, dto.Credentials{Username: "portal", Password: "secret"})

	authCtx, err := svc.Login(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "5", authCtx.UserID())

	_, err = svc.Login(context.Background(), &dto.Credentials{Username: "officer"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &dto.Credentials{Username: "officer", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, []string{"portal", "portal", "officer"}, seen)
}

func TestLoginKeepsOpaqueTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accessToken":"opaque-123"}`))
	}))
	defer srv.Close()

	authCtx, err := NewService(srv.Client(), srv.URL, dto.Credentials{Username: "portal", Password: "x"}).
		Login(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "opaque-123", authCtx.Token)
}

func TestLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewService(srv.Client(), srv.URL, dto.Credentials{}).Login(context.Background(), nil)
	assert.Error(t, err)
}
