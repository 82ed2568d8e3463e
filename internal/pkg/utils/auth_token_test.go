package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/welfare-portal/internal/pkg/constants"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("upstream-secret"))
	require.NoError(t, err)
	return s
}

func TestParseAuthToken(t *testing.T) {
	token := signed(t, jwt.MapClaims{
		"id":          17,
		"username":    "officer",
		"role":        "district_officer",
		"district_id": "5",
		"exp":         time.Now().Add(time.Hour).Unix(),
	})

	claims, err := ParseAuthToken(token)
	require.NoError(t, err)
	assert.Equal(t, "17", claims.Staff())
	assert.Equal(t, "district_officer", claims.Role)
	assert.Equal(t, "5", claims.DistrictID.String())
}

func TestParseAuthTokenErrors(t *testing.T) {
	_, err := ParseAuthToken("  ")
	assert.ErrorIs(t, err, constants.ErrMissingAuthToken)

	_, err = ParseAuthToken("not-a-jwt")
	assert.ErrorIs(t, err, constants.ErrInvalidAuthToken)

	expired := signed(t, jwt.MapClaims{"id": 1, "exp": time.Now().Add(-time.Minute).Unix()})
	_, err = ParseAuthToken(expired)
	assert.True(t, errors.Is(err, constants.ErrInvalidAuthToken))
	assert.Equal(t, 401, constants.StatusOf(err))
}

func TestStaffFallsBackToSubject(t *testing.T) {
	claims, err := ParseAuthToken(signed(t, jwt.MapClaims{"sub": "u-9"}))
	require.NoError(t, err)
	assert.Equal(t, "u-9", claims.Staff())
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("Bearer "))
}
