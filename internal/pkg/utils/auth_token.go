package utils

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
)

// AuthClaims is the payload of a welfare API token. The welfare API signs
// and verifies tokens; this service only reads them.
type AuthClaims struct {
	ID         domain.ID `json:"id"`
	UserID     domain.ID `json:"user_id"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	DistrictID domain.ID `json:"district_id"`
	DSID       domain.ID `json:"ds_id"`
	jwt.StandardClaims
}

// Staff returns the user identifier, whichever claim carried it.
func (c *AuthClaims) Staff() string {
	switch {
	case c.UserID != "":
		return c.UserID.String()
	case c.ID != "":
		return c.ID.String()
	default:
		return c.Subject
	}
}

// AuthContext is passed explicitly to every call against the welfare API.
type AuthContext struct {
	Token  string
	Claims *AuthClaims
}

func (a *AuthContext) UserID() string {
	if a == nil || a.Claims == nil {
		return ""
	}
	return a.Claims.Staff()
}

// ParseAuthToken decodes the token payload and checks its time claims.
func ParseAuthToken(token string) (*AuthClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, constants.ErrMissingAuthToken
	}

	claims := new(AuthClaims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %s", constants.ErrInvalidAuthToken, err.Error())
	}
	if err := claims.Valid(); err != nil {
		return nil, fmt.Errorf("%w: %s", constants.ErrInvalidAuthToken, err.Error())
	}

	return claims, nil
}

// NewAuthContext is ParseAuthToken wrapped with the raw token.
func NewAuthContext(token string) (*AuthContext, error) {
	claims, err := ParseAuthToken(token)
	if err != nil {
		return nil, err
	}
	return &AuthContext{Token: strings.TrimSpace(token), Claims: claims}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if len(header) > len(constants.BearerPrefix) && strings.EqualFold(header[:len(constants.BearerPrefix)], constants.BearerPrefix) {
		return strings.TrimSpace(header[len(constants.BearerPrefix):])
	}
	return ""
}
