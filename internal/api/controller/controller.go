package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/welfare-portal/internal/pkg/constants"
	"github.com/ougirez/welfare-portal/internal/pkg/store"
	"github.com/ougirez/welfare-portal/internal/pkg/utils"
	"github.com/ougirez/welfare-portal/internal/service/auth"
	"github.com/ougirez/welfare-portal/internal/service/grants"
	"github.com/ougirez/welfare-portal/internal/service/locations"
	"github.com/ougirez/welfare-portal/internal/service/proxy"
	"github.com/ougirez/welfare-portal/internal/service/reports"
)

type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type Deps struct {
	Auth      *auth.Service
	Locations *locations.Service
	Reports   *reports.Service
	Proxy     *proxy.Service
	Grants    *grants.Queue

	// Store is nil when no database is configured.
	Store   store.Store
	Cookies CookieConfig
}

type Controller struct {
	auth      *auth.Service
	locations *locations.Service
	reports   *reports.Service
	proxy     *proxy.Service
	grants    *grants.Queue
	store     store.Store
	cookies   CookieConfig
	now       func() time.Time
}

func NewController(deps Deps) *Controller {
	return &Controller{
		auth:      deps.Auth,
		locations: deps.Locations,
		reports:   deps.Reports,
		proxy:     deps.Proxy,
		grants:    deps.Grants,
		store:     deps.Store,
		cookies:   deps.Cookies,
		now:       time.Now,
	}
}

// authFrom returns the AuthContext stored by the auth middleware.
func authFrom(ctx echo.Context) (*utils.AuthContext, error) {
	a, ok := ctx.Get(string(constants.CtxKeyAuth)).(*utils.AuthContext)
	if !ok || a == nil {
		return nil, constants.ErrMissingAuthToken
	}
	return a, nil
}

func (c *Controller) cookieToken(ctx echo.Context) string {
	cookie, err := ctx.Cookie(c.cookies.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c *Controller) setTokenCookie(ctx echo.Context, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     c.cookies.Name,
		Value:    token,
		Path:     "/",
		Expires:  c.now().Add(c.cookies.TTL),
		MaxAge:   int(c.cookies.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Controller) clearTokenCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     c.cookies.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
