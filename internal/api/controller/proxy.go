package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/welfare-portal/internal/pkg/constants"
	"github.com/ougirez/welfare-portal/internal/pkg/store"
	"github.com/ougirez/welfare-portal/internal/service/proxy"
)

// CheckExternalAPI answers with the upstream status. Statuses that cannot
// carry a body are sent as 200, the upstream one stays in statusCode.
func (c *Controller) CheckExternalAPI(ctx echo.Context) error {
	var req proxy.Request
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	out := c.proxy.Check(ctx.Request().Context(), &req, c.cookieToken(ctx))

	switch {
	case out.ClearToken:
		c.clearTokenCookie(ctx)
	case out.IssuedToken != "":
		c.setTokenCookie(ctx, out.IssuedToken)
	}

	status := out.StatusCode
	if !bodyAllowed(status) {
		status = http.StatusOK
	}
	return ctx.JSON(status, out.Response)
}

func bodyAllowed(status int) bool {
	switch {
	case status < http.StatusOK || status > 999:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

func (c *Controller) ListAPIChecks(ctx echo.Context) error {
	authCtx, err := authFrom(ctx)
	if err != nil {
		return err
	}
	if c.store == nil {
		return constants.ErrStoreDisabled
	}

	var req struct {
		Method string `query:"method"`
		Limit  uint64 `query:"limit"`
	}
	if err = ctx.Bind(&req); err != nil {
		return err
	}

	opts := store.ListAPIChecksOpts{Limit: req.Limit}
	if id := authCtx.UserID(); id != "" {
		opts.UserID = &id
	}
	if req.Method != "" {
		opts.Method = &req.Method
	}

	checks, err := c.store.ListAPIChecks(ctx.Request().Context(), opts)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, checks)
}
