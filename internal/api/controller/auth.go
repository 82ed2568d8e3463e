package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/welfare-portal/internal/domain/dto"
	"github.com/ougirez/welfare-portal/internal/pkg/logger"
)

type loginResponse struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

func (c *Controller) Login(ctx echo.Context) error {
	var creds dto.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return err
	}

	authCtx, err := c.auth.Login(ctx.Request().Context(), &creds)
	if err != nil {
		return err
	}

	c.setTokenCookie(ctx, authCtx.Token)

	resp := loginResponse{UserID: authCtx.UserID()}
	if authCtx.Claims != nil {
		resp.Username = authCtx.Claims.Username
		resp.Role = authCtx.Claims.Role
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) Logout(ctx echo.Context) error {
	if token := c.cookieToken(ctx); token != "" {
		c.locations.Forget(token)
		logger.Debugf(ctx.Request().Context(), "logout: dropped cached catalog")
	}
	c.clearTokenCookie(ctx)

	return ctx.NoContent(http.StatusNoContent)
}
