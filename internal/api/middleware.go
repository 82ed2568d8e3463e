package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/welfare-portal/internal/pkg/constants"
	"github.com/ougirez/welfare-portal/internal/pkg/logger"
	"github.com/ougirez/welfare-portal/internal/pkg/utils"
)

// RequestContext copies the request id into the request context so that
// services log with it and the proxy can audit it.
func (svc *APIService) RequestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id := ctx.Response().Header().Get(echo.HeaderXRequestID)
		if id == "" {
			return next(ctx)
		}

		reqCtx := context.WithValue(ctx.Request().Context(), constants.CtxKeyRequestID, id)
		reqCtx = logger.WithFields(reqCtx, "request_id", id)
		ctx.SetRequest(ctx.Request().WithContext(reqCtx))

		return next(ctx)
	}
}

// AuthMiddleware reads the bearer token from the Authorization header, or
// the auth cookie when the header is absent.
func (svc *APIService) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := utils.BearerToken(ctx.Request().Header.Get(constants.HeaderAuthorization))
		if token == "" {
			if cookie, err := ctx.Cookie(svc.cfg.Proxy.CookieName); err == nil {
				token = cookie.Value
			}
		}

		authCtx, err := utils.NewAuthContext(token)
		if err != nil {
			return err
		}

		ctx.Set(string(constants.CtxKeyAuth), authCtx)

		reqCtx := context.WithValue(ctx.Request().Context(), constants.CtxKeyAuth, authCtx)
		reqCtx = logger.WithFields(reqCtx, "user_id", authCtx.UserID())
		ctx.SetRequest(ctx.Request().WithContext(reqCtx))

		return next(ctx)
	}
}
