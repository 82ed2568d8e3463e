package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/welfare-portal/internal/domain"
)

func (c *Controller) CreateGrantUtilization(ctx echo.Context) error {
	return c.submitGrantUtilization(ctx, "", http.StatusCreated)
}

func (c *Controller) UpdateGrantUtilization(ctx echo.Context) error {
	return c.submitGrantUtilization(ctx, ctx.Param("id"), http.StatusOK)
}

func (c *Controller) submitGrantUtilization(ctx echo.Context, id string, status int) error {
	authCtx, err := authFrom(ctx)
	if err != nil {
		return err
	}

	var record domain.GrantUtilization
	if err = ctx.Bind(&record); err != nil {
		return err
	}
	// The path decides between create and update, never the body.
	record.ID = id

	saved, err := c.grants.Submit(ctx.Request().Context(), authCtx, &record)
	if err != nil {
		return err
	}

	return ctx.JSON(status, saved)
}
