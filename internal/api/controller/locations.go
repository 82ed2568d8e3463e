package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/scope"
)

func (c *Controller) GetAccessibleLocations(ctx echo.Context) error {
	authCtx, err := authFrom(ctx)
	if err != nil {
		return err
	}

	catalog, err := c.locations.Catalog(ctx.Request().Context(), authCtx)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, catalog)
}

func (c *Controller) GetDefaultFilters(ctx echo.Context) error {
	authCtx, err := authFrom(ctx)
	if err != nil {
		return err
	}

	view, err := c.locations.DefaultScope(ctx.Request().Context(), authCtx)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, view)
}

type updateFiltersRequest struct {
	Filters domain.FilterState `json:"filters"`
	Key     string             `json:"key"`
	Value   string             `json:"value"`

	// Updates are applied in order after Key/Value.
	Updates []scope.Update `json:"updates,omitempty"`
}

func (c *Controller) UpdateFilters(ctx echo.Context) error {
	authCtx, err := authFrom(ctx)
	if err != nil {
		return err
	}

	var req updateFiltersRequest
	if err = ctx.Bind(&req); err != nil {
		return err
	}

	updates := make([]scope.Update, 0, len(req.Updates)+1)
	if req.Key != "" {
		updates = append(updates, scope.Update{Key: req.Key, Value: req.Value})
	}
	updates = append(updates, req.Updates...)

	view, err := c.locations.UpdateScope(ctx.Request().Context(), authCtx, req.Filters, updates...)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, view)
}
