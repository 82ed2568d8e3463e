package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/bytes"

	"github.com/ougirez/welfare-portal/internal/domain"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
	"github.com/ougirez/welfare-portal/internal/pkg/export"
	"github.com/ougirez/welfare-portal/internal/pkg/logger"
)

func (c *Controller) ListReports(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.reports.Definitions())
}

// GetReport takes the filters as query parameters. Clients that keep
// several views of the same report open tell them apart by X-View-ID.
func (c *Controller) GetReport(ctx echo.Context) error {
	authCtx, err := authFrom(ctx)
	if err != nil {
		return err
	}

	kind := domain.ReportKind(ctx.Param("kind"))
	filters := domain.FilterStateFromValues(ctx.QueryParams(), nil)
	viewID := ctx.Request().Header.Get(constants.HeaderViewID)

	rows, err := c.reports.Fetch(ctx.Request().Context(), authCtx, kind, viewID, filters)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, rows)
}

func (c *Controller) ExportReport(ctx echo.Context) error {
	authCtx, err := authFrom(ctx)
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	kind := domain.ReportKind(ctx.Param("kind"))
	filters := domain.FilterStateFromValues(ctx.QueryParams(), nil)

	def, applied, rows, err := c.reports.FetchAll(reqCtx, authCtx, kind, filters)
	if err != nil {
		return err
	}

	name := export.FileName(string(def.Kind), len(applied) > 0, c.now())
	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	resp.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	resp.WriteHeader(http.StatusOK)

	n, err := export.WriteCSV(resp, def.Columns, rows)
	if err != nil {
		logger.Errorf(reqCtx, "export %s: wrote %s before failing: %s", name, bytes.Format(n), err.Error())
		return nil
	}

	logger.Infof(reqCtx, "exported %s: %d rows, %s", name, len(rows), bytes.Format(n))
	return nil
}
