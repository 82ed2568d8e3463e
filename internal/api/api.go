package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ougirez/welfare-portal/internal/api/controller"
	"github.com/ougirez/welfare-portal/internal/domain/dto"
	"github.com/ougirez/welfare-portal/internal/pkg/config"
	"github.com/ougirez/welfare-portal/internal/pkg/constants"
	"github.com/ougirez/welfare-portal/internal/pkg/logger"
	"github.com/ougirez/welfare-portal/internal/pkg/store"
	"github.com/ougirez/welfare-portal/internal/pkg/welfareapi"
	"github.com/ougirez/welfare-portal/internal/service/auth"
	"github.com/ougirez/welfare-portal/internal/service/grants"
	"github.com/ougirez/welfare-portal/internal/service/locations"
	"github.com/ougirez/welfare-portal/internal/service/proxy"
	"github.com/ougirez/welfare-portal/internal/service/reports"
)

type APIService struct {
	router     *echo.Echo
	cfg        *config.Config
	grantQueue *grants.Queue
}

func (svc *APIService) Serve() {
	if err := svc.router.Start(svc.cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(context.Background(), err)
	}
}

// Shutdown stops the router and then drains the grant queue.
func (svc *APIService) Shutdown(ctx context.Context) error {
	routerErr := svc.router.Shutdown(ctx)
	queueErr := svc.grantQueue.Close(ctx)
	return errors.Join(routerErr, queueErr)
}

func (svc *APIService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	svc.router.ServeHTTP(w, r)
}

// NewAPIService wires the services against the welfare API. st may be nil,
// in which case proxy checks are not audited.
func NewAPIService(cfg *config.Config, st store.Store, upstream welfareapi.Doer) (*APIService, error) {
	if upstream == nil {
		upstream = &http.Client{}
	}

	svc := &APIService{router: echo.New(), cfg: cfg}
	svc.router.HideBanner = true
	svc.router.HidePort = true

	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.JSONSerializer = sonicSerializer{}
	svc.router.HTTPErrorHandler = httpErrorHandler
	svc.router.Use(middleware.RequestID())
	svc.router.Use(svc.RequestContext)
	svc.router.Use(middleware.Logger())
	svc.router.Use(middleware.Recover())
	svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{echo.GET, echo.PUT, echo.POST, echo.DELETE},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, constants.HeaderViewID},
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
		AllowCredentials: true,
	}))

	client := welfareapi.NewClient(cfg.Welfare.BaseURL, upstream)
	authService := auth.NewService(upstream, cfg.Welfare.LoginURL, dto.Credentials{
		Username: cfg.Welfare.DefaultUsername,
		Password: cfg.Welfare.DefaultPassword,
	})

	var recorder proxy.Recorder
	if st != nil {
		recorder = st
	}

	svc.grantQueue = grants.NewQueue(client, grants.Options{
		Concurrency: cfg.Grants.Concurrency,
		BatchDelay:  cfg.Grants.BatchDelay,
		Capacity:    cfg.Grants.Capacity,
	})

	cntrl := controller.NewController(controller.Deps{
		Auth:      authService,
		Locations: locations.NewLocationsService(client, cfg.Welfare.CatalogTTL),
		Reports:   reports.NewReportsService(client, cfg.ReportPaths()),
		Proxy:     proxy.NewProxyService(upstream, authService, recorder, cfg.Proxy.Timeout),
		Grants:    svc.grantQueue,
		Store:     st,
		Cookies: controller.CookieConfig{
			Name:   cfg.Proxy.CookieName,
			TTL:    cfg.Proxy.CookieTTL,
			Secure: cfg.Server.SecureCookies,
		},
	})

	svc.router.GET("/healthz", cntrl.Health)
	svc.router.POST("/api/check-external-api", cntrl.CheckExternalAPI)

	api := svc.router.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", cntrl.Login)
	authGroup.DELETE("/logout", cntrl.Logout)

	locationsGroup := api.Group("/locations", svc.AuthMiddleware)
	locationsGroup.GET("/accessible", cntrl.GetAccessibleLocations)

	filters := api.Group("/filters", svc.AuthMiddleware)
	filters.GET("/default", cntrl.GetDefaultFilters)
	filters.POST("/update", cntrl.UpdateFilters)

	reportsGroup := api.Group("/reports", svc.AuthMiddleware)
	reportsGroup.GET("", cntrl.ListReports)
	reportsGroup.GET("/:kind", cntrl.GetReport)
	reportsGroup.GET("/:kind/export", cntrl.ExportReport)

	grantsGroup := api.Group("/grant-utilizations", svc.AuthMiddleware)
	grantsGroup.POST("", cntrl.CreateGrantUtilization)
	grantsGroup.PUT("/:id", cntrl.UpdateGrantUtilization)

	checks := api.Group("/api-checks", svc.AuthMiddleware)
	checks.GET("", cntrl.ListAPIChecks)

	return svc, nil
}
