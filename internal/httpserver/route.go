package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/metrics"
)

type Deps struct {
	Cart       *CartHTTP
	Catalog    *CatalogHTTP
	Newsletter *NewsletterHTTP // nil when mail is not configured
	Metrics    *metrics.ServerMetrics
	Ready      func(ctx context.Context) error
	SecureCSRF bool
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, transport.ErrorResponse{
				Error: transport.ErrorBody{Kind: service.KindStorageUnavailable, Message: err.Error()},
			})
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	cart := e.Group("/cart")
	cart.POST("/upsert", d.Cart.Upsert)
	cart.GET("/:userId", d.Cart.ListCart)
	cart.GET("/:userId/:productId", d.Cart.GetCartLine)

	e.GET("/products", d.Catalog.ListProducts)
	if d.Catalog.Search != nil {
		e.GET("/products/search", d.Catalog.SearchProducts)
	}
	e.GET("/discounts", d.Catalog.ListDiscounts)

	if d.Newsletter != nil {
		csrf := CSRF(d.SecureCSRF)
		e.GET("/csrf-token", d.Newsletter.CSRFToken, csrf)
		e.POST("/newsletter/signup", d.Newsletter.Signup, csrf)
	}
}
