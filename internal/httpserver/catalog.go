package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CatalogHTTP struct {
	Svc    *service.CatalogService
	Search *service.SearchService
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_products")

	limit, err := util.ParseLimit(c.QueryParam("limit"), service.DefaultProductLimit)
	if err != nil {
		return badRequest(c, l, "list_products_error", err.Error())
	}

	items, err := h.Svc.ListProducts(ctx, limit)
	if err != nil {
		return writeError(c, l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, transport.ProductsResponse{Products: items})
}

func (h *CatalogHTTP) ListDiscounts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_discounts")

	limit, err := util.ParseLimit(c.QueryParam("limit"), service.DefaultDiscountLimit)
	if err != nil {
		return badRequest(c, l, "list_discounts_error", err.Error())
	}

	items, err := h.Svc.ListDiscounts(ctx, limit)
	if err != nil {
		return writeError(c, l, "list_discounts_error", err)
	}
	return c.JSON(http.StatusOK, transport.DiscountsResponse{Discounts: items})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	limit, err := util.ParseLimit(c.QueryParam("limit"), service.DefaultProductLimit)
	if err != nil {
		return badRequest(c, l, "search_products_error", err.Error())
	}

	res, err := h.Search.SearchProducts(ctx, c.QueryParam("q"), limit)
	if err != nil {
		return writeError(c, l, "search_products_error", err)
	}

	l.Info("search_products_success", "total", res.Total)
	return c.JSON(http.StatusOK, transport.SearchResponse{Total: res.Total, Products: res.Products})
}
