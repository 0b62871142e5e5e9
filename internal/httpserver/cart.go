package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/metrics"
)

type CartHTTP struct {
	Svc     *service.CartService
	Metrics *metrics.ServerMetrics
}

func (h *CartHTTP) Upsert(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.upsert")

	var req transport.UpsertCartRequest
	if err := c.Bind(&req); err != nil {
		h.Metrics.ObserveUpsert(service.KindInvalidArgument)
		return badRequest(c, l, "cart_upsert_error", "invalid body")
	}
	if req.Quantity == nil {
		h.Metrics.ObserveUpsert(service.KindInvalidArgument)
		return badRequest(c, l, "cart_upsert_error", "quantity is required")
	}

	line, err := h.Svc.Upsert(ctx, req.UserID, req.ProductID, *req.Quantity)
	if err != nil {
		h.Metrics.ObserveUpsert(service.Kind(err))
		return writeError(c, l, "cart_upsert_error", err)
	}

	h.Metrics.ObserveUpsert("ok")
	l.Info("cart_upsert_success", "line_id", line.ID, "quantity", line.Quantity)
	return c.JSON(http.StatusOK, transport.CartLineResponse{CartLine: line})
}

func (h *CartHTTP) GetCartLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_line")

	line, err := h.Svc.GetCartLine(ctx, c.Param("userId"), c.Param("productId"))
	if err != nil {
		return writeError(c, l, "get_cart_line_error", err)
	}
	return c.JSON(http.StatusOK, transport.CartLineResponse{CartLine: line})
}

func (h *CartHTTP) ListCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.list")

	items, err := h.Svc.ListCart(ctx, c.Param("userId"))
	if err != nil {
		return writeError(c, l, "list_cart_error", err)
	}

	l.Info("list_cart_success", "items", len(items))
	return c.JSON(http.StatusOK, transport.CartItemsResponse{CartItems: items})
}
