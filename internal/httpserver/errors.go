package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

func statusFor(kind string) int {
	switch kind {
	case service.KindInvalidArgument:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindDataIntegrity:
		return http.StatusConflict
	case service.KindStorageUnavailable, service.KindMailUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a service error as {"error": {kind, message}} and logs
// it at a level matching the status.
func writeError(c echo.Context, l *slog.Logger, event string, err error) error {
	kind := service.Kind(err)
	status := statusFor(kind)
	msg := err.Error()
	if kind == service.KindInternal {
		msg = "internal error"
	}

	if status >= 500 {
		l.Error(event, "status", status, "kind", kind, "error", err)
	} else {
		l.Warn(event, "status", status, "kind", kind, "error", err)
	}
	return c.JSON(status, transport.ErrorResponse{Error: transport.ErrorBody{Kind: kind, Message: msg}})
}

func badRequest(c echo.Context, l *slog.Logger, event, msg string) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", msg)
	return c.JSON(http.StatusBadRequest, transport.ErrorResponse{
		Error: transport.ErrorBody{Kind: service.KindInvalidArgument, Message: msg},
	})
}

// ErrorHandler renders errors returned by echo itself (unknown routes, CSRF,
// timeouts) in the same shape as handler errors.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}

	body := transport.ErrorResponse{Error: transport.ErrorBody{Kind: kindForStatus(status), Message: msg}}
	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		slog.Default().Error("write_error_response_failed", "error", werr)
	}
}

func kindForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return service.KindInvalidArgument
	case http.StatusNotFound:
		return service.KindNotFound
	case http.StatusConflict:
		return service.KindDataIntegrity
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return service.KindStorageUnavailable
	case http.StatusInternalServerError:
		return service.KindInternal
	}
	text := http.StatusText(status)
	if text == "" {
		return service.KindInternal
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
