package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	CSRFCookieName = "XSRF-TOKEN"
	CSRFHeaderName = "X-CSRF-Token"
	CSRFFormField  = "csrf_token"
	csrfContextKey = "csrf"
)

// CSRF issues a token cookie on safe requests and requires the same token in
// the X-CSRF-Token header or csrf_token form field on unsafe ones.
func CSRF(secure bool) echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + CSRFHeaderName + ",form:" + CSRFFormField,
		ContextKey:     csrfContextKey,
		CookieName:     CSRFCookieName,
		CookiePath:     "/",
		CookieMaxAge:   86400,
		CookieSecure:   secure,
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	})
}

type NewsletterHTTP struct {
	Svc *service.NewsletterService
}

func (h *NewsletterHTTP) CSRFToken(c echo.Context) error {
	token, _ := c.Get(csrfContextKey).(string)
	return c.JSON(http.StatusOK, transport.CSRFTokenResponse{CSRFToken: token})
}

func (h *NewsletterHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "newsletter.signup")

	var req transport.NewsletterSignupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "newsletter_signup_error", "invalid body")
	}

	if _, err := h.Svc.Subscribe(ctx, req.Email); err != nil {
		return writeError(c, l, "newsletter_signup_error", err)
	}

	l.Info("newsletter_signup_success")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Subscription successful!"})
}
