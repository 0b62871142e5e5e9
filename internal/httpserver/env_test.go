package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/repo/repotest"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/keylock"
	"github.com/Skotchmaster/storefront/pkg/logging"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/metrics"
)

type testEnv struct {
	E       *echo.Echo
	Repo    *repo.GormRepo
	Metrics *metrics.ServerMetrics
}

type envOption func(*Deps)

func newTestEnvWith(t *testing.T, r *repo.GormRepo, atomic bool, opts ...envOption) *testEnv {
	t.Helper()

	m := metrics.NewServerMetrics(prometheus.NewRegistry())
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(loggingmw.RequestLogger(logging.NewWithWriter(io.Discard, "error")))
	e.Use(m.Middleware())

	cartSvc := &service.CartService{Repo: r, Atomic: atomic, Locker: keylock.NewMemoryLocker()}
	d := &Deps{
		Cart:    &CartHTTP{Svc: cartSvc, Metrics: m},
		Catalog: &CatalogHTTP{Svc: &service.CatalogService{Repo: r}},
		Metrics: m,
		Ready:   r.Ping,
	}
	for _, o := range opts {
		o(d)
	}
	Register(e, d)

	return &testEnv{E: e, Repo: r, Metrics: m}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	return newTestEnvWith(t, repotest.NewRepo(t), true, opts...)
}

func (env *testEnv) do(t *testing.T, method, target string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, rdr).WithContext(context.Background())
	if rdr != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) transport.ErrorBody {
	t.Helper()
	var resp transport.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}
