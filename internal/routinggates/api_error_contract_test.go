package routinggates

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	corecontrollers "github.com/lodgecrew/lodgecrew/modules/core/presentation/controllers"
	"github.com/lodgecrew/lodgecrew/pkg/middleware"
)

type apiError struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta"`
}

func decodeAPIError(t *testing.T, rr *httptest.ResponseRecorder) apiError {
	t.Helper()
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var payload apiError
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&payload))
	return payload
}

func TestRouterFallback_NotFoundOnAPIClassIsJSON(t *testing.T) {
	notFound := corecontrollers.NotFound(corecontrollers.ErrorHandlersOptions{Entrypoint: "server"})

	cases := []struct {
		name      string
		path      string
		requestID string
	}{
		{name: "scheduling_api", path: "/api/scheduling/v2/__nonexistent__", requestID: "req-404-api"},
		{name: "logs_api", path: "/api/logs/__nonexistent__"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "http://example.com"+tc.path, nil)
			if tc.requestID != "" {
				req.Header.Set("X-Request-ID", tc.requestID)
			}
			notFound(rr, req)

			require.Equal(t, http.StatusNotFound, rr.Code)
			payload := decodeAPIError(t, rr)
			require.Equal(t, "NOT_FOUND", payload.Code)
			require.Equal(t, "not found", payload.Message)
			require.Equal(t, tc.path, payload.Meta["path"])
			if tc.requestID != "" {
				require.Equal(t, tc.requestID, payload.Meta["request_id"])
			}
		})
	}
}

func TestRouterFallback_NotFoundOnOpsClassStaysPlainText(t *testing.T) {
	notFound := corecontrollers.NotFound(corecontrollers.ErrorHandlersOptions{Entrypoint: "server"})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/health/__nonexistent__", nil)
	notFound(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.NotEqual(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestRouterFallback_MethodNotAllowedOnAPIClassIsJSON(t *testing.T) {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = corecontrollers.MethodNotAllowed(corecontrollers.ErrorHandlersOptions{Entrypoint: "server"})
	r.HandleFunc("/api/scheduling/v2/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/scheduling/v2/ping", nil)
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	payload := decodeAPIError(t, rr)
	require.Equal(t, "METHOD_NOT_ALLOWED", payload.Code)
	require.Equal(t, "method not allowed", payload.Message)
	require.Equal(t, http.MethodPost, payload.Meta["method"])
	require.Equal(t, "/api/scheduling/v2/ping", payload.Meta["path"])
}

func TestPanicRecovery_RendersJSONOnAPIRoutes(t *testing.T) {
	logger := logrus.New()
	opts := middleware.DefaultLoggerOptions()
	opts.Entrypoint = "server"

	h := middleware.WithLogger(logger, opts)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/scheduling/v2/panic", nil)
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	payload := decodeAPIError(t, rr)
	require.Equal(t, "INTERNAL_SERVER_ERROR", payload.Code)
	require.Equal(t, "internal server error", payload.Message)
	require.Equal(t, "/api/scheduling/v2/panic", payload.Meta["path"])
	require.NotEmpty(t, payload.Meta["request_id"])
}
