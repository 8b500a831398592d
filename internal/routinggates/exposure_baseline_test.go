package routinggates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	internalserver "github.com/lodgecrew/lodgecrew/internal/server"
	"github.com/lodgecrew/lodgecrew/modules"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
	"github.com/lodgecrew/lodgecrew/pkg/eventbus"
	"github.com/lodgecrew/lodgecrew/pkg/metrics"
	"github.com/lodgecrew/lodgecrew/pkg/middleware"
	"github.com/lodgecrew/lodgecrew/pkg/routing"
	pkgserver "github.com/lodgecrew/lodgecrew/pkg/server"
)

func TestExposureBaseline_EveryRouteIsAllowlisted(t *testing.T) {
	srv := buildMainServerHTTPServer(t)
	router := srv.Router()

	rules, err := routing.LoadAllowlist("", "server")
	require.NoError(t, err)
	classifier := routing.NewClassifier(rules)

	paths := collectRoutePaths(t, router)
	require.NotEmpty(t, paths)

	var offending []string
	for _, p := range paths {
		if _, ok := classifier.MatchAllowlist(p); !ok {
			offending = append(offending, p)
		}
	}
	if len(offending) > 0 {
		sort.Strings(offending)
		t.Fatalf("routes registered outside the declared allowlist prefixes:\n%s", strings.Join(offending, "\n"))
	}
}

func TestExposureBaseline_PublicAPIRoutesAreVersioned(t *testing.T) {
	srv := buildMainServerHTTPServer(t)

	rules, err := routing.LoadAllowlist("", "server")
	require.NoError(t, err)
	classifier := routing.NewClassifier(rules)

	versioned := regexp.MustCompile(`^/api/[a-z-]+/v[0-9]+(/|$)`)

	var offending []string
	for _, p := range collectRoutePaths(t, srv.Router()) {
		if classifier.ClassifyPath(p) != routing.RouteClassPublicAPI {
			continue
		}
		if !versioned.MatchString(p) {
			offending = append(offending, p)
		}
	}
	if len(offending) > 0 {
		sort.Strings(offending)
		t.Fatalf("public API routes must carry a version segment:\n%s", strings.Join(offending, "\n"))
	}
}

func TestExposureBaseline_SchedulingSurfaceRegistered(t *testing.T) {
	srv := buildMainServerHTTPServer(t)
	paths := collectRoutePaths(t, srv.Router())

	for _, p := range []string{
		"/api/scheduling/v2/schedule-periods",
		"/api/scheduling/v2/schedule-periods/{id}/publish",
		"/api/scheduling/v2/schedule-periods/{id}/lock",
		"/api/scheduling/v2/shifts",
		"/api/scheduling/v2/open-shifts",
		"/api/scheduling/v2/swap-requests",
		"/api/scheduling/v2/availability",
		"/api/scheduling/v2/signals",
		"/health",
		"/debug/metrics",
	} {
		require.Contains(t, paths, p)
	}
}

func TestExposureBaseline_SchedulingAPI_RequiresCredentials(t *testing.T) {
	srv := buildMainServerHTTPServer(t)
	router := srv.Router()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/scheduling/v2/schedule-periods", nil)
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var payload apiError
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&payload))
	require.Equal(t, "UNAUTHORIZED", payload.Code)
}

func TestExposureBaseline_TestEndpointsGated_InProduction(t *testing.T) {
	srv := buildMainServerHTTPServer(t)
	router := srv.Router()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "http://example.com/__test__/reset", nil)
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestExposureBaseline_OpsRoutesDenied_InProductionWithoutCredentials(t *testing.T) {
	srv := buildMainServerHTTPServer(t)
	router := srv.Router()

	for _, path := range []string{"/health", "/debug/metrics"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "http://example.com"+path, nil)
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code, path)
	}
}

func TestExposureBaseline_UI404_NotForcedJSON(t *testing.T) {
	srv := buildMainServerHTTPServer(t)
	router := srv.Router()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/__nonexistent_ui__", nil)
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.NotEqual(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestOpsGuard_Production_DeniesWithoutAuth(t *testing.T) {
	conf := &configuration.Configuration{
		GoAppEnvironment: configuration.Production,
		OpsGuardEnabled:  true,
		RealIPHeader:     "X-Real-IP",
	}

	r := mux.NewRouter()
	r.Use(middleware.OpsGuard(conf, "server"))
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/health", nil)
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOpsGuard_Production_AllowsWithToken(t *testing.T) {
	conf := &configuration.Configuration{
		GoAppEnvironment: configuration.Production,
		OpsGuardEnabled:  true,
		RealIPHeader:     "X-Real-IP",
		OpsGuardToken:    "secret",
	}

	r := mux.NewRouter()
	r.Use(middleware.OpsGuard(conf, "server"))
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/health", nil)
	req.Header.Set("X-Ops-Token", "secret")
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func collectRoutePaths(t *testing.T, router *mux.Router) []string {
	t.Helper()

	var paths []string
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		p := routePath(route)
		if strings.TrimSpace(p) != "" {
			paths = append(paths, p)
		}
		return nil
	})
	require.NoError(t, err)

	sort.Strings(paths)
	return paths
}

func routePath(route *mux.Route) string {
	if route == nil {
		return ""
	}
	if tmpl, err := route.GetPathTemplate(); err == nil {
		return tmpl
	}
	pattern, err := route.GetPathRegexp()
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(pattern, "^")
}

// buildMainServerHTTPServer assembles the server exactly as cmd/server does,
// minus listening. The pool connects lazily, so no database is needed.
func buildMainServerHTTPServer(t *testing.T) *pkgserver.HTTPServer {
	t.Helper()

	conf := configuration.Use()
	logger := conf.Logger()

	pool := newLazyPool(t, conf.Database.Opts)

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	require.NoError(t, modules.Load(app, modules.BuiltInModules...))

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	srv, err := internalserver.Default(&internalserver.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
		Entrypoint:    "server",
	})
	require.NoError(t, err)

	return srv
}

func newLazyPool(t *testing.T, opts string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Close()
	})
	return pool
}
