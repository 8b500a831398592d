package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lodgecrew/lodgecrew/modules/testkit/domain/schemas"
	"github.com/lodgecrew/lodgecrew/modules/testkit/services"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
)

// TestEndpointsController serves the e2e support surface under /__test__.
// Every route 404s unless ENABLE_TEST_ENDPOINTS is set.
type TestEndpointsController struct {
	app         application.Application
	testService *services.TestDataService
}

func NewTestEndpointsController(app application.Application) application.Controller {
	return &TestEndpointsController{
		app:         app,
		testService: services.NewTestDataService(app),
	}
}

func (c *TestEndpointsController) Key() string {
	return "/__test__"
}

func (c *TestEndpointsController) Register(r *mux.Router) {
	// The gate lives on the subrouter so the rest of the server is unaffected
	// when test endpoints are disabled.
	router := r.PathPrefix("/__test__").Subrouter()
	router.Use(c.gate)

	router.HandleFunc("/reset", c.handleReset).Methods(http.MethodPost)
	router.HandleFunc("/populate", c.handlePopulate).Methods(http.MethodPost)
	router.HandleFunc("/seed", c.handleSeed).Methods(http.MethodPost)
	router.HandleFunc("/seed", c.handleListSeedScenarios).Methods(http.MethodGet)
	router.HandleFunc("/http_error", c.handleHTTPError).Methods(http.MethodGet)
	router.HandleFunc("/health", c.handleHealth).Methods(http.MethodGet)
}

func (c *TestEndpointsController) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := composables.UseLogger(r.Context())
		if !configuration.Use().EnableTestEndpoints {
			logger.Warn("test endpoints accessed but not enabled")
			http.Error(w, "Test endpoints not enabled", http.StatusNotFound)
			return
		}
		logger.Debug("test endpoint accessed: " + r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (c *TestEndpointsController) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := composables.UseLogger(ctx)

	var req struct {
		ReseedMinimal bool `json:"reseedMinimal,omitempty"`
	}
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	logger.Warn("resetting test database")
	if err := c.testService.ResetDatabase(ctx, req.ReseedMinimal); err != nil {
		logger.WithError(err).Error("failed to reset database")
		http.Error(w, "Failed to reset database: "+err.Error(), http.StatusInternalServerError)
		return
	}

	c.writeJSON(ctx, w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       "Database reset successfully",
		"reseedMinimal": req.ReseedMinimal,
	})
}

func (c *TestEndpointsController) handlePopulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := composables.UseLogger(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	req, err := schemas.ParsePopulateRequest(body)
	if err != nil {
		logger.WithError(err).Error("failed to parse populate request")
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	logger.WithField("version", req.Version).Info("populating test data")
	result, err := c.testService.PopulateData(ctx, req)
	if err != nil {
		logger.WithError(err).Error("failed to populate data")
		c.writeJSON(ctx, w, http.StatusInternalServerError, schemas.PopulateResponse{
			Success: false,
			Errors:  []schemas.PopulateError{{Entity: "populate", Message: err.Error()}},
		})
		return
	}

	c.writeJSON(ctx, w, http.StatusOK, result)
}

func (c *TestEndpointsController) handleSeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := composables.UseLogger(ctx)

	var req struct {
		Scenario string `json:"scenario"`
	}
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Scenario == "" {
		req.Scenario = "minimal"
	}

	logger.WithField("scenario", req.Scenario).Info("seeding test data")
	if err := c.testService.SeedScenario(ctx, req.Scenario); err != nil {
		logger.WithError(err).Error("failed to seed scenario")
		http.Error(w, "Failed to seed scenario: "+err.Error(), http.StatusInternalServerError)
		return
	}

	c.writeJSON(ctx, w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Scenario seeded successfully",
		"scenario": req.Scenario,
	})
}

func (c *TestEndpointsController) handleListSeedScenarios(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"scenarios": c.testService.GetAvailableScenarios(),
	})
}

// handleHTTPError returns a deterministic error response so e2e suites can
// exercise their failure handling.
func (c *TestEndpointsController) handleHTTPError(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status, err := strconv.Atoi(strings.TrimSpace(q.Get("status")))
	if err != nil || status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	code := queryOr(q, "code", "TEST_HTTP_ERROR")
	message := queryOr(q, "message", "Test endpoint error")

	if strings.EqualFold(strings.TrimSpace(q.Get("format")), "text") {
		http.Error(w, message, status)
		return
	}
	// Matches the envelope the API error writer produces.
	c.writeJSON(r.Context(), w, status, map[string]string{
		"message": message,
		"code":    code,
	})
}

func (c *TestEndpointsController) handleHealth(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()
	c.writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Test endpoints are healthy",
		"config": map[string]interface{}{
			"enableTestEndpoints": conf.EnableTestEndpoints,
			"environment":         conf.GoAppEnvironment,
			"database": map[string]interface{}{
				"host": conf.Database.Host,
				"port": conf.Database.Port,
				"name": conf.Database.Name,
				"user": conf.Database.User,
			},
		},
	})
}

func (c *TestEndpointsController) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		composables.UseLogger(ctx).WithError(err).Error("failed to encode response")
	}
}

// readJSON decodes an optional JSON body into dst. An empty body leaves dst
// at its zero value.
func readJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}

func queryOr(q url.Values, key, fallback string) string {
	if v := strings.TrimSpace(q.Get(key)); v != "" {
		return v
	}
	return fallback
}
