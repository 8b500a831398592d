package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	coredtos "github.com/lodgecrew/lodgecrew/modules/core/presentation/controllers/dtos"
	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/actionlog"
	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/authenticationlog"
	"github.com/lodgecrew/lodgecrew/modules/logging/services"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/middleware"
	"github.com/lodgecrew/lodgecrew/pkg/serrors"
)

// LogsController serves the audit trail to administrators.
type LogsController struct {
	app         application.Application
	logsService *services.LogsService
	basePath    string
}

func NewLogsController(app application.Application) application.Controller {
	return &LogsController{
		app:         app,
		logsService: app.Service(services.LogsService{}).(*services.LogsService),
		basePath:    "/api/logs",
	}
}

func (c *LogsController) Key() string {
	return c.basePath
}

func (c *LogsController) Register(r *mux.Router) {
	api := r.PathPrefix(c.basePath).Subrouter()
	api.Use(
		middleware.Authorize(c.app),
		middleware.RequireAuthorization(),
	)

	api.HandleFunc("/authentication", c.ListAuthenticationLogs).Methods(http.MethodGet)
	api.HandleFunc("/actions", c.ListActionLogs).Methods(http.MethodGet)
}

type authenticationLogResponse struct {
	ID        uint   `json:"id"`
	UserID    string `json:"userId"`
	Event     string `json:"event"`
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
	CreatedAt string `json:"createdAt"`
}

type actionLogResponse struct {
	ID        uint    `json:"id"`
	UserID    *string `json:"userId,omitempty"`
	Method    string  `json:"method"`
	Path      string  `json:"path"`
	Status    int     `json:"status"`
	IP        string  `json:"ip"`
	UserAgent string  `json:"userAgent"`
	CreatedAt string  `json:"createdAt"`
}

type logPageResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func (c *LogsController) ListAuthenticationLogs(w http.ResponseWriter, r *http.Request) {
	pagination := composables.UsePaginated(r)
	params := &authenticationlog.FindParams{
		Event:     strings.TrimSpace(r.URL.Query().Get("event")),
		IP:        strings.TrimSpace(r.URL.Query().Get("ip")),
		UserAgent: strings.TrimSpace(r.URL.Query().Get("userAgent")),
		Limit:     pagination.Limit,
		Offset:    pagination.Offset,
	}
	params.UserID = parseUserIDParam(r)
	params.From, params.To = parseTimeWindow(r)

	logs, total, err := c.logsService.ListAuthenticationLogs(r.Context(), params)
	if err != nil {
		writeLogsError(w, err)
		return
	}

	items := make([]authenticationLogResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, authenticationLogResponse{
			ID:        l.ID,
			UserID:    l.UserID.String(),
			Event:     l.Event,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeLogsJSON(w, http.StatusOK, logPageResponse[authenticationLogResponse]{
		Items: items,
		Total: total,
		Page:  pagination.Page,
		Limit: pagination.Limit,
	})
}

func (c *LogsController) ListActionLogs(w http.ResponseWriter, r *http.Request) {
	pagination := composables.UsePaginated(r)
	params := &actionlog.FindParams{
		Method:    strings.TrimSpace(r.URL.Query().Get("method")),
		Path:      strings.TrimSpace(r.URL.Query().Get("path")),
		IP:        strings.TrimSpace(r.URL.Query().Get("ip")),
		UserAgent: strings.TrimSpace(r.URL.Query().Get("userAgent")),
		Limit:     pagination.Limit,
		Offset:    pagination.Offset,
	}
	params.UserID = parseUserIDParam(r)
	params.Status = parseStatusParam(r)
	params.From, params.To = parseTimeWindow(r)

	logs, total, err := c.logsService.ListActionLogs(r.Context(), params)
	if err != nil {
		writeLogsError(w, err)
		return
	}

	items := make([]actionLogResponse, 0, len(logs))
	for _, l := range logs {
		var userID *string
		if l.UserID != nil {
			s := l.UserID.String()
			userID = &s
		}
		items = append(items, actionLogResponse{
			ID:        l.ID,
			UserID:    userID,
			Method:    l.Method,
			Path:      l.Path,
			Status:    l.Status,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeLogsJSON(w, http.StatusOK, logPageResponse[actionLogResponse]{
		Items: items,
		Total: total,
		Page:  pagination.Page,
		Limit: pagination.Limit,
	})
}

func parseUserIDParam(r *http.Request) *uuid.UUID {
	raw := strings.TrimSpace(r.URL.Query().Get("userId"))
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func parseStatusParam(r *http.Request) *int {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil
	}
	status, err := strconv.Atoi(raw)
	if err != nil || status < 100 || status > 599 {
		return nil
	}
	return &status
}

func parseTimeWindow(r *http.Request) (*time.Time, *time.Time) {
	var from, to *time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		if parsed, err := time.Parse(time.DateOnly, raw); err == nil {
			from = &parsed
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		if parsed, err := time.Parse(time.DateOnly, raw); err == nil {
			to = &parsed
		}
	}
	return from, to
}

func writeLogsError(w http.ResponseWriter, err error) {
	var serr *serrors.BaseError
	if errors.As(err, &serr) {
		writeLogsJSON(w, http.StatusForbidden, coredtos.APIError{Code: serr.Code, Message: serr.Message})
		return
	}
	writeLogsJSON(w, http.StatusInternalServerError, coredtos.APIError{Code: "LOGS_INTERNAL", Message: err.Error()})
}

func writeLogsJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
