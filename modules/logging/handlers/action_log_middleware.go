package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/lodgecrew/lodgecrew/modules/logging/domain/entities/actionlog"
	"github.com/lodgecrew/lodgecrew/modules/logging/services"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
)

// statusRecorder keeps the response code for the audit row. WriteHeader may
// never be called; Status then reports 200 like net/http does.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Status() int {
	if w.code == 0 {
		return http.StatusOK
	}
	return w.code
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// ActionLogMiddleware records authenticated mutating requests and their
// response codes into action_logs when ACTION_LOG_ENABLED is set. Best
// effort: the response is already written before the log runs, and
// persistence failures never surface to the client.
func ActionLogMiddleware(app application.Application) mux.MiddlewareFunc {
	conf := configuration.Use()
	if !conf.ActionLogEnabled {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)

			tenantID, err := composables.UseTenantID(r.Context())
			if err != nil {
				return
			}
			currentUser, err := composables.UseUser(r.Context())
			if err != nil || currentUser == nil {
				return
			}

			userID := currentUser.ID()
			ua, _ := composables.UseUserAgent(r.Context())
			ip, _ := composables.UseIP(r.Context())

			logsService := app.Service(services.LogsService{}).(*services.LogsService)
			ctx := r.Context()

			tx, txErr := app.DB().Begin(ctx)
			if txErr != nil {
				composables.UseLogger(ctx).WithError(txErr).Warn("action-log: failed to begin transaction")
				return
			}
			committed := false
			defer func() {
				if !committed {
					_ = tx.Rollback(ctx)
				}
			}()

			ctx = composables.WithTx(ctx, tx)
			ctx = composables.WithTenantID(ctx, tenantID)

			entry := &actionlog.ActionLog{
				TenantID:  tenantID,
				UserID:    &userID,
				Method:    strings.ToUpper(r.Method),
				Path:      r.URL.Path,
				Status:    recorder.Status(),
				UserAgent: ua,
				IP:        ip,
				CreatedAt: time.Now(),
			}

			if err := logsService.CreateActionLog(ctx, entry); err != nil {
				composables.UseLogger(ctx).WithError(err).Warn("action-log: failed to persist request")
				return
			}
			if err := tx.Commit(ctx); err != nil {
				composables.UseLogger(ctx).WithError(err).Warn("action-log: failed to commit transaction")
				return
			}
			committed = true
		})
	}
}
