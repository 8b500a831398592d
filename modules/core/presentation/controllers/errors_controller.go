package controllers

import (
	"net/http"
	"strings"

	"github.com/lodgecrew/lodgecrew/pkg/routing"
)

// ErrorHandlersOptions selects the routing allowlist the router fallback
// handlers classify against.
type ErrorHandlersOptions struct {
	Entrypoint    string
	AllowlistPath string
}

// NotFound returns the router's 404 fallback. API-classed paths get the JSON
// error shape, everything else plain text.
func NotFound(opts ...ErrorHandlersOptions) http.HandlerFunc {
	return fallback{
		classifier: errorClassifier(opts),
		status:     http.StatusNotFound,
		code:       "NOT_FOUND",
		message:    "not found",
		plainText:  "Not found",
	}.handle
}

// MethodNotAllowed returns the router's 405 fallback. The rejected method is
// included in the error meta.
func MethodNotAllowed(opts ...ErrorHandlersOptions) http.HandlerFunc {
	return fallback{
		classifier: errorClassifier(opts),
		status:     http.StatusMethodNotAllowed,
		code:       "METHOD_NOT_ALLOWED",
		message:    "method not allowed",
		plainText:  "Method not allowed",
		withMethod: true,
	}.handle
}

type fallback struct {
	classifier *routing.Classifier
	status     int
	code       string
	message    string
	plainText  string
	withMethod bool
}

func (f fallback) handle(w http.ResponseWriter, r *http.Request) {
	if !f.classifier.ClassifyPath(r.URL.Path).IsAPI() {
		http.Error(w, f.plainText, f.status)
		return
	}

	meta := map[string]string{"path": r.URL.Path}
	if f.withMethod {
		meta["method"] = r.Method
	}
	if id := requestID(w, r); id != "" {
		meta["request_id"] = id
	}
	writeJSONError(w, f.status, f.code, f.message, meta)
}

func errorClassifier(opts []ErrorHandlersOptions) *routing.Classifier {
	var resolved ErrorHandlersOptions
	if len(opts) > 0 {
		resolved = opts[0]
	}

	// A missing allowlist falls back to the classifier's built-in defaults.
	rules, err := routing.LoadAllowlist(resolved.AllowlistPath, resolved.Entrypoint)
	if err != nil {
		rules = nil
	}
	return routing.NewClassifier(rules)
}

// requestID prefers the id the logger middleware stamped on the response,
// falling back to the one the client sent. Header lookups are canonical, so
// one spelling covers X-Request-Id and X-Request-ID both.
func requestID(w http.ResponseWriter, r *http.Request) string {
	if w != nil {
		if id := strings.TrimSpace(w.Header().Get("X-Request-Id")); id != "" {
			return id
		}
	}
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.Header.Get("X-Request-Id"))
}
