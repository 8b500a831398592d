package middleware

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/lodgecrew/lodgecrew/pkg/configuration"
	"github.com/lodgecrew/lodgecrew/pkg/constants"
	"github.com/lodgecrew/lodgecrew/pkg/routing"
)

type LoggerOptions struct {
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodyLength   int

	Entrypoint    string
	AllowlistPath string
	Repanic       bool
}

func NewLoggerOptions(logRequestBody bool, logResponseBody bool, maxBodyLength int) LoggerOptions {
	return LoggerOptions{
		LogRequestBody:  logRequestBody,
		LogResponseBody: logResponseBody,
		MaxBodyLength:   maxBodyLength,
	}
}

func DefaultLoggerOptions() LoggerOptions {
	return NewLoggerOptions(true, true, 512)
}

// responseCaptureWriter records the status code and up to captureLimit bytes
// of the response body for logging. Writes always pass through in full.
type responseCaptureWriter struct {
	http.ResponseWriter
	statusCode    int
	statusWritten bool
	body          *bytes.Buffer
	captureLimit  int
}

func wrapResponseWriter(w http.ResponseWriter, captureLimit int) *responseCaptureWriter {
	return &responseCaptureWriter{
		ResponseWriter: w,
		body:           &bytes.Buffer{},
		captureLimit:   captureLimit,
	}
}

func (w *responseCaptureWriter) WriteHeader(code int) {
	if !w.statusWritten {
		w.statusCode = code
		w.statusWritten = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *responseCaptureWriter) Status() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *responseCaptureWriter) Write(b []byte) (int, error) {
	if w.captureLimit <= 0 {
		w.body.Write(b)
	} else if room := w.captureLimit - w.body.Len(); room > 0 {
		if room > len(b) {
			room = len(b)
		}
		w.body.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseCaptureWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseCaptureWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

func getRealIP(r *http.Request, conf *configuration.Configuration) string {
	if len(r.Header.Get(conf.RealIPHeader)) > 0 {
		return r.Header.Get(conf.RealIPHeader)
	}
	return r.RemoteAddr
}

func getRequestID(r *http.Request, conf *configuration.Configuration) string {
	if len(r.Header.Get(conf.RequestIDHeader)) > 0 {
		return r.Header.Get(conf.RequestIDHeader)
	}
	return uuid.New().String()
}

var tracer = otel.Tracer("lodgecrew-middleware")

func TracedMiddleware(name string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			propagator := propagation.TraceContext{}
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(
				ctx,
				"middleware."+name,
				trace.WithAttributes(
					attribute.String("middleware.name", name),
					attribute.String("http.method", r.Method),
					attribute.String("http.url", r.URL.String()),
					attribute.String("http.host", r.Host),
				),
			)
			defer span.End()

			propagator.Inject(ctx, propagation.HeaderCarrier(r.Header))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func formatHeaders(h http.Header) map[string]string {
	headers := make(map[string]string)
	for key, values := range h {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}
	return headers
}

func formatFormValues(f url.Values) map[string]string {
	formValues := make(map[string]string)
	for key, values := range f {
		formValues[key] = strings.Join(values, ",")
	}
	return formValues
}

// loggableContentType limits body logging to the formats this API actually
// serves. Anything else stays out of the logs.
func loggableContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "application/json") ||
		strings.Contains(contentType, "application/x-www-form-urlencoded")
}

func truncateForLog(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// WithLogger logs every request and response, carries the request-scoped
// logger and trace context, and recovers panics. Recovery keeps the API error
// contract: API route classes get the JSON envelope, everything else gets a
// plain 500.
func WithLogger(logger *logrus.Logger, opts LoggerOptions) mux.MiddlewareFunc {
	conf := configuration.Use()
	rules, err := routing.LoadAllowlist(opts.AllowlistPath, opts.Entrypoint)
	if err != nil {
		rules = nil
	}

	rl := &requestLogger{
		log:        logger,
		conf:       conf,
		classifier: routing.NewClassifier(rules),
		opts:       opts,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rl.handle(next, w, r)
		})
	}
}

type requestLogger struct {
	log        *logrus.Logger
	conf       *configuration.Configuration
	classifier *routing.Classifier
	opts       LoggerOptions
}

func (rl *requestLogger) handle(next http.Handler, w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := getRequestID(r, rl.conf)

	fieldsLogger := rl.log.WithFields(logrus.Fields{
		"request-id": requestID,
		"path":       r.RequestURI,
		"method":     r.Method,
	})

	fieldsLogger.WithFields(logrus.Fields{
		"timestamp":       start.UnixNano(),
		"host":            r.Host,
		"ip":              getRealIP(r, rl.conf),
		"user-agent":      r.UserAgent(),
		"request-headers": formatHeaders(r.Header),
	}).Info("request started")

	if rl.opts.LogRequestBody && isMutating(r.Method) {
		rl.logRequestBody(fieldsLogger, r)
	}

	propagator := propagation.TraceContext{}
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	ctx, span := tracer.Start(
		ctx,
		"http.request",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.url", r.URL.String()),
			attribute.String("http.route", r.URL.Path),
			attribute.String("http.user_agent", r.UserAgent()),
			attribute.String("http.request_id", requestID),
			attribute.String("net.host.name", r.Host),
			attribute.String("net.peer.ip", getRealIP(r, rl.conf)),
		),
	)
	defer span.End()

	ctx = context.WithValue(ctx, constants.LoggerKey, fieldsLogger)
	ctx = context.WithValue(ctx, constants.RequestStart, start)

	propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))

	if spanContext := span.SpanContext(); spanContext.HasTraceID() {
		traceID := spanContext.TraceID().String()
		spanID := spanContext.SpanID().String()

		w.Header().Set("X-Trace-Id", traceID)
		w.Header().Set("X-Span-Id", spanID)

		fieldsLogger = fieldsLogger.WithFields(logrus.Fields{
			"trace-id": traceID,
			"span-id":  spanID,
		})
	}

	w.Header().Set("X-Request-Id", requestID)

	wrappedWriter := wrapResponseWriter(w, rl.opts.MaxBodyLength)

	defer rl.recoverPanic(fieldsLogger, wrappedWriter, r, requestID, start)

	next.ServeHTTP(wrappedWriter, r.WithContext(ctx))

	statusCode := wrappedWriter.Status()
	duration := time.Since(start)
	fieldsLogger.WithFields(logrus.Fields{
		"duration":         duration,
		"completed":        true,
		"status-code":      statusCode,
		"status-class":     statusCode / 100,
		"response-headers": formatHeaders(wrappedWriter.Header()),
	}).Info("request completed")

	span.SetAttributes(
		attribute.Int64("http.request_duration_ms", duration.Milliseconds()),
		attribute.Int("http.status_code", statusCode),
	)

	if rl.opts.LogResponseBody {
		rl.logResponseBody(fieldsLogger, wrappedWriter)
	}
}

// logRequestBody records the body without consuming it. Unparseable bodies
// are logged raw and the request continues; rejecting them is the handler's
// job, not the logger's.
func (rl *requestLogger) logRequestBody(fieldsLogger *logrus.Entry, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if !loggableContentType(contentType) || r.Body == nil {
		return
	}

	bodyBuf := new(bytes.Buffer)
	if _, err := io.Copy(bodyBuf, r.Body); err != nil {
		fieldsLogger.WithError(err).Error("failed to read request body")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(bodyBuf.Bytes()))

	switch {
	case strings.Contains(contentType, "application/json"):
		var parsed interface{}
		if err := json.Unmarshal(bodyBuf.Bytes(), &parsed); err != nil {
			fieldsLogger.WithError(err).
				WithField("request-body", truncateForLog(bodyBuf.String(), rl.opts.MaxBodyLength)).
				Warn("request body is not valid JSON")
			return
		}
		fieldsLogger.WithField("request-body", parsed).Info("request body captured")
	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			fieldsLogger.WithError(err).Warn("request body is not valid form data")
			r.Body = io.NopCloser(bytes.NewReader(bodyBuf.Bytes()))
			return
		}
		// ParseForm drained the body, restore it for the handler.
		r.Body = io.NopCloser(bytes.NewReader(bodyBuf.Bytes()))
		fieldsLogger.WithField("request-body", formatFormValues(r.Form)).Info("request body captured")
	default:
		fieldsLogger.WithField("request-body", truncateForLog(bodyBuf.String(), rl.opts.MaxBodyLength)).
			Info("request body captured")
	}
}

func (rl *requestLogger) logResponseBody(fieldsLogger *logrus.Entry, w *responseCaptureWriter) {
	contentType := w.Header().Get("Content-Type")
	if !loggableContentType(contentType) {
		return
	}

	body := w.body.Bytes()
	if strings.Contains(contentType, "application/json") {
		var parsed interface{}
		if err := json.Unmarshal(body, &parsed); err == nil {
			fieldsLogger.WithField("response-body", parsed).Info("response body captured")
			return
		}
		// Falls through when the capture limit cut the JSON short.
	}
	fieldsLogger.WithField("response-body", truncateForLog(string(body), rl.opts.MaxBodyLength)).
		Info("response body captured")
}

func (rl *requestLogger) recoverPanic(fieldsLogger *logrus.Entry, w *responseCaptureWriter, r *http.Request, requestID string, start time.Time) {
	recovered := recover()
	if recovered == nil {
		return
	}

	panicFields := logrus.Fields{
		"panic":       recovered,
		"stack":       string(debug.Stack()),
		"method":      r.Method,
		"path":        r.URL.Path,
		"remote_addr": getRealIP(r, rl.conf),
		"user_agent":  r.UserAgent(),
		"status":      http.StatusInternalServerError,
		"duration":    time.Since(start),
	}
	if r.URL.RawQuery != "" {
		panicFields["query"] = r.URL.RawQuery
	}
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		panicFields["content_type"] = contentType
	}

	fieldsLogger.WithFields(panicFields).Error("panic recovered in request handler")

	if !w.statusWritten {
		if rl.classifier.ClassifyPath(r.URL.Path).IsAPI() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code":    "INTERNAL_SERVER_ERROR",
				"message": "internal server error",
				"meta": map[string]string{
					"request_id": requestID,
					"path":       r.URL.Path,
				},
			})
		} else {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}

	if rl.opts.Repanic {
		panic(recovered)
	}
}
