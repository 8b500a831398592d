package composables

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/lodgecrew/lodgecrew/pkg/configuration"
	"github.com/lodgecrew/lodgecrew/pkg/constants"
)

// Params carries per-request metadata captured by the RequestParams
// middleware.
type Params struct {
	IP            string
	UserAgent     string
	Authenticated bool
	Request       *http.Request
	Writer        http.ResponseWriter
}

// WithParams returns a new context carrying the request parameters.
func WithParams(ctx context.Context, params *Params) context.Context {
	return context.WithValue(ctx, constants.ParamsKey, params)
}

// UseParams returns the request parameters, or false when no request
// middleware ran for this context.
func UseParams(ctx context.Context) (*Params, bool) {
	params, ok := ctx.Value(constants.ParamsKey).(*Params)
	return params, ok
}

// UseIP returns the client IP captured for this request.
func UseIP(ctx context.Context) (string, bool) {
	if params, ok := UseParams(ctx); ok {
		return params.IP, true
	}
	return "", false
}

// UseUserAgent returns the client user agent captured for this request.
func UseUserAgent(ctx context.Context) (string, bool) {
	if params, ok := UseParams(ctx); ok {
		return params.UserAgent, true
	}
	return "", false
}

// UseLogger returns the request-scoped logger. Panics when no logger
// middleware ran for this request.
func UseLogger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok {
		return entry
	}
	panic("logger not found")
}

type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// UsePaginated reads page/limit query parameters, clamping limit to
// MAX_PAGE_SIZE and defaulting to PAGE_SIZE.
func UsePaginated(r *http.Request) PaginationParams {
	conf := configuration.Use()

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = conf.PageSize
	}
	if limit > conf.MaxPageSize {
		limit = conf.MaxPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
