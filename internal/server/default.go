package server

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/lodgecrew/lodgecrew/modules/core/presentation/controllers"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
	"github.com/lodgecrew/lodgecrew/pkg/constants"
	"github.com/lodgecrew/lodgecrew/pkg/middleware"
	"github.com/lodgecrew/lodgecrew/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
	Entrypoint    string
}

// Default assembles the HTTP server with the standard middleware chain.
// Module controllers register their routes on top of it.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	conf := options.Configuration
	app := options.Application

	// WithLogger creates the root span for each request; everything after it
	// inherits the trace context.
	chain := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, middleware.DefaultLoggerOptions()),
		middleware.TracedMiddleware("opsGuard"),
		middleware.OpsGuard(conf, options.Entrypoint),
		middleware.TracedMiddleware("database"),
		middleware.Provide(constants.AppKey, app),
		middleware.Provide(constants.PoolKey, options.Pool),
		middleware.TracedMiddleware("cors"),
		middleware.Cors(conf.Origin),
	}
	if conf.RateLimit.Enabled {
		chain = append(chain,
			middleware.TracedMiddleware("rateLimit"),
			middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerPeriod: conf.RateLimit.GlobalRPS,
				Store:             rateLimitStore(conf.RateLimit, options.Logger),
			}),
		)
	}
	chain = append(chain,
		middleware.TracedMiddleware("requestParams"),
		middleware.RequestParams(),
	)
	app.RegisterMiddleware(chain...)

	handlerOpts := controllers.ErrorHandlersOptions{Entrypoint: options.Entrypoint}
	return server.NewHTTPServer(
		app,
		controllers.NotFound(handlerOpts),
		controllers.MethodNotAllowed(handlerOpts),
	), nil
}

// rateLimitStore picks the configured limiter backend. A redis store that
// cannot be reached falls back to the in-memory store.
func rateLimitStore(opts configuration.RateLimitOptions, log *logrus.Logger) limiter.Store {
	if opts.Storage == "redis" {
		store, err := middleware.NewRedisStore(opts.RedisURL)
		if err == nil {
			return store
		}
		log.WithError(err).Warn("redis rate limit store unavailable, using memory store")
	}
	return middleware.NewMemoryStore()
}
