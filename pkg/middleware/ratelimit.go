package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	libredis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

type RateLimitConfig struct {
	// RequestsPerPeriod is the allowed request budget per Period per client IP.
	RequestsPerPeriod int
	// Period defaults to one second.
	Period time.Duration
	Store  limiter.Store
}

// RateLimit applies a global per-IP rate limit in front of the router.
func RateLimit(config RateLimitConfig) mux.MiddlewareFunc {
	period := config.Period
	if period <= 0 {
		period = time.Second
	}
	store := config.Store
	if store == nil {
		store = NewMemoryStore()
	}
	instance := limiter.New(store, limiter.Rate{
		Period: period,
		Limit:  int64(config.RequestsPerPeriod),
	})
	mw := limiterstdlib.NewMiddleware(instance)
	return func(next http.Handler) http.Handler {
		return mw.Handler(next)
	}
}

func NewMemoryStore() limiter.Store {
	return memory.NewStore()
}

// NewRedisStore builds a limiter store over redis; accepts either a full
// redis:// URL or a bare host:port address.
func NewRedisStore(redisURL string) (limiter.Store, error) {
	var client *libredis.Client
	if strings.Contains(redisURL, "://") {
		opt, err := libredis.ParseURL(redisURL)
		if err != nil {
			return nil, err
		}
		client = libredis.NewClient(opt)
	} else {
		client = libredis.NewClient(&libredis.Options{Addr: redisURL})
	}
	return redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "lodgecrew:ratelimit",
	})
}
