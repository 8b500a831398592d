package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/lodgecrew/lodgecrew/pkg/logging"
)

// Production is the GO_APP_ENV value that switches the server into its
// hardened mode: https origins, bare :port listen address, ops guard active.
const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load(".env", ".env.local"); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// Use returns the process-wide configuration, loading it on first call.
func Use() *Configuration {
	return singleton()
}

type DatabaseOptions struct {
	// Opts is the assembled pgx connection string, derived rather than read
	// from the environment.
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"lodgecrew"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"lodgecrew"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/metrics"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	GlobalRPS int    `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"1000"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"`
	RedisURL  string `env:"RATE_LIMIT_REDIS_URL"`
}

// validate rejects combinations the limiter cannot honour.
func (r *RateLimitOptions) validate() error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_GLOBAL_RPS must be non-negative, got %d", r.GlobalRPS)
	}
	if r.GlobalRPS > 1_000_000 {
		return fmt.Errorf("RATE_LIMIT_GLOBAL_RPS above 1,000,000 is not supported, got %d", r.GlobalRPS)
	}
	switch r.Storage {
	case "memory":
	case "redis":
		if r.RedisURL == "" {
			return fmt.Errorf("RATE_LIMIT_REDIS_URL is required for redis storage")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_STORAGE must be memory or redis, got %q", r.Storage)
	}
	return nil
}

type Configuration struct {
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	// SocketAddress is derived from ServerPort. Production binds every
	// interface, development stays on loopback.
	SocketAddress string `env:"-"`
	Domain        string `env:"DOMAIN" envDefault:"localhost"`
	Origin        string `env:"ORIGIN" envDefault:"http://localhost:3200"`

	Database      DatabaseOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions

	MigrationsDir   string        `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"720h"`
	PageSize        int           `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize     int           `env:"MAX_PAGE_SIZE" envDefault:"100"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath  string `env:"LOG_PATH" envDefault:"./logs/app.log"`

	// RequestIDHeader names the inbound correlation header; a random uuidv4
	// is minted when the client sends none.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// RealIPHeader is trusted for the client address, falling back to
	// request.RemoteAddr.
	RealIPHeader string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`
	// SidCookieKey names the session cookie. An Authorization bearer token
	// wins when both arrive.
	SidCookieKey string `env:"SID_COOKIE_KEY" envDefault:"token"`

	// RLSEnforce selects the row-level-security mode, disabled or enforce.
	RLSEnforce string `env:"RLS_ENFORCE" envDefault:"disabled"`

	// ActionLogEnabled persists mutating API requests to the audit table.
	ActionLogEnabled bool `env:"ACTION_LOG_ENABLED" envDefault:"false"`

	// EnableTestEndpoints mounts the /__test__ surface. Never set this in
	// production.
	EnableTestEndpoints bool `env:"ENABLE_TEST_ENDPOINTS" envDefault:"false"`

	// The ops guard fronts /health and /debug/metrics; it only enforces in
	// production.
	OpsGuardEnabled       bool   `env:"OPS_GUARD_ENABLED" envDefault:"true"`
	OpsGuardCIDRs         string `env:"OPS_GUARD_CIDRS" envDefault:""`
	OpsGuardToken         string `env:"OPS_GUARD_TOKEN" envDefault:""`
	OpsGuardBasicAuthUser string `env:"OPS_GUARD_BASIC_AUTH_USER" envDefault:""`
	OpsGuardBasicAuthPass string `env:"OPS_GUARD_BASIC_AUTH_PASS" envDefault:""`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) load(envFiles ...string) error {
	loaded, err := loadEnvFiles(envFiles)
	if err != nil {
		return err
	}
	if len(loaded) == 0 {
		wd, _ := os.Getwd()
		log.Println("no .env files found, tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.RateLimit.validate(); err != nil {
		return fmt.Errorf("rate limit configuration: %w", err)
	}
	if err := c.normalizeRLS(); err != nil {
		return err
	}
	file, logger, err := logging.FileLogger(c.logrusLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = file
	c.logger = logger
	c.deriveAddresses()
	return nil
}

// loadEnvFiles loads whichever of the candidate files exist and reports
// which ones were found.
func loadEnvFiles(candidates []string) ([]string, error) {
	found := make([]string, 0, len(candidates))
	for _, file := range candidates {
		if _, err := os.Stat(file); err == nil {
			found = append(found, file)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found, godotenv.Load(found...)
}

// deriveAddresses fills the fields computed from PORT and GO_APP_ENV.
// Domain and Origin are recomputed only when the environment did not set
// them, so logs show the effective address.
func (c *Configuration) deriveAddresses() {
	c.Database.Opts = c.Database.dsn()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	if os.Getenv("DOMAIN") == "" {
		c.Domain = "localhost"
	}
	if os.Getenv("ORIGIN") == "" {
		if c.GoAppEnvironment == Production {
			c.Origin = fmt.Sprintf("%s://%s", c.scheme(), c.Domain)
		} else {
			c.Origin = fmt.Sprintf("%s://%s:%d", c.scheme(), c.Domain, c.ServerPort)
		}
	}
}

// normalizeRLS lower-cases the mode and rejects enforce under a superuser,
// which would bypass every policy without an error.
func (c *Configuration) normalizeRLS() error {
	mode := strings.ToLower(strings.TrimSpace(c.RLSEnforce))
	if mode == "" {
		mode = "disabled"
	}
	if mode != "disabled" && mode != "enforce" {
		return fmt.Errorf("invalid RLS_ENFORCE=%q (expected disabled|enforce)", c.RLSEnforce)
	}
	if mode == "enforce" && strings.EqualFold(strings.TrimSpace(c.Database.User), "postgres") {
		return fmt.Errorf("RLS_ENFORCE=enforce requires a non-superuser DB_USER (postgres bypasses RLS)")
	}
	c.RLSEnforce = mode
	return nil
}

// Logger returns the logrus instance writing to LogPath.
func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

var logLevels = map[string]logrus.Level{
	"silent": logrus.PanicLevel,
	"error":  logrus.ErrorLevel,
	"warn":   logrus.WarnLevel,
	"info":   logrus.InfoLevel,
	"debug":  logrus.DebugLevel,
}

func (c *Configuration) logrusLevel() logrus.Level {
	if lvl, ok := logLevels[c.LogLevel]; ok {
		return lvl
	}
	return logrus.ErrorLevel
}

func (c *Configuration) scheme() string {
	if c.GoAppEnvironment == Production {
		return "https"
	}
	return "http"
}

// Unload releases the log file handle on shutdown.
func (c *Configuration) Unload() {
	if c.logFile == nil {
		return
	}
	if err := c.logFile.Close(); err != nil {
		log.Printf("closing log file: %v", err)
	}
}
