package configuration

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/taskdesk/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c, err := Load([]string{".env", ".env.local"})
	if err != nil {
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist, looking in the working directory first
// and then in the nearest parent directory holding a go.mod.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fileExists(file) {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		if root := findModuleRoot(); root != "" {
			for _, file := range envFiles {
				p := filepath.Join(root, file)
				if fileExists(p) {
					existing = append(existing, p)
				}
			}
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

type APIOptions struct {
	URL            string        `env:"TASKDESK_API_URL" envDefault:"http://localhost:4000"`
	Token          string        `env:"TASKDESK_TOKEN"`
	OrgID          string        `env:"TASKDESK_ORG_ID"`
	UserID         string        `env:"TASKDESK_USER_ID"`
	SupervisorID   string        `env:"TASKDESK_SUPERVISOR_ID"`
	RequestTimeout time.Duration `env:"TASKDESK_REQUEST_TIMEOUT" envDefault:"30s"`
}

func (a *APIOptions) Validate() error {
	u, err := url.Parse(strings.TrimSpace(a.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid TASKDESK_API_URL=%q", a.URL)
	}
	if a.RequestTimeout < 0 {
		return fmt.Errorf("TASKDESK_REQUEST_TIMEOUT must be non-negative, got %s", a.RequestTimeout)
	}
	return nil
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"taskdesk"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"false"`
	GlobalRPS int    `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"1000"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL  string `env:"RATE_LIMIT_REDIS_URL"`
}

func (r *RateLimitOptions) Validate() error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("rate limit GlobalRPS must be non-negative, got %d", r.GlobalRPS)
	}
	switch r.Storage {
	case "memory":
	case "redis":
		if r.RedisURL == "" {
			return fmt.Errorf("RATE_LIMIT_REDIS_URL is required when RATE_LIMIT_STORAGE=redis")
		}
	default:
		return fmt.Errorf("invalid RATE_LIMIT_STORAGE=%q", r.Storage)
	}
	return nil
}

type Configuration struct {
	API           APIOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions

	GoAppEnvironment string   `env:"GO_APP_ENV" envDefault:"development"`
	StubAddr         string   `env:"STUB_ADDR" envDefault:"localhost:4000"`
	StubCORSOrigins  []string `env:"STUB_CORS_ORIGINS" envSeparator:","`
	PageSize         int    `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize      int    `env:"MAX_PAGE_SIZE" envDefault:"100"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH"`
	// Header carrying a fresh uuid on every outgoing request.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

// ClampPageSize returns n bounded by MaxPageSize, or PageSize when n is not positive.
func (c *Configuration) ClampPageSize(n int) int {
	if n <= 0 {
		return c.PageSize
	}
	if n > c.MaxPageSize {
		return c.MaxPageSize
	}
	return n
}

func Use() *Configuration {
	return singleton()
}

// Load builds a Configuration from the environment after loading envFiles.
func Load(envFiles []string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 && len(envFiles) > 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	c.API.URL = strings.TrimRight(strings.TrimSpace(c.API.URL), "/")
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api configuration error: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}
	if c.PageSize <= 0 || c.MaxPageSize <= 0 || c.PageSize > c.MaxPageSize {
		return fmt.Errorf("invalid PAGE_SIZE=%d MAX_PAGE_SIZE=%d", c.PageSize, c.MaxPageSize)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger
	return nil
}

// Unload releases the log file.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		_ = c.logFile.Close()
		c.logFile = nil
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func findModuleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if fileExists(filepath.Join(dir, "go.mod")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
