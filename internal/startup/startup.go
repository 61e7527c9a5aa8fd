package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"media-archive/internal/logging"
	"media-archive/internal/memory"

	"github.com/caarlos0/env/v11"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// DatabaseFile is the SQLite file name inside DatabaseDir.
const DatabaseFile = "archive.db"

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	DatabaseDir     string `env:"DATABASE_DIR" envDefault:"/database"`
	Port            string `env:"PORT" envDefault:"8080"`
	MetricsPort     string `env:"METRICS_PORT" envDefault:"9090"`
	MetricsEnabled  bool   `env:"METRICS_ENABLED" envDefault:"true"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	LogHealthChecks bool   `env:"LOG_HEALTH_CHECKS" envDefault:"true"`

	// Query engine
	PlanCacheTTL      time.Duration `env:"PLAN_CACHE_TTL" envDefault:"5m"`
	PlanCacheSize     int           `env:"PLAN_CACHE_SIZE" envDefault:"1024"`
	QueryDefaultLimit int           `env:"QUERY_DEFAULT_LIMIT" envDefault:"100"`
	QueryMaxLimit     int           `env:"QUERY_MAX_LIMIT" envDefault:"1000"`

	// Collector interval for library totals
	StatsInterval time.Duration `env:"STATS_INTERVAL" envDefault:"1m"`

	// Container memory limit in bytes and the share of it given to the Go heap
	MemoryLimit int64   `env:"MEMORY_LIMIT"`
	MemoryRatio float64 `env:"MEMORY_RATIO" envDefault:"0.85"`

	// Derived paths
	DatabasePath string
}

// ParseConfig reads Config from the environment and validates it without
// touching the filesystem.
func ParseConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.DatabasePath = filepath.Join(cfg.DatabaseDir, DatabaseFile)
	return cfg, nil
}

func (c *Config) validate() error {
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	if c.PlanCacheSize <= 0 {
		return fmt.Errorf("PLAN_CACHE_SIZE must be positive, got %d", c.PlanCacheSize)
	}
	if c.PlanCacheTTL < 0 {
		return fmt.Errorf("PLAN_CACHE_TTL must not be negative, got %v", c.PlanCacheTTL)
	}
	if c.MemoryLimit < 0 {
		return fmt.Errorf("MEMORY_LIMIT must not be negative, got %d", c.MemoryLimit)
	}
	if c.MemoryRatio <= 0 || c.MemoryRatio > 1 {
		return fmt.Errorf("MEMORY_RATIO must be in (0, 1], got %v", c.MemoryRatio)
	}
	if c.QueryDefaultLimit <= 0 {
		return fmt.Errorf("QUERY_DEFAULT_LIMIT must be positive, got %d", c.QueryDefaultLimit)
	}
	if c.QueryMaxLimit < c.QueryDefaultLimit {
		return fmt.Errorf("QUERY_MAX_LIMIT (%d) must be at least QUERY_DEFAULT_LIMIT (%d)",
			c.QueryMaxLimit, c.QueryDefaultLimit)
	}
	return nil
}

// LoadConfig loads configuration from a .env file (if present) and the
// environment, logs it, and prepares the database directory.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	// A missing .env file is not an error
	_ = godotenv.Load()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config, err := ParseConfig()
	if err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(config.LogLevel)
	logging.SetLevel(level)

	logging.Info("  DATABASE_DIR:        %s", config.DatabaseDir)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  PLAN_CACHE_TTL:      %v", config.PlanCacheTTL)
	logging.Info("  PLAN_CACHE_SIZE:     %d", config.PlanCacheSize)
	logging.Info("  QUERY_DEFAULT_LIMIT: %d", config.QueryDefaultLimit)
	logging.Info("  QUERY_MAX_LIMIT:     %d", config.QueryMaxLimit)
	logging.Info("  STATS_INTERVAL:      %v", config.StatsInterval)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY")
	logging.Info("------------------------------------------------------------")
	if _, err := memory.Apply(config.MemoryLimit, config.MemoryRatio); err != nil {
		return nil, fmt.Errorf("memory configuration error: %w", err)
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	databaseDir, err := filepath.Abs(config.DatabaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)
	config.DatabaseDir = databaseDir
	config.DatabasePath = filepath.Join(databaseDir, DatabaseFile)

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Plan cache:  %s", enabledString(config.PlanCacheTTL > 0))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration, schemaVersion int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v (schema version %d)", duration, schemaVersion)
}

// LogQueryEngineInit logs the plan cache and pagination settings.
func LogQueryEngineInit(config *Config) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("QUERY ENGINE")
	logging.Info("------------------------------------------------------------")
	if config.PlanCacheTTL > 0 {
		logging.Info("  Plan cache:      %d entries, %v TTL", config.PlanCacheSize, config.PlanCacheTTL)
	} else {
		logging.Info("  Plan cache:      DISABLED (every query is planned afresh)")
	}
	logging.Info("  Page size:       %d (max %d)", config.QueryDefaultLimit, config.QueryMaxLimit)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Subrouters carry no methods of their own
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := GroupRoutes(routes)
		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// GroupRoutes buckets routes by their first path segment, or by
// "api/<resource>" for API routes.
func GroupRoutes(routes []RouteInfo) map[string][]RouteInfo {
	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		prefix := getRouteGroup(route.Path)
		groups[prefix] = append(groups[prefix], route)
	}
	return groups
}

func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
   __  ___       ___         _           __   _
  /  |/  /__ ___/ (_)__ _   / _ | ________/ /  (_)  _____
 / /|_/ / -_) _  / / _ '/  / __ |/ __/ __/ _ \/ / |/ / -_)
/_/  /_/\__/\_,_/_/\_,_/  /_/ |_/_/  \__/_//_/_/|___/\__/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
