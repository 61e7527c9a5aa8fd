package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_DIR", "PORT", "METRICS_PORT", "METRICS_ENABLED", "LOG_LEVEL",
		"LOG_HEALTH_CHECKS", "PLAN_CACHE_TTL", "PLAN_CACHE_SIZE",
		"QUERY_DEFAULT_LIMIT", "QUERY_MAX_LIMIT", "STATS_INTERVAL",
		"MEMORY_LIMIT", "MEMORY_RATIO",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := ParseConfig()
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if cfg.DatabaseDir != "/database" {
		t.Errorf("DatabaseDir = %q, want /database", cfg.DatabaseDir)
	}
	if cfg.DatabasePath != filepath.Join("/database", DatabaseFile) {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.MetricsPort != "9090" {
		t.Errorf("MetricsPort = %q, want 9090", cfg.MetricsPort)
	}
	if !cfg.MetricsEnabled {
		t.Error("Expected metrics to be enabled by default")
	}
	if !cfg.LogHealthChecks {
		t.Error("Expected health check logging to be enabled by default")
	}
	if cfg.PlanCacheTTL != 5*time.Minute {
		t.Errorf("PlanCacheTTL = %v, want 5m", cfg.PlanCacheTTL)
	}
	if cfg.PlanCacheSize != 1024 {
		t.Errorf("PlanCacheSize = %d, want 1024", cfg.PlanCacheSize)
	}
	if cfg.QueryDefaultLimit != 100 || cfg.QueryMaxLimit != 1000 {
		t.Errorf("limits = %d/%d, want 100/1000", cfg.QueryDefaultLimit, cfg.QueryMaxLimit)
	}
	if cfg.MemoryLimit != 0 || cfg.MemoryRatio != 0.85 {
		t.Errorf("memory = %d/%v, want 0/0.85", cfg.MemoryLimit, cfg.MemoryRatio)
	}
}

func TestParseConfigFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_DIR", "/data/archive")
	t.Setenv("PORT", "3000")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("PLAN_CACHE_TTL", "30s")
	t.Setenv("PLAN_CACHE_SIZE", "16")
	t.Setenv("QUERY_DEFAULT_LIMIT", "25")
	t.Setenv("QUERY_MAX_LIMIT", "50")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := ParseConfig()
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if cfg.DatabasePath != "/data/archive/archive.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.MetricsEnabled {
		t.Error("Expected metrics to be disabled")
	}
	if cfg.PlanCacheTTL != 30*time.Second {
		t.Errorf("PlanCacheTTL = %v, want 30s", cfg.PlanCacheTTL)
	}
	if cfg.PlanCacheSize != 16 {
		t.Errorf("PlanCacheSize = %d, want 16", cfg.PlanCacheSize)
	}
	if cfg.QueryDefaultLimit != 25 || cfg.QueryMaxLimit != 50 {
		t.Errorf("limits = %d/%d, want 25/50", cfg.QueryDefaultLimit, cfg.QueryMaxLimit)
	}
}

func TestParseConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unparseable duration", "PLAN_CACHE_TTL", "soon"},
		{"unparseable bool", "METRICS_ENABLED", "maybe"},
		{"zero cache size", "PLAN_CACHE_SIZE", "0"},
		{"negative cache TTL", "PLAN_CACHE_TTL", "-1s"},
		{"zero default limit", "QUERY_DEFAULT_LIMIT", "0"},
		{"max below default", "QUERY_MAX_LIMIT", "10"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"negative memory limit", "MEMORY_LIMIT", "-1"},
		{"memory ratio above one", "MEMORY_RATIO", "1.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := ParseConfig(); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestLoadConfigCreatesDatabaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	t.Setenv("DATABASE_DIR", dir)
	t.Setenv("LOG_LEVEL", "info")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("database directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected database path to be a directory")
	}
	if cfg.DatabasePath != filepath.Join(dir, DatabaseFile) {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
}

func TestLoadConfigRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATABASE_DIR", file)

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error when DATABASE_DIR is a file")
	}
}

func TestGetRoutes(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}

	r := mux.NewRouter()
	r.HandleFunc("/health", noop).Methods("GET", "HEAD")
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/files/query", noop).Methods("POST").Name("query")
	api.HandleFunc("/tags/parents", noop).Methods("POST", "DELETE")

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}

	want := map[string]bool{
		"GET /health":              false,
		"HEAD /health":             false,
		"POST /api/files/query":    false,
		"POST /api/tags/parents":   false,
		"DELETE /api/tags/parents": false,
	}
	for _, route := range routes {
		key := route.Method + " " + route.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
		if route.Path == "/api/files/query" && route.Name != "query" {
			t.Errorf("Expected route name 'query', got %q", route.Name)
		}
	}
	for key, seen := range want {
		if !seen {
			t.Errorf("Route %s not reported", key)
		}
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "health"},
		{"/api/files/query", "api/files"},
		{"/api/tags/{id}", "api/tags"},
		{"/api", "api"},
		{"/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := getRouteGroup(tt.path); got != tt.want {
				t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestGroupRoutes(t *testing.T) {
	routes := []RouteInfo{
		{Method: "POST", Path: "/api/files/query"},
		{Method: "GET", Path: "/api/files/{id}/tags"},
		{Method: "GET", Path: "/api/tags/autocomplete"},
		{Method: "GET", Path: "/health"},
	}

	groups := GroupRoutes(routes)
	if len(groups["api/files"]) != 2 {
		t.Errorf("api/files group has %d routes, want 2", len(groups["api/files"]))
	}
	if len(groups["api/tags"]) != 1 {
		t.Errorf("api/tags group has %d routes, want 1", len(groups["api/tags"]))
	}
	if len(groups["health"]) != 1 {
		t.Errorf("health group has %d routes, want 1", len(groups["health"]))
	}
}

func TestEnabledString(t *testing.T) {
	if enabledString(true) != "ENABLED" {
		t.Error("Expected ENABLED")
	}
	if enabledString(false) != "DISABLED" {
		t.Error("Expected DISABLED")
	}
}
