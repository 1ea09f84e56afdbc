package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gorilla/mux"

	"quickopen/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

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
	Port           string
	MetricsPort    string
	MetricsEnabled bool
	DatabaseDir    string

	IndexInterval time.Duration
	StepInterval  time.Duration
	StepBudget    time.Duration

	// Directories added on first start when none are configured
	InitialDirs []string

	LogFile         string
	LogMaxSizeMB    int
	LogMaxBackups   int
	LogMaxAgeDays   int
	LogHealthChecks bool

	// Manual reindex requests allowed per minute
	ReindexRate float64

	// Heap budget such as "1GiB"; empty leaves the heap unbounded
	MemoryLimit   string
	MemoryPauseAt float64

	// Derived paths
	DatabasePath string
	ConfigFile   string
}

// fileConfig mirrors Config as it appears in the optional TOML file.
// Environment variables override every field.
type fileConfig struct {
	Port            string   `toml:"port"`
	MetricsPort     string   `toml:"metrics_port"`
	MetricsEnabled  *bool    `toml:"metrics_enabled"`
	DatabaseDir     string   `toml:"database_dir"`
	IndexInterval   string   `toml:"index_interval"`
	StepInterval    string   `toml:"step_interval"`
	StepBudget      string   `toml:"step_budget"`
	InitialDirs     []string `toml:"initial_dirs"`
	LogFile         string   `toml:"log_file"`
	LogMaxSizeMB    int      `toml:"log_max_size_mb"`
	LogMaxBackups   int      `toml:"log_max_backups"`
	LogMaxAgeDays   int      `toml:"log_max_age_days"`
	LogHealthChecks *bool    `toml:"log_health_checks"`
	ReindexRate     float64  `toml:"reindex_rate"`
	MemoryLimit     string   `toml:"memory_limit"`
	MemoryPauseAt   float64  `toml:"memory_pause_at"`
}

// LogFileConfig returns the rotation settings for logging.EnableFileOutput.
func (c *Config) LogFileConfig() logging.FileConfig {
	return logging.FileConfig{
		Path:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
		Compress:   true,
	}
}

// LoadConfig loads and validates configuration from the optional TOML file
// named by QUICKOPEN_CONFIG and from environment variables.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	configFile := os.Getenv("QUICKOPEN_CONFIG")
	file, err := loadFileConfig(configFile)
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		logging.Info("  Config file:         %s", configFile)
	}

	cfg, err := resolveConfig(file)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFile = configFile

	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  DATABASE_DIR:        %s", cfg.DatabaseDir)
	logging.Info("  INDEX_INTERVAL:      %v", cfg.IndexInterval)
	logging.Info("  STEP_INTERVAL:       %v", cfg.StepInterval)
	logging.Info("  STEP_BUDGET:         %v", cfg.StepBudget)
	logging.Info("  INITIAL_DIRS:        %s", strings.Join(cfg.InitialDirs, ":"))
	logging.Info("  REINDEX_RATE:        %v/min", cfg.ReindexRate)
	logging.Info("  MEMORY_LIMIT:        %s", orDefault(cfg.MemoryLimit, "unset"))
	logging.Info("  MEMORY_PAUSE_AT:     %.2f", cfg.MemoryPauseAt)
	logging.Info("  LOG_FILE:            %s", cfg.LogFile)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Database directory (absolute): %s", cfg.DatabaseDir)

	if err := ensureDirectory(cfg.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(cfg.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for settings): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	for _, dir := range cfg.InitialDirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logging.Warn("  Initial directory %s is not a directory; it will be skipped", dir)
		}
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Settings:    ENABLED (required)")
	logging.Info("    Log file:    %s", enabledString(cfg.LogFile != ""))
	logging.Info("    Metrics:     %s", enabledString(cfg.MetricsEnabled))

	return cfg, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Warn("  Config file %s not found, using environment only", path)
			return fileConfig{}, nil
		}
		return fc, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

// resolveConfig layers defaults, the file and the environment.
func resolveConfig(fc fileConfig) (*Config, error) {
	defaultDBDir := ".quickopen"
	if home, err := os.UserHomeDir(); err == nil {
		defaultDBDir = filepath.Join(home, ".quickopen")
	}

	databaseDir, err := filepath.Abs(getEnv("DATABASE_DIR", orDefault(fc.DatabaseDir, defaultDBDir)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	initialDirs := fc.InitialDirs
	if env := os.Getenv("INITIAL_DIRS"); env != "" {
		initialDirs = splitDirs(env)
	}

	cfg := &Config{
		Port:            getEnv("PORT", orDefault(fc.Port, "10248")),
		MetricsPort:     getEnv("METRICS_PORT", orDefault(fc.MetricsPort, "9090")),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", boolOr(fc.MetricsEnabled, true)),
		DatabaseDir:     databaseDir,
		IndexInterval:   getEnvDuration("INDEX_INTERVAL", orDefault(fc.IndexInterval, "10m"), 10*time.Minute),
		StepInterval:    getEnvDuration("STEP_INTERVAL", orDefault(fc.StepInterval, "50ms"), 50*time.Millisecond),
		StepBudget:      getEnvDuration("STEP_BUDGET", orDefault(fc.StepBudget, "250ms"), 250*time.Millisecond),
		InitialDirs:     initialDirs,
		LogFile:         getEnv("LOG_FILE", fc.LogFile),
		LogMaxSizeMB:    getEnvInt("LOG_MAX_SIZE_MB", intOr(fc.LogMaxSizeMB, 10)),
		LogMaxBackups:   getEnvInt("LOG_MAX_BACKUPS", intOr(fc.LogMaxBackups, 5)),
		LogMaxAgeDays:   getEnvInt("LOG_MAX_AGE_DAYS", intOr(fc.LogMaxAgeDays, 10)),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", boolOr(fc.LogHealthChecks, false)),
		ReindexRate:     getEnvFloat("REINDEX_RATE", floatOr(fc.ReindexRate, 6)),
		MemoryLimit:     getEnv("MEMORY_LIMIT", fc.MemoryLimit),
		MemoryPauseAt:   getEnvFloat("MEMORY_PAUSE_AT", floatOr(fc.MemoryPauseAt, 0.85)),
		DatabasePath:    filepath.Join(databaseDir, "settings.db"),
	}
	if cfg.MemoryPauseAt <= 0 || cfg.MemoryPauseAt > 1 {
		return nil, fmt.Errorf("MEMORY_PAUSE_AT must be in (0, 1], got %v", cfg.MemoryPauseAt)
	}
	return cfg, nil
}

// splitDirs splits a colon-separated directory list, dropping empties.
func splitDirs(s string) []string {
	var dirs []string
	for _, d := range filepath.SplitList(s) {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogSettingsInit logs settings store initialization
func LogSettingsInit(path string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SETTINGS INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Settings opened from %s in %v", path, duration)
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(dirs []string, interval, step, budget time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEXER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Watched directories: %d", len(dirs))
	for _, d := range dirs {
		logging.Info("    %s", d)
	}
	logging.Info("  Rescan interval: %v", interval)
	logging.Info("  Step interval:   %v (budget %v)", step, budget)
	logging.Info("  Starting index loop...")
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted() {
	logging.Info("  [OK] Index loop started")
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
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
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

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

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
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
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
	logging.Info("    API:           http://localhost:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
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

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
                    _      __
  ___ ___ __(_)___/ /__ ___  ___  ___ ___
 / _ '/ // / / __/  '_// _ \/ _ \/ -_) _ \
 \_, /\_,_/_/\__/_/\_\ \___/ .__/\__/_//_/
  /_/                     /_/
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

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

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

func orDefault(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

func boolOr(value *bool, def bool) bool {
	if value != nil {
		return *value
	}
	return def
}

func intOr(value, def int) int {
	if value != 0 {
		return value
	}
	return def
}

func floatOr(value, def float64) float64 {
	if value != 0 {
		return value
	}
	return def
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid number for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvDuration reads key from the environment, falling back to raw (the
// file or default value), and finally to def if neither parses.
func getEnvDuration(key, raw string, def time.Duration) time.Duration {
	value := getEnv(key, raw)
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logging.Warn("  Invalid %s %q, using default: %v", key, value, def)
		return def
	}
	return d
}
