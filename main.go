package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"quickopen/internal/database"
	"quickopen/internal/filesystem"
	"quickopen/internal/handlers"
	"quickopen/internal/logging"
	"quickopen/internal/memory"
	"quickopen/internal/metrics"
	"quickopen/internal/middleware"
	"quickopen/internal/settings"
	"quickopen/internal/startup"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	budget, err := memory.ApplyLimit(config.MemoryLimit)
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	if config.LogFile != "" {
		logging.EnableFileOutput(config.LogFileConfig())
		defer logging.Close()
	}

	// Metrics must be wired before the first filesystem access
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	settingsStart := time.Now()
	store, err := settings.Open(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to open settings: %v", err)
	}
	startup.LogSettingsInit(store.Path(), time.Since(settingsStart))

	memCfg := memory.DefaultConfig()
	memCfg.LimitBytes = budget.Limit
	memCfg.PauseAt = config.MemoryPauseAt
	if memCfg.ResumeAt >= memCfg.PauseAt {
		memCfg.ResumeAt = memCfg.PauseAt * 0.8
	}
	monitor := memory.NewMonitor(memCfg)
	monitor.Start()

	db, err := database.New(store, database.Options{
		StepBudget:   config.StepBudget,
		Backpressure: monitor,
	})
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}

	seedInitialDirs(db, config.InitialDirs)

	dirs, err := db.Dirs()
	if err != nil {
		startup.LogFatal("Failed to read watched directories: %v", err)
	}
	startup.LogIndexerInit(dirs, config.IndexInterval, config.StepInterval, config.StepBudget)

	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		db.Run(ctx, config.StepInterval, config.IndexInterval)
	}()
	startup.LogIndexerStarted()

	collector := metrics.NewCollector(db, time.Minute)
	collector.Start()

	h := handlers.New(db, config)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	router.Use(
		middleware.Metrics(middleware.DefaultMetricsConfig()),
		middleware.RequestID,
		middleware.Logger(loggingConfig),
		middleware.Compression(middleware.DefaultCompressionConfig()),
	)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = startMetricsServer(config.MetricsPort, h.MetricsHandler())
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		handleShutdown(srv, metricsSrv, cancel, loopDone, collector, monitor, store)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-shutdownDone
}

// seedInitialDirs adds configured directories on first start only.
func seedInitialDirs(db *database.Database, initial []string) {
	if len(initial) == 0 {
		return
	}
	dirs, err := db.Dirs()
	if err != nil || len(dirs) > 0 {
		return
	}
	for _, dir := range initial {
		if err := db.AddDir(dir); err != nil {
			logging.Warn("Skipping initial directory %s: %v", dir, err)
		}
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods("GET")
	api.HandleFunc("/search", h.Search).Methods("GET")
	api.HandleFunc("/search", h.SearchPost).Methods("POST")
	api.HandleFunc("/status", h.GetStatus).Methods("GET")
	api.HandleFunc("/sync", h.Sync).Methods("POST")
	api.HandleFunc("/reindex", h.TriggerReindex).Methods("POST")

	api.HandleFunc("/dirs", h.GetDirs).Methods("GET")
	api.HandleFunc("/dirs", h.AddDir).Methods("POST")
	api.HandleFunc("/dirs", h.DeleteDir).Methods("DELETE")

	api.HandleFunc("/ignores", h.GetIgnores).Methods("GET")
	api.HandleFunc("/ignores", h.AddIgnore).Methods("POST")
	api.HandleFunc("/ignores", h.RemoveIgnore).Methods("DELETE")

	return r
}

func startMetricsServer(port string, handler http.Handler) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", handler)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

func handleShutdown(srv, metricsSrv *http.Server, stopLoop context.CancelFunc, loopDone <-chan struct{},
	collector *metrics.Collector, monitor *memory.Monitor, store settings.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping index loop")
	stopLoop()
	<-loopDone
	startup.LogShutdownStepComplete("Index loop stopped")

	startup.LogShutdownStep("Stopping monitors")
	collector.Stop()
	monitor.Stop()
	startup.LogShutdownStepComplete("Monitors stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Closing settings store")
	if err := store.Close(); err != nil {
		logging.Warn("Settings close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Settings store closed")
	}

	startup.LogShutdownComplete()
}
