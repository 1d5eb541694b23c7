package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"volume-index/internal/disks"
	"volume-index/internal/filesystem"
	"volume-index/internal/handlers"
	"volume-index/internal/indexer"
	"volume-index/internal/logging"
	"volume-index/internal/memory"
	"volume-index/internal/metrics"
	"volume-index/internal/middleware"
	"volume-index/internal/startup"
	"volume-index/internal/volumes"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Memory limit and walker backpressure
	memResult := memory.Configure(config.MemoryLimit, config.MemoryRatio)
	startup.LogMemoryConfig(memResult.Configured, memResult.Source, memory.FormatBytes(memResult.GoMemLimit))
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	// Volumes and filesystem metric labels
	enumerator := volumes.NewSystemEnumerator()
	vols, err := enumerator.Volumes(context.Background())
	if err != nil {
		logging.Warn("Failed to enumerate volumes at startup: %v", err)
	}
	mounts := make(map[string]string, len(vols))
	for _, v := range vols {
		mounts[v.MountPoint] = v.MountPoint
	}
	resolver := filesystem.NewVolumeResolver(mounts)
	filesystem.SetDefaultVolumeResolver(resolver)
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	buildInfo := startup.GetBuildInfo()
	metrics.SetAppInfo(buildInfo.Version, buildInfo.Commit, buildInfo.GoVersion)
	metrics.InitializeMetrics(resolver.Labels())

	walker := newWalkerConfig(config, resolver, monitor)
	startup.LogIndexInit(walker.NumWorkers, walker.SkipHidden, resolver.Labels())

	// Cancels an in-progress build on shutdown. Requests never do.
	indexCtx, cancelIndex := context.WithCancel(context.Background())

	service := disks.New(disks.Config{
		Enumerator:   enumerator,
		Folders:      volumes.XDGFolders{},
		SnapshotPath: config.SnapshotPath,
		Walker:       walker,
		Lifetime:     indexCtx,
	})

	collector := metrics.NewCollector(service, 30*time.Second)
	collector.Start()

	if config.IndexOnStart {
		go initializeIndex(indexCtx, service)
	}

	h := handlers.New(service, config.IndexOnStart)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	var handler http.Handler = router
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	handler = middleware.Logger(loggingConfig)(handler)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Builds triggered by /api/disks can run for minutes.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, cancelIndex, collector, monitor)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
}

// newWalkerConfig applies the configured worker count and hidden-entry
// policy on top of the walker defaults.
func newWalkerConfig(config *startup.Config, resolver *filesystem.VolumeResolver, monitor *memory.Monitor) indexer.ParallelWalkerConfig {
	walker := indexer.DefaultParallelWalkerConfig(config.IndexWorkers)
	walker.SkipHidden = config.IndexSkipHidden
	walker.RetryConfig.VolumeResolver = resolver
	walker.Memory = monitor
	return walker
}

// initializeIndex loads or builds the index in the background
func initializeIndex(ctx context.Context, service *disks.Service) {
	start := time.Now()
	if err := service.EnsureInitialized(ctx); err != nil {
		logging.Error("Failed to initialize volume index: %v", err)
		return
	}
	startup.LogIndexReady(service.State().String(), len(service.VolumeStats()), time.Since(start))
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/disks", h.GetDisks).Methods("GET")
	api.HandleFunc("/search", h.Search).Methods("GET")
	api.HandleFunc("/directory", h.Directory).Methods("GET")
	api.HandleFunc("/stats", h.Stats).Methods("GET")

	return r
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	serveMux := http.NewServeMux()
	serveMux.Handle("/metrics", h.MetricsHandler())

	return &http.Server{
		Addr:              ":" + port,
		Handler:           serveMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, cancelIndex context.CancelFunc, collector *metrics.Collector, monitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping index build")
	cancelIndex()
	startup.LogShutdownStepComplete("Index build stopped")

	startup.LogShutdownStep("Stopping collectors")
	collector.Stop()
	monitor.Stop()
	startup.LogShutdownStepComplete("Collectors stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	logging.Debug("Goroutines at exit: %d", runtime.NumGoroutine())
	startup.LogShutdownComplete()
}
