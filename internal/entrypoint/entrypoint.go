package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/krishi/internal/config"
	"github.com/mrlokans/krishi/internal/connectivity"
	"github.com/mrlokans/krishi/internal/exporters"
	http_controllers "github.com/mrlokans/krishi/internal/http"
	"github.com/mrlokans/krishi/internal/scheduler"
	"github.com/mrlokans/krishi/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	if cfg.HTTP.Host != "127.0.0.1" && cfg.HTTP.Host != "localhost" && cfg.HTTP.Host != "::1" {
		log.Printf("WARNING: HTTP_HOST=%s is not a loopback address. The API has no authentication.", cfg.HTTP.Host)
	}

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Stop background work after the last request has been answered
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Krishi data layer v%s", version)

	app, err := Build(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize local store: %v", err)
	}
	defer app.Close()

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	app.Facade.Start(runCtx)

	// Without a native signal the probe decides connectivity
	if cfg.Connectivity.ProbeURL != "" {
		probe := connectivity.HTTPProbe(cfg.Connectivity.ProbeURL, cfg.Connectivity.ProbeTimeout)
		go func() {
			if err := app.Monitor.Watch(runCtx, cfg.Connectivity.ProbeInterval, probe); err != nil {
				log.Printf("[NET] Connectivity probe stopped: %v", err)
			}
		}()
		log.Printf("[NET] Probing %s every %s", cfg.Connectivity.ProbeURL, cfg.Connectivity.ProbeInterval)
	} else {
		log.Printf("[NET] Waiting for connectivity events on POST /api/connectivity")
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewSweepCacheQueue(app.Facade))
		go taskClient.Start(runCtx)
	}

	reconciler := scheduler.New(scheduler.Config{
		ReconcileInterval: cfg.Sync.ReconcileInterval,
		SweepSchedule:     cfg.Cache.SweepSchedule,
	}, app.Facade, sweepFunc(app, taskClient))
	if err := reconciler.Start(runCtx); err != nil {
		log.Fatalf("Failed to start reconciler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Ledger:         app.Facade,
		Cache:          app.Facade,
		Sync:           app.Facade,
		Session:        app.Facade,
		Connectivity:   app.Monitor,
		Database:       app.Store,
		Exporter:       exporters.NewSnapshotExporter(cfg.Export.Dir),
		Version:        version,
		RequestLogging: cfg.Database.Debug,
	}
	// A nil *tasks.Client must not become a non-nil interface
	if taskClient != nil {
		routerCfg.TaskClient = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		reconciler.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		runCancel()
	}

	Serve(router, cfg, onShutdown)
}

// sweepFunc enqueues a durable sweep job when the task queue runs, and
// sweeps inline otherwise.
func sweepFunc(app *App, taskClient *tasks.Client) scheduler.SweepFunc {
	if taskClient != nil {
		return func(ctx context.Context) error {
			_, err := taskClient.EnqueueSweep("schedule")
			return err
		}
	}
	return func(ctx context.Context) error {
		result, err := app.Facade.SweepCaches(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		log.Printf("[TASK] Cache sweep removed %d prices and %d weather entries", result.Prices, result.Weather)
		return nil
	}
}
