package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kinesia/capture/internal/adapters/blobstore"
	"github.com/kinesia/capture/internal/adapters/directory"
	"github.com/kinesia/capture/internal/adapters/draftstore"
	"github.com/kinesia/capture/internal/adapters/http/api"
	"github.com/kinesia/capture/internal/adapters/recordstore"
	app "github.com/kinesia/capture/internal/app"
	"github.com/kinesia/capture/internal/config"
	"github.com/kinesia/capture/internal/domain/measure"
	"github.com/kinesia/capture/internal/domain/session"
	"github.com/kinesia/capture/pkg/logger"
	"github.com/kinesia/capture/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	drafts := draftstore.NewDiskStore(draftstore.WithDir(cfg.DraftDir))
	blobs := blobstore.NewFSStore(blobstore.WithRoot(cfg.MediaRoot), blobstore.WithBaseURL(cfg.MediaBaseURL))
	records := recordstore.NewMemoryStore()

	targets := seedTargets(ctx, cfg, log)

	svc := app.New(drafts, blobs, records, targets,
		app.WithLogger(log.Named("capture")),
		app.WithDebounce(time.Duration(cfg.AutosaveDebounceMS)*time.Millisecond),
		app.WithStagingDir(cfg.StagingDir),
		app.WithMaxUploadBytes(cfg.MaxUploadBytes),
		app.WithUploadConcurrency(cfg.UploadConcurrency),
		app.WithSubmitGuardTTL(time.Duration(cfg.SubmitGuardTTLSec)*time.Second),
		app.WithGate(session.NewGate(
			session.WithPhotoMinimum(cfg.PhotoMinimum),
			session.WithVideoMinimum(cfg.VideoMinimum),
		)),
		app.WithEngine(measure.NewEngine(
			measure.WithTiltThreshold(cfg.TiltThresholdDeg),
			measure.WithShiftThreshold(cfg.ShiftThreshold),
			measure.WithTiltScale(cfg.TiltScale),
		)),
	)
	defer svc.Close()

	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.Handle("GET "+strings.TrimRight(cfg.MediaBaseURL, "/")+"/",
		http.StripPrefix(strings.TrimRight(cfg.MediaBaseURL, "/")+"/", http.FileServer(http.Dir(cfg.MediaRoot))))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// seedTargets loads the target directory from the configured YAML seed, or
// falls back to an empty registry.
func seedTargets(ctx context.Context, cfg *config.Config, log logger.Logger) directory.Directory {
	if cfg.TargetSeedPath == "" {
		return directory.NewStatic()
	}
	d, err := directory.LoadStatic(cfg.TargetSeedPath)
	if err != nil {
		log.Warn(ctx, "target seed load failed; starting empty",
			logger.String("path", cfg.TargetSeedPath),
			logger.Error(err),
		)
		return directory.NewStatic()
	}
	return d
}
