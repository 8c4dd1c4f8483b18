// Package app wires the repository, dispatch engine, orchestrator,
// scheduler, and observation sinks into one runnable application.
package app

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/profilebot/profilebot/internal/config"
	"github.com/profilebot/profilebot/internal/dispatch"
	"github.com/profilebot/profilebot/internal/logger"
	"github.com/profilebot/profilebot/internal/metrics"
	"github.com/profilebot/profilebot/internal/notify"
	"github.com/profilebot/profilebot/internal/orchestrator"
	"github.com/profilebot/profilebot/internal/repository"
	"github.com/profilebot/profilebot/internal/scheduler"
	"github.com/profilebot/profilebot/internal/services"
	"github.com/profilebot/profilebot/internal/services/scraper"
	"github.com/profilebot/profilebot/internal/store"
)

// App holds every major component and manages their lifecycle.
type App struct {
	config *config.Config
	logger *logger.Logger

	repo         *repository.Repository
	engine       *dispatch.Engine
	orchestrator *orchestrator.Orchestrator
	scheduler    *scheduler.Scheduler
	metrics      *metrics.PrometheusMetrics

	metricsServer *http.Server

	mu          sync.Mutex
	initialized bool
}

// New creates an App. Initialize must be called before use.
func New(cfg *config.Config, log *logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
	}
}

// Initialize builds every component from the configuration. It is safe to
// call once; subsequent calls are no-ops.
func (a *App) Initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return nil
	}

	repo, err := repository.New(a.config.Data.ProfilesFile, a.config.Data.Root, a.logger,
		repository.WithMaxAge(float64(a.config.Limits.ProfileMaxAgeHours)))
	if err != nil {
		return err
	}
	a.repo = repo

	targets, err := store.New(filepath.Join(a.config.Data.Root, "scrapingTargets.json"), a.logger)
	if err != nil {
		return err
	}

	svcScraper := scraper.New(scraper.Config{
		BaseURL:       a.config.Scraping.BaseURL,
		Timeout:       time.Duration(a.config.Scraping.TimeoutSeconds) * time.Second,
		RetryAttempts: a.config.Scraping.RetryAttempts,
		UserAgent:     a.config.Scraping.UserAgent,
	}, targets, a.logger)

	observers := []notify.TaskObserver{notify.NewLogObserver(a.logger)}
	if a.config.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegramObserver(a.config.Notify.Telegram.Token, a.config.Notify.Telegram.ChatID, a.logger)
		if err != nil {
			return err
		}
		observers = append(observers, tg)
		a.logger.Info("telegram observer enabled")
	}

	if a.config.Metrics.Enabled {
		a.metrics = metrics.InitPrometheusMetrics("profilebot", nil)
	}

	// The browser automation driver and media tooling are external
	// processes; tasks routed to them fail with a service-not-ready error
	// until a driver implementation is attached.
	a.engine = dispatch.New(repo, services.Set{
		Scraper: svcScraper,
	}, notify.NewMulti(observers...), taskMetricsOrNil(a.metrics), a.logger,
		dispatch.WithLimits(dispatch.Limits{
			MaxDailyFollows:        a.config.Limits.MaxDailyFollows,
			MaxDailyLikes:          a.config.Limits.MaxDailyLikes,
			MinDaysToCheckResource: a.config.Limits.MinDaysToCheckResource,
		}))

	a.orchestrator = orchestrator.New(repo, a.engine, passMetricsOrNil(a.metrics), a.logger, orchestrator.Config{
		MinDelay: secondsToDuration(a.config.Limits.MinDelaySeconds),
		MaxDelay: secondsToDuration(a.config.Limits.MaxDelaySeconds),
	})

	if a.config.Scheduler.Enabled {
		a.scheduler = scheduler.New(a.orchestrator, a.logger, scheduler.Config{
			Spec:           a.config.Scheduler.Spec,
			WorkShiftHours: a.config.Limits.WorkShiftHours,
		})
	}

	a.initialized = true
	return nil
}

// Repository exposes the profile repository for CLI commands.
func (a *App) Repository() *repository.Repository {
	return a.repo
}

// RunPass executes a single dispatch pass.
func (a *App) RunPass(ctx context.Context) (orchestrator.Summary, error) {
	return a.orchestrator.RunPass(ctx)
}

// Run starts the scheduler and the metrics endpoint, then blocks until ctx
// is cancelled. In-flight work finishes before Run returns.
func (a *App) Run(ctx context.Context) error {
	if a.metrics != nil && a.config.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		a.metricsServer = &http.Server{Addr: a.config.Metrics.Listen, Handler: mux}

		go func() {
			a.logger.Info("metrics endpoint listening",
				logger.Field{Key: "addr", Value: a.config.Metrics.Listen})
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Error("metrics server failed", err)
			}
		}()
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return err
		}
	}

	<-ctx.Done()
	a.shutdown()
	return nil
}

// shutdown stops the scheduler, waiting for a running pass, and closes the
// metrics endpoint.
func (a *App) shutdown() {
	a.logger.Info("shutting down")

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics server shutdown failed",
				logger.Field{Key: "error", Value: err.Error()})
		}
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// taskMetricsOrNil avoids handing the engine a typed-nil interface.
func taskMetricsOrNil(m *metrics.PrometheusMetrics) dispatch.TaskMetrics {
	if m == nil {
		return nil
	}
	return m
}

func passMetricsOrNil(m *metrics.PrometheusMetrics) orchestrator.PassMetrics {
	if m == nil {
		return nil
	}
	return m
}
