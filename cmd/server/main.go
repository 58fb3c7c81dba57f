package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"dictee/internal/audio"
	"dictee/internal/cloud"
	"dictee/internal/config"
	"dictee/internal/database"
	"dictee/internal/handlers"
	"dictee/internal/logging"
	"dictee/internal/observe"
	"dictee/internal/repository"
	"dictee/internal/security"
	"dictee/internal/service"
	"dictee/internal/sessionstore"
)

var version = "dev"

// sweepInterval is how often expired in-memory sessions are dropped
const sweepInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.New(cfg.Log)
	slog.Info("starting dictee", "version", version, "addr", cfg.Server.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *observe.Metrics
	if cfg.Metrics.Enabled {
		shutdownMetrics, err := observe.InitProvider(ctx, version)
		if err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}
		defer shutdownMetrics(context.Background())
		metrics = observe.DefaultMetrics()
	}

	// Probes answer while the rest starts up
	status := handlers.NewStartupStatus()
	checks := map[string]handlers.Pinger{}
	mux := http.NewServeMux()
	handlers.NewHealthHandler(status, checks).Register(mux)
	if metrics != nil {
		mux.Handle("GET /metrics", observe.Handler())
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      wrap(mux, cfg, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	app, err := initialize(gctx, cfg, status, checks, metrics, mux)
	if err != nil {
		stop()
		shutdown(server, cfg.Server.ShutdownTimeout)
		_ = g.Wait()
		return err
	}
	defer app.close()

	g.Go(func() error {
		app.limiter.Run(gctx)
		return nil
	})
	if app.memory != nil {
		g.Go(func() error {
			sweepSessions(gctx, app.memory)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdown(server, cfg.Server.ShutdownTimeout)
		return nil
	})

	status.MarkReady()
	slog.Info("server ready")
	return g.Wait()
}

// app holds the resources that need closing on shutdown
type app struct {
	db       *database.DB
	sessions sessionstore.Store
	memory   *sessionstore.Memory
	speaker  *audio.Speaker
	limiter  *security.RateLimiter
}

func (a *app) close() {
	if a.speaker != nil {
		a.speaker.Close()
	}
	if err := a.sessions.Close(); err != nil {
		slog.Warn("failed to close session store", "error", err)
	}
	if err := a.db.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}

func initialize(ctx context.Context, cfg *config.Config, status *handlers.StartupStatus, checks map[string]handlers.Pinger, metrics *observe.Metrics, mux *http.ServeMux) (*app, error) {
	a := &app{}

	status.SetCurrentStep(handlers.StepDatabase)
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.db = db
	checks["database"] = db
	status.CompleteStep(handlers.StepDatabase)
	status.CompleteStep(handlers.StepMigrations)
	slog.Info("database ready", "type", db.Dialect.Name())

	status.SetCurrentStep(handlers.StepSessions)
	switch cfg.Session.Store {
	case "redis":
		store, err := sessionstore.NewRedis(ctx, cfg.Session.RedisURL, cfg.Session.TTL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.sessions = store
		checks["sessions"] = handlers.PingerFunc(store.Ping)
	default:
		a.memory = sessionstore.NewMemory(cfg.Session.TTL)
		a.sessions = a.memory
	}
	status.CompleteStep(handlers.StepSessions)

	status.SetCurrentStep(handlers.StepServices)
	dictationRepo := repository.NewDictationRepository(db, cfg.Database.MaxDictations)
	resultRepo := repository.NewResultRepository(db)

	fetcher := cloud.NewFetcher(cloudConfig(cfg.Cloud))

	emailService, err := service.NewEmailService(ctx, cfg.Email)
	if err != nil {
		slog.Warn("email disabled", "error", err)
		emailService = nil
	}

	practiceOpts := []service.PracticeOption{}
	if metrics != nil {
		practiceOpts = append(practiceOpts, service.WithMetrics(metrics))
	}
	var (
		audioCatalog  handlers.AudioCatalog
		dictationOpts []service.DictationOption
	)
	if cfg.Audio.Enabled {
		tts := audio.NewTTSService(cfg.Audio.CacheDir, cfg.Audio.Timeout)
		audioCatalog = tts
		dictationOpts = append(dictationOpts, service.WithAudioCache(tts))
		a.speaker = audio.NewSpeaker(tts,
			audio.WithTimeout(cfg.Audio.Timeout),
			audio.WithListener(speechListener(metrics)),
		)
		practiceOpts = append(practiceOpts, service.WithSpeech(a.speaker, tts))
		slog.Info("speech enabled", "cache_dir", cfg.Audio.CacheDir)
	}

	authService := service.NewAuthService(cfg.Auth)
	dictationService := service.NewDictationService(dictationRepo, fetcher, dictationOpts...)
	practiceService := service.NewPracticeService(dictationRepo, a.sessions, resultRepo, practiceOpts...)
	shareService := service.NewShareService(dictationService, emailService, cfg.Server.BaseURL)
	backupService := service.NewBackupService(db, cfg.Database.MaxDictations)
	a.limiter = security.NewRateLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginWindow)

	var sessionCount func() int
	if a.memory != nil {
		sessionCount = a.memory.Len
	}
	routes := &handlers.Routes{
		Middleware:   handlers.NewMiddleware(authService),
		LoginLimiter: a.limiter,
		Auth:         handlers.NewAuthHandler(authService),
		Dictations:   handlers.NewDictationHandler(dictationService, practiceService),
		Imports:      handlers.NewImportHandler(dictationService, shareService),
		Shares:       handlers.NewShareHandler(shareService),
		Practice:     handlers.NewPracticeHandler(practiceService, dictationService, shareService),
		Admin:        handlers.NewAdminHandler(backupService, sessionCount, audioCatalog),
	}
	routes.Register(mux)
	status.CompleteStep(handlers.StepServices)

	if !authService.Enabled() {
		slog.Warn("no teacher password configured: authoring is open")
	}
	return a, nil
}

// wrap applies the global middleware chain
func wrap(mux *http.ServeMux, cfg *config.Config, metrics *observe.Metrics) http.Handler {
	var h http.Handler = mux
	if metrics != nil {
		h = observe.Middleware(metrics)(h)
	}
	h = handlers.Logging(h)
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language", security.CSRFHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler(h)
}

func shutdown(server *http.Server, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	slog.Info("shutting down server")
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}

// sweepSessions periodically removes expired in-memory sessions
func sweepSessions(ctx context.Context, store *sessionstore.Memory) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				slog.Info("expired sessions removed", "count", n)
			}
		}
	}
}

// speechListener logs utterance events and times background synthesis
func speechListener(metrics *observe.Metrics) func(audio.Event) {
	var (
		mu      sync.Mutex
		started = map[string]time.Time{}
	)
	return func(e audio.Event) {
		mu.Lock()
		defer mu.Unlock()

		key := e.Channel + "\x00" + e.Text
		if e.Kind == audio.EventStarted {
			started[key] = time.Now()
			return
		}
		begin, ok := started[key]
		delete(started, key)
		slog.Debug("speech event", "kind", e.Kind, "session_id", e.Channel, "lang", e.Lang)
		if ok && metrics != nil {
			metrics.RecordSpeech(context.Background(), time.Since(begin).Seconds(), string(e.Kind))
		}
	}
}

func cloudConfig(c config.CloudConfig) cloud.Config {
	return cloud.Config{
		Timeout:              c.Timeout,
		MaxBytes:             c.MaxBytes,
		BearerToken:          c.BearerToken,
		TokenHosts:           c.TokenHosts,
		AllowPrivateNetworks: c.AllowPrivateNetworks,
	}
}
