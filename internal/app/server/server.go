package server

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"timekeep/internal/domain/attendance"
	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/deduction"
	"timekeep/internal/domain/leave"
	"timekeep/internal/domain/ledger"
	"timekeep/internal/domain/notifications"
	"timekeep/internal/domain/profile"
	"timekeep/internal/domain/reports"
	"timekeep/internal/platform/config"
	"timekeep/internal/platform/db"
	"timekeep/internal/platform/metrics"
	attendancehandler "timekeep/internal/transport/http/handlers/attendance"
	auditloghandler "timekeep/internal/transport/http/handlers/auditlog"
	authhandler "timekeep/internal/transport/http/handlers/auth"
	deductionhandler "timekeep/internal/transport/http/handlers/deduction"
	leavehandler "timekeep/internal/transport/http/handlers/leave"
	notificationhandler "timekeep/internal/transport/http/handlers/notification"
	profilehandler "timekeep/internal/transport/http/handlers/profile"
	reportshandler "timekeep/internal/transport/http/handlers/reports"
	"timekeep/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Pool    *pgxpool.Pool
	Router  http.Handler
	Metrics *metrics.Collector
}

// New builds a ready-to-serve application: connected pool, applied
// migrations, seeded admin and the fully wired router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	collector := metrics.New()
	idem := middleware.NewIdempotencyStore(pool)

	profileStore := profile.NewStore(pool)
	profileService := profile.NewService(profileStore, pool)
	ledgerStore := ledger.NewStore(pool)
	leaveService := leave.NewService(leave.NewStore(pool))
	attendanceService := attendance.NewService(pool)
	deductionService := deduction.NewService(pool)
	notificationService := notifications.New(pool)
	auditService := audit.New(pool)
	reportsService := reports.NewService(pool, profileStore, ledgerStore)

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.With(middleware.RequireAdmin).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(collector.Snapshot())
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(profileStore, cfg.JWTSecret, cfg.TokenTTL).RegisterRoutes(r)
		profilehandler.NewHandler(profileService, auditService).RegisterRoutes(r)
		attendancehandler.NewHandler(attendanceService, idem).RegisterRoutes(r)
		leavehandler.NewHandler(leaveService, notificationService, auditService, idem).RegisterRoutes(r)
		deductionhandler.NewHandler(deductionService, notificationService, auditService, idem).RegisterRoutes(r)
		notificationhandler.NewHandler(notificationService).RegisterRoutes(r)
		reportshandler.NewHandler(reportsService).RegisterRoutes(r)
		auditloghandler.NewHandler(auditService).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return &App{Config: cfg, Pool: pool, Router: router, Metrics: collector}, nil
}

func (a *App) Close() {
	a.Pool.Close()
}

func Run() {
	cfg := config.Load()

	ctx := context.Background()
	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
