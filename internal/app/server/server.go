package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"

	"perfboard/internal/domain/audit"
	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/awards"
	"perfboard/internal/domain/bonus"
	"perfboard/internal/domain/challenge"
	"perfboard/internal/domain/employees"
	"perfboard/internal/domain/evaluation"
	"perfboard/internal/domain/notifications"
	"perfboard/internal/domain/ranking"
	"perfboard/internal/platform/blob"
	"perfboard/internal/platform/config"
	"perfboard/internal/platform/db"
	"perfboard/internal/platform/docstore"
	"perfboard/internal/platform/jobs"
	"perfboard/internal/platform/metrics"
	audithandler "perfboard/internal/transport/http/handlers/audit"
	authhandler "perfboard/internal/transport/http/handlers/auth"
	awardshandler "perfboard/internal/transport/http/handlers/awards"
	bonushandler "perfboard/internal/transport/http/handlers/bonus"
	challengeshandler "perfboard/internal/transport/http/handlers/challenges"
	employeeshandler "perfboard/internal/transport/http/handlers/employees"
	evaluationshandler "perfboard/internal/transport/http/handlers/evaluations"
	jobshandler "perfboard/internal/transport/http/handlers/jobs"
	notificationshandler "perfboard/internal/transport/http/handlers/notifications"
	rankinghandler "perfboard/internal/transport/http/handlers/ranking"
	"perfboard/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Mongo   *mongo.Client
	Metrics *metrics.Manager
	Jobs    *jobs.Service
	Router  http.Handler
}

// Close releases the database clients. Background jobs stop with the context
// passed to New.
func (a *App) Close() {
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Mongo.Disconnect(ctx)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

type blobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// New connects the stores, prepares the schema and builds the HTTP router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app := &App{Config: cfg, DB: pool}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		orgID, err := db.Seed(ctx, pool, db.SeedOptions{
			OrganizationName: cfg.SeedOrganizationName,
			AdminEmail:       cfg.SeedAdminEmail,
			AdminPassword:    cfg.SeedAdminPassword,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
		slog.Info("seed complete", "organizationId", orgID)
	}

	var evaluationStore evaluation.StoreAPI = evaluation.NewStore(pool)
	if cfg.EvaluationStore == config.EvaluationStoreMongo {
		client, database, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		app.Mongo = client
		if err := docstore.EnsureIndexes(ctx, database); err != nil {
			app.Close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		evaluationStore = evaluation.NewMongoStore(database)
	}

	var blobs blobStore
	var blobHandler http.Handler
	switch cfg.BlobDriver {
	case config.BlobDriverS3:
		s3Store, err := blob.NewS3Store(ctx, blob.S3Options{
			Bucket:     cfg.S3Bucket,
			Region:     cfg.S3Region,
			Endpoint:   cfg.S3Endpoint,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			PresignTTL: cfg.PresignTTL,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		blobs = s3Store
	default:
		sealer, err := blob.NewSealer(cfg.BlobEncryptionKey)
		if err != nil {
			app.Close()
			return nil, err
		}
		local, err := blob.NewLocalStore(cfg.BlobDir, cfg.BlobBaseURL, sealer)
		if err != nil {
			app.Close()
			return nil, err
		}
		blobs = local
		blobHandler = local.Handler()
	}

	mgr := metrics.NewManager(metrics.WithNamespace("perfboard"), metrics.WithRuntimeCollectors())
	app.Metrics = mgr

	perms := auth.StaticPermissions{}
	auditSvc := audit.New(pool)

	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL)
	employeeSvc := employees.NewService(employees.NewStore(pool))
	evaluationSvc := evaluation.NewService(evaluationStore, employeeSvc)
	challengeSvc := challenge.NewService(challenge.NewStore(pool), employeeSvc, mgr)
	rankingSvc := ranking.NewService(ranking.NewStore(pool), employeeSvc, evaluationSvc, challengeSvc, mgr)
	notificationSvc := notifications.New(notifications.NewStore(pool), rankingSvc, employeeSvc)
	bonusSvc := bonus.NewService(bonus.NewStore(pool), employeeSvc, evaluationSvc)
	awardSvc := awards.NewService(awards.NewStore(pool), rankingSvc, notificationSvc, blobs, mgr)

	app.Jobs = jobs.New(jobs.NewPGRunStore(pool), challengeSvc, awardSvc, jobs.Options{
		Interval:      cfg.JobInterval,
		AwardCloseDay: cfg.AwardCloseDay,
	})
	app.Jobs.Start(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(mgr))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

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
		if app.Mongo != nil {
			if err := app.Mongo.Ping(ctx, nil); err != nil {
				http.Error(w, "document store not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", mgr.Handler())
	}

	if blobHandler != nil && strings.HasPrefix(cfg.BlobBaseURL, "/") {
		router.With(middleware.RequirePermission(auth.PermAwardsRead, perms)).Handle(cfg.BlobBaseURL+"/*", blobHandler)
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc).RegisterRoutes(r)
		employeeshandler.NewHandler(employeeSvc, authSvc, perms, auditSvc).RegisterRoutes(r)
		evaluationshandler.NewHandler(evaluationSvc, perms, auditSvc, mgr).RegisterRoutes(r)
		rankinghandler.NewHandler(rankingSvc, employeeSvc, perms, auditSvc).RegisterRoutes(r)
		bonushandler.NewHandler(bonusSvc, perms, auditSvc).RegisterRoutes(r)
		challengeshandler.NewHandler(challengeSvc, employeeSvc, notificationSvc, perms, auditSvc).RegisterRoutes(r)
		awardshandler.NewHandler(awardSvc, authSvc, perms, auditSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notificationSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, perms).RegisterRoutes(r)
		jobshandler.NewHandler(app.Jobs, challengeSvc, awardSvc, perms).RegisterRoutes(r)
	})

	app.Router = router
	return app, nil
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func Run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("perfboard server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
