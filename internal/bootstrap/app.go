package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	googleauth "resume-builder/internal/auth"
	"resume-builder/internal/generation"
	"resume-builder/internal/generation/openai"
	"resume-builder/internal/resumebuilder"
	"resume-builder/internal/services/health"
	"resume-builder/internal/shared/auth"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/server"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/storage/db"
	"resume-builder/internal/shared/storage/object"
	localstore "resume-builder/internal/shared/storage/object/local"
	s3store "resume-builder/internal/shared/storage/object/s3"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/submissions"
	"resume-builder/internal/users"
	"resume-builder/internal/wizard"
)

const pruneInterval = 5 * time.Minute

// App holds shared dependencies.
type App struct {
	Config      config.Config
	Router      *gin.Engine
	DB          *sql.DB
	Store       object.ObjectStore
	KV          wizard.KV
	Handoff     *wizard.Handoff
	Registry    *wizard.Registry
	Generator   generation.Generator
	Signer      *auth.Signer
	Submissions *submissions.Service
	Users       *users.Service
	Wizard      *resumebuilder.Service
	GoogleAuth  *googleauth.GoogleService
}

// Build prepares every dependency and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if cfg.HandoffTTL <= 0 {
		cfg.HandoffTTL = wizard.DefaultHandoffTTL
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gen, err := buildGenerator(cfg)
	if err != nil {
		return nil, err
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.Env, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Generator: gen,
		Signer:    signer,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		Signer:             app.Signer,
		WizardHandler:      resumebuilder.NewHandler(app.Wizard, cfg.Env == "production"),
		SubmissionsHandler: &submissions.Handler{Svc: app.Submissions},
		GoogleAuth:         app.GoogleAuth,
		UsersHandler:       users.NewHandler(app.Users),
		Health:             health.NewService(app.DB, app.Registry),
		RateLimiter:        middleware.NewRateLimiter(nil),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory handoff and submissions")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB, cfg.DatabaseURL)
		if err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database unavailable; using in-memory handoff and submissions: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			KMSKeyID:        cfg.SSEKMSKeyID,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}

func buildGenerator(cfg config.Config) (generation.Generator, error) {
	switch cfg.LLMProvider {
	case "openai":
		return openai.NewClient(openai.Options{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.OpenAITimeout,
		})
	case "", "none":
		return generation.Placeholder{}, nil
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func buildServices(app *App) {
	var (
		subRepo  submissions.Repo
		userRepo users.Repo
	)
	if app.DB != nil {
		app.KV = wizard.NewSQLKV(app.DB)
		subRepo = &submissions.SQLRepo{DB: app.DB}
		userRepo = &users.SQLRepo{DB: app.DB}
	} else {
		app.KV = wizard.NewMemoryKV()
		subRepo = submissions.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}
	app.Users = users.NewService(userRepo)

	app.Handoff = wizard.NewHandoff(app.KV, app.Config.HandoffTTL)
	app.Registry = wizard.NewRegistry(app.Handoff)
	app.Submissions = &submissions.Service{
		Repo:   subRepo,
		Store:  app.Store,
		Prefix: app.Config.SubmissionsPrefix,
	}
	app.Wizard = &resumebuilder.Service{
		Registry:       app.Registry,
		Handoff:        app.Handoff,
		Store:          app.Store,
		Generator:      app.Generator,
		Submissions:    app.Submissions,
		ExtractTimeout: app.Config.ExtractTimeout,
	}
	app.GoogleAuth = googleauth.NewGoogleService(googleauth.Options{
		ClientID:     app.Config.GoogleClientID,
		ClientSecret: app.Config.GoogleClientSecret,
		RedirectURL:  app.Config.GoogleRedirectURL,
		UIBaseURL:    app.Config.UIBaseURL,
		Profiles:     app.Users,
	}, app.Signer, app.Wizard, resumebuilder.SessionID)
}

// RunMaintenance prunes idle wizard sessions and expired handoff rows until
// ctx is done.
func (a *App) RunMaintenance(ctx context.Context) {
	idle := a.Config.SessionIdleTTL
	if idle <= 0 {
		idle = 2 * time.Hour
	}
	go a.Registry.RunPruner(ctx, pruneInterval, idle)

	sqlKV, ok := a.KV.(*wizard.SQLKV)
	if !ok {
		return
	}
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sqlKV.PurgeOlderThan(ctx, a.Config.HandoffTTL)
			if err != nil {
				telemetry.Warn("handoff.purge_failed", map[string]any{"err": err})
				continue
			}
			if n > 0 {
				telemetry.Info("handoff.purged", map[string]any{"count": n})
			}
		}
	}
}

// Close waits for background extractions and releases the database.
func (a *App) Close(ctx context.Context) error {
	if a.Wizard != nil {
		if err := a.Wizard.Wait(ctx); err != nil {
			telemetry.Warn("bootstrap.extractions_unfinished", map[string]any{"err": err})
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
