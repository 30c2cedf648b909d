package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"solar-backend/internal/analyses"
	"solar-backend/internal/llm"
	"solar-backend/internal/llm/gemini"
	"solar-backend/internal/llm/openai"
	"solar-backend/internal/shared/config"
	"solar-backend/internal/shared/server"
	"solar-backend/internal/shared/storage/db"
	"solar-backend/internal/shared/storage/object"
	localstore "solar-backend/internal/shared/storage/object/local"
	s3store "solar-backend/internal/shared/storage/object/s3"
	"solar-backend/internal/sites"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	LLM             llm.Client
	SitesRepo       sites.SitesRepo
	AnalysesRepo    analyses.Repo
	SitesService    *sites.Service
	AnalysesService *analyses.Service
	SitesHandler    *sites.Handler
	AnalysesHandler *analyses.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
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

	llmClient, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		LLM:    llmClient,
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		SitesHandler:    app.SitesHandler,
		AnalysesHandler: app.AnalysesHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: OPENAI_API_KEY empty; analyses will fail until configured")
				return llm.PlaceholderClient{}, nil
			}
			return nil, fmt.Errorf("OPENAI_API_KEY is required for LLM_PROVIDER=openai")
		}
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	default:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: GEMINI_API_KEY empty; analyses will fail until configured")
				return llm.PlaceholderClient{}, nil
			}
			return nil, fmt.Errorf("GEMINI_API_KEY is required for LLM_PROVIDER=gemini")
		}
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.SitesRepo = &sites.PGRepo{DB: app.DB}
		app.AnalysesRepo = &analyses.PGRepo{DB: app.DB}
	} else {
		app.SitesRepo = sites.NewMemoryRepo()
		app.AnalysesRepo = analyses.NewMemoryRepo()
	}

	app.SitesService = &sites.Service{
		Store: app.Store,
		Repo:  app.SitesRepo,
	}

	app.AnalysesService = &analyses.Service{
		Repo:        app.AnalysesRepo,
		SitesRepo:   app.SitesRepo,
		Store:       app.Store,
		LLM:         app.LLM,
		Provider:    app.Config.LLMProvider,
		Model:       app.Config.LLMModel,
		Bounds:      analyses.BoundsFromEnv(),
		MaxAttempts: app.Config.LLMMaxAttempts,
		RetryDelay:  app.Config.LLMRetryDelay,
	}

	app.SitesHandler = sites.NewHandler(app.SitesService)
	app.AnalysesHandler = analyses.NewHandler(app.AnalysesService, app.SitesRepo)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
