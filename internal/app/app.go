package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/skinerbold/lifeplan/internal/config"
	"github.com/skinerbold/lifeplan/internal/db"
	"github.com/skinerbold/lifeplan/internal/repository"
	"github.com/skinerbold/lifeplan/internal/service"
	"github.com/skinerbold/lifeplan/internal/storage"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	UserRepository    repository.UserRepository
	AuthService       *service.AuthService
	ProjectService    *service.ProjectService
	GenerationService *service.GenerationService
	ReportService     *service.ReportService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	projectRepository := repository.NewProjectRepository(database)

	// Local snapshot mirror for anonymous sessions
	localStore := storage.NewLocalStore(cfg.LocalStorePath)

	// Services
	authService := service.NewAuthService(
		userRepository,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
	)
	projectService := service.NewProjectService(projectRepository, localStore, cfg.SaveDebounce)

	var textModel service.TextModel
	if cfg.GeminiAPIKey != "" {
		textModel, err = service.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini model: %v", err)
		}
	} else {
		slog.Warn("GEMINI_API_KEY not set, goal generation disabled")
		textModel = service.DisabledModel{}
	}
	generationService := service.NewGenerationService(textModel, service.NewGoalCache(), cfg.GenerationTimeout)

	reportService := service.NewReportService()

	return &App{
		Cfg:               cfg,
		DB:                database,
		UserRepository:    userRepository,
		AuthService:       authService,
		ProjectService:    projectService,
		GenerationService: generationService,
		ReportService:     reportService,
	}, nil
}

func (a *App) Close(ctx context.Context) error {
	if a.ProjectService != nil {
		a.ProjectService.Close(ctx)
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
