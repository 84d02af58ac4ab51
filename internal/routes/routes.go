package routes

import (
	"net/http"

	"github.com/skinerbold/lifeplan/internal/app"
	"github.com/skinerbold/lifeplan/internal/handler"
	"github.com/skinerbold/lifeplan/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.ProjectService, app.Cfg)
	project := handler.NewProjectHandler(app.ProjectService, app.GenerationService, app.ReportService)

	mux := http.NewServeMux()

	// ============================================================================
	// AUTH (rate limited)
	// ============================================================================

	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("GET /auth/google", rateLimiter(auth.GoogleAuth))
	mux.HandleFunc("GET /auth/google/callback", rateLimiter(auth.GoogleCallback))
	mux.HandleFunc("POST /auth/logout", auth.Logout)
	mux.HandleFunc("GET /api/me", auth.Me)

	// ============================================================================
	// PERSISTENCE (identity required)
	// ============================================================================

	mux.HandleFunc("GET /api/projects", middleware.RequireAuth(project.Project))
	mux.HandleFunc("POST /api/projects", middleware.RequireAuth(project.SaveProject))

	// ============================================================================
	// WIZARD STATE (anonymous falls back to the local mirror)
	// ============================================================================

	mux.HandleFunc("GET /api/state", project.State)
	mux.HandleFunc("PATCH /api/state/name", project.SetName)
	mux.HandleFunc("PATCH /api/state/vision", project.SetVision)
	mux.HandleFunc("POST /api/state/next", project.Next)
	mux.HandleFunc("POST /api/state/prev", project.Prev)
	mux.HandleFunc("POST /api/state/generate", project.Generate)
	mux.HandleFunc("POST /api/state/reset", project.Reset)
	mux.HandleFunc("GET /api/state/export", project.Export)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg),
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.AuthService, app.UserRepository),
	)

	return handler
}
