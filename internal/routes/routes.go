package routes

import (
	"net/http"

	"github.com/yaqa/yaqa/internal/app"
	"github.com/yaqa/yaqa/internal/handler"
	"github.com/yaqa/yaqa/internal/metrics"
	"github.com/yaqa/yaqa/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.UserService)
	user := handler.NewUserHandler(app.UserService)
	question := handler.NewQuestionHandler(app.QuestionService)
	image := handler.NewImageHandler(app.ImageService, app.Cfg.ImageMaxSize, app.Cfg.ImageCacheTTL)
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	// ============================================================================
	// AUTH (rate limited)
	// ============================================================================

	mux.HandleFunc("POST /api/auth/register", app.AuthLimiter.Limit(auth.Register))
	mux.HandleFunc("POST /api/auth/login", app.AuthLimiter.Limit(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)

	// ============================================================================
	// PUBLIC READS (viewer optional)
	// ============================================================================

	mux.HandleFunc("GET /api/questions", question.Feed)
	mux.HandleFunc("GET /api/questions/all", question.All)
	mux.HandleFunc("GET /api/questions/{id}", question.Show)
	mux.HandleFunc("GET /api/questions/{id}/summary", question.Summary)
	mux.HandleFunc("GET /api/tags", question.Tags)
	mux.HandleFunc("GET /api/tags/{name}/questions", question.ByTag)
	mux.HandleFunc("GET /images/{id}", image.Serve)

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	// Questions
	mux.HandleFunc("POST /api/questions", middleware.RequireAuth(question.Create))
	mux.HandleFunc("PATCH /api/questions/{id}", middleware.RequireAuth(question.Update))
	mux.HandleFunc("POST /api/questions/{id}/comments", middleware.RequireAuth(question.PostComment))
	mux.HandleFunc("PATCH /api/comments/{id}", middleware.RequireAuth(question.EditComment))

	// Likes
	mux.HandleFunc("POST /api/questions/{id}/like", middleware.RequireAuth(question.ToggleLike))
	mux.HandleFunc("PUT /api/questions/{id}/like", middleware.RequireAuth(question.Like))
	mux.HandleFunc("DELETE /api/questions/{id}/like", middleware.RequireAuth(question.Unlike))

	// Images
	mux.HandleFunc("POST /api/images", middleware.RequireAuth(image.Upload))

	// Current user
	mux.HandleFunc("GET /api/users/me", middleware.RequireAuth(user.Me))
	mux.HandleFunc("PATCH /api/users/me", middleware.RequireAuth(user.UpdateMe))
	mux.HandleFunc("PUT /api/users/me/tags/{name}", middleware.RequireAuth(user.Subscribe))
	mux.HandleFunc("DELETE /api/users/me/tags/{name}", middleware.RequireAuth(user.Unsubscribe))
	mux.HandleFunc("GET /api/users/me/questions", middleware.RequireAuth(question.Authored))
	mux.HandleFunc("GET /api/users/me/commented", middleware.RequireAuth(question.Commented))
	mux.HandleFunc("GET /api/users/me/feed", middleware.RequireAuth(question.Subscribed))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// 404
	mux.HandleFunc("/{path...}", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.SecurityHeaders, // Security headers for all responses
		middleware.RequestLogging,  // Request id and request-scoped logger
		middleware.AuthMiddleware(app.AuthService, app.UserService),
		metrics.InstrumentHandler, // Last, so it sees the pattern the mux matched
	)

	return handler
}
