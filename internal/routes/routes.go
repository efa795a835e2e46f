package routes

import (
	"net/http"

	"github.com/podloop/podloop/internal/app"
	"github.com/podloop/podloop/internal/handler"
	"github.com/podloop/podloop/internal/middleware"
)

func SetupRoutes(a *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(a.AuthService)
	profile := handler.NewProfileHandler(a.UserService)
	pod := handler.NewPodHandler(a.PodService, a.MessageService, a.RecommendService, a.SearchService, a.LifecycleService, a.Storage)
	message := handler.NewMessageHandler(a.MessageService, a.Storage)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Preview listing: no identity required
	mux.HandleFunc("GET /pods", pod.Preview)

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()
	mux.HandleFunc("POST /auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// ============================================================================
	// PROTECTED ROUTES (/app/*)
	// ============================================================================

	// Listings
	mux.HandleFunc("GET /app/pods", middleware.RequireAuth(pod.List))
	mux.HandleFunc("GET /app/pods/recommended", middleware.RequireAuth(pod.Recommended))
	mux.HandleFunc("GET /app/pods/active", middleware.RequireAuth(pod.Active))
	mux.HandleFunc("GET /app/pods/search", middleware.RequireAuth(pod.Search))
	mux.HandleFunc("GET /app/pods/{id}", middleware.RequireAuth(pod.Detail))

	// Pod actions
	mux.HandleFunc("POST /app/pods", middleware.RequireAuth(pod.Create))
	mux.HandleFunc("POST /app/pods/{id}/join", middleware.RequireAuth(pod.Join))
	mux.HandleFunc("POST /app/pods/{id}/launch", middleware.RequireAuth(pod.Launch))

	// Messages
	mux.HandleFunc("POST /app/pods/{id}/messages", middleware.RequireAuth(message.SendText))
	mux.HandleFunc("POST /app/pods/{id}/voice", middleware.RequireAuth(message.SendVoice))

	// Lifecycle refresh: idempotent, safe to call arbitrarily often
	mux.HandleFunc("POST /app/lifecycle/refresh", middleware.RequireAuth(pod.Refresh))

	// Profile
	mux.HandleFunc("PATCH /app/profile/bio", middleware.RequireAuth(profile.UpdateBio))

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.AuthMiddleware(a.AuthService, a.UserService),
	)
}
