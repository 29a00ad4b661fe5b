package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"chatrelay/internal/handlers"
	"chatrelay/internal/inflight"
	"chatrelay/internal/middleware"
	"chatrelay/internal/websocket"
)

func New(
	logger zerolog.Logger,
	chatHandler *handlers.ChatHandler,
	wsHub *websocket.Hub,
	guard inflight.Guard,
	frontendURL string,
	static fs.FS,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.WithLogger(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{frontendURL},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.SessionHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "X-Relay-Contract"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", chatHandler.Health)
	r.Get("/test", chatHandler.Health)

	// Relay endpoint
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionGuard(guard))
		r.Post("/chat", chatHandler.Chat)
		r.Post("/api/v1/chat", chatHandler.Chat)
	})

	// WebSocket
	r.Get("/chat/ws", wsHub.HandleWebSocket)

	// Chat UI
	r.Handle("/*", http.FileServer(http.FS(static)))

	return r
}
