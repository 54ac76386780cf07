package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/phrazzld/flashlearn-api/internal/api"
	apiMiddleware "github.com/phrazzld/flashlearn-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler)

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordHasher,
		app.passwordVerifier,
	)
	categoryHandler := api.NewCategoryHandler(app.cardService, app.generator)
	cardHandler := api.NewCardHandler(app.cardService)
	sessionHandler := api.NewSessionHandler(app.learningService)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Category endpoints
			r.Post("/categories", categoryHandler.Create)
			r.Get("/categories", categoryHandler.List)
			r.Get("/categories/{id}", categoryHandler.Get)
			r.Put("/categories/{id}", categoryHandler.Update)
			r.Delete("/categories/{id}", categoryHandler.Delete)
			r.Get("/categories/{id}/cards", categoryHandler.ListCards)
			r.Post("/categories/{id}/generate", categoryHandler.GenerateCards)

			// Card endpoints
			r.Post("/cards", cardHandler.Create)
			r.Put("/cards/{id}", cardHandler.Update)
			r.Delete("/cards/{id}", cardHandler.Delete)

			// Learning session endpoints
			r.Post("/sessions", sessionHandler.Create)
			r.Get("/sessions/{id}/next", sessionHandler.Next)
			r.Post("/sessions/{id}/answers", sessionHandler.RecordAnswer)
			r.Get("/sessions/{id}/summary", sessionHandler.Summary)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
