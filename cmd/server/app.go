package main

import (
	"context"
	"database/sql"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/flashlearn-api/internal/config"
	"github.com/phrazzld/flashlearn-api/internal/generation"
	"github.com/phrazzld/flashlearn-api/internal/platform/gemini"
	"github.com/phrazzld/flashlearn-api/internal/platform/postgres"
	"github.com/phrazzld/flashlearn-api/internal/service"
	"github.com/phrazzld/flashlearn-api/internal/service/auth"
	"github.com/phrazzld/flashlearn-api/internal/service/learning"
	"github.com/phrazzld/flashlearn-api/internal/store"
)

// application holds the shared application dependencies to simplify wiring
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore      store.UserStore
	categoryStore  store.CategoryStore
	flashcardStore store.FlashcardStore
	sessionStore   store.SessionStore
	attemptStore   store.AttemptStore

	// Services
	jwtService       auth.JWTService
	passwordHasher   auth.PasswordHasher
	passwordVerifier auth.PasswordVerifier
	cardService      service.CardService
	learningService  learning.LearningService

	// generator is nil when no Gemini API key is configured; the generate
	// endpoint responds 501 in that case.
	generator generation.Generator
}

// newApplication creates an application instance with all dependencies
// initialized: database connection, stores, and services.
func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	log := slog.Default()

	db, err := setupDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	app := &application{
		config: cfg,
		logger: log,
		db:     db,

		userStore:      postgres.NewPostgresUserStore(db, log),
		categoryStore:  postgres.NewPostgresCategoryStore(db, log),
		flashcardStore: postgres.NewPostgresFlashcardStore(db, log),
		sessionStore:   postgres.NewPostgresSessionStore(db, log),
		attemptStore:   postgres.NewPostgresAttemptStore(db, log),
	}

	runTx := func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, db, fn)
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, err
	}
	app.passwordHasher = auth.NewBcryptHasher(bcrypt.DefaultCost)
	app.passwordVerifier = auth.NewBcryptVerifier()

	app.cardService = service.NewCardService(app.categoryStore, app.flashcardStore, runTx, log)

	app.learningService = learning.NewLearningService(learning.Deps{
		CategoryStore:  app.categoryStore,
		FlashcardStore: app.flashcardStore,
		SessionStore:   app.sessionStore,
		AttemptStore:   app.attemptStore,
		RunTx:          runTx,
		RNG:            rand.New(rand.NewSource(time.Now().UnixNano())),
		Logger:         log,
	})

	if cfg.Generation.GeminiAPIKey != "" {
		generator, err := gemini.NewGenerator(ctx, log, cfg.Generation)
		if err != nil {
			return nil, err
		}
		app.generator = generator
	} else {
		log.Info("card generation disabled: no Gemini API key configured")
	}

	return app, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", "error", err)
	}
}
