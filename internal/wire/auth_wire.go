package wire

import (
	"parking-reservation/internal/adaptor"
	"parking-reservation/internal/data/repository"
	"parking-reservation/pkg/middleware"
	"parking-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// POST /api/auth/register - Register new customer account
	r.Post("/api/auth/register", authHandler.Register)

	// POST /api/auth/login - Login, returns session token
	r.Post("/api/auth/login", authHandler.Login)

	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/auth/logout - Revoke current session
		r.Post("/api/auth/logout", authHandler.Logout)
	})
}
