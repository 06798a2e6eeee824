package wire

import (
	"parking-reservation/internal/adaptor"
	"parking-reservation/internal/data/repository"
	"parking-reservation/pkg/middleware"
	"parking-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// GET /api/user/profile - Current user profile
		r.Get("/api/user/profile", userHandler.GetProfile)

		// GET /api/user/balance - Current saldo balance
		r.Get("/api/user/balance", userHandler.GetBalance)
	})
}
