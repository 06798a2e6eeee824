package wire

import (
	"parking-reservation/internal/adaptor"
	"parking-reservation/internal/data/repository"
	"parking-reservation/pkg/middleware"
	"parking-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireTransaction(
	r chi.Router,
	transactionHandler *adaptor.TransactionHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// POST /api/transactions/webhook - Payment gateway push notification.
	// Diautentikasi lewat signature payload, bukan session.
	r.Post("/api/transactions/webhook", transactionHandler.HandleWebhook)

	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/transactions/topup - Create top-up charge
		r.Post("/api/transactions/topup", transactionHandler.CreateTopUp)

		// GET /api/transactions/{orderID} - Transaction detail
		r.Get("/api/transactions/{orderID}", transactionHandler.GetTransaction)

		// GET /api/transactions/{orderID}/status - Poll gateway and reconcile
		r.Get("/api/transactions/{orderID}/status", transactionHandler.CheckStatus)

		// GET /api/user/transactions - Transaction history
		r.Get("/api/user/transactions", transactionHandler.GetUserTransactions)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/transactions", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.Admin(repo.User, log))

		// POST /api/admin/transactions/{orderID}/simulate - Mark success
		// without gateway, development only
		r.Post("/{orderID}/simulate", transactionHandler.SimulateSuccess)
	})
}
