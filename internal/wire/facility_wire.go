package wire

import (
	"parking-reservation/internal/adaptor"
	"parking-reservation/internal/data/repository"
	"parking-reservation/pkg/middleware"
	"parking-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireFacility(
	r chi.Router,
	facilityHandler *adaptor.FacilityHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/facilities - List facilities with slot availability
	r.Get("/api/facilities", facilityHandler.ListFacilities)

	// GET /api/facilities/{id} - Facility detail with slots
	r.Get("/api/facilities/{id}", facilityHandler.GetFacility)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/facilities", func(r chi.Router) {
		// Require both authentication AND admin role
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.Admin(repo.User, log))

		// POST /api/admin/facilities - Register new facility
		r.Post("/", facilityHandler.CreateFacility)

		// POST /api/admin/facilities/{id}/reconcile - Recompute slot counters
		r.Post("/{id}/reconcile", facilityHandler.ReconcileAvailability)
	})
}
