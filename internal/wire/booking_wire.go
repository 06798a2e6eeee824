package wire

import (
	"parking-reservation/internal/adaptor"
	"parking-reservation/internal/data/repository"
	"parking-reservation/pkg/middleware"
	"parking-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/bookings - Create pending booking (price quote)
		r.Post("/api/bookings", bookingHandler.CreateBooking)

		// POST /api/bookings/{id}/confirm - Pay from saldo, claim slot
		r.Post("/api/bookings/{id}/confirm", bookingHandler.ConfirmBooking)

		// POST /api/bookings/{id}/entry-token - Issue entry access token
		r.Post("/api/bookings/{id}/entry-token", bookingHandler.GenerateEntryToken)

		// POST /api/bookings/{id}/cancel - Cancel own pending booking
		r.Post("/api/bookings/{id}/cancel", bookingHandler.CancelBooking)

		// POST /api/scan/entry - Gate entry scan, activates booking
		r.Post("/api/scan/entry", bookingHandler.ScanEntry)

		// POST /api/scan/exit - Gate exit scan, completes booking
		r.Post("/api/scan/exit", bookingHandler.ScanExit)

		// GET /api/user/bookings - View booking history
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		// Require both authentication AND admin role
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.Admin(repo.User, log))

		// GET /api/admin/bookings/{id} - View any booking details
		r.Get("/{id}", bookingHandler.GetBookingByID)

		// PUT /api/admin/bookings/{id}/cancel - Cancel any booking
		r.Put("/{id}/cancel", bookingHandler.CancelBookingAdmin)
	})
}
