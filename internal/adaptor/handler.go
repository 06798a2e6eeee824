package adaptor

import (
	"errors"
	"net/http"

	"parking-reservation/internal/usecase"
	"parking-reservation/pkg/apperrors"
	"parking-reservation/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth        *AuthHandler
	User        *UserHandler
	Facility    *FacilityHandler
	Booking     *BookingHandler
	Transaction *TransactionHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(service.Auth, log),
		User:        NewUserHandler(service.User, log),
		Facility:    NewFacilityHandler(service.Facility, log),
		Booking:     NewBookingHandler(service.Booking, log),
		Transaction: NewTransactionHandler(service.Transaction, log),
	}
}

// respondError memetakan error domain ke status HTTP. Error yang tidak
// dikenal dianggap internal dan tidak membocorkan detail ke client.
func respondError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		utils.ResponseBadRequest(w, err.Error(), nil)
	case errors.Is(err, apperrors.ErrNotFound):
		utils.ResponseNotFound(w, err.Error())
	case errors.Is(err, apperrors.ErrUnauthorized):
		utils.ResponseUnauthorized(w, err.Error())
	case errors.Is(err, apperrors.ErrForbidden):
		utils.ResponseForbidden(w, err.Error())
	case errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrExpiredToken),
		errors.Is(err, apperrors.ErrWrongTokenType):
		utils.ResponseUnauthorized(w, err.Error())
	case errors.Is(err, apperrors.ErrInsufficientBalance),
		errors.Is(err, apperrors.ErrInsufficientCapacity),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrConflict):
		utils.ResponseUnprocessable(w, err.Error())
	case errors.Is(err, apperrors.ErrGatewayUnavailable):
		utils.ResponseBadGateway(w, err.Error())
	default:
		log.Error("Unhandled error", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
