package apperrors

import "errors"

// Sentinel errors untuk seluruh domain. Handler memetakan error ini
// ke HTTP status code dengan errors.Is.
var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("authentication required")
	ErrForbidden            = errors.New("operation is forbidden for user")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientCapacity = errors.New("insufficient slot capacity")
	ErrInvalidState         = errors.New("operation not allowed in current state")
	ErrInvalidToken         = errors.New("invalid token")
	ErrExpiredToken         = errors.New("token expired")
	ErrWrongTokenType       = errors.New("wrong token type")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrConflict             = errors.New("concurrent update conflict")
)

// IsDomain melaporkan apakah err adalah salah satu sentinel di atas.
// Dipakai untuk memutuskan apakah operasi atomic boleh di-retry.
func IsDomain(err error) bool {
	for _, sentinel := range []error{
		ErrValidation,
		ErrNotFound,
		ErrUnauthorized,
		ErrForbidden,
		ErrInsufficientBalance,
		ErrInsufficientCapacity,
		ErrInvalidState,
		ErrInvalidToken,
		ErrExpiredToken,
		ErrWrongTokenType,
		ErrGatewayUnavailable,
		ErrConflict,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
