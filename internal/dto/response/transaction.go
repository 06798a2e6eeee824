package response

import (
	"time"

	"parking-reservation/internal/data/entity"
)

type TransactionResponse struct {
	ID            string                   `json:"id"`
	OrderID       string                   `json:"order_id"`
	UserID        string                   `json:"user_id"`
	BookingID     *string                  `json:"booking_id,omitempty"`
	Type          entity.TransactionType   `json:"type"`
	Amount        int64                    `json:"amount"`
	PaymentMethod entity.PaymentMethod     `json:"payment_method"`
	Status        entity.TransactionStatus `json:"status"`
	VANumber      *string                  `json:"va_number,omitempty"`
	Bank          *string                  `json:"bank,omitempty"`
	RedirectURL   *string                  `json:"redirect_url,omitempty"`
	QRString      *string                  `json:"qr_string,omitempty"`
	Description   string                   `json:"description,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

func TransactionToResponse(transaction *entity.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:            transaction.ID.String(),
		OrderID:       transaction.OrderID,
		UserID:        transaction.UserID.String(),
		Type:          transaction.Type,
		Amount:        transaction.Amount,
		PaymentMethod: transaction.PaymentMethod,
		Status:        transaction.Status,
		VANumber:      transaction.VANumber,
		Bank:          transaction.Bank,
		RedirectURL:   transaction.RedirectURL,
		QRString:      transaction.QRString,
		Description:   transaction.Description,
		CreatedAt:     transaction.CreatedAt,
	}
	if transaction.BookingID != nil {
		bookingID := transaction.BookingID.String()
		resp.BookingID = &bookingID
	}
	return resp
}
