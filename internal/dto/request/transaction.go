package request

type TopUpRequest struct {
	Amount        int64  `json:"amount" validate:"required,min=10000"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=bank_transfer qris"`
}

// WebhookRequest adalah payload push notification dari payment gateway.
// SignatureKey diverifikasi sebelum payload dipercaya.
type WebhookRequest struct {
	OrderID           string `json:"order_id" validate:"required"`
	TransactionStatus string `json:"transaction_status" validate:"required"`
	StatusCode        string `json:"status_code" validate:"required"`
	GrossAmount       string `json:"gross_amount" validate:"required"`
	SignatureKey      string `json:"signature_key" validate:"required"`
	FraudStatus       string `json:"fraud_status,omitempty"`
}
