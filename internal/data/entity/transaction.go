package entity

import (
	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeTopUp           TransactionType = "topup"
	TransactionTypePayment         TransactionType = "payment"
	TransactionTypeSaldoDebit      TransactionType = "saldo_debit"
	TransactionTypeSaldoCredit     TransactionType = "saldo_credit"
	TransactionTypeCancellation    TransactionType = "cancellation"
	TransactionTypeOvertimePayment TransactionType = "overtime_payment"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// Terminal melaporkan apakah status tidak bisa berubah lagi.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed
}

type PaymentMethod string

const (
	PaymentMethodSaldo        PaymentMethod = "saldo"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodQRIS         PaymentMethod = "qris"
)

// Transaction adalah satu entry ledger. OrderID adalah correlation id
// yang dishare dengan payment gateway; status hanya bergerak maju
// (pending -> success | failed).
type Transaction struct {
	Base
	OrderID       string            `db:"order_id"`
	UserID        uuid.UUID         `db:"user_id"`
	BookingID     *uuid.UUID        `db:"booking_id"`
	Type          TransactionType   `db:"type"`
	Amount        int64             `db:"amount"`
	PaymentMethod PaymentMethod     `db:"payment_method"`
	Status        TransactionStatus `db:"status"`
	VANumber      *string           `db:"va_number"`
	Bank          *string           `db:"bank"`
	RedirectURL   *string           `db:"redirect_url"`
	QRString      *string           `db:"qr_string"`
	Description   string            `db:"description"`
}
