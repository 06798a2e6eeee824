package gateway

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"parking-reservation/internal/data/entity"
	"parking-reservation/pkg/apperrors"
	"parking-reservation/pkg/utils"

	"go.uber.org/zap"
)

// Status gateway yang dikenal. Mapping ke status ledger internal ada di
// MapStatus.
const (
	StatusCapture    = "capture"
	StatusSettlement = "settlement"
	StatusPending    = "pending"
	StatusDeny       = "deny"
	StatusCancel     = "cancel"
	StatusExpire     = "expire"
)

type ChargeRequest struct {
	OrderID       string
	Amount        int64
	Method        entity.PaymentMethod
	CustomerName  string
	CustomerEmail string
}

type ChargeResult struct {
	OrderID           string
	TransactionStatus string
	VANumber          *string
	Bank              *string
	RedirectURL       *string
	QRString          *string
}

// Client adalah HTTP adapter ke payment gateway eksternal. Semua call
// dibatasi timeout; kegagalan transport dipetakan ke
// apperrors.ErrGatewayUnavailable supaya reconciliation tetap pending.
type Client struct {
	baseURL    string
	serverKey  string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg utils.GatewayConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		serverKey: cfg.ServerKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log.With(zap.String("adapter", "gateway")),
	}
}

type chargeRequestBody struct {
	PaymentType        string             `json:"payment_type"`
	TransactionDetails transactionDetails `json:"transaction_details"`
	CustomerDetails    customerDetails    `json:"customer_details"`
}

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type customerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
}

type chargeResponseBody struct {
	OrderID           string     `json:"order_id"`
	TransactionStatus string     `json:"transaction_status"`
	StatusMessage     string     `json:"status_message"`
	VANumbers         []vaNumber `json:"va_numbers,omitempty"`
	RedirectURL       *string    `json:"redirect_url,omitempty"`
	QRString          *string    `json:"qr_string,omitempty"`
}

type vaNumber struct {
	Bank     string `json:"bank"`
	VANumber string `json:"va_number"`
}

type statusResponseBody struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
}

func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	body := chargeRequestBody{
		PaymentType: string(req.Method),
		TransactionDetails: transactionDetails{
			OrderID:     req.OrderID,
			GrossAmount: req.Amount,
		},
		CustomerDetails: customerDetails{
			FirstName: req.CustomerName,
			Email:     req.CustomerEmail,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/charge", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.serverKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Error("Charge request failed",
			zap.Error(err),
			zap.String("order_id", req.OrderID),
		)
		return nil, fmt.Errorf("charge %s: %w", req.OrderID, apperrors.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("charge %s: gateway returned %d: %w", req.OrderID, resp.StatusCode, apperrors.ErrGatewayUnavailable)
	}

	var result chargeResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode charge response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("charge %s rejected: %s", req.OrderID, result.StatusMessage)
	}

	charge := &ChargeResult{
		OrderID:           result.OrderID,
		TransactionStatus: result.TransactionStatus,
		RedirectURL:       result.RedirectURL,
		QRString:          result.QRString,
	}
	if len(result.VANumbers) > 0 {
		charge.VANumber = &result.VANumbers[0].VANumber
		charge.Bank = &result.VANumbers[0].Bank
	}

	c.log.Info("Charge created",
		zap.String("order_id", req.OrderID),
		zap.Int64("amount", req.Amount),
		zap.String("status", result.TransactionStatus),
	)

	return charge, nil
}

func (c *Client) QueryStatus(ctx context.Context, orderID string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/"+orderID+"/status", nil)
	if err != nil {
		return "", fmt.Errorf("build status request: %w", err)
	}
	httpReq.SetBasicAuth(c.serverKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Error("Status query failed",
			zap.Error(err),
			zap.String("order_id", orderID),
		)
		return "", fmt.Errorf("query status %s: %w", orderID, apperrors.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("order %s: %w", orderID, apperrors.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("query status %s: gateway returned %d: %w", orderID, resp.StatusCode, apperrors.ErrGatewayUnavailable)
	}

	var result statusResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}

	return result.TransactionStatus, nil
}

// VerifySignature mengecek shared-secret signature dari push notification:
// sha512(orderID + statusCode + grossAmount + serverKey).
func (c *Client) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	hash := sha512.Sum512([]byte(orderID + statusCode + grossAmount + c.serverKey))
	return hex.EncodeToString(hash[:]) == signature
}

// MapStatus memetakan status gateway ke status ledger. Status yang tidak
// dikenal dibiarkan pending, tidak pernah jadi success diam-diam.
func MapStatus(gatewayStatus string) entity.TransactionStatus {
	switch gatewayStatus {
	case StatusCapture, StatusSettlement:
		return entity.TransactionStatusSuccess
	case StatusDeny, StatusCancel, StatusExpire:
		return entity.TransactionStatusFailed
	default:
		return entity.TransactionStatusPending
	}
}
