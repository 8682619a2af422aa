package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the canonical payment lifecycle status.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentApproved  PaymentStatus = "approved"
	PaymentRejected  PaymentStatus = "rejected"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentRequest is the canonical request to create a PIX charge.
// Amount is a decimal value in BRL.
type PaymentRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	ExternalReference string          `json:"externalReference"`
	PayerEmail        string          `json:"payerEmail"`
	PayerName         string          `json:"payerName,omitempty"`
	PayerDocument     string          `json:"payerDocument,omitempty"`
}

// Payment is the canonical vendor-neutral payment entity.
type Payment struct {
	ID                string          `json:"id"`
	ExternalReference string          `json:"externalReference,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Method            string          `json:"method"`
	Status            PaymentStatus   `json:"status"`
	QRCode            string          `json:"qrCode,omitempty"`
	QRCodeBase64      string          `json:"qrCodeBase64,omitempty"`
	PayerEmail        string          `json:"payerEmail,omitempty"`
	PayerDocument     string          `json:"payerDocument,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	ApprovedAt        *time.Time      `json:"approvedAt,omitempty"`
}
