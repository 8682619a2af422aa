package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Platform is the platform identifier for the PIX payment processor.
const Platform = "mercadopago"

const defaultBaseURL = "https://api.mercadopago.com"

// Config holds the processor credentials for one account.
type Config struct {
	AccessToken string
	BaseURL     string
}

// Client implements ports.PaymentsProvider against the Mercado Pago API.
type Client struct {
	cfg    Config
	doer   ports.Doer
	logger zerolog.Logger
}

// NewClient creates a PIX payments provider. A missing access token
// fails fast with ConfigurationError.
func NewClient(cfg Config, doer ports.Doer, logger zerolog.Logger) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, &domain.ConfigurationError{Platform: Platform, Missing: []string{"accessToken"}}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{cfg: cfg, doer: doer, logger: logger}, nil
}

// CreatePayment creates a PIX charge. The request is sent with a fresh
// idempotency key so processor-side retries never double-charge.
func (c *Client) CreatePayment(ctx context.Context, req domain.PaymentRequest) (*domain.Payment, error) {
	payload := createPaymentRequest{
		TransactionAmount: req.Amount.InexactFloat64(),
		Description:       req.Description,
		PaymentMethodID:   "pix",
		ExternalReference: req.ExternalReference,
		Payer: paymentPayer{
			Email:     req.PayerEmail,
			FirstName: req.PayerName,
		},
	}
	if req.PayerDocument != "" {
		// Dispatch on the bare digits so a formatted CPF is not
		// mistaken for a CNPJ by its punctuated length.
		number := domain.NormalizeDocument(req.PayerDocument)
		docType := "CPF"
		if len(number) == 14 {
			docType = "CNPJ"
		}
		payload.Payer.Identification = &payerIdentification{Type: docType, Number: number}
	}

	headers := map[string]string{"X-Idempotency-Key": uuid.NewString()}
	var resp paymentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/payments", headers, payload, &resp); err != nil {
		return nil, err
	}
	return c.toPayment(resp), nil
}

// FindPaymentByID retrieves a payment by its processor id, or nil when
// the processor reports it unknown.
func (c *Client) FindPaymentByID(ctx context.Context, id string) (*domain.Payment, error) {
	var resp paymentResponse
	err := c.doJSON(ctx, http.MethodGet, "/v1/payments/"+id, nil, nil, &resp)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return c.toPayment(resp), nil
}

// ParseWebhook normalizes a processor notification. Only payment events
// are acted on; everything else is reported as not processed.
func (c *Client) ParseWebhook(payload []byte) (domain.WebhookResult, error) {
	var notification webhookNotification
	if err := json.Unmarshal(payload, &notification); err != nil {
		return domain.WebhookResult{}, domain.NewUpstreamError(Platform, "process_webhook", "malformed webhook payload", err)
	}

	if notification.Type != "payment" || notification.Data.ID == "" {
		return domain.WebhookResult{Processed: false, Action: "ignored", EntityType: "payment"}, nil
	}

	action := notification.Action
	if action == "" {
		action = "payment.updated"
	}
	return domain.WebhookResult{
		Processed:  true,
		Action:     action,
		EntityType: "payment",
		EntityID:   notification.Data.ID,
	}, nil
}

// CheckConnection probes the account the access token belongs to.
func (c *Client) CheckConnection(ctx context.Context) (bool, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.ID != 0, nil
}

// Sync reconciles recent payments through the search endpoint. Best
// effort: failures are folded into the report, never returned.
func (c *Client) Sync(ctx context.Context) domain.SyncReport {
	var resp paymentSearchResponse
	path := "/v1/payments/search?sort=date_created&criteria=desc&limit=50"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		c.logger.Warn().Err(err).Msg("Payment sync failed")
		return domain.SyncReport{Success: false, Errors: 1, Details: []string{err.Error()}}
	}
	return domain.SyncReport{Success: true, Synchronized: len(resp.Results)}
}

// Configuration describes the credential contract of this provider.
func (c *Client) Configuration() domain.ConfigurationInfo {
	return domain.ConfigurationInfo{
		IsConfigured:   true,
		RequiredFields: []string{"accessToken"},
	}
}

func (c *Client) toPayment(resp paymentResponse) *domain.Payment {
	payment := &domain.Payment{
		ID:                strconv.FormatInt(resp.ID, 10),
		ExternalReference: resp.ExternalReference,
		Amount:            decimal.NewFromFloat(resp.TransactionAmount),
		Currency:          resp.CurrencyID,
		Method:            "pix",
		Status:            mapPaymentStatus(resp.Status),
		QRCode:            resp.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64:      resp.PointOfInteraction.TransactionData.QRCodeBase64,
		PayerEmail:        resp.Payer.Email,
		PayerDocument:     resp.Payer.Identification.Number,
	}
	if resp.CurrencyID == "" {
		payment.Currency = "BRL"
	}
	if ts, err := time.Parse(time.RFC3339, resp.DateCreated); err == nil {
		payment.CreatedAt = ts
	}
	if resp.DateApproved != "" {
		if ts, err := time.Parse(time.RFC3339, resp.DateApproved); err == nil {
			payment.ApprovedAt = &ts
		}
	}
	return payment
}

func (c *Client) doJSON(ctx context.Context, method, path string, headers map[string]string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return domain.NewUpstreamError(Platform, method+" "+path, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewUpstreamError(Platform, method+" "+path, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiErrorResponse
		message := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			message = apiErr.Message
		}
		return &statusError{
			UpstreamError: domain.UpstreamError{Platform: Platform, Operation: method + " " + path, Message: message},
			statusCode:    resp.StatusCode,
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return domain.NewUpstreamError(Platform, method+" "+path, "malformed response body", err)
		}
	}
	return nil
}

// statusError carries the HTTP status so lookups can distinguish 404.
type statusError struct {
	domain.UpstreamError
	statusCode int
}

func (e *statusError) Unwrap() error {
	return &e.UpstreamError
}

func isNotFound(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.statusCode == http.StatusNotFound
	}
	return false
}

func mapPaymentStatus(status string) domain.PaymentStatus {
	switch status {
	case "approved":
		return domain.PaymentApproved
	case "rejected":
		return domain.PaymentRejected
	case "cancelled":
		return domain.PaymentCancelled
	case "refunded", "charged_back":
		return domain.PaymentRefunded
	default:
		return domain.PaymentPending
	}
}
