package ports

import (
	"context"
	"net/http"

	"conecta-core-integrations-layer/internal/domain"
)

// Doer executes an HTTP request. Vendor providers never build their own
// transport; the caller injects one so latency bounds and retries stay
// a collaborator concern.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MessagingProvider is the canonical messaging contract a vendor client
// implements (WhatsApp Business via the Meta Graph API).
type MessagingProvider interface {
	// SendMessage delivers an outbound message and returns the canonical entity.
	SendMessage(ctx context.Context, req domain.OutboundMessage) (*domain.Message, error)

	// FindMessageByID retrieves a message, or nil when not found.
	FindMessageByID(ctx context.Context, id string) (*domain.Message, error)

	// ParseWebhook normalizes a vendor webhook payload.
	ParseWebhook(payload []byte) (domain.WebhookResult, error)

	// CheckConnection probes vendor connectivity.
	CheckConnection(ctx context.Context) (bool, error)

	// Sync runs a best-effort reconciliation pass. It never returns an error.
	Sync(ctx context.Context) domain.SyncReport

	// Configuration describes the provider's credential requirements.
	Configuration() domain.ConfigurationInfo
}

// PaymentsProvider is the canonical payments contract a vendor client
// implements (PIX via a payment processor).
type PaymentsProvider interface {
	CreatePayment(ctx context.Context, req domain.PaymentRequest) (*domain.Payment, error)
	FindPaymentByID(ctx context.Context, id string) (*domain.Payment, error)
	ParseWebhook(payload []byte) (domain.WebhookResult, error)
	CheckConnection(ctx context.Context) (bool, error)
	Sync(ctx context.Context) domain.SyncReport
	Configuration() domain.ConfigurationInfo
}

// CRMProvider is the canonical CRM contract each vendor client implements.
type CRMProvider interface {
	CreateContact(ctx context.Context, req domain.ContactRequest) (*domain.Contact, error)
	FindContactByEmail(ctx context.Context, email string) (*domain.Contact, error)
	CreateDeal(ctx context.Context, req domain.DealRequest) (*domain.Deal, error)
	UpdateDealStatus(ctx context.Context, dealID string, status domain.DealStatus) (*domain.Deal, error)
	CreateActivity(ctx context.Context, req domain.ActivityRequest) (*domain.Activity, error)
	ParseWebhook(payload []byte) (domain.WebhookResult, error)
	TestConnection(ctx context.Context) (bool, error)
	Sync(ctx context.Context) domain.SyncReport
	Configuration() domain.ConfigurationInfo
}

// ERPProvider is the canonical ERP contract each vendor client implements.
type ERPProvider interface {
	CreateCustomer(ctx context.Context, req domain.CustomerRequest) (*domain.Customer, error)
	CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error)
	FindProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	CreateInvoice(ctx context.Context, req domain.InvoiceRequest) (*domain.Invoice, error)
	UpdateStock(ctx context.Context, req domain.StockUpdateRequest) (*domain.StockMovement, error)
	CreateFinancialEntry(ctx context.Context, req domain.FinancialEntryRequest) (*domain.FinancialEntry, error)
	ParseWebhook(payload []byte) (domain.WebhookResult, error)
	TestConnection(ctx context.Context) (bool, error)
	Sync(ctx context.Context) domain.SyncReport
	Configuration() domain.ConfigurationInfo
}
