package application

import (
	"context"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ERPService is the canonical ERP adapter.
type ERPService struct {
	operationRecorder
	provider ports.ERPProvider
	logger   zerolog.Logger
}

// NewERPService creates an ERP adapter for one integration instance.
func NewERPService(integrationID, platform string, provider ports.ERPProvider, ledger *OperationLedger, logger zerolog.Logger) *ERPService {
	return &ERPService{
		operationRecorder: operationRecorder{
			integrationID: integrationID,
			typ:           domain.IntegrationTypeERP,
			platform:      platform,
			ledger:        ledger,
		},
		provider: provider,
		logger:   logger,
	}
}

// CreateCustomer validates and creates a customer. The document must be a
// valid CPF or CNPJ; the check runs before any network attempt.
func (s *ERPService) CreateCustomer(ctx context.Context, req domain.CustomerRequest) (*domain.Customer, error) {
	if req.Name == "" {
		return nil, domain.NewValidationError("name", "customer name is required")
	}
	if !domain.ValidateDocument(req.Document) {
		return nil, domain.NewValidationError("document", "invalid CPF/CNPJ")
	}

	customer, err := s.provider.CreateCustomer(ctx, req)
	s.recordOutcome("create_customer", err, map[string]interface{}{"name": req.Name})
	if err != nil {
		s.logger.Error().Err(err).Str("name", req.Name).Msg("Failed to create customer")
		return nil, err
	}
	return customer, nil
}

// CreateProduct validates and creates a product.
func (s *ERPService) CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error) {
	if req.SKU == "" {
		return nil, domain.NewValidationError("sku", "product SKU is required")
	}
	if req.Name == "" {
		return nil, domain.NewValidationError("name", "product name is required")
	}
	if req.Price.IsNegative() {
		return nil, domain.NewValidationError("price", "product price cannot be negative")
	}

	product, err := s.provider.CreateProduct(ctx, req)
	s.recordOutcome("create_product", err, map[string]interface{}{"sku": req.SKU})
	if err != nil {
		s.logger.Error().Err(err).Str("sku", req.SKU).Msg("Failed to create product")
		return nil, err
	}
	return product, nil
}

// FindProductBySKU retrieves a product, or nil when not found. Lookups
// are best-effort: vendor failures degrade to nil after logging.
func (s *ERPService) FindProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	product, err := s.provider.FindProductBySKU(ctx, sku)
	if err != nil {
		s.logger.Warn().Err(err).Str("sku", sku).Msg("Product lookup failed, degrading to empty result")
		return nil, nil
	}
	return product, nil
}

// CreateInvoice validates and creates an invoice.
func (s *ERPService) CreateInvoice(ctx context.Context, req domain.InvoiceRequest) (*domain.Invoice, error) {
	if req.CustomerID == "" {
		return nil, domain.NewValidationError("customerId", "customer id is required")
	}
	if len(req.Items) == 0 {
		return nil, domain.NewValidationError("items", "an invoice requires at least one item")
	}
	for _, item := range req.Items {
		if item.SKU == "" {
			return nil, domain.NewValidationError("items", "every invoice item requires a SKU")
		}
		if !item.Quantity.IsPositive() {
			return nil, domain.NewValidationError("items", "every invoice item requires a positive quantity")
		}
	}

	invoice, err := s.provider.CreateInvoice(ctx, req)
	s.recordOutcome("create_invoice", err, map[string]interface{}{"customerId": req.CustomerID, "items": len(req.Items)})
	if err != nil {
		s.logger.Error().Err(err).Str("customerId", req.CustomerID).Msg("Failed to create invoice")
		return nil, err
	}
	return invoice, nil
}

// UpdateStock maps the canonical stock operation onto the vendor's
// movement types and returns the resulting canonical movement.
func (s *ERPService) UpdateStock(ctx context.Context, req domain.StockUpdateRequest) (*domain.StockMovement, error) {
	if req.SKU == "" {
		return nil, domain.NewValidationError("sku", "product SKU is required")
	}
	if !req.Operation.Valid() {
		return nil, domain.NewValidationError("operation", "unknown stock operation: "+string(req.Operation))
	}
	if req.Quantity.IsNegative() {
		return nil, domain.NewValidationError("quantity", "quantity cannot be negative")
	}

	movement, err := s.provider.UpdateStock(ctx, req)
	s.recordOutcome("update_stock", err, map[string]interface{}{"sku": req.SKU, "operation": string(req.Operation)})
	if err != nil {
		s.logger.Error().Err(err).Str("sku", req.SKU).Msg("Failed to update stock")
		return nil, err
	}
	return movement, nil
}

// CreateFinancialEntry validates and creates a financial entry.
func (s *ERPService) CreateFinancialEntry(ctx context.Context, req domain.FinancialEntryRequest) (*domain.FinancialEntry, error) {
	if req.Type != domain.EntryReceivable && req.Type != domain.EntryPayable {
		return nil, domain.NewValidationError("type", "entry type must be receivable or payable")
	}
	if req.Description == "" {
		return nil, domain.NewValidationError("description", "description is required")
	}
	if !req.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "amount must be greater than zero")
	}

	entry, err := s.provider.CreateFinancialEntry(ctx, req)
	s.recordOutcome("create_financial_entry", err, map[string]interface{}{"entryType": string(req.Type)})
	if err != nil {
		s.logger.Error().Err(err).Str("entryType", string(req.Type)).Msg("Failed to create financial entry")
		return nil, err
	}
	return entry, nil
}

// ProcessWebhook normalizes an ERP webhook payload.
func (s *ERPService) ProcessWebhook(ctx context.Context, payload []byte) (domain.WebhookResult, error) {
	result, err := s.provider.ParseWebhook(payload)
	s.recordOutcome("process_webhook", err, map[string]interface{}{"action": result.Action})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to process ERP webhook")
		return domain.WebhookResult{}, err
	}
	return result, nil
}

// TestConnection probes vendor connectivity.
func (s *ERPService) TestConnection(ctx context.Context) (bool, error) {
	return s.provider.TestConnection(ctx)
}

// Sync runs a best-effort reconciliation pass. It never returns an error.
func (s *ERPService) Sync(ctx context.Context) domain.SyncReport {
	report := s.provider.Sync(ctx)
	status := domain.OperationSuccess
	if !report.Success {
		status = domain.OperationError
	}
	s.record("sync", status, map[string]interface{}{"synchronized": report.Synchronized, "errors": report.Errors}, "")
	return report
}

// Configuration describes the provider's credential requirements.
func (s *ERPService) Configuration() domain.ConfigurationInfo {
	return s.provider.Configuration()
}
