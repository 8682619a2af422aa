package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Address is a Brazilian postal address.
type Address struct {
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	ZipCode    string `json:"zipCode,omitempty"`
}

// CustomerRequest is the canonical request to create an ERP customer.
// Document must be a valid CPF or CNPJ; adapters reject it before any
// network attempt otherwise.
type CustomerRequest struct {
	Name              string  `json:"name"`
	TradeName         string  `json:"tradeName,omitempty"`
	Document          string  `json:"document"`
	Email             string  `json:"email,omitempty"`
	Phone             string  `json:"phone,omitempty"`
	StateRegistration string  `json:"stateRegistration,omitempty"`
	Address           Address `json:"address,omitempty"`
}

// Customer is the canonical vendor-neutral ERP customer.
type Customer struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	TradeName         string    `json:"tradeName,omitempty"`
	Document          string    `json:"document"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	StateRegistration string    `json:"stateRegistration,omitempty"`
	Address           Address   `json:"address,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ProductRequest is the canonical request to create an ERP product.
// The Brazilian tax fields (NCM, CFOP and the rate columns) are optional
// pass-through attributes; the core never computes them.
type ProductRequest struct {
	SKU         string           `json:"sku"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	Unit        string           `json:"unit,omitempty"`
	NCM         string           `json:"ncm,omitempty"`
	CFOP        string           `json:"cfop,omitempty"`
	ICMSRate    *decimal.Decimal `json:"icmsRate,omitempty"`
	IPIRate     *decimal.Decimal `json:"ipiRate,omitempty"`
	PISRate     *decimal.Decimal `json:"pisRate,omitempty"`
	COFINSRate  *decimal.Decimal `json:"cofinsRate,omitempty"`
}

// Product is the canonical vendor-neutral ERP product.
type Product struct {
	ID          string           `json:"id"`
	SKU         string           `json:"sku"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	Unit        string           `json:"unit,omitempty"`
	Stock       decimal.Decimal  `json:"stock"`
	NCM         string           `json:"ncm,omitempty"`
	CFOP        string           `json:"cfop,omitempty"`
	ICMSRate    *decimal.Decimal `json:"icmsRate,omitempty"`
	IPIRate     *decimal.Decimal `json:"ipiRate,omitempty"`
	PISRate     *decimal.Decimal `json:"pisRate,omitempty"`
	COFINSRate  *decimal.Decimal `json:"cofinsRate,omitempty"`
	Active      bool             `json:"active"`
}

// InvoiceStatus is the canonical invoice lifecycle status.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceIssued    InvoiceStatus = "issued"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	ProductID   string          `json:"productId,omitempty"`
	SKU         string          `json:"sku"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
	NCM         string          `json:"ncm,omitempty"`
	CFOP        string          `json:"cfop,omitempty"`
}

// InvoiceRequest is the canonical request to create an invoice.
type InvoiceRequest struct {
	CustomerID string        `json:"customerId"`
	Items      []InvoiceItem `json:"items"`
	Notes      string        `json:"notes,omitempty"`
}

// Invoice is the canonical vendor-neutral ERP invoice.
type Invoice struct {
	ID         string          `json:"id"`
	Number     string          `json:"number,omitempty"`
	CustomerID string          `json:"customerId"`
	Items      []InvoiceItem   `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Status     InvoiceStatus   `json:"status"`
	IssuedAt   *time.Time      `json:"issuedAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// FinancialEntryType distinguishes receivables from payables.
type FinancialEntryType string

const (
	EntryReceivable FinancialEntryType = "receivable"
	EntryPayable    FinancialEntryType = "payable"
)

// FinancialEntryStatus is the canonical financial entry status.
type FinancialEntryStatus string

const (
	EntryOpen    FinancialEntryStatus = "open"
	EntryPaid    FinancialEntryStatus = "paid"
	EntryOverdue FinancialEntryStatus = "overdue"
)

// FinancialEntryRequest is the canonical request to create a financial
// entry.
type FinancialEntryRequest struct {
	Type        FinancialEntryType `json:"type"`
	Description string             `json:"description"`
	Amount      decimal.Decimal    `json:"amount"`
	DueDate     time.Time          `json:"dueDate"`
	CustomerID  string             `json:"customerId,omitempty"`
	Category    string             `json:"category,omitempty"`
}

// FinancialEntry is the canonical vendor-neutral financial entry.
type FinancialEntry struct {
	ID          string               `json:"id"`
	Type        FinancialEntryType   `json:"type"`
	Description string               `json:"description"`
	Amount      decimal.Decimal      `json:"amount"`
	DueDate     time.Time            `json:"dueDate"`
	PaidAt      *time.Time           `json:"paidAt,omitempty"`
	Status      FinancialEntryStatus `json:"status"`
	CustomerID  string               `json:"customerId,omitempty"`
	Category    string               `json:"category,omitempty"`
}

// StockOperation is the canonical stock adjustment operation each vendor
// mapper translates into its own movement types.
type StockOperation string

const (
	StockAdd      StockOperation = "add"
	StockSubtract StockOperation = "subtract"
	StockSet      StockOperation = "set"
)

// Valid reports whether op is a known stock operation.
func (op StockOperation) Valid() bool {
	switch op {
	case StockAdd, StockSubtract, StockSet:
		return true
	}
	return false
}

// StockUpdateRequest is the canonical request to adjust stock.
type StockUpdateRequest struct {
	SKU       string          `json:"sku"`
	Operation StockOperation  `json:"operation"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason,omitempty"`
}

// StockMovement is the canonical vendor-neutral stock movement.
type StockMovement struct {
	ID         string          `json:"id"`
	SKU        string          `json:"sku"`
	Operation  StockOperation  `json:"operation"`
	Quantity   decimal.Decimal `json:"quantity"`
	Balance    decimal.Decimal `json:"balance"`
	Reason     string          `json:"reason,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}
