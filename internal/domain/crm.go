package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContactRequest is the canonical request to create a CRM contact.
// Name and Email are required by every adapter before any network attempt.
type ContactRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone,omitempty"`
	Company  string   `json:"company,omitempty"`
	Document string   `json:"document,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Contact is the canonical vendor-neutral CRM contact.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Document  string    `json:"document,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DealStatus is the canonical deal status enum each vendor mapper
// translates into its own stage/status fields.
type DealStatus string

const (
	DealOpen DealStatus = "open"
	DealWon  DealStatus = "won"
	DealLost DealStatus = "lost"
)

// Valid reports whether s is a known deal status.
func (s DealStatus) Valid() bool {
	switch s {
	case DealOpen, DealWon, DealLost:
		return true
	}
	return false
}

// DealRequest is the canonical request to create a deal.
type DealRequest struct {
	Title     string          `json:"title"`
	ContactID string          `json:"contactId"`
	Value     decimal.Decimal `json:"value"`
	Stage     string          `json:"stage,omitempty"`
}

// Deal is the canonical vendor-neutral CRM deal.
type Deal struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	ContactID string          `json:"contactId,omitempty"`
	Value     decimal.Decimal `json:"value"`
	Stage     string          `json:"stage,omitempty"`
	Status    DealStatus      `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	ClosedAt  *time.Time      `json:"closedAt,omitempty"`
}

// ActivityRequest is the canonical request to log a CRM activity.
type ActivityRequest struct {
	ContactID string     `json:"contactId,omitempty"`
	DealID    string     `json:"dealId,omitempty"`
	Type      string     `json:"type"`
	Subject   string     `json:"subject"`
	Notes     string     `json:"notes,omitempty"`
	DueAt     *time.Time `json:"dueAt,omitempty"`
}

// Activity is the canonical vendor-neutral CRM activity.
type Activity struct {
	ID        string     `json:"id"`
	ContactID string     `json:"contactId,omitempty"`
	DealID    string     `json:"dealId,omitempty"`
	Type      string     `json:"type"`
	Subject   string     `json:"subject"`
	Notes     string     `json:"notes,omitempty"`
	DueAt     *time.Time `json:"dueAt,omitempty"`
	Done      bool       `json:"done"`
	CreatedAt time.Time  `json:"createdAt"`
}
