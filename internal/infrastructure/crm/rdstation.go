package crm

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PlatformRDStation is the platform identifier for RD Station CRM.
const PlatformRDStation = "rdstation"

const rdstationBaseURL = "https://crm.rdstation.com/api/v1"

type rdContactPayload struct {
	Name   string           `json:"name"`
	Emails []rdContactEmail `json:"emails,omitempty"`
	Phones []rdContactPhone `json:"phones,omitempty"`
	Title  string           `json:"title,omitempty"`
}

type rdContactEmail struct {
	Email string `json:"email"`
}

type rdContactPhone struct {
	Phone string `json:"phone"`
}

type rdContactResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Emails    []rdContactEmail `json:"emails"`
	Phones    []rdContactPhone `json:"phones"`
	CreatedAt string           `json:"created_at"`
}

type rdContactListResponse struct {
	Total    int                 `json:"total"`
	Contacts []rdContactResponse `json:"contacts"`
}

type rdDealPayload struct {
	Deal struct {
		Name        string  `json:"name"`
		AmountTotal float64 `json:"amount_total,omitempty"`
	} `json:"deal"`
	ContactIDs []string `json:"contact_ids,omitempty"`
}

type rdDealResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	AmountTotal float64 `json:"amount_total"`
	Win         *bool   `json:"win"`
	CreatedAt   string  `json:"created_at"`
}

type rdDealListResponse struct {
	Total int              `json:"total"`
	Deals []rdDealResponse `json:"deals"`
}

type rdActivityPayload struct {
	Activity struct {
		Subject string `json:"subject"`
		Type    string `json:"type,omitempty"`
		Text    string `json:"text,omitempty"`
		DealID  string `json:"deal_id,omitempty"`
		Date    string `json:"date,omitempty"`
	} `json:"activity"`
}

type rdActivityResponse struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Type    string `json:"type"`
}

// RDStationClient implements ports.CRMProvider against the RD Station
// CRM API. Auth travels as a token query parameter on every request.
type RDStationClient struct {
	token   string
	baseURL string
	doer    ports.Doer
	logger  zerolog.Logger
}

// NewRDStationClient creates an RD Station provider.
func NewRDStationClient(token, baseURL string, doer ports.Doer, logger zerolog.Logger) (*RDStationClient, error) {
	if token == "" {
		return nil, &domain.ConfigurationError{Platform: PlatformRDStation, Missing: []string{"token"}}
	}
	if baseURL == "" {
		baseURL = rdstationBaseURL
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &RDStationClient{token: token, baseURL: baseURL, doer: doer, logger: logger}, nil
}

func (c *RDStationClient) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.token)
	return c.baseURL + path + "?" + query.Encode()
}

func (c *RDStationClient) CreateContact(ctx context.Context, req domain.ContactRequest) (*domain.Contact, error) {
	payload := rdContactPayload{Name: req.Name, Title: req.Company}
	payload.Emails = []rdContactEmail{{Email: req.Email}}
	if req.Phone != "" {
		payload.Phones = []rdContactPhone{{Phone: req.Phone}}
	}

	var resp rdContactResponse
	if err := doJSON(ctx, c.doer, PlatformRDStation, http.MethodPost, c.endpoint("/contacts", nil), nil, payload, &resp); err != nil {
		return nil, err
	}
	return c.toContact(resp), nil
}

func (c *RDStationClient) FindContactByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	query := url.Values{"email": {email}}
	var resp rdContactListResponse
	if err := doJSON(ctx, c.doer, PlatformRDStation, http.MethodGet, c.endpoint("/contacts", query), nil, nil, &resp); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Contacts) == 0 {
		return nil, nil
	}
	return c.toContact(resp.Contacts[0]), nil
}

func (c *RDStationClient) CreateDeal(ctx context.Context, req domain.DealRequest) (*domain.Deal, error) {
	var payload rdDealPayload
	payload.Deal.Name = req.Title
	payload.Deal.AmountTotal = req.Value.InexactFloat64()
	if req.ContactID != "" {
		payload.ContactIDs = []string{req.ContactID}
	}

	var resp rdDealResponse
	if err := doJSON(ctx, c.doer, PlatformRDStation, http.MethodPost, c.endpoint("/deals", nil), nil, payload, &resp); err != nil {
		return nil, err
	}
	deal := c.toDeal(resp)
	deal.ContactID = req.ContactID
	return deal, nil
}

// UpdateDealStatus maps the canonical status onto RD Station's tri-state
// win flag: won -> true, lost -> false, open -> null.
func (c *RDStationClient) UpdateDealStatus(ctx context.Context, dealID string, status domain.DealStatus) (*domain.Deal, error) {
	var win *bool
	switch status {
	case domain.DealWon:
		v := true
		win = &v
	case domain.DealLost:
		v := false
		win = &v
	}

	body := map[string]interface{}{"deal": map[string]interface{}{"win": win}}
	var resp rdDealResponse
	if err := doJSON(ctx, c.doer, PlatformRDStation, http.MethodPut, c.endpoint("/deals/"+dealID, nil), nil, body, &resp); err != nil {
		return nil, err
	}
	return c.toDeal(resp), nil
}

func (c *RDStationClient) CreateActivity(ctx context.Context, req domain.ActivityRequest) (*domain.Activity, error) {
	var payload rdActivityPayload
	payload.Activity.Subject = req.Subject
	payload.Activity.Type = req.Type
	payload.Activity.Text = req.Notes
	payload.Activity.DealID = req.DealID
	if req.DueAt != nil {
		payload.Activity.Date = req.DueAt.Format(time.RFC3339)
	}

	var resp rdActivityResponse
	if err := doJSON(ctx, c.doer, PlatformRDStation, http.MethodPost, c.endpoint("/activities", nil), nil, payload, &resp); err != nil {
		return nil, err
	}
	return &domain.Activity{
		ID:        resp.ID,
		ContactID: req.ContactID,
		DealID:    req.DealID,
		Type:      resp.Type,
		Subject:   resp.Subject,
		Notes:     req.Notes,
		DueAt:     req.DueAt,
		CreatedAt: time.Now(),
	}, nil
}

func (c *RDStationClient) ParseWebhook(payload []byte) (domain.WebhookResult, error) {
	return parseGenericWebhook(PlatformRDStation, payload)
}

func (c *RDStationClient) TestConnection(ctx context.Context) (bool, error) {
	query := url.Values{"limit": {"1"}}
	var resp rdContactListResponse
	if err := doJSON(ctx, c.doer, PlatformRDStation, http.MethodGet, c.endpoint("/contacts", query), nil, nil, &resp); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RDStationClient) Sync(ctx context.Context) domain.SyncReport {
	query := url.Values{"limit": {"50"}}
	var resp rdDealListResponse
	if err := doJSON(ctx, c.doer, PlatformRDStation, http.MethodGet, c.endpoint("/deals", query), nil, nil, &resp); err != nil {
		c.logger.Warn().Err(err).Msg("Deal sync failed")
		return domain.SyncReport{Success: false, Errors: 1, Details: []string{err.Error()}}
	}
	return domain.SyncReport{Success: true, Synchronized: len(resp.Deals)}
}

func (c *RDStationClient) Configuration() domain.ConfigurationInfo {
	return domain.ConfigurationInfo{
		IsConfigured:   true,
		RequiredFields: []string{"token"},
	}
}

func (c *RDStationClient) toContact(resp rdContactResponse) *domain.Contact {
	contact := &domain.Contact{ID: resp.ID, Name: resp.Name}
	if len(resp.Emails) > 0 {
		contact.Email = resp.Emails[0].Email
	}
	if len(resp.Phones) > 0 {
		contact.Phone = resp.Phones[0].Phone
	}
	if ts, err := time.Parse(time.RFC3339, resp.CreatedAt); err == nil {
		contact.CreatedAt = ts
	}
	return contact
}

func (c *RDStationClient) toDeal(resp rdDealResponse) *domain.Deal {
	deal := &domain.Deal{
		ID:     resp.ID,
		Title:  resp.Name,
		Value:  decimal.NewFromFloat(resp.AmountTotal),
		Status: domain.DealOpen,
	}
	if resp.Win != nil {
		if *resp.Win {
			deal.Status = domain.DealWon
		} else {
			deal.Status = domain.DealLost
		}
	}
	if ts, err := time.Parse(time.RFC3339, resp.CreatedAt); err == nil {
		deal.CreatedAt = ts
	}
	return deal
}
