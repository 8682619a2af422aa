package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PlatformPipedrive is the platform identifier for Pipedrive.
const PlatformPipedrive = "pipedrive"

const pipedriveBaseURL = "https://api.pipedrive.com/v1"

type pipedrivePersonPayload struct {
	Name  string   `json:"name"`
	Email []string `json:"email,omitempty"`
	Phone []string `json:"phone,omitempty"`
}

type pipedrivePerson struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email []struct {
		Value string `json:"value"`
	} `json:"email"`
	Phone []struct {
		Value string `json:"value"`
	} `json:"phone"`
	AddTime string `json:"add_time"`
}

type pipedrivePersonEnvelope struct {
	Success bool            `json:"success"`
	Data    pipedrivePerson `json:"data"`
}

type pipedriveSearchEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Items []struct {
			Item pipedrivePerson `json:"item"`
		} `json:"items"`
	} `json:"data"`
}

type pipedriveDealPayload struct {
	Title    string `json:"title"`
	Value    string `json:"value,omitempty"`
	Currency string `json:"currency,omitempty"`
	PersonID int64  `json:"person_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

type pipedriveDeal struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Value    float64 `json:"value"`
	Status   string  `json:"status"`
	PersonID struct {
		Value int64 `json:"value"`
	} `json:"person_id"`
	AddTime  string `json:"add_time"`
	WonTime  string `json:"won_time"`
	LostTime string `json:"lost_time"`
}

type pipedriveDealEnvelope struct {
	Success bool          `json:"success"`
	Data    pipedriveDeal `json:"data"`
}

type pipedriveActivityPayload struct {
	Subject  string `json:"subject"`
	Type     string `json:"type,omitempty"`
	Note     string `json:"note,omitempty"`
	PersonID int64  `json:"person_id,omitempty"`
	DealID   int64  `json:"deal_id,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
}

type pipedriveActivityEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		ID      int64  `json:"id"`
		Subject string `json:"subject"`
		Type    string `json:"type"`
		Done    bool   `json:"done"`
		AddTime string `json:"add_time"`
	} `json:"data"`
}

// PipedriveClient implements ports.CRMProvider against the Pipedrive
// REST API. Auth travels as the api_token query parameter.
type PipedriveClient struct {
	apiToken string
	baseURL  string
	doer     ports.Doer
	logger   zerolog.Logger
}

// NewPipedriveClient creates a Pipedrive provider. An optional company
// domain routes requests through the tenant host.
func NewPipedriveClient(apiToken, companyDomain string, doer ports.Doer, logger zerolog.Logger) (*PipedriveClient, error) {
	if apiToken == "" {
		return nil, &domain.ConfigurationError{Platform: PlatformPipedrive, Missing: []string{"apiToken"}}
	}
	baseURL := pipedriveBaseURL
	if companyDomain != "" {
		baseURL = fmt.Sprintf("https://%s.pipedrive.com/api/v1", companyDomain)
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &PipedriveClient{apiToken: apiToken, baseURL: baseURL, doer: doer, logger: logger}, nil
}

func (c *PipedriveClient) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", c.apiToken)
	return c.baseURL + path + "?" + query.Encode()
}

func (c *PipedriveClient) CreateContact(ctx context.Context, req domain.ContactRequest) (*domain.Contact, error) {
	payload := pipedrivePersonPayload{Name: req.Name, Email: []string{req.Email}}
	if req.Phone != "" {
		payload.Phone = []string{req.Phone}
	}

	var resp pipedrivePersonEnvelope
	if err := doJSON(ctx, c.doer, PlatformPipedrive, http.MethodPost, c.endpoint("/persons", nil), nil, payload, &resp); err != nil {
		return nil, err
	}
	contact := c.toContact(resp.Data)
	contact.Company = req.Company
	contact.Document = req.Document
	return contact, nil
}

func (c *PipedriveClient) FindContactByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	query := url.Values{
		"term":        {email},
		"fields":      {"email"},
		"exact_match": {"true"},
	}
	var resp pipedriveSearchEnvelope
	if err := doJSON(ctx, c.doer, PlatformPipedrive, http.MethodGet, c.endpoint("/persons/search", query), nil, nil, &resp); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Data.Items) == 0 {
		return nil, nil
	}
	return c.toContact(resp.Data.Items[0].Item), nil
}

func (c *PipedriveClient) CreateDeal(ctx context.Context, req domain.DealRequest) (*domain.Deal, error) {
	payload := pipedriveDealPayload{
		Title:    req.Title,
		Value:    req.Value.String(),
		Currency: "BRL",
	}
	if req.ContactID != "" {
		payload.PersonID = parseID(req.ContactID)
	}

	var resp pipedriveDealEnvelope
	if err := doJSON(ctx, c.doer, PlatformPipedrive, http.MethodPost, c.endpoint("/deals", nil), nil, payload, &resp); err != nil {
		return nil, err
	}
	return c.toDeal(resp.Data), nil
}

func (c *PipedriveClient) UpdateDealStatus(ctx context.Context, dealID string, status domain.DealStatus) (*domain.Deal, error) {
	payload := pipedriveDealPayload{Status: string(status)}
	var resp pipedriveDealEnvelope
	if err := doJSON(ctx, c.doer, PlatformPipedrive, http.MethodPut, c.endpoint("/deals/"+dealID, nil), nil, payload, &resp); err != nil {
		return nil, err
	}
	return c.toDeal(resp.Data), nil
}

func (c *PipedriveClient) CreateActivity(ctx context.Context, req domain.ActivityRequest) (*domain.Activity, error) {
	payload := pipedriveActivityPayload{
		Subject:  req.Subject,
		Type:     req.Type,
		Note:     req.Notes,
		PersonID: parseID(req.ContactID),
		DealID:   parseID(req.DealID),
	}
	if req.DueAt != nil {
		payload.DueDate = req.DueAt.Format("2006-01-02")
	}

	var resp pipedriveActivityEnvelope
	if err := doJSON(ctx, c.doer, PlatformPipedrive, http.MethodPost, c.endpoint("/activities", nil), nil, payload, &resp); err != nil {
		return nil, err
	}
	activity := &domain.Activity{
		ID:        formatID(resp.Data.ID),
		ContactID: req.ContactID,
		DealID:    req.DealID,
		Type:      resp.Data.Type,
		Subject:   resp.Data.Subject,
		Notes:     req.Notes,
		DueAt:     req.DueAt,
		Done:      resp.Data.Done,
	}
	if ts, err := parsePipedriveTime(resp.Data.AddTime); err == nil {
		activity.CreatedAt = ts
	}
	return activity, nil
}

func (c *PipedriveClient) ParseWebhook(payload []byte) (domain.WebhookResult, error) {
	return parseGenericWebhook(PlatformPipedrive, payload)
}

func (c *PipedriveClient) TestConnection(ctx context.Context) (bool, error) {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := doJSON(ctx, c.doer, PlatformPipedrive, http.MethodGet, c.endpoint("/users/me", nil), nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

func (c *PipedriveClient) Sync(ctx context.Context) domain.SyncReport {
	query := url.Values{"limit": {"50"}}
	var resp struct {
		Success bool            `json:"success"`
		Data    []pipedriveDeal `json:"data"`
	}
	if err := doJSON(ctx, c.doer, PlatformPipedrive, http.MethodGet, c.endpoint("/deals", query), nil, nil, &resp); err != nil {
		c.logger.Warn().Err(err).Msg("Deal sync failed")
		return domain.SyncReport{Success: false, Errors: 1, Details: []string{err.Error()}}
	}
	return domain.SyncReport{Success: true, Synchronized: len(resp.Data)}
}

func (c *PipedriveClient) Configuration() domain.ConfigurationInfo {
	return domain.ConfigurationInfo{
		IsConfigured:   true,
		RequiredFields: []string{"apiToken"},
		OptionalFields: []string{"companyDomain"},
	}
}

func (c *PipedriveClient) toContact(person pipedrivePerson) *domain.Contact {
	contact := &domain.Contact{ID: formatID(person.ID), Name: person.Name}
	if len(person.Email) > 0 {
		contact.Email = person.Email[0].Value
	}
	if len(person.Phone) > 0 {
		contact.Phone = person.Phone[0].Value
	}
	if ts, err := parsePipedriveTime(person.AddTime); err == nil {
		contact.CreatedAt = ts
	}
	return contact
}

func (c *PipedriveClient) toDeal(deal pipedriveDeal) *domain.Deal {
	result := &domain.Deal{
		ID:        formatID(deal.ID),
		Title:     deal.Title,
		ContactID: formatID(deal.PersonID.Value),
		Value:     decimal.NewFromFloat(deal.Value),
		Status:    mapPipedriveDealStatus(deal.Status),
	}
	if ts, err := parsePipedriveTime(deal.AddTime); err == nil {
		result.CreatedAt = ts
	}
	closed := deal.WonTime
	if closed == "" {
		closed = deal.LostTime
	}
	if closed != "" {
		if ts, err := parsePipedriveTime(closed); err == nil {
			result.ClosedAt = &ts
		}
	}
	return result
}

func mapPipedriveDealStatus(status string) domain.DealStatus {
	switch status {
	case "won":
		return domain.DealWon
	case "lost":
		return domain.DealLost
	default:
		return domain.DealOpen
	}
}

func parsePipedriveTime(raw string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", raw)
}
