package crm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PlatformHubSpot is the platform identifier for HubSpot.
const PlatformHubSpot = "hubspot"

const hubspotBaseURL = "https://api.hubapi.com"

type hubspotObjectPayload struct {
	Properties map[string]string `json:"properties"`
}

type hubspotObject struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  string            `json:"createdAt"`
}

type hubspotSearchPayload struct {
	FilterGroups []hubspotFilterGroup `json:"filterGroups"`
	Limit        int                  `json:"limit,omitempty"`
}

type hubspotFilterGroup struct {
	Filters []hubspotFilter `json:"filters"`
}

type hubspotFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type hubspotListResponse struct {
	Total   int             `json:"total"`
	Results []hubspotObject `json:"results"`
}

// HubSpotClient implements ports.CRMProvider against the HubSpot CRM v3
// object API. Auth is a private app bearer token.
type HubSpotClient struct {
	accessToken string
	baseURL     string
	doer        ports.Doer
	logger      zerolog.Logger
}

// NewHubSpotClient creates a HubSpot provider.
func NewHubSpotClient(accessToken, baseURL string, doer ports.Doer, logger zerolog.Logger) (*HubSpotClient, error) {
	if accessToken == "" {
		return nil, &domain.ConfigurationError{Platform: PlatformHubSpot, Missing: []string{"accessToken"}}
	}
	if baseURL == "" {
		baseURL = hubspotBaseURL
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &HubSpotClient{accessToken: accessToken, baseURL: baseURL, doer: doer, logger: logger}, nil
}

func (c *HubSpotClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.accessToken}
}

func (c *HubSpotClient) CreateContact(ctx context.Context, req domain.ContactRequest) (*domain.Contact, error) {
	first, last := splitName(req.Name)
	properties := map[string]string{
		"email":     req.Email,
		"firstname": first,
	}
	if last != "" {
		properties["lastname"] = last
	}
	if req.Phone != "" {
		properties["phone"] = req.Phone
	}
	if req.Company != "" {
		properties["company"] = req.Company
	}

	var resp hubspotObject
	url := c.baseURL + "/crm/v3/objects/contacts"
	if err := doJSON(ctx, c.doer, PlatformHubSpot, http.MethodPost, url, c.headers(), hubspotObjectPayload{Properties: properties}, &resp); err != nil {
		return nil, err
	}
	contact := c.toContact(resp)
	contact.Document = req.Document
	contact.Tags = req.Tags
	return contact, nil
}

func (c *HubSpotClient) FindContactByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	payload := hubspotSearchPayload{
		FilterGroups: []hubspotFilterGroup{{
			Filters: []hubspotFilter{{PropertyName: "email", Operator: "EQ", Value: email}},
		}},
		Limit: 1,
	}

	var resp hubspotListResponse
	url := c.baseURL + "/crm/v3/objects/contacts/search"
	if err := doJSON(ctx, c.doer, PlatformHubSpot, http.MethodPost, url, c.headers(), payload, &resp); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return c.toContact(resp.Results[0]), nil
}

func (c *HubSpotClient) CreateDeal(ctx context.Context, req domain.DealRequest) (*domain.Deal, error) {
	properties := map[string]string{
		"dealname": req.Title,
		"amount":   req.Value.String(),
	}
	if req.Stage != "" {
		properties["dealstage"] = req.Stage
	}

	var resp hubspotObject
	url := c.baseURL + "/crm/v3/objects/deals"
	if err := doJSON(ctx, c.doer, PlatformHubSpot, http.MethodPost, url, c.headers(), hubspotObjectPayload{Properties: properties}, &resp); err != nil {
		return nil, err
	}
	deal := c.toDeal(resp)
	deal.ContactID = req.ContactID
	return deal, nil
}

func (c *HubSpotClient) UpdateDealStatus(ctx context.Context, dealID string, status domain.DealStatus) (*domain.Deal, error) {
	properties := map[string]string{"dealstage": mapHubSpotDealStage(status)}

	var resp hubspotObject
	url := c.baseURL + "/crm/v3/objects/deals/" + dealID
	if err := doJSON(ctx, c.doer, PlatformHubSpot, http.MethodPatch, url, c.headers(), hubspotObjectPayload{Properties: properties}, &resp); err != nil {
		return nil, err
	}
	return c.toDeal(resp), nil
}

func (c *HubSpotClient) CreateActivity(ctx context.Context, req domain.ActivityRequest) (*domain.Activity, error) {
	properties := map[string]string{
		"hs_task_subject": req.Subject,
		"hs_task_type":    strings.ToUpper(req.Type),
		"hs_task_status":  "NOT_STARTED",
	}
	if req.Notes != "" {
		properties["hs_task_body"] = req.Notes
	}
	if req.DueAt != nil {
		properties["hs_timestamp"] = req.DueAt.UTC().Format(time.RFC3339)
	}

	var resp hubspotObject
	url := c.baseURL + "/crm/v3/objects/tasks"
	if err := doJSON(ctx, c.doer, PlatformHubSpot, http.MethodPost, url, c.headers(), hubspotObjectPayload{Properties: properties}, &resp); err != nil {
		return nil, err
	}
	activity := &domain.Activity{
		ID:        resp.ID,
		ContactID: req.ContactID,
		DealID:    req.DealID,
		Type:      req.Type,
		Subject:   req.Subject,
		Notes:     req.Notes,
		DueAt:     req.DueAt,
	}
	if ts, err := time.Parse(time.RFC3339, resp.CreatedAt); err == nil {
		activity.CreatedAt = ts
	}
	return activity, nil
}

func (c *HubSpotClient) ParseWebhook(payload []byte) (domain.WebhookResult, error) {
	return parseGenericWebhook(PlatformHubSpot, payload)
}

func (c *HubSpotClient) TestConnection(ctx context.Context) (bool, error) {
	var resp hubspotListResponse
	url := c.baseURL + "/crm/v3/objects/contacts?limit=1"
	if err := doJSON(ctx, c.doer, PlatformHubSpot, http.MethodGet, url, c.headers(), nil, &resp); err != nil {
		return false, err
	}
	return true, nil
}

func (c *HubSpotClient) Sync(ctx context.Context) domain.SyncReport {
	var resp hubspotListResponse
	url := c.baseURL + "/crm/v3/objects/deals?limit=50"
	if err := doJSON(ctx, c.doer, PlatformHubSpot, http.MethodGet, url, c.headers(), nil, &resp); err != nil {
		c.logger.Warn().Err(err).Msg("Deal sync failed")
		return domain.SyncReport{Success: false, Errors: 1, Details: []string{err.Error()}}
	}
	return domain.SyncReport{Success: true, Synchronized: len(resp.Results)}
}

func (c *HubSpotClient) Configuration() domain.ConfigurationInfo {
	return domain.ConfigurationInfo{
		IsConfigured:   true,
		RequiredFields: []string{"accessToken"},
	}
}

func (c *HubSpotClient) toContact(obj hubspotObject) *domain.Contact {
	name := strings.TrimSpace(obj.Properties["firstname"] + " " + obj.Properties["lastname"])
	contact := &domain.Contact{
		ID:      obj.ID,
		Name:    name,
		Email:   obj.Properties["email"],
		Phone:   obj.Properties["phone"],
		Company: obj.Properties["company"],
	}
	if ts, err := time.Parse(time.RFC3339, obj.CreatedAt); err == nil {
		contact.CreatedAt = ts
	}
	return contact
}

func (c *HubSpotClient) toDeal(obj hubspotObject) *domain.Deal {
	value, _ := decimal.NewFromString(obj.Properties["amount"])
	deal := &domain.Deal{
		ID:     obj.ID,
		Title:  obj.Properties["dealname"],
		Value:  value,
		Stage:  obj.Properties["dealstage"],
		Status: mapHubSpotDealStatus(obj.Properties["dealstage"]),
	}
	if ts, err := time.Parse(time.RFC3339, obj.CreatedAt); err == nil {
		deal.CreatedAt = ts
	}
	return deal
}

func mapHubSpotDealStage(status domain.DealStatus) string {
	switch status {
	case domain.DealWon:
		return "closedwon"
	case domain.DealLost:
		return "closedlost"
	default:
		return "appointmentscheduled"
	}
}

func mapHubSpotDealStatus(stage string) domain.DealStatus {
	switch stage {
	case "closedwon":
		return domain.DealWon
	case "closedlost":
		return domain.DealLost
	default:
		return domain.DealOpen
	}
}

func splitName(full string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
