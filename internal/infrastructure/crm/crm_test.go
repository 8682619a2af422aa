package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"conecta-core-integrations-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoer struct {
	status   int
	body     string
	requests []*http.Request
	bodies   [][]byte
}

func (d *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	d.requests = append(d.requests, req)
	var raw []byte
	if req.Body != nil {
		raw, _ = io.ReadAll(req.Body)
	}
	d.bodies = append(d.bodies, raw)
	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(d.body))),
		Header:     make(http.Header),
	}, nil
}

func TestFactorySelectsVendorClient(t *testing.T) {
	doer := &fakeDoer{}

	provider, err := NewProvider("rdstation", map[string]string{"token": "rd-token"}, doer, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &RDStationClient{}, provider)

	provider, err = NewProvider("pipedrive", map[string]string{"apiToken": "pd-token"}, doer, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &PipedriveClient{}, provider)

	provider, err = NewProvider("hubspot", map[string]string{"accessToken": "hs-token"}, doer, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &HubSpotClient{}, provider)

	_, err = NewProvider("salesforce", nil, doer, zerolog.Nop())
	var configErr *domain.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "salesforce", configErr.Platform)

	// Missing credentials fail through the vendor constructor.
	_, err = NewProvider("pipedrive", nil, doer, zerolog.Nop())
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, []string{"apiToken"}, configErr.Missing)
}

func TestParseGenericWebhook(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    domain.WebhookResult
	}{
		{
			name:    "dotted event with numeric id",
			payload: `{"event":"deal.updated","data":{"id":123,"status":"won"}}`,
			want:    domain.WebhookResult{Processed: true, Action: "deal.updated", EntityType: "deal", EntityID: "123"},
		},
		{
			name:    "string id",
			payload: `{"event":"contact.created","data":{"id":"abc-1"}}`,
			want:    domain.WebhookResult{Processed: true, Action: "contact.created", EntityType: "contact", EntityID: "abc-1"},
		},
		{
			name:    "undotted event",
			payload: `{"event":"ping","data":{}}`,
			want:    domain.WebhookResult{Processed: true, Action: "ping", EntityType: "ping"},
		},
		{
			name:    "missing event",
			payload: `{"data":{"id":1}}`,
			want:    domain.WebhookResult{Processed: false, Action: "ignored"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseGenericWebhook(PlatformPipedrive, []byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}

	_, err := parseGenericWebhook(PlatformHubSpot, []byte(`not json`))
	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, PlatformHubSpot, upstreamErr.Platform)
}

func TestPipedriveCreateContact(t *testing.T) {
	doer := &fakeDoer{body: `{"success":true,"data":{"id":71,"name":"Ana Souza","email":[{"value":"ana@example.com"}],"phone":[{"value":"5511999999999"}],"add_time":"2026-05-01 12:00:00"}}`}
	client, err := NewPipedriveClient("pd-token", "", doer, zerolog.Nop())
	require.NoError(t, err)

	contact, err := client.CreateContact(context.Background(), domain.ContactRequest{
		Name:  "Ana Souza",
		Email: "ana@example.com",
		Phone: "5511999999999",
	})
	require.NoError(t, err)
	assert.Equal(t, "71", contact.ID)
	assert.Equal(t, "ana@example.com", contact.Email)
	assert.False(t, contact.CreatedAt.IsZero())

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, "/persons", req.URL.Path)
	assert.Equal(t, "pd-token", req.URL.Query().Get("api_token"))

	var sent pipedrivePersonPayload
	require.NoError(t, json.Unmarshal(doer.bodies[0], &sent))
	assert.Equal(t, []string{"ana@example.com"}, sent.Email)
}

func TestPipedriveFindContactByEmail(t *testing.T) {
	doer := &fakeDoer{body: `{"success":true,"data":{"items":[{"item":{"id":71,"name":"Ana"}}]}}`}
	client, err := NewPipedriveClient("pd-token", "", doer, zerolog.Nop())
	require.NoError(t, err)

	contact, err := client.FindContactByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Equal(t, "71", contact.ID)

	req := doer.requests[0]
	assert.Equal(t, "/persons/search", req.URL.Path)
	assert.Equal(t, "ana@example.com", req.URL.Query().Get("term"))
	assert.Equal(t, "true", req.URL.Query().Get("exact_match"))

	empty := &fakeDoer{body: `{"success":true,"data":{"items":[]}}`}
	client, err = NewPipedriveClient("pd-token", "", empty, zerolog.Nop())
	require.NoError(t, err)
	contact, err = client.FindContactByEmail(context.Background(), "ninguem@example.com")
	require.NoError(t, err)
	assert.Nil(t, contact)
}

func TestPipedriveDealLifecycle(t *testing.T) {
	doer := &fakeDoer{body: `{"success":true,"data":{"id":9,"title":"Venda 1042","value":149.9,"status":"open","person_id":{"value":71},"add_time":"2026-05-01 12:00:00"}}`}
	client, err := NewPipedriveClient("pd-token", "acme", doer, zerolog.Nop())
	require.NoError(t, err)

	deal, err := client.CreateDeal(context.Background(), domain.DealRequest{
		Title:     "Venda 1042",
		ContactID: "71",
		Value:     decimal.NewFromFloat(149.90),
	})
	require.NoError(t, err)
	assert.Equal(t, "9", deal.ID)
	assert.Equal(t, domain.DealOpen, deal.Status)
	assert.Equal(t, "71", deal.ContactID)

	// Tenant host from the company domain.
	assert.Equal(t, "acme.pipedrive.com", doer.requests[0].URL.Host)

	var sent pipedriveDealPayload
	require.NoError(t, json.Unmarshal(doer.bodies[0], &sent))
	assert.Equal(t, "149.9", sent.Value)
	assert.Equal(t, "BRL", sent.Currency)
	assert.Equal(t, int64(71), sent.PersonID)

	won := &fakeDoer{body: `{"success":true,"data":{"id":9,"title":"Venda 1042","value":149.9,"status":"won","won_time":"2026-05-02 09:00:00"}}`}
	client, err = NewPipedriveClient("pd-token", "", won, zerolog.Nop())
	require.NoError(t, err)
	deal, err = client.UpdateDealStatus(context.Background(), "9", domain.DealWon)
	require.NoError(t, err)
	assert.Equal(t, domain.DealWon, deal.Status)
	require.NotNil(t, deal.ClosedAt)
	assert.Equal(t, http.MethodPut, won.requests[0].Method)
	assert.Equal(t, "/deals/9", won.requests[0].URL.Path)
}

func TestPipedriveSurfacesVendorError(t *testing.T) {
	doer := &fakeDoer{status: http.StatusUnauthorized, body: `{"success":false,"error":"unauthorized access"}`}
	client, err := NewPipedriveClient("bad-token", "", doer, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.CreateContact(context.Background(), domain.ContactRequest{Name: "Ana", Email: "ana@example.com"})
	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, PlatformPipedrive, upstreamErr.Platform)
}

func TestIDConversionHelpers(t *testing.T) {
	assert.Equal(t, int64(42), parseID("42"))
	assert.Zero(t, parseID(""))
	assert.Zero(t, parseID("not-a-number"))
	assert.Equal(t, "42", formatID(42))
	assert.Equal(t, "", formatID(0))
}
