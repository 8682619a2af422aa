package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

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

func newOmieTestClient(t *testing.T, doer *fakeDoer) *OmieClient {
	t.Helper()
	client, err := NewOmieClient("app-key", "app-secret", "", doer, zerolog.Nop())
	require.NoError(t, err)
	client.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return client
}

func TestFactorySelectsVendorClient(t *testing.T) {
	doer := &fakeDoer{}

	provider, err := NewProvider("omie", map[string]string{"appKey": "k", "appSecret": "s"}, doer, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &OmieClient{}, provider)

	provider, err = NewProvider("bling", map[string]string{"accessToken": "t"}, doer, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &BlingClient{}, provider)

	provider, err = NewProvider("tiny", map[string]string{"token": "t"}, doer, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &TinyClient{}, provider)

	_, err = NewProvider("sap", nil, doer, zerolog.Nop())
	var configErr *domain.ConfigurationError
	require.ErrorAs(t, err, &configErr)

	_, err = NewProvider("omie", map[string]string{"appKey": "k"}, doer, zerolog.Nop())
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, []string{"appSecret"}, configErr.Missing)
}

func TestOmieCreateCustomerWrapsEnvelope(t *testing.T) {
	doer := &fakeDoer{body: `{"codigo_cliente_omie": 4455, "codigo_cliente_integracao": "x"}`}
	client := newOmieTestClient(t, doer)

	customer, err := client.CreateCustomer(context.Background(), domain.CustomerRequest{
		Name:     "Empresa X Ltda",
		Document: "11222333000181",
		Email:    "contato@empresax.com.br",
		Address:  domain.Address{City: "São Paulo", State: "SP"},
	})
	require.NoError(t, err)
	assert.Equal(t, "4455", customer.ID)
	assert.Equal(t, "11222333000181", customer.Document)

	require.Len(t, doer.requests, 1)
	assert.Equal(t, "/api/v1/geral/clientes/", doer.requests[0].URL.Path)

	var sent omieEnvelope
	require.NoError(t, json.Unmarshal(doer.bodies[0], &sent))
	assert.Equal(t, "IncluirCliente", sent.Call)
	assert.Equal(t, "app-key", sent.AppKey)
	assert.Equal(t, "app-secret", sent.AppSecret)
	require.Len(t, sent.Param, 1)
}

func TestOmieFindProductBySKU(t *testing.T) {
	doer := &fakeDoer{body: `{"codigo_produto": 777, "codigo": "SKU-1", "descricao": "Caneca", "valor_unitario": 39.9, "quantidade_estoque": 12, "inativo": "N"}`}
	client := newOmieTestClient(t, doer)

	product, err := client.FindProductBySKU(context.Background(), "SKU-1")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "777", product.ID)
	assert.True(t, product.Stock.Equal(decimal.NewFromInt(12)))
	assert.True(t, product.Active)

	// Omie reports unknown products as a fault inside an HTTP 500.
	missing := &fakeDoer{status: http.StatusInternalServerError, body: `{"faultstring":"ERROR: Produto não cadastrado para o Código [SKU-9] !","faultcode":"SOAP-ENV:Client-103"}`}
	client = newOmieTestClient(t, missing)
	product, err = client.FindProductBySKU(context.Background(), "SKU-9")
	require.NoError(t, err)
	assert.Nil(t, product)
}

func TestOmieUpdateStockMapsOperations(t *testing.T) {
	assert.Equal(t, "ENT", mapOmieStockOperation(domain.StockAdd))
	assert.Equal(t, "SAI", mapOmieStockOperation(domain.StockSubtract))
	assert.Equal(t, "BAL", mapOmieStockOperation(domain.StockSet))

	doer := &fakeDoer{body: `{"codigo_lancamento": 31, "saldo": 10}`}
	client := newOmieTestClient(t, doer)

	movement, err := client.UpdateStock(context.Background(), domain.StockUpdateRequest{
		SKU:       "SKU-1",
		Operation: domain.StockSubtract,
		Quantity:  decimal.NewFromInt(2),
		Reason:    "venda 1042",
	})
	require.NoError(t, err)
	assert.Equal(t, "31", movement.ID)
	assert.True(t, movement.Balance.Equal(decimal.NewFromInt(10)))

	var sent omieEnvelope
	require.NoError(t, json.Unmarshal(doer.bodies[0], &sent))
	param, ok := sent.Param[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "SAI", param["tipo"])
	assert.Equal(t, "01/05/2026", param["data"])
}

func TestOmieFinancialEntryRouting(t *testing.T) {
	doer := &fakeDoer{body: `{"codigo_lancamento_omie": 91}`}
	client := newOmieTestClient(t, doer)

	entry, err := client.CreateFinancialEntry(context.Background(), domain.FinancialEntryRequest{
		Type:        domain.EntryReceivable,
		Description: "Pedido #1042",
		Amount:      decimal.NewFromFloat(149.90),
		DueDate:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "91", entry.ID)
	assert.Equal(t, domain.EntryOpen, entry.Status)
	assert.Equal(t, "/api/v1/financas/contareceber/", doer.requests[0].URL.Path)

	payable := &fakeDoer{body: `{"codigo_lancamento_omie": 92}`}
	client = newOmieTestClient(t, payable)
	_, err = client.CreateFinancialEntry(context.Background(), domain.FinancialEntryRequest{
		Type:        domain.EntryPayable,
		Description: "Fornecedor",
		Amount:      decimal.NewFromInt(500),
		DueDate:     time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/financas/contapagar/", payable.requests[0].URL.Path)

	var sent omieEnvelope
	require.NoError(t, json.Unmarshal(payable.bodies[0], &sent))
	assert.Equal(t, "IncluirContaPagar", sent.Call)
}

func TestTinyPostSendsFormEncodedToken(t *testing.T) {
	doer := &fakeDoer{body: `{"retorno":{"status":"OK","conta":{"empresa":"Empresa X"}}}`}
	client, err := NewTinyClient("tiny-token", "", doer, zerolog.Nop())
	require.NoError(t, err)

	ok, err := client.TestConnection(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))

	form := string(doer.bodies[0])
	assert.Contains(t, form, "token=tiny-token")
	assert.Contains(t, form, "formato=json")
}

func TestParseGenericWebhook(t *testing.T) {
	result, err := parseGenericWebhook(PlatformBling, []byte(`{"event":"invoice.issued","data":{"id":908}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.WebhookResult{Processed: true, Action: "invoice.issued", EntityType: "invoice", EntityID: "908"}, result)

	result, err = parseGenericWebhook(PlatformBling, []byte(`{"data":{"id":908}}`))
	require.NoError(t, err)
	assert.False(t, result.Processed)
}

func TestVendorErrorDecoding(t *testing.T) {
	doer := &fakeDoer{status: http.StatusUnauthorized, body: `{"error":{"message":"invalid_token","description":"O token informado é inválido"}}`}
	client, err := NewBlingClient("bad-token", "", doer, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.FindProductBySKU(context.Background(), "SKU-1")
	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, "invalid_token", upstreamErr.Message)
}
