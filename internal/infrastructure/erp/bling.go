package erp

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PlatformBling is the platform identifier for Bling.
const PlatformBling = "bling"

const blingBaseURL = "https://api.bling.com.br/Api/v3"

type blingContactPayload struct {
	Nome            string `json:"nome"`
	Fantasia        string `json:"fantasia,omitempty"`
	Tipo            string `json:"tipo"`
	NumeroDocumento string `json:"numeroDocumento"`
	Email           string `json:"email,omitempty"`
	Telefone        string `json:"telefone,omitempty"`
	IE              string `json:"ie,omitempty"`
	Endereco        *struct {
		Geral blingAddress `json:"geral"`
	} `json:"endereco,omitempty"`
}

type blingAddress struct {
	Endereco    string `json:"endereco,omitempty"`
	Numero      string `json:"numero,omitempty"`
	Complemento string `json:"complemento,omitempty"`
	Bairro      string `json:"bairro,omitempty"`
	Municipio   string `json:"municipio,omitempty"`
	UF          string `json:"uf,omitempty"`
	CEP         string `json:"cep,omitempty"`
}

type blingProductPayload struct {
	Nome       string  `json:"nome"`
	Codigo     string  `json:"codigo"`
	Preco      float64 `json:"preco"`
	Unidade    string  `json:"unidade,omitempty"`
	Descricao  string  `json:"descricaoCurta,omitempty"`
	Tipo       string  `json:"tipo"`
	Formato    string  `json:"formato"`
	Tributacao *struct {
		NCM  string `json:"ncm,omitempty"`
		CFOP string `json:"cfop,omitempty"`
	} `json:"tributacao,omitempty"`
}

type blingProduct struct {
	ID       int64   `json:"id"`
	Nome     string  `json:"nome"`
	Codigo   string  `json:"codigo"`
	Preco    float64 `json:"preco"`
	Unidade  string  `json:"unidade"`
	Situacao string  `json:"situacao"`
	Estoque  struct {
		Saldo float64 `json:"saldoVirtualTotal"`
	} `json:"estoque"`
	Tributacao struct {
		NCM string `json:"ncm"`
	} `json:"tributacao"`
}

type blingIDEnvelope struct {
	Data struct {
		ID int64 `json:"id"`
	} `json:"data"`
}

type blingProductListEnvelope struct {
	Data []blingProduct `json:"data"`
}

type blingStockPayload struct {
	Produto struct {
		ID int64 `json:"id"`
	} `json:"produto"`
	Operacao   string  `json:"operacao"`
	Quantidade float64 `json:"quantidade"`
	Observacao string  `json:"observacoes,omitempty"`
}

type blingInvoicePayload struct {
	Tipo    int `json:"tipo"`
	Contato struct {
		ID int64 `json:"id"`
	} `json:"contato"`
	Itens       []blingInvoiceItem `json:"itens"`
	Observacoes string             `json:"observacoes,omitempty"`
}

type blingInvoiceItem struct {
	Codigo     string  `json:"codigo"`
	Descricao  string  `json:"descricao,omitempty"`
	Quantidade float64 `json:"quantidade"`
	Valor      float64 `json:"valor"`
}

type blingFinancialPayload struct {
	Vencimento string  `json:"vencimento"`
	Valor      float64 `json:"valor"`
	Historico  string  `json:"historico,omitempty"`
	Contato    *struct {
		ID int64 `json:"id"`
	} `json:"contato,omitempty"`
}

// BlingClient implements ports.ERPProvider against the Bling v3 REST
// API. Auth is an OAuth bearer token.
type BlingClient struct {
	accessToken string
	baseURL     string
	doer        ports.Doer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewBlingClient creates a Bling provider.
func NewBlingClient(accessToken, baseURL string, doer ports.Doer, logger zerolog.Logger) (*BlingClient, error) {
	if accessToken == "" {
		return nil, &domain.ConfigurationError{Platform: PlatformBling, Missing: []string{"accessToken"}}
	}
	if baseURL == "" {
		baseURL = blingBaseURL
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &BlingClient{accessToken: accessToken, baseURL: baseURL, doer: doer, logger: logger, now: time.Now}, nil
}

func (c *BlingClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.accessToken}
}

func (c *BlingClient) CreateCustomer(ctx context.Context, req domain.CustomerRequest) (*domain.Customer, error) {
	tipo := "F"
	if len(req.Document) == 14 {
		tipo = "J"
	}
	payload := blingContactPayload{
		Nome:            req.Name,
		Fantasia:        req.TradeName,
		Tipo:            tipo,
		NumeroDocumento: req.Document,
		Email:           req.Email,
		Telefone:        req.Phone,
		IE:              req.StateRegistration,
	}
	if req.Address != (domain.Address{}) {
		payload.Endereco = &struct {
			Geral blingAddress `json:"geral"`
		}{Geral: blingAddress{
			Endereco:    req.Address.Street,
			Numero:      req.Address.Number,
			Complemento: req.Address.Complement,
			Bairro:      req.Address.District,
			Municipio:   req.Address.City,
			UF:          req.Address.State,
			CEP:         req.Address.ZipCode,
		}}
	}

	var resp blingIDEnvelope
	if err := doJSON(ctx, c.doer, PlatformBling, http.MethodPost, c.baseURL+"/contatos", c.headers(), payload, &resp); err != nil {
		return nil, err
	}
	return &domain.Customer{
		ID:                strconv.FormatInt(resp.Data.ID, 10),
		Name:              req.Name,
		TradeName:         req.TradeName,
		Document:          req.Document,
		Email:             req.Email,
		Phone:             req.Phone,
		StateRegistration: req.StateRegistration,
		Address:           req.Address,
		CreatedAt:         c.now(),
	}, nil
}

func (c *BlingClient) CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error) {
	payload := blingProductPayload{
		Nome:      req.Name,
		Codigo:    req.SKU,
		Preco:     req.Price.InexactFloat64(),
		Unidade:   req.Unit,
		Descricao: req.Description,
		Tipo:      "P",
		Formato:   "S",
	}
	if req.NCM != "" || req.CFOP != "" {
		payload.Tributacao = &struct {
			NCM  string `json:"ncm,omitempty"`
			CFOP string `json:"cfop,omitempty"`
		}{NCM: req.NCM, CFOP: req.CFOP}
	}

	var resp blingIDEnvelope
	if err := doJSON(ctx, c.doer, PlatformBling, http.MethodPost, c.baseURL+"/produtos", c.headers(), payload, &resp); err != nil {
		return nil, err
	}
	return &domain.Product{
		ID:          strconv.FormatInt(resp.Data.ID, 10),
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Unit:        req.Unit,
		NCM:         req.NCM,
		CFOP:        req.CFOP,
		ICMSRate:    req.ICMSRate,
		IPIRate:     req.IPIRate,
		PISRate:     req.PISRate,
		COFINSRate:  req.COFINSRate,
		Active:      true,
	}, nil
}

func (c *BlingClient) FindProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	endpoint := c.baseURL + "/produtos?" + url.Values{"codigo": {sku}}.Encode()
	var resp blingProductListEnvelope
	if err := doJSON(ctx, c.doer, PlatformBling, http.MethodGet, endpoint, c.headers(), nil, &resp); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	product := resp.Data[0]
	return &domain.Product{
		ID:     strconv.FormatInt(product.ID, 10),
		SKU:    product.Codigo,
		Name:   product.Nome,
		Price:  decimal.NewFromFloat(product.Preco),
		Unit:   product.Unidade,
		Stock:  decimal.NewFromFloat(product.Estoque.Saldo),
		NCM:    product.Tributacao.NCM,
		Active: product.Situacao == "A",
	}, nil
}

func (c *BlingClient) CreateInvoice(ctx context.Context, req domain.InvoiceRequest) (*domain.Invoice, error) {
	payload := blingInvoicePayload{Tipo: 1, Observacoes: req.Notes}
	payload.Contato.ID = parseInt(req.CustomerID)
	total := decimal.Zero
	for _, item := range req.Items {
		payload.Itens = append(payload.Itens, blingInvoiceItem{
			Codigo:     item.SKU,
			Descricao:  item.Description,
			Quantidade: item.Quantity.InexactFloat64(),
			Valor:      item.UnitPrice.InexactFloat64(),
		})
		total = total.Add(item.Total)
	}

	var resp blingIDEnvelope
	if err := doJSON(ctx, c.doer, PlatformBling, http.MethodPost, c.baseURL+"/nfe", c.headers(), payload, &resp); err != nil {
		return nil, err
	}
	return &domain.Invoice{
		ID:         strconv.FormatInt(resp.Data.ID, 10),
		CustomerID: req.CustomerID,
		Items:      req.Items,
		Total:      total,
		Status:     domain.InvoiceDraft,
		CreatedAt:  c.now(),
	}, nil
}

func (c *BlingClient) UpdateStock(ctx context.Context, req domain.StockUpdateRequest) (*domain.StockMovement, error) {
	product, err := c.FindProductBySKU(ctx, req.SKU)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NewUpstreamError(PlatformBling, "update_stock", "product not found for sku "+req.SKU, nil)
	}

	payload := blingStockPayload{
		Operacao:   mapBlingStockOperation(req.Operation),
		Quantidade: req.Quantity.InexactFloat64(),
		Observacao: req.Reason,
	}
	payload.Produto.ID = parseInt(product.ID)

	var resp blingIDEnvelope
	if err := doJSON(ctx, c.doer, PlatformBling, http.MethodPost, c.baseURL+"/estoques", c.headers(), payload, &resp); err != nil {
		return nil, err
	}

	balance := product.Stock
	switch req.Operation {
	case domain.StockAdd:
		balance = balance.Add(req.Quantity)
	case domain.StockSubtract:
		balance = balance.Sub(req.Quantity)
	case domain.StockSet:
		balance = req.Quantity
	}
	return &domain.StockMovement{
		ID:         strconv.FormatInt(resp.Data.ID, 10),
		SKU:        req.SKU,
		Operation:  req.Operation,
		Quantity:   req.Quantity,
		Balance:    balance,
		Reason:     req.Reason,
		OccurredAt: c.now(),
	}, nil
}

func (c *BlingClient) CreateFinancialEntry(ctx context.Context, req domain.FinancialEntryRequest) (*domain.FinancialEntry, error) {
	payload := blingFinancialPayload{
		Vencimento: req.DueDate.Format("2006-01-02"),
		Valor:      req.Amount.InexactFloat64(),
		Historico:  req.Description,
	}
	if req.CustomerID != "" {
		payload.Contato = &struct {
			ID int64 `json:"id"`
		}{ID: parseInt(req.CustomerID)}
	}

	path := "/contas/receber"
	if req.Type == domain.EntryPayable {
		path = "/contas/pagar"
	}

	var resp blingIDEnvelope
	if err := doJSON(ctx, c.doer, PlatformBling, http.MethodPost, c.baseURL+path, c.headers(), payload, &resp); err != nil {
		return nil, err
	}
	return &domain.FinancialEntry{
		ID:          strconv.FormatInt(resp.Data.ID, 10),
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
		Status:      domain.EntryOpen,
		CustomerID:  req.CustomerID,
		Category:    req.Category,
	}, nil
}

func (c *BlingClient) ParseWebhook(payload []byte) (domain.WebhookResult, error) {
	return parseGenericWebhook(PlatformBling, payload)
}

func (c *BlingClient) TestConnection(ctx context.Context) (bool, error) {
	var resp blingProductListEnvelope
	if err := doJSON(ctx, c.doer, PlatformBling, http.MethodGet, c.baseURL+"/produtos?limite=1", c.headers(), nil, &resp); err != nil {
		return false, err
	}
	return true, nil
}

func (c *BlingClient) Sync(ctx context.Context) domain.SyncReport {
	var resp blingProductListEnvelope
	if err := doJSON(ctx, c.doer, PlatformBling, http.MethodGet, c.baseURL+"/produtos?limite=50", c.headers(), nil, &resp); err != nil {
		c.logger.Warn().Err(err).Msg("Product sync failed")
		return domain.SyncReport{Success: false, Errors: 1, Details: []string{err.Error()}}
	}
	return domain.SyncReport{Success: true, Synchronized: len(resp.Data)}
}

func (c *BlingClient) Configuration() domain.ConfigurationInfo {
	return domain.ConfigurationInfo{
		IsConfigured:   true,
		RequiredFields: []string{"accessToken"},
	}
}

func mapBlingStockOperation(op domain.StockOperation) string {
	switch op {
	case domain.StockSubtract:
		return "S"
	case domain.StockSet:
		return "B"
	default:
		return "E"
	}
}
