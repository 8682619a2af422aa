package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PlatformTiny is the platform identifier for Tiny.
const PlatformTiny = "tiny"

const tinyBaseURL = "https://api.tiny.com.br/api2"

type tinyContact struct {
	Nome              string `json:"nome"`
	Fantasia          string `json:"fantasia,omitempty"`
	TipoPessoa        string `json:"tipo_pessoa"`
	CpfCnpj           string `json:"cpf_cnpj"`
	Email             string `json:"email,omitempty"`
	Fone              string `json:"fone,omitempty"`
	InscricaoEstadual string `json:"ie,omitempty"`
	Endereco          string `json:"endereco,omitempty"`
	Numero            string `json:"numero,omitempty"`
	Complemento       string `json:"complemento,omitempty"`
	Bairro            string `json:"bairro,omitempty"`
	Cidade            string `json:"cidade,omitempty"`
	UF                string `json:"uf,omitempty"`
	CEP               string `json:"cep,omitempty"`
}

type tinyProduct struct {
	ID           string `json:"id,omitempty"`
	Codigo       string `json:"codigo"`
	Nome         string `json:"nome"`
	Preco        string `json:"preco,omitempty"`
	Unidade      string `json:"unidade,omitempty"`
	NCM          string `json:"ncm,omitempty"`
	Situacao     string `json:"situacao,omitempty"`
	SaldoEstoque string `json:"saldo_estoque,omitempty"`
}

type tinyReturn struct {
	Retorno struct {
		Status     string `json:"status"`
		CodigoErro string `json:"codigo_erro"`
		Erros      []struct {
			Erro string `json:"erro"`
		} `json:"erros"`
		Registros []struct {
			Registro struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"registro"`
		} `json:"registros"`
		Produtos []struct {
			Produto tinyProduct `json:"produto"`
		} `json:"produtos"`
		Conta struct {
			Empresa string `json:"empresa"`
		} `json:"conta"`
	} `json:"retorno"`
}

// TinyClient implements ports.ERPProvider against the Tiny API. Every
// call is a form POST carrying the token and a JSON payload field, with
// a JSON body answered inside a retorno envelope.
type TinyClient struct {
	token   string
	baseURL string
	doer    ports.Doer
	logger  zerolog.Logger
	now     func() time.Time
}

// NewTinyClient creates a Tiny provider.
func NewTinyClient(token, baseURL string, doer ports.Doer, logger zerolog.Logger) (*TinyClient, error) {
	if token == "" {
		return nil, &domain.ConfigurationError{Platform: PlatformTiny, Missing: []string{"token"}}
	}
	if baseURL == "" {
		baseURL = tinyBaseURL
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &TinyClient{token: token, baseURL: baseURL, doer: doer, logger: logger, now: time.Now}, nil
}

func (c *TinyClient) post(ctx context.Context, path string, fields map[string]string) (*tinyReturn, error) {
	form := url.Values{
		"token":   {c.token},
		"formato": {"json"},
	}
	for k, v := range fields {
		form.Set(k, v)
	}

	var resp tinyReturn
	if err := doForm(ctx, c.doer, PlatformTiny, c.baseURL+path, form, &resp); err != nil {
		return nil, err
	}
	if resp.Retorno.Status != "OK" {
		message := "vendor rejected the request"
		if len(resp.Retorno.Erros) > 0 {
			message = resp.Retorno.Erros[0].Erro
		}
		return &resp, domain.NewUpstreamError(PlatformTiny, "POST "+path, message, nil)
	}
	return &resp, nil
}

func (c *TinyClient) CreateCustomer(ctx context.Context, req domain.CustomerRequest) (*domain.Customer, error) {
	tipoPessoa := "F"
	if len(req.Document) == 14 {
		tipoPessoa = "J"
	}
	contact := tinyContact{
		Nome:              req.Name,
		Fantasia:          req.TradeName,
		TipoPessoa:        tipoPessoa,
		CpfCnpj:           req.Document,
		Email:             req.Email,
		Fone:              req.Phone,
		InscricaoEstadual: req.StateRegistration,
		Endereco:          req.Address.Street,
		Numero:            req.Address.Number,
		Complemento:       req.Address.Complement,
		Bairro:            req.Address.District,
		Cidade:            req.Address.City,
		UF:                req.Address.State,
		CEP:               req.Address.ZipCode,
	}
	payload, err := json.Marshal(map[string]interface{}{
		"contatos": []map[string]interface{}{{"contato": contact}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode contact: %w", err)
	}

	resp, err := c.post(ctx, "/contato.incluir.php", map[string]string{"contato": string(payload)})
	if err != nil {
		return nil, err
	}
	customer := &domain.Customer{
		Name:              req.Name,
		TradeName:         req.TradeName,
		Document:          req.Document,
		Email:             req.Email,
		Phone:             req.Phone,
		StateRegistration: req.StateRegistration,
		Address:           req.Address,
		CreatedAt:         c.now(),
	}
	if len(resp.Retorno.Registros) > 0 {
		customer.ID = resp.Retorno.Registros[0].Registro.ID
	}
	return customer, nil
}

func (c *TinyClient) CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error) {
	product := tinyProduct{
		Codigo:  req.SKU,
		Nome:    req.Name,
		Preco:   req.Price.String(),
		Unidade: req.Unit,
		NCM:     req.NCM,
	}
	payload, err := json.Marshal(map[string]interface{}{
		"produtos": []map[string]interface{}{{"produto": product}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode product: %w", err)
	}

	resp, err := c.post(ctx, "/produto.incluir.php", map[string]string{"produto": string(payload)})
	if err != nil {
		return nil, err
	}
	result := &domain.Product{
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
	}
	if len(resp.Retorno.Registros) > 0 {
		result.ID = resp.Retorno.Registros[0].Registro.ID
	}
	return result, nil
}

func (c *TinyClient) FindProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	resp, err := c.post(ctx, "/produtos.pesquisa.php", map[string]string{"pesquisa": sku})
	if err != nil {
		// Tiny answers "Erro" with a not-found error code for empty searches.
		if resp != nil && resp.Retorno.CodigoErro == "20" {
			return nil, nil
		}
		return nil, err
	}
	for _, entry := range resp.Retorno.Produtos {
		if entry.Produto.Codigo != sku {
			continue
		}
		price, _ := decimal.NewFromString(entry.Produto.Preco)
		stock, _ := decimal.NewFromString(entry.Produto.SaldoEstoque)
		return &domain.Product{
			ID:     entry.Produto.ID,
			SKU:    entry.Produto.Codigo,
			Name:   entry.Produto.Nome,
			Price:  price,
			Unit:   entry.Produto.Unidade,
			Stock:  stock,
			NCM:    entry.Produto.NCM,
			Active: entry.Produto.Situacao != "I",
		}, nil
	}
	return nil, nil
}

func (c *TinyClient) CreateInvoice(ctx context.Context, req domain.InvoiceRequest) (*domain.Invoice, error) {
	items := make([]map[string]interface{}, 0, len(req.Items))
	total := decimal.Zero
	for _, item := range req.Items {
		items = append(items, map[string]interface{}{
			"item": map[string]interface{}{
				"codigo":         item.SKU,
				"descricao":      item.Description,
				"quantidade":     item.Quantity.String(),
				"valor_unitario": item.UnitPrice.String(),
			},
		})
		total = total.Add(item.Total)
	}
	payload, err := json.Marshal(map[string]interface{}{
		"nota_fiscal": map[string]interface{}{
			"cliente": map[string]interface{}{"codigo": req.CustomerID},
			"itens":   items,
			"obs":     req.Notes,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode invoice: %w", err)
	}

	resp, err := c.post(ctx, "/nota.fiscal.incluir.php", map[string]string{"nota": string(payload)})
	if err != nil {
		return nil, err
	}
	invoice := &domain.Invoice{
		CustomerID: req.CustomerID,
		Items:      req.Items,
		Total:      total,
		Status:     domain.InvoiceDraft,
		CreatedAt:  c.now(),
	}
	if len(resp.Retorno.Registros) > 0 {
		invoice.ID = resp.Retorno.Registros[0].Registro.ID
	}
	return invoice, nil
}

func (c *TinyClient) UpdateStock(ctx context.Context, req domain.StockUpdateRequest) (*domain.StockMovement, error) {
	product, err := c.FindProductBySKU(ctx, req.SKU)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NewUpstreamError(PlatformTiny, "update_stock", "product not found for sku "+req.SKU, nil)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"estoque": map[string]interface{}{
			"idProduto":   product.ID,
			"tipo":        mapTinyStockOperation(req.Operation),
			"quantidade":  req.Quantity.String(),
			"observacoes": req.Reason,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode stock update: %w", err)
	}

	if _, err := c.post(ctx, "/produto.atualizar.estoque.php", map[string]string{"estoque": string(payload)}); err != nil {
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
		ID:         product.ID,
		SKU:        req.SKU,
		Operation:  req.Operation,
		Quantity:   req.Quantity,
		Balance:    balance,
		Reason:     req.Reason,
		OccurredAt: c.now(),
	}, nil
}

func (c *TinyClient) CreateFinancialEntry(ctx context.Context, req domain.FinancialEntryRequest) (*domain.FinancialEntry, error) {
	entity := "conta"
	path := "/conta.receber.incluir.php"
	if req.Type == domain.EntryPayable {
		path = "/conta.pagar.incluir.php"
	}
	payload, err := json.Marshal(map[string]interface{}{
		entity: map[string]interface{}{
			"historico":       req.Description,
			"valor":           req.Amount.String(),
			"data_vencimento": req.DueDate.Format("02/01/2006"),
			"categoria":       req.Category,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode financial entry: %w", err)
	}

	resp, err := c.post(ctx, path, map[string]string{entity: string(payload)})
	if err != nil {
		return nil, err
	}
	result := &domain.FinancialEntry{
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
		Status:      domain.EntryOpen,
		CustomerID:  req.CustomerID,
		Category:    req.Category,
	}
	if len(resp.Retorno.Registros) > 0 {
		result.ID = resp.Retorno.Registros[0].Registro.ID
	}
	return result, nil
}

func (c *TinyClient) ParseWebhook(payload []byte) (domain.WebhookResult, error) {
	return parseGenericWebhook(PlatformTiny, payload)
}

func (c *TinyClient) TestConnection(ctx context.Context) (bool, error) {
	resp, err := c.post(ctx, "/info.php", nil)
	if err != nil {
		return false, err
	}
	return resp.Retorno.Status == "OK", nil
}

func (c *TinyClient) Sync(ctx context.Context) domain.SyncReport {
	resp, err := c.post(ctx, "/produtos.pesquisa.php", map[string]string{"pesquisa": ""})
	if err != nil {
		c.logger.Warn().Err(err).Msg("Product sync failed")
		return domain.SyncReport{Success: false, Errors: 1, Details: []string{err.Error()}}
	}
	return domain.SyncReport{Success: true, Synchronized: len(resp.Retorno.Produtos)}
}

func (c *TinyClient) Configuration() domain.ConfigurationInfo {
	return domain.ConfigurationInfo{
		IsConfigured:   true,
		RequiredFields: []string{"token"},
	}
}

func mapTinyStockOperation(op domain.StockOperation) string {
	switch op {
	case domain.StockSubtract:
		return "S"
	case domain.StockSet:
		return "B"
	default:
		return "E"
	}
}
