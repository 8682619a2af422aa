package erp

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PlatformOmie is the platform identifier for Omie.
const PlatformOmie = "omie"

const omieBaseURL = "https://app.omie.com.br/api/v1"

const omieDateLayout = "02/01/2006"

// omieEnvelope is the request shape every Omie call uses: the operation
// name plus the app credentials wrap a single-element param array.
type omieEnvelope struct {
	Call      string        `json:"call"`
	AppKey    string        `json:"app_key"`
	AppSecret string        `json:"app_secret"`
	Param     []interface{} `json:"param"`
}

type omieCustomerParam struct {
	CodigoClienteIntegracao string `json:"codigo_cliente_integracao"`
	RazaoSocial             string `json:"razao_social"`
	NomeFantasia            string `json:"nome_fantasia,omitempty"`
	CnpjCpf                 string `json:"cnpj_cpf"`
	Email                   string `json:"email,omitempty"`
	Telefone1Numero         string `json:"telefone1_numero,omitempty"`
	InscricaoEstadual       string `json:"inscricao_estadual,omitempty"`
	Endereco                string `json:"endereco,omitempty"`
	EnderecoNumero          string `json:"endereco_numero,omitempty"`
	Bairro                  string `json:"bairro,omitempty"`
	Cidade                  string `json:"cidade,omitempty"`
	Estado                  string `json:"estado,omitempty"`
	CEP                     string `json:"cep,omitempty"`
}

type omieCustomerResponse struct {
	CodigoClienteOmie       int64  `json:"codigo_cliente_omie"`
	CodigoClienteIntegracao string `json:"codigo_cliente_integracao"`
}

type omieProductParam struct {
	CodigoProdutoIntegracao string  `json:"codigo_produto_integracao,omitempty"`
	Codigo                  string  `json:"codigo"`
	Descricao               string  `json:"descricao,omitempty"`
	ValorUnitario           float64 `json:"valor_unitario,omitempty"`
	Unidade                 string  `json:"unidade,omitempty"`
	NCM                     string  `json:"ncm,omitempty"`
	CFOP                    string  `json:"cfop,omitempty"`
}

type omieProductResponse struct {
	CodigoProduto     int64   `json:"codigo_produto"`
	Codigo            string  `json:"codigo"`
	Descricao         string  `json:"descricao"`
	ValorUnitario     float64 `json:"valor_unitario"`
	Unidade           string  `json:"unidade"`
	NCM               string  `json:"ncm"`
	QuantidadeEstoque float64 `json:"quantidade_estoque"`
	Inativo           string  `json:"inativo"`
}

type omieProductListResponse struct {
	TotalDeRegistros int                   `json:"total_de_registros"`
	ProdutoServico   []omieProductResponse `json:"produto_servico_cadastro"`
}

type omieStockParam struct {
	CodigoProdutoIntegracao string  `json:"cod_int,omitempty"`
	Codigo                  string  `json:"codigo"`
	Data                    string  `json:"data"`
	Quantidade              float64 `json:"quan"`
	Operacao                string  `json:"tipo"`
	Motivo                  string  `json:"obs,omitempty"`
}

type omieStockResponse struct {
	CodigoLancamento int64   `json:"codigo_lancamento"`
	Saldo            float64 `json:"saldo"`
}

type omieOrderParam struct {
	CodigoPedidoIntegracao string          `json:"codigo_pedido_integracao"`
	CodigoClienteOmie      int64           `json:"codigo_cliente,omitempty"`
	Observacoes            string          `json:"observacoes,omitempty"`
	Itens                  []omieOrderItem `json:"det"`
}

type omieOrderItem struct {
	Codigo        string  `json:"codigo"`
	Descricao     string  `json:"descricao,omitempty"`
	Quantidade    float64 `json:"quantidade"`
	ValorUnitario float64 `json:"valor_unitario"`
	NCM           string  `json:"ncm,omitempty"`
	CFOP          string  `json:"cfop,omitempty"`
}

type omieOrderResponse struct {
	CodigoPedido    int64  `json:"codigo_pedido"`
	NumeroPedido    string `json:"numero_pedido"`
	CodigoStatus    string `json:"codigo_status"`
	DescricaoStatus string `json:"descricao_status"`
}

type omieFinancialParam struct {
	CodigoLancamentoIntegracao string  `json:"codigo_lancamento_integracao"`
	CodigoClienteFornecedor    int64   `json:"codigo_cliente_fornecedor,omitempty"`
	ValorDocumento             float64 `json:"valor_documento"`
	DataVencimento             string  `json:"data_vencimento"`
	Observacao                 string  `json:"observacao,omitempty"`
	CodigoCategoria            string  `json:"codigo_categoria,omitempty"`
}

type omieFinancialResponse struct {
	CodigoLancamentoOmie int64 `json:"codigo_lancamento_omie"`
}

type omiePageParam struct {
	Pagina             int `json:"pagina"`
	RegistrosPorPagina int `json:"registros_por_pagina"`
}

// OmieClient implements ports.ERPProvider against the Omie API. Every
// operation is a POST with the call name and app credentials in the body.
type OmieClient struct {
	appKey    string
	appSecret string
	baseURL   string
	doer      ports.Doer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewOmieClient creates an Omie provider.
func NewOmieClient(appKey, appSecret, baseURL string, doer ports.Doer, logger zerolog.Logger) (*OmieClient, error) {
	var missing []string
	if appKey == "" {
		missing = append(missing, "appKey")
	}
	if appSecret == "" {
		missing = append(missing, "appSecret")
	}
	if len(missing) > 0 {
		return nil, &domain.ConfigurationError{Platform: PlatformOmie, Missing: missing}
	}
	if baseURL == "" {
		baseURL = omieBaseURL
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &OmieClient{appKey: appKey, appSecret: appSecret, baseURL: baseURL, doer: doer, logger: logger, now: time.Now}, nil
}

func (c *OmieClient) call(ctx context.Context, path, call string, param, out interface{}) error {
	envelope := omieEnvelope{
		Call:      call,
		AppKey:    c.appKey,
		AppSecret: c.appSecret,
		Param:     []interface{}{param},
	}
	return doJSON(ctx, c.doer, PlatformOmie, http.MethodPost, c.baseURL+path, nil, envelope, out)
}

func (c *OmieClient) CreateCustomer(ctx context.Context, req domain.CustomerRequest) (*domain.Customer, error) {
	param := omieCustomerParam{
		CodigoClienteIntegracao: uuid.NewString(),
		RazaoSocial:             req.Name,
		NomeFantasia:            req.TradeName,
		CnpjCpf:                 req.Document,
		Email:                   req.Email,
		Telefone1Numero:         req.Phone,
		InscricaoEstadual:       req.StateRegistration,
		Endereco:                req.Address.Street,
		EnderecoNumero:          req.Address.Number,
		Bairro:                  req.Address.District,
		Cidade:                  req.Address.City,
		Estado:                  req.Address.State,
		CEP:                     req.Address.ZipCode,
	}

	var resp omieCustomerResponse
	if err := c.call(ctx, "/geral/clientes/", "IncluirCliente", param, &resp); err != nil {
		return nil, err
	}
	return &domain.Customer{
		ID:                strconv.FormatInt(resp.CodigoClienteOmie, 10),
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

func (c *OmieClient) CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error) {
	param := omieProductParam{
		CodigoProdutoIntegracao: uuid.NewString(),
		Codigo:                  req.SKU,
		Descricao:               req.Name,
		ValorUnitario:           req.Price.InexactFloat64(),
		Unidade:                 req.Unit,
		NCM:                     req.NCM,
		CFOP:                    req.CFOP,
	}

	var resp struct {
		CodigoProduto int64 `json:"codigo_produto"`
	}
	if err := c.call(ctx, "/geral/produtos/", "IncluirProduto", param, &resp); err != nil {
		return nil, err
	}
	return &domain.Product{
		ID:          strconv.FormatInt(resp.CodigoProduto, 10),
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

func (c *OmieClient) FindProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	param := struct {
		Codigo string `json:"codigo"`
	}{Codigo: sku}

	var resp omieProductResponse
	err := c.call(ctx, "/geral/produtos/", "ConsultarProduto", param, &resp)
	if err != nil {
		if isOmieNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.Product{
		ID:     strconv.FormatInt(resp.CodigoProduto, 10),
		SKU:    resp.Codigo,
		Name:   resp.Descricao,
		Price:  decimal.NewFromFloat(resp.ValorUnitario),
		Unit:   resp.Unidade,
		Stock:  decimal.NewFromFloat(resp.QuantidadeEstoque),
		NCM:    resp.NCM,
		Active: resp.Inativo != "S",
	}, nil
}

func (c *OmieClient) CreateInvoice(ctx context.Context, req domain.InvoiceRequest) (*domain.Invoice, error) {
	param := omieOrderParam{
		CodigoPedidoIntegracao: uuid.NewString(),
		CodigoClienteOmie:      parseInt(req.CustomerID),
		Observacoes:            req.Notes,
	}
	total := decimal.Zero
	for _, item := range req.Items {
		param.Itens = append(param.Itens, omieOrderItem{
			Codigo:        item.SKU,
			Descricao:     item.Description,
			Quantidade:    item.Quantity.InexactFloat64(),
			ValorUnitario: item.UnitPrice.InexactFloat64(),
			NCM:           item.NCM,
			CFOP:          item.CFOP,
		})
		total = total.Add(item.Total)
	}

	var resp omieOrderResponse
	if err := c.call(ctx, "/produtos/pedido/", "IncluirPedido", param, &resp); err != nil {
		return nil, err
	}
	return &domain.Invoice{
		ID:         strconv.FormatInt(resp.CodigoPedido, 10),
		Number:     resp.NumeroPedido,
		CustomerID: req.CustomerID,
		Items:      req.Items,
		Total:      total,
		Status:     domain.InvoiceDraft,
		CreatedAt:  c.now(),
	}, nil
}

func (c *OmieClient) UpdateStock(ctx context.Context, req domain.StockUpdateRequest) (*domain.StockMovement, error) {
	param := omieStockParam{
		Codigo:     req.SKU,
		Data:       c.now().Format(omieDateLayout),
		Quantidade: req.Quantity.InexactFloat64(),
		Operacao:   mapOmieStockOperation(req.Operation),
		Motivo:     req.Reason,
	}

	var resp omieStockResponse
	if err := c.call(ctx, "/estoque/ajuste/", "IncluirAjusteEstoque", param, &resp); err != nil {
		return nil, err
	}
	return &domain.StockMovement{
		ID:         strconv.FormatInt(resp.CodigoLancamento, 10),
		SKU:        req.SKU,
		Operation:  req.Operation,
		Quantity:   req.Quantity,
		Balance:    decimal.NewFromFloat(resp.Saldo),
		Reason:     req.Reason,
		OccurredAt: c.now(),
	}, nil
}

func (c *OmieClient) CreateFinancialEntry(ctx context.Context, req domain.FinancialEntryRequest) (*domain.FinancialEntry, error) {
	param := omieFinancialParam{
		CodigoLancamentoIntegracao: uuid.NewString(),
		CodigoClienteFornecedor:    parseInt(req.CustomerID),
		ValorDocumento:             req.Amount.InexactFloat64(),
		DataVencimento:             req.DueDate.Format(omieDateLayout),
		Observacao:                 req.Description,
		CodigoCategoria:            req.Category,
	}

	path := "/financas/contareceber/"
	call := "IncluirContaReceber"
	if req.Type == domain.EntryPayable {
		path = "/financas/contapagar/"
		call = "IncluirContaPagar"
	}

	var resp omieFinancialResponse
	if err := c.call(ctx, path, call, param, &resp); err != nil {
		return nil, err
	}
	return &domain.FinancialEntry{
		ID:          strconv.FormatInt(resp.CodigoLancamentoOmie, 10),
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
		Status:      domain.EntryOpen,
		CustomerID:  req.CustomerID,
		Category:    req.Category,
	}, nil
}

func (c *OmieClient) ParseWebhook(payload []byte) (domain.WebhookResult, error) {
	return parseGenericWebhook(PlatformOmie, payload)
}

func (c *OmieClient) TestConnection(ctx context.Context) (bool, error) {
	var resp struct {
		TotalDeRegistros int `json:"total_de_registros"`
	}
	if err := c.call(ctx, "/geral/clientes/", "ListarClientes", omiePageParam{Pagina: 1, RegistrosPorPagina: 1}, &resp); err != nil {
		return false, err
	}
	return true, nil
}

func (c *OmieClient) Sync(ctx context.Context) domain.SyncReport {
	var resp omieProductListResponse
	if err := c.call(ctx, "/geral/produtos/", "ListarProdutos", omiePageParam{Pagina: 1, RegistrosPorPagina: 50}, &resp); err != nil {
		c.logger.Warn().Err(err).Msg("Product sync failed")
		return domain.SyncReport{Success: false, Errors: 1, Details: []string{err.Error()}}
	}
	return domain.SyncReport{Success: true, Synchronized: len(resp.ProdutoServico)}
}

func (c *OmieClient) Configuration() domain.ConfigurationInfo {
	return domain.ConfigurationInfo{
		IsConfigured:   true,
		RequiredFields: []string{"appKey", "appSecret"},
	}
}

func mapOmieStockOperation(op domain.StockOperation) string {
	switch op {
	case domain.StockSubtract:
		return "SAI"
	case domain.StockSet:
		return "BAL"
	default:
		return "ENT"
	}
}

// Omie reports unknown records as a fault inside an HTTP 500, not as a
// 404. The fault text carries "não cadastrado" for missing products.
func isOmieNotFound(err error) bool {
	se, ok := err.(*statusError)
	if !ok {
		return false
	}
	if se.statusCode == http.StatusNotFound {
		return true
	}
	return strings.Contains(se.Message, "não cadastrado")
}

func parseInt(id string) int64 {
	n, _ := strconv.ParseInt(id, 10, 64)
	return n
}
