package mercadopago

// Wire formats for the Mercado Pago payments API.

type createPaymentRequest struct {
	TransactionAmount float64      `json:"transaction_amount"`
	Description       string       `json:"description"`
	PaymentMethodID   string       `json:"payment_method_id"`
	ExternalReference string       `json:"external_reference,omitempty"`
	NotificationURL   string       `json:"notification_url,omitempty"`
	Payer             paymentPayer `json:"payer"`
}

type paymentPayer struct {
	Email          string               `json:"email"`
	FirstName      string               `json:"first_name,omitempty"`
	Identification *payerIdentification `json:"identification,omitempty"`
}

type payerIdentification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type paymentResponse struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
	Description       string  `json:"description"`
	ExternalReference string  `json:"external_reference"`
	DateCreated       string  `json:"date_created"`
	DateApproved      string  `json:"date_approved"`
	Payer             struct {
		Email          string `json:"email"`
		Identification struct {
			Type   string `json:"type"`
			Number string `json:"number"`
		} `json:"identification"`
	} `json:"payer"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

type paymentSearchResponse struct {
	Paging struct {
		Total int `json:"total"`
	} `json:"paging"`
	Results []paymentResponse `json:"results"`
}

type apiErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}

// webhookNotification is the processor's webhook shape:
// {type, action, data:{id,status,external_reference,transaction_amount}}.
type webhookNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID                string  `json:"id"`
		Status            string  `json:"status"`
		ExternalReference string  `json:"external_reference"`
		TransactionAmount float64 `json:"transaction_amount"`
	} `json:"data"`
}
