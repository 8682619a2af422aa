package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Platform is the platform identifier for WhatsApp Business.
const Platform = "whatsapp"

const defaultBaseURL = "https://graph.facebook.com/v20.0"

// Config holds the Meta Graph API credentials for one WhatsApp Business
// number. Config is immutable after construction.
type Config struct {
	AccessToken       string
	PhoneNumberID     string
	BusinessAccountID string
	BaseURL           string
}

// Client implements ports.MessagingProvider against the Meta Graph API.
type Client struct {
	cfg    Config
	doer   ports.Doer
	logger zerolog.Logger
}

// NewClient creates a WhatsApp provider. Missing required credentials
// fail fast with ConfigurationError.
func NewClient(cfg Config, doer ports.Doer, logger zerolog.Logger) (*Client, error) {
	var missing []string
	if cfg.AccessToken == "" {
		missing = append(missing, "accessToken")
	}
	if cfg.PhoneNumberID == "" {
		missing = append(missing, "phoneNumberId")
	}
	if len(missing) > 0 {
		return nil, &domain.ConfigurationError{Platform: Platform, Missing: missing}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{cfg: cfg, doer: doer, logger: logger}, nil
}

// SendMessage delivers a text or template message through the Graph API.
func (c *Client) SendMessage(ctx context.Context, req domain.OutboundMessage) (*domain.Message, error) {
	payload := sendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               req.To,
		Type:             string(req.Type),
	}
	switch req.Type {
	case domain.MessageTypeText:
		payload.Text = &textPayload{Body: req.Text}
	case domain.MessageTypeTemplate:
		payload.Template = &templatePayload{
			Name:     req.TemplateName,
			Language: languagePayload{Code: "pt_BR"},
		}
		if len(req.TemplateParams) > 0 {
			params := make([]templateParameter, 0, len(req.TemplateParams))
			for _, p := range req.TemplateParams {
				params = append(params, templateParameter{Type: "text", Text: p})
			}
			payload.Template.Components = []templateComponent{{Type: "body", Parameters: params}}
		}
	}

	var resp sendMessageResponse
	path := fmt.Sprintf("/%s/messages", c.cfg.PhoneNumberID)
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, domain.NewUpstreamError(Platform, "send_message", "vendor response carried no message id", nil)
	}

	return &domain.Message{
		ID:        resp.Messages[0].ID,
		To:        req.To,
		Type:      req.Type,
		Text:      req.Text,
		Status:    domain.MessageStatusSent,
		Timestamp: time.Now(),
	}, nil
}

// FindMessageByID retrieves a message by its Graph id, or nil when the
// vendor reports it unknown.
func (c *Client) FindMessageByID(ctx context.Context, id string) (*domain.Message, error) {
	var resp struct {
		ID     string `json:"id"`
		To     string `json:"to"`
		Status string `json:"status"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/"+id, nil, &resp)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.Message{
		ID:     resp.ID,
		To:     resp.To,
		Type:   domain.MessageTypeText,
		Status: mapMessageStatus(resp.Status),
	}, nil
}

// ParseWebhook reduces the Graph webhook envelope to the canonical
// result. Unrecognized payloads are reported as not processed, never as
// an error, so replays and unrelated subscription fields stay harmless.
func (c *Client) ParseWebhook(payload []byte) (domain.WebhookResult, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return domain.WebhookResult{}, domain.NewUpstreamError(Platform, "process_webhook", "malformed webhook payload", err)
	}

	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			if len(change.Value.Messages) > 0 {
				return domain.WebhookResult{
					Processed:  true,
					Action:     "message_received",
					EntityType: "message",
					EntityID:   change.Value.Messages[0].ID,
				}, nil
			}
			if len(change.Value.Statuses) > 0 {
				status := change.Value.Statuses[0]
				return domain.WebhookResult{
					Processed:  true,
					Action:     "message_" + status.Status,
					EntityType: "message",
					EntityID:   status.ID,
				}, nil
			}
		}
	}

	return domain.WebhookResult{Processed: false, Action: "ignored", EntityType: "message"}, nil
}

// CheckConnection probes the phone number resource.
func (c *Client) CheckConnection(ctx context.Context) (bool, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/"+c.cfg.PhoneNumberID, nil, &resp); err != nil {
		return false, err
	}
	return resp.ID != "", nil
}

// Sync reconciles the approved template catalog. Best effort: failures
// are folded into the report, never returned.
func (c *Client) Sync(ctx context.Context) domain.SyncReport {
	if c.cfg.BusinessAccountID == "" {
		return domain.SyncReport{Success: true, Details: []string{"business account id not configured, skipping template sync"}}
	}

	var resp messageTemplatesResponse
	path := fmt.Sprintf("/%s/message_templates", c.cfg.BusinessAccountID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		c.logger.Warn().Err(err).Msg("Template sync failed")
		return domain.SyncReport{Success: false, Errors: 1, Details: []string{err.Error()}}
	}
	return domain.SyncReport{Success: true, Synchronized: len(resp.Data)}
}

// Configuration describes the credential contract of this provider.
func (c *Client) Configuration() domain.ConfigurationInfo {
	return domain.ConfigurationInfo{
		IsConfigured:   true,
		RequiredFields: []string{"accessToken", "phoneNumberId"},
		OptionalFields: []string{"businessAccountId", "appSecret"},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return domain.NewUpstreamError(Platform, method+" "+path, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewUpstreamError(Platform, method+" "+path, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var graphErr graphErrorResponse
		message := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		if json.Unmarshal(raw, &graphErr) == nil && graphErr.Error.Message != "" {
			message = graphErr.Error.Message
		}
		return &statusError{
			UpstreamError: domain.UpstreamError{Platform: Platform, Operation: method + " " + path, Message: message},
			statusCode:    resp.StatusCode,
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return domain.NewUpstreamError(Platform, method+" "+path, "malformed response body", err)
		}
	}
	return nil
}

// statusError carries the HTTP status so lookups can distinguish 404.
type statusError struct {
	domain.UpstreamError
	statusCode int
}

func (e *statusError) Unwrap() error {
	return &e.UpstreamError
}

func isNotFound(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.statusCode == http.StatusNotFound
	}
	return false
}

func mapMessageStatus(status string) domain.MessageStatus {
	switch status {
	case "delivered":
		return domain.MessageStatusDelivered
	case "read":
		return domain.MessageStatusRead
	case "failed":
		return domain.MessageStatusFailed
	default:
		return domain.MessageStatusSent
	}
}
