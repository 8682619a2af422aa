package domain

import "time"

// MessageType is the kind of outbound WhatsApp message.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeTemplate MessageType = "template"
)

// MessageStatus tracks delivery as reported by the messaging vendor.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

// OutboundMessage is the canonical request to send a message.
type OutboundMessage struct {
	To             string      `json:"to"`
	Type           MessageType `json:"type"`
	Text           string      `json:"text,omitempty"`
	TemplateName   string      `json:"templateName,omitempty"`
	TemplateParams []string    `json:"templateParams,omitempty"`
}

// Message is the canonical vendor-neutral message entity.
type Message struct {
	ID        string        `json:"id"`
	To        string        `json:"to"`
	From      string        `json:"from,omitempty"`
	Type      MessageType   `json:"type"`
	Text      string        `json:"text,omitempty"`
	Status    MessageStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}
