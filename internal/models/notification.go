package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeEmail NotificationType = "email"
	NotificationTypeSMS   NotificationType = "sms"
)

// NotificationEvent names what happened, so the delivery side can pick a template.
type NotificationEvent string

const (
	EventAccountProvisioned NotificationEvent = "account_provisioned"
	EventTenantOnboarded    NotificationEvent = "tenant_onboarded"
	EventPropertyApproved   NotificationEvent = "property_approved"
	EventPropertyRejected   NotificationEvent = "property_rejected"
	EventLeaseEnding        NotificationEvent = "lease_ending"
	EventLeaseExpired       NotificationEvent = "lease_expired"
)

// Notification is handed to the external delivery pipeline.
type Notification struct {
	ID          uuid.UUID         `json:"id"`
	Type        NotificationType  `json:"type"`
	Event       NotificationEvent `json:"event"`
	RecipientID uuid.UUID         `json:"recipientId"`
	Recipient   string            `json:"recipient"`
	Subject     string            `json:"subject"`
	Data        map[string]string `json:"data,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}
