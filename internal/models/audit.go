package models

import (
	"time"

	"github.com/google/uuid"
)

// Entity kinds recorded in the audit log. A discriminated (kind, uuid) pair
// instead of a free-form type/id string pair.
const (
	EntityCustomer = "customer"
	EntityItem     = "item"
	EntityQuote    = "quote"
	EntityInvoice  = "invoice"
)

type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	EntityKind string    `gorm:"size:16;not null;index" json:"entity_kind"`
	EntityUUID uuid.UUID `gorm:"type:uuid;not null;index" json:"entity_uuid"`
	Action     string    `gorm:"size:32;not null" json:"action"` // created, updated, status_changed, converted, deleted
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
