package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PublicID uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"public_id"`
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"-"`

	Name        string `gorm:"not null;index" json:"name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`

	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	TaxID        string `json:"tax_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.PublicID == uuid.Nil {
		c.PublicID = uuid.New()
	}
	return nil
}

// FullAddress renders the postal block used on PDF documents.
func (c *Customer) FullAddress() string {
	parts := make([]string, 0, 3)
	if c.AddressLine1 != "" {
		parts = append(parts, c.AddressLine1)
	}
	if c.AddressLine2 != "" {
		parts = append(parts, c.AddressLine2)
	}
	cityLine := strings.TrimSpace(c.PostalCode + " " + c.City)
	if cityLine != "" {
		parts = append(parts, cityLine)
	}
	if c.Country != "" {
		parts = append(parts, c.Country)
	}
	return strings.Join(parts, "\n")
}
