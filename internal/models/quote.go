package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Quote struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PublicID uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"public_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_quotes_user_number" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"-"`

	CustomerID uint     `gorm:"not null;index" json:"customer_id"`
	Customer   Customer `gorm:"foreignKey:CustomerID" json:"customer"`

	Title       string    `json:"title"`
	QuoteNumber string    `gorm:"size:16;not null;uniqueIndex:idx_quotes_user_number" json:"quote_number"`
	PONumber    string    `json:"po_number"`
	Date        time.Time `gorm:"type:date" json:"date"`
	Currency    string    `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	Status      string    `gorm:"size:16;not null;default:'draft'" json:"status"`

	DiscountType   string          `gorm:"size:16;not null;default:'none'" json:"discount_type"`
	DiscountValue  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_value"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"sub_total"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`

	Terms string `gorm:"type:text" json:"terms"`
	Notes string `gorm:"type:text" json:"notes"`

	Items []QuoteItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.PublicID == uuid.Nil {
		q.PublicID = uuid.New()
	}
	return nil
}

// QuoteItem references a catalog Item with a price/qty snapshot.
type QuoteItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	QuoteID uint `gorm:"not null;index" json:"quote_id"`
	ItemID  uint `gorm:"not null;index" json:"item_id"`
	Item    Item `gorm:"foreignKey:ItemID" json:"item"`

	Price decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Qty   int             `gorm:"not null" json:"qty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
