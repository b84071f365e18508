package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Invoice struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PublicID uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"public_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_invoices_user_number" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"-"`

	CustomerID uint     `gorm:"not null;index" json:"customer_id"`
	Customer   Customer `gorm:"foreignKey:CustomerID" json:"customer"`

	// QuoteID links back to the source quote when the invoice was produced by a
	// conversion; nil for invoices created directly.
	QuoteID *uint `gorm:"index" json:"quote_id,omitempty"`

	Title         string    `json:"title"`
	InvoiceNumber string    `gorm:"size:16;not null;uniqueIndex:idx_invoices_user_number" json:"invoice_number"`
	PONumber      string    `json:"po_number"`
	IssueDate     time.Time `gorm:"type:date" json:"issue_date"`
	DueDate       time.Time `gorm:"type:date" json:"due_date"`
	Currency      string    `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	Status        string    `gorm:"size:16;not null;default:'draft'" json:"status"`

	DiscountType   string          `gorm:"size:16;not null;default:'none'" json:"discount_type"`
	DiscountValue  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_value"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"sub_total"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`

	Terms string `gorm:"type:text" json:"terms"`
	Notes string `gorm:"type:text" json:"notes"`

	Items     []InvoiceItem          `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	Histories []InvoiceStatusHistory `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.PublicID == uuid.Nil {
		i.PublicID = uuid.New()
	}
	return nil
}

type InvoiceItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	InvoiceID uint `gorm:"not null;index" json:"invoice_id"`
	ItemID    uint `gorm:"not null;index" json:"item_id"`
	Item      Item `gorm:"foreignKey:ItemID" json:"item"`

	Price decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Qty   int             `gorm:"not null" json:"qty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvoiceStatusHistory is an append-only transition log. Rows are only ever
// inserted (in the same transaction as the status update) and removed via the
// parent invoice cascade.
type InvoiceStatusHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	InvoiceID  uint      `gorm:"not null;index" json:"invoice_id"`
	FromStatus string    `gorm:"size:16;not null" json:"from_status"`
	ToStatus   string    `gorm:"size:16;not null" json:"to_status"`
	CreatedAt  time.Time `json:"created_at"`
}
