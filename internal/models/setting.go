package models

import "time"

// Setting holds one row per user: company branding, document defaults and PDF
// rendering preferences. Created lazily on first access.
type Setting struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	CompanyName    string `json:"company_name"`
	CompanyAddress string `gorm:"type:text" json:"company_address"`
	CompanyEmail   string `json:"company_email"`
	CompanyPhone   string `json:"company_phone"`
	TaxID          string `json:"tax_id"`

	DefaultCurrency string `gorm:"size:3;not null;default:'EUR'" json:"default_currency"`
	DefaultTerms    string `gorm:"type:text" json:"default_terms"`
	DefaultNotes    string `gorm:"type:text" json:"default_notes"`

	PDFTemplate   string  `gorm:"size:32;not null;default:'classic'" json:"pdf_template"`
	PDFFontSize   int     `gorm:"not null;default:10" json:"pdf_font_size"`
	PDFMarginLeft float64 `gorm:"not null;default:15" json:"pdf_margin_left"`
	PDFMarginTop  float64 `gorm:"not null;default:10" json:"pdf_margin_top"`
	PDFShowTerms  bool    `gorm:"not null;default:true" json:"pdf_show_terms"`
	PDFShowNotes  bool    `gorm:"not null;default:true" json:"pdf_show_notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
