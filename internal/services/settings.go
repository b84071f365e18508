package services

import (
	"context"

	"github.com/billfold/billfold/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SettingsService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewSettingsService(db *gorm.DB, log *logrus.Logger) *SettingsService {
	return &SettingsService{db: db, log: log}
}

// Get returns the user's settings row, creating the defaults on first access.
func (s *SettingsService) Get(ctx context.Context, userID uint) (*models.Setting, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&setting).Error
	if err == nil {
		return &setting, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	setting = models.Setting{
		UserID:          userID,
		DefaultCurrency: "EUR",
		PDFTemplate:     "classic",
		PDFFontSize:     10,
		PDFMarginLeft:   15,
		PDFMarginTop:    10,
		PDFShowTerms:    true,
		PDFShowNotes:    true,
	}
	if err := s.db.WithContext(ctx).Create(&setting).Error; err != nil {
		// lost a create race: the other request's row wins
		if isUniqueViolation(err) {
			if ferr := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&setting).Error; ferr == nil {
				return &setting, nil
			}
		}
		return nil, err
	}
	return &setting, nil
}

type SettingsInput struct {
	CompanyName     string
	CompanyAddress  string
	CompanyEmail    string
	CompanyPhone    string
	TaxID           string
	DefaultCurrency string
	DefaultTerms    string
	DefaultNotes    string
	PDFTemplate     string
	PDFFontSize     int
	PDFMarginLeft   float64
	PDFMarginTop    float64
	PDFShowTerms    bool
	PDFShowNotes    bool
}

func (s *SettingsService) Update(ctx context.Context, userID uint, in SettingsInput) (*models.Setting, error) {
	setting, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{
		"company_name":     in.CompanyName,
		"company_address":  in.CompanyAddress,
		"company_email":    in.CompanyEmail,
		"company_phone":    in.CompanyPhone,
		"tax_id":           in.TaxID,
		"default_currency": in.DefaultCurrency,
		"default_terms":    in.DefaultTerms,
		"default_notes":    in.DefaultNotes,
		"pdf_template":     in.PDFTemplate,
		"pdf_font_size":    in.PDFFontSize,
		"pdf_margin_left":  in.PDFMarginLeft,
		"pdf_margin_top":   in.PDFMarginTop,
		"pdf_show_terms":   in.PDFShowTerms,
		"pdf_show_notes":   in.PDFShowNotes,
	}
	if err := s.db.WithContext(ctx).Model(setting).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}
