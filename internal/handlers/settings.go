package handlers

import (
	"net/http"
	"strings"

	"github.com/billfold/billfold/internal/httpx"
	"github.com/billfold/billfold/internal/services"

	"github.com/sirupsen/logrus"
)

type SettingsHandler struct {
	svc *services.SettingsService
	log *logrus.Logger
}

func NewSettingsHandler(svc *services.SettingsService, log *logrus.Logger) *SettingsHandler {
	return &SettingsHandler{svc: svc, log: log}
}

type settingsReq struct {
	CompanyName    string `json:"company_name" validate:"max=200"`
	CompanyAddress string `json:"company_address" validate:"max=1000"`
	CompanyEmail   string `json:"company_email" validate:"omitempty,email"`
	CompanyPhone   string `json:"company_phone" validate:"max=40"`
	TaxID          string `json:"tax_id" validate:"max=64"`

	DefaultCurrency string `json:"default_currency" validate:"omitempty,len=3"`
	DefaultTerms    string `json:"default_terms" validate:"max=4000"`
	DefaultNotes    string `json:"default_notes" validate:"max=4000"`

	PDFTemplate   string  `json:"pdf_template" validate:"omitempty,oneof=classic compact"`
	PDFFontSize   int     `json:"pdf_font_size" validate:"omitempty,min=6,max=16"`
	PDFMarginLeft float64 `json:"pdf_margin_left" validate:"min=0,max=50"`
	PDFMarginTop  float64 `json:"pdf_margin_top" validate:"min=0,max=50"`
	PDFShowTerms  bool    `json:"pdf_show_terms"`
	PDFShowNotes  bool    `json:"pdf_show_notes"`
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	st, err := h.svc.Get(r.Context(), uid)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req settingsReq
	if !httpx.Decode(w, r, &req) {
		return
	}
	if req.DefaultCurrency == "" {
		req.DefaultCurrency = "EUR"
	}
	if req.PDFTemplate == "" {
		req.PDFTemplate = "classic"
	}
	if req.PDFFontSize == 0 {
		req.PDFFontSize = 10
	}
	if req.PDFMarginLeft == 0 {
		req.PDFMarginLeft = 15
	}
	if req.PDFMarginTop == 0 {
		req.PDFMarginTop = 10
	}
	st, err := h.svc.Update(r.Context(), uid, services.SettingsInput{
		CompanyName:     req.CompanyName,
		CompanyAddress:  req.CompanyAddress,
		CompanyEmail:    req.CompanyEmail,
		CompanyPhone:    req.CompanyPhone,
		TaxID:           req.TaxID,
		DefaultCurrency: strings.ToUpper(req.DefaultCurrency),
		DefaultTerms:    req.DefaultTerms,
		DefaultNotes:    req.DefaultNotes,
		PDFTemplate:     req.PDFTemplate,
		PDFFontSize:     req.PDFFontSize,
		PDFMarginLeft:   req.PDFMarginLeft,
		PDFMarginTop:    req.PDFMarginTop,
		PDFShowTerms:    req.PDFShowTerms,
		PDFShowNotes:    req.PDFShowNotes,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}
