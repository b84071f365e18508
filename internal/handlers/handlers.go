package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/billfold/billfold/internal/auth"
	"github.com/billfold/billfold/internal/httpx"
	"github.com/billfold/billfold/internal/models"
	"github.com/billfold/billfold/internal/pdf"
	"github.com/billfold/billfold/internal/services"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// writeServiceError maps service sentinels to HTTP responses; anything
// unmatched is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, log *logrus.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrInvalidReference):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_reference", nil)
	case errors.Is(err, services.ErrInvalidStatus):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_status", nil)
	case errors.Is(err, services.ErrCustomerInUse):
		httpx.JSONError(w, http.StatusConflict, "customer_has_documents", nil)
	case errors.Is(err, services.ErrItemInUse):
		httpx.JSONError(w, http.StatusConflict, "item_in_use", nil)
	case errors.Is(err, services.ErrInvoicePaid):
		httpx.JSONError(w, http.StatusConflict, "invoice_paid", nil)
	case errors.Is(err, services.ErrQuoteConverted):
		httpx.JSONError(w, http.StatusConflict, "quote_already_converted", nil)
	case errors.Is(err, services.ErrNumberConflict):
		httpx.JSONError(w, http.StatusConflict, "number_conflict", nil)
	case errors.Is(err, services.ErrEmailTaken):
		httpx.JSONError(w, http.StatusConflict, "email_already_registered", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
	default:
		log.WithError(err).Error("request failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func currentUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return 0, false
	}
	return uid, true
}

func requireQueryID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := httpx.QueryID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return id, true
}

// listParams reads the shared q/page/limit query parameters.
func listParams(r *http.Request) (query string, page, limit int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	return q.Get("q"), page, limit
}

type listResponse struct {
	Data  any   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func newListResponse(data any, total int64, page, limit int) listResponse {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return listResponse{Data: data, Total: total, Page: page, Limit: limit}
}

const dateLayout = "2006-01-02"

type lineReq struct {
	ItemID uint            `json:"item_id" validate:"required"`
	Price  decimal.Decimal `json:"price"`
	Qty    int             `json:"qty" validate:"required,min=1"`
}

// documentReq is the shared request body of quote and invoice writes.
type documentReq struct {
	CustomerID    uint            `json:"customer_id" validate:"required"`
	Title         string          `json:"title" validate:"max=200"`
	PONumber      string          `json:"po_number" validate:"max=64"`
	Date          string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Currency      string          `json:"currency" validate:"omitempty,len=3"`
	DiscountType  string          `json:"discount_type" validate:"omitempty,oneof=none fixed percentage"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Terms         string          `json:"terms"`
	Notes         string          `json:"notes"`
	Items         []lineReq       `json:"items" validate:"required,min=1,dive"`
}

// checkAmounts rejects negative money fields, which struct tags cannot see
// inside decimal.Decimal. Writes the 400 itself, mirrors httpx.Decode.
func (req *documentReq) checkAmounts(w http.ResponseWriter) bool {
	details := map[string]string{}
	if req.DiscountValue.IsNegative() {
		details["discount_value"] = "must_be_non_negative"
	}
	if req.TaxRate.IsNegative() {
		details["tax_rate"] = "must_be_non_negative"
	}
	for _, l := range req.Items {
		if l.Price.IsNegative() {
			details["price"] = "must_be_non_negative"
			break
		}
	}
	if len(details) > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", details)
		return false
	}
	return true
}

// toInput converts the request to a service input, filling blanks from the
// user's settings.
func (req *documentReq) toInput(defaults *models.Setting) services.DocumentInput {
	in := services.DocumentInput{
		CustomerID:    req.CustomerID,
		Title:         req.Title,
		PONumber:      req.PONumber,
		Currency:      req.Currency,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		TaxRate:       req.TaxRate,
		Terms:         req.Terms,
		Notes:         req.Notes,
	}
	if req.Date != "" {
		if d, err := time.Parse(dateLayout, req.Date); err == nil {
			in.Date = d
		}
	}
	if in.DiscountType == "" {
		in.DiscountType = "none"
	}
	if defaults != nil {
		if in.Currency == "" {
			in.Currency = defaults.DefaultCurrency
		}
		if in.Terms == "" {
			in.Terms = defaults.DefaultTerms
		}
		if in.Notes == "" {
			in.Notes = defaults.DefaultNotes
		}
	}
	if in.Currency == "" {
		in.Currency = "EUR"
	}
	in.Lines = make([]services.LineInput, 0, len(req.Items))
	for _, l := range req.Items {
		in.Lines = append(in.Lines, services.LineInput{ItemID: l.ItemID, Price: l.Price, Qty: l.Qty})
	}
	return in
}

func pdfOptions(st *models.Setting) pdf.Options {
	return pdf.Options{
		Template:   st.PDFTemplate,
		FontSize:   st.PDFFontSize,
		MarginLeft: st.PDFMarginLeft,
		MarginTop:  st.PDFMarginTop,
		ShowTerms:  st.PDFShowTerms,
		ShowNotes:  st.PDFShowNotes,
	}
}

func pdfCompany(st *models.Setting) pdf.CompanyData {
	return pdf.CompanyData{
		Name:    st.CompanyName,
		Address: st.CompanyAddress,
		Email:   st.CompanyEmail,
		Phone:   st.CompanyPhone,
		TaxID:   st.TaxID,
	}
}

func pdfCustomer(c models.Customer) pdf.CustomerData {
	return pdf.CustomerData{Name: c.Name, Address: c.FullAddress(), Email: c.Email}
}

func writePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
