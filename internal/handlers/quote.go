package handlers

import (
	"fmt"
	"net/http"

	"github.com/billfold/billfold/internal/billing"
	"github.com/billfold/billfold/internal/httpx"
	"github.com/billfold/billfold/internal/mail"
	"github.com/billfold/billfold/internal/models"
	"github.com/billfold/billfold/internal/pdf"
	"github.com/billfold/billfold/internal/services"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type QuoteHandler struct {
	svc      *services.QuoteService
	invoices *services.InvoiceService
	settings *services.SettingsService
	mailer   mail.Mailer
	log      *logrus.Logger
}

func NewQuoteHandler(svc *services.QuoteService, invoices *services.InvoiceService, settings *services.SettingsService, mailer mail.Mailer, log *logrus.Logger) *QuoteHandler {
	return &QuoteHandler{svc: svc, invoices: invoices, settings: settings, mailer: mailer, log: log}
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	query, page, limit := listParams(r)
	quotes, total, err := h.svc.List(r.Context(), uid, query, page, limit)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newListResponse(quotes, total, page, limit))
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	q, err := h.svc.Get(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req documentReq
	if !httpx.Decode(w, r, &req) {
		return
	}
	if !req.checkAmounts(w) {
		return
	}
	defaults, err := h.settings.Get(r.Context(), uid)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	q, err := h.svc.Create(r.Context(), uid, req.toInput(defaults))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	var req documentReq
	if !httpx.Decode(w, r, &req) {
		return
	}
	if !req.checkAmounts(w) {
		return
	}
	q, err := h.svc.Update(r.Context(), uid, id, req.toInput(nil))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), uid, id); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

func (h *QuoteHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	var req statusReq
	if !httpx.Decode(w, r, &req) {
		return
	}
	q, err := h.svc.SetStatus(r.Context(), uid, id, req.Status)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

// Convert turns the quote into a draft invoice.
func (h *QuoteHandler) Convert(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	inv, err := h.invoices.ConvertFromQuote(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoiceDTO(inv))
}

func (h *QuoteHandler) PDF(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	data, filename, err := h.renderPDF(r, uid, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writePDF(w, filename, data)
}

// Send emails the quote PDF to the customer and marks the quote sent.
func (h *QuoteHandler) Send(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	q, err := h.svc.Get(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if q.Customer.Email == "" {
		httpx.JSONError(w, http.StatusBadRequest, "customer_email_missing", nil)
		return
	}
	data, filename, err := h.renderPDF(r, uid, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	msg := mail.Message{
		To:             q.Customer.Email,
		Subject:        fmt.Sprintf("Quote %s", q.QuoteNumber),
		Body:           fmt.Sprintf("Please find attached quote %s.", q.QuoteNumber),
		AttachmentName: filename,
		Attachment:     data,
	}
	if err := h.mailer.Send(r.Context(), msg); err != nil {
		h.log.WithError(err).Error("quote mail failed")
		httpx.JSONError(w, http.StatusBadGateway, "mail_failed", nil)
		return
	}
	q, err = h.svc.SetStatus(r.Context(), uid, id, billing.QuoteStatusSent)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) renderPDF(r *http.Request, uid, id uint) ([]byte, string, error) {
	q, err := h.svc.Get(r.Context(), uid, id)
	if err != nil {
		return nil, "", err
	}
	st, err := h.settings.Get(r.Context(), uid)
	if err != nil {
		return nil, "", err
	}
	data, err := pdf.Render(quotePDFData(q, st), pdfOptions(st))
	if err != nil {
		return nil, "", err
	}
	return data, q.QuoteNumber + ".pdf", nil
}

func quotePDFData(q *models.Quote, st *models.Setting) pdf.DocumentData {
	lines := make([]pdf.LineData, 0, len(q.Items))
	for _, it := range q.Items {
		lines = append(lines, pdf.LineData{
			Name:      it.Item.Name,
			Qty:       it.Qty,
			UnitPrice: it.Price.StringFixed(2),
			Total:     it.Price.Mul(decimal.NewFromInt(int64(it.Qty))).Round(2).StringFixed(2),
		})
	}
	d := pdf.DocumentData{
		Kind:     "Quote",
		Number:   q.QuoteNumber,
		Date:     q.Date.Format(dateLayout),
		Currency: q.Currency,
		Company:  pdfCompany(st),
		Customer: pdfCustomer(q.Customer),
		Lines:    lines,
		SubTotal: q.SubTotal.StringFixed(2),
		Total:    q.Total.StringFixed(2),
		Terms:    q.Terms,
		Notes:    q.Notes,
	}
	if !q.DiscountAmount.IsZero() {
		d.DiscountAmount = q.DiscountAmount.StringFixed(2)
	}
	if !q.TaxRate.IsZero() {
		d.TaxRate = q.TaxRate.String()
	}
	return d
}
