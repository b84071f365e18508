package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/billfold/billfold/internal/billing"
	"github.com/billfold/billfold/internal/httpx"
	"github.com/billfold/billfold/internal/mail"
	"github.com/billfold/billfold/internal/models"
	"github.com/billfold/billfold/internal/pdf"
	"github.com/billfold/billfold/internal/services"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type InvoiceHandler struct {
	svc      *services.InvoiceService
	settings *services.SettingsService
	mailer   mail.Mailer
	log      *logrus.Logger
}

func NewInvoiceHandler(svc *services.InvoiceService, settings *services.SettingsService, mailer mail.Mailer, log *logrus.Logger) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, settings: settings, mailer: mailer, log: log}
}

type invoiceReq struct {
	documentReq
	DueDate string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func (req *invoiceReq) toInvoiceInput(defaults *models.Setting) services.InvoiceInput {
	in := services.InvoiceInput{DocumentInput: req.toInput(defaults)}
	if req.DueDate != "" {
		if d, err := time.Parse(dateLayout, req.DueDate); err == nil {
			in.DueDate = d
		}
	}
	return in
}

// invoiceView adds the derived status: sent invoices past due read as overdue.
type invoiceView struct {
	models.Invoice
	EffectiveStatus string `json:"effective_status"`
}

func invoiceDTO(inv *models.Invoice) invoiceView {
	return invoiceView{
		Invoice:         *inv,
		EffectiveStatus: billing.EffectiveInvoiceStatus(inv.Status, inv.DueDate, time.Now()),
	}
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	query, page, limit := listParams(r)
	invoices, total, err := h.svc.List(r.Context(), uid, query, page, limit)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	views := make([]invoiceView, 0, len(invoices))
	for i := range invoices {
		views = append(views, invoiceDTO(&invoices[i]))
	}
	httpx.JSON(w, http.StatusOK, newListResponse(views, total, page, limit))
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.Get(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoiceDTO(inv))
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req invoiceReq
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
	inv, err := h.svc.Create(r.Context(), uid, req.toInvoiceInput(defaults))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoiceDTO(inv))
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	var req invoiceReq
	if !httpx.Decode(w, r, &req) {
		return
	}
	if !req.checkAmounts(w) {
		return
	}
	inv, err := h.svc.Update(r.Context(), uid, id, req.toInvoiceInput(nil))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoiceDTO(inv))
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *InvoiceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
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
	inv, err := h.svc.SetStatus(r.Context(), uid, id, req.Status)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoiceDTO(inv))
}

// History returns the status transition log, oldest first.
func (h *InvoiceHandler) History(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.History(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
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

// Send emails the invoice PDF to the customer and marks the invoice sent,
// which also lands in the status history.
func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.Get(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if inv.Customer.Email == "" {
		httpx.JSONError(w, http.StatusBadRequest, "customer_email_missing", nil)
		return
	}
	data, filename, err := h.renderPDF(r, uid, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	msg := mail.Message{
		To:             inv.Customer.Email,
		Subject:        fmt.Sprintf("Invoice %s", inv.InvoiceNumber),
		Body:           fmt.Sprintf("Please find attached invoice %s, due %s.", inv.InvoiceNumber, inv.DueDate.Format(dateLayout)),
		AttachmentName: filename,
		Attachment:     data,
	}
	if err := h.mailer.Send(r.Context(), msg); err != nil {
		h.log.WithError(err).Error("invoice mail failed")
		httpx.JSONError(w, http.StatusBadGateway, "mail_failed", nil)
		return
	}
	inv, err = h.svc.SetStatus(r.Context(), uid, id, billing.InvoiceStatusSent)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoiceDTO(inv))
}

func (h *InvoiceHandler) renderPDF(r *http.Request, uid, id uint) ([]byte, string, error) {
	inv, err := h.svc.Get(r.Context(), uid, id)
	if err != nil {
		return nil, "", err
	}
	st, err := h.settings.Get(r.Context(), uid)
	if err != nil {
		return nil, "", err
	}
	data, err := pdf.Render(invoicePDFData(inv, st), pdfOptions(st))
	if err != nil {
		return nil, "", err
	}
	return data, inv.InvoiceNumber + ".pdf", nil
}

func invoicePDFData(inv *models.Invoice, st *models.Setting) pdf.DocumentData {
	lines := make([]pdf.LineData, 0, len(inv.Items))
	for _, it := range inv.Items {
		lines = append(lines, pdf.LineData{
			Name:      it.Item.Name,
			Qty:       it.Qty,
			UnitPrice: it.Price.StringFixed(2),
			Total:     it.Price.Mul(decimal.NewFromInt(int64(it.Qty))).Round(2).StringFixed(2),
		})
	}
	d := pdf.DocumentData{
		Kind:     "Invoice",
		Number:   inv.InvoiceNumber,
		Date:     inv.IssueDate.Format(dateLayout),
		DueDate:  inv.DueDate.Format(dateLayout),
		Currency: inv.Currency,
		Company:  pdfCompany(st),
		Customer: pdfCustomer(inv.Customer),
		Lines:    lines,
		SubTotal: inv.SubTotal.StringFixed(2),
		Total:    inv.Total.StringFixed(2),
		Terms:    inv.Terms,
		Notes:    inv.Notes,
	}
	if !inv.DiscountAmount.IsZero() {
		d.DiscountAmount = inv.DiscountAmount.StringFixed(2)
	}
	if !inv.TaxRate.IsZero() {
		d.TaxRate = inv.TaxRate.String()
	}
	return d
}
