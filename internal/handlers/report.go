package handlers

import (
	"net/http"
	"time"

	"github.com/billfold/billfold/internal/report"
	"github.com/billfold/billfold/internal/services"

	"github.com/sirupsen/logrus"
)

type ReportHandler struct {
	invoices *services.InvoiceService
	log      *logrus.Logger
}

func NewReportHandler(invoices *services.InvoiceService, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{invoices: invoices, log: log}
}

// InvoicesXLSX downloads the user's invoices as a spreadsheet.
func (h *ReportHandler) InvoicesXLSX(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	invoices, err := h.invoices.AllForExport(r.Context(), uid)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	data, err := report.InvoicesXLSX(invoices, time.Now())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
