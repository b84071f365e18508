package handlers

import (
	"encoding/csv"
	"net/http"
	"strings"

	"github.com/billfold/billfold/internal/httpx"
	"github.com/billfold/billfold/internal/models"
	"github.com/billfold/billfold/internal/services"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ItemHandler struct {
	svc *services.ItemService
	log *logrus.Logger
}

func NewItemHandler(svc *services.ItemService, log *logrus.Logger) *ItemHandler {
	return &ItemHandler{svc: svc, log: log}
}

type itemReq struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Currency    string          `json:"currency" validate:"omitempty,len=3"`
}

func (req *itemReq) toInput() (services.ItemInput, bool) {
	if req.Currency == "" {
		req.Currency = "EUR"
	}
	return services.ItemInput{
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Currency:    strings.ToUpper(req.Currency),
	}, !req.UnitPrice.IsNegative()
}

// itemView decorates the model with the quantity invoiced so far.
type itemView struct {
	models.Item
	TotalSoldQuantity int64 `json:"total_sold_quantity"`
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	query, page, limit := listParams(r)
	items, total, err := h.svc.List(r.Context(), uid, query, page, limit)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	sold, err := h.svc.SoldQuantities(r.Context(), uid)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, itemView{Item: it, TotalSoldQuantity: sold[it.ID]})
	}
	httpx.JSON(w, http.StatusOK, newListResponse(views, total, page, limit))
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	item, err := h.svc.Get(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	sold, err := h.svc.SoldQuantities(r.Context(), uid)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, itemView{Item: *item, TotalSoldQuantity: sold[item.ID]})
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req itemReq
	if !httpx.Decode(w, r, &req) {
		return
	}
	in, ok := req.toInput()
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"unit_price": "must_be_non_negative"})
		return
	}
	item, err := h.svc.Create(r.Context(), uid, in)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	var req itemReq
	if !httpx.Decode(w, r, &req) {
		return
	}
	in, ok := req.toInput()
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"unit_price": "must_be_non_negative"})
		return
	}
	item, err := h.svc.Update(r.Context(), uid, id, in)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// ExportCSV streams the catalog as name,description,unit_price,currency.
func (h *ItemHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, _, err := h.svc.List(r.Context(), uid, "", 1, 200)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="items.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"name", "description", "unit_price", "currency"})
	for _, it := range items {
		_ = cw.Write([]string{it.Name, it.Description, it.UnitPrice.StringFixed(2), it.Currency})
	}
	cw.Flush()
}

// ImportCSV reads rows in the export format and creates catalog entries.
// Bad rows are skipped and counted, not fatal.
func (h *ItemHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	reader := csv.NewReader(r.Body)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_csv", nil)
		return
	}
	imported, skipped := 0, 0
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
			continue // header row
		}
		if len(rec) < 3 {
			skipped++
			continue
		}
		price, perr := decimal.NewFromString(strings.TrimSpace(rec[2]))
		name := strings.TrimSpace(rec[0])
		if perr != nil || name == "" || price.IsNegative() {
			skipped++
			continue
		}
		currency := "EUR"
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			currency = strings.ToUpper(strings.TrimSpace(rec[3]))
		}
		if len(currency) != 3 {
			skipped++
			continue
		}
		_, err := h.svc.Create(r.Context(), uid, services.ItemInput{
			Name:        name,
			Description: strings.TrimSpace(rec[1]),
			UnitPrice:   price,
			Currency:    currency,
		})
		if err != nil {
			h.log.WithError(err).WithField("row", i+1).Warn("csv import row failed")
			skipped++
			continue
		}
		imported++
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"imported": imported, "skipped": skipped})
}
