package handlers

import (
	"net/http"

	"github.com/billfold/billfold/internal/httpx"
	"github.com/billfold/billfold/internal/services"

	"github.com/sirupsen/logrus"
)

type CustomerHandler struct {
	svc *services.CustomerService
	log *logrus.Logger
}

func NewCustomerHandler(svc *services.CustomerService, log *logrus.Logger) *CustomerHandler {
	return &CustomerHandler{svc: svc, log: log}
}

type customerReq struct {
	Name         string `json:"name" validate:"required,max=200"`
	ContactName  string `json:"contact_name" validate:"max=200"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"max=40"`
	AddressLine1 string `json:"address_line1" validate:"max=200"`
	AddressLine2 string `json:"address_line2" validate:"max=200"`
	City         string `json:"city" validate:"max=100"`
	PostalCode   string `json:"postal_code" validate:"max=20"`
	Country      string `json:"country" validate:"max=100"`
	TaxID        string `json:"tax_id" validate:"max=64"`
}

func (req *customerReq) toInput() services.CustomerInput {
	return services.CustomerInput{
		Name:         req.Name,
		ContactName:  req.ContactName,
		Email:        req.Email,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		TaxID:        req.TaxID,
	}
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	query, page, limit := listParams(r)
	customers, total, err := h.svc.List(r.Context(), uid, query, page, limit)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newListResponse(customers, total, page, limit))
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Get(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req customerReq
	if !httpx.Decode(w, r, &req) {
		return
	}
	c, err := h.svc.Create(r.Context(), uid, req.toInput())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}
	var req customerReq
	if !httpx.Decode(w, r, &req) {
		return
	}
	c, err := h.svc.Update(r.Context(), uid, id, req.toInput())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
