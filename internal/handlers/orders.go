package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Bessima/orderflow/internal/customerror"
	"github.com/Bessima/orderflow/internal/handlers/schemas"
	"github.com/Bessima/orderflow/internal/lifecycle"
	"github.com/Bessima/orderflow/internal/models"
	"github.com/Bessima/orderflow/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	Create(ctx context.Context, order models.Order) (*service.ActionResult, error)
	Get(ctx context.Context, userID int, id int64) (*models.Order, error)
	List(ctx context.Context, userID int) ([]models.Order, error)
	Apply(ctx context.Context, userID int, id int64, action lifecycle.Action, reason string) (*service.ActionResult, error)
	UpdateCommercial(ctx context.Context, userID int, id int64, patch models.OrderPatch) (*service.ActionResult, error)
	Resync(ctx context.Context, userID int, id int64) (*service.ActionResult, error)
	BulkDelete(ctx context.Context, userID int, ids []int64) (int64, error)
	Timeline(ctx context.Context, userID int, id int64) ([]models.OrderEvent, error)
	Invoice(ctx context.Context, userID int, id int64) (*models.Invoice, error)
	InvoiceDocument(ctx context.Context, userID int, id int64) ([]byte, *models.Invoice, error)
}

type OrdersHandler struct {
	service OrderService
}

func NewOrdersHandler(orderService OrderService) *OrdersHandler {
	return &OrdersHandler{service: orderService}
}

func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "user was not got")
		return
	}

	var req schemas.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if err := schemas.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Create(r.Context(), req.ToOrder(user.ID))
	writeResult(w, http.StatusCreated, result, err)
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "user was not got")
		return
	}

	orders, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Notice{Level: LevelInfo, Message: fmt.Sprintf("%d orders", len(orders))}, orders)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, id, ok := orderRequest(w, r)
	if !ok {
		return
	}

	order, err := h.service.Get(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Notice{Level: LevelInfo, Message: fmt.Sprintf("order %s", order.OrderCode)}, order)
}

func (h *OrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, id, ok := orderRequest(w, r)
	if !ok {
		return
	}

	var req schemas.UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if err := schemas.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.UpdateCommercial(r.Context(), user.ID, id, req.ToPatch())
	writeResult(w, http.StatusOK, result, err)
}

// Action выполняет переход статуса. Тело с причиной необязательно.
func (h *OrdersHandler) Action(w http.ResponseWriter, r *http.Request) {
	user, id, ok := orderRequest(w, r)
	if !ok {
		return
	}

	action, err := lifecycle.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, customerror.NewValidationError(err.Error()))
		return
	}

	var req schemas.ActionRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "Invalid request body")
		return
	}
	if err = schemas.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Apply(r.Context(), user.ID, id, action, req.Reason)
	writeResult(w, http.StatusOK, result, err)
}

func (h *OrdersHandler) Resync(w http.ResponseWriter, r *http.Request) {
	user, id, ok := orderRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Resync(r.Context(), user.ID, id)
	writeResult(w, http.StatusOK, result, err)
}

func (h *OrdersHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "user was not got")
		return
	}

	var req schemas.BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if err := schemas.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	deleted, err := h.service.BulkDelete(r.Context(), user.ID, req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK,
		Notice{Level: LevelSuccess, Message: fmt.Sprintf("%d orders deleted", deleted)},
		schemas.BulkDeleteResponse{Deleted: deleted},
	)
}

func (h *OrdersHandler) Events(w http.ResponseWriter, r *http.Request) {
	user, id, ok := orderRequest(w, r)
	if !ok {
		return
	}

	events, err := h.service.Timeline(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Notice{Level: LevelInfo, Message: fmt.Sprintf("%d events", len(events))}, events)
}

func (h *OrdersHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	user, id, ok := orderRequest(w, r)
	if !ok {
		return
	}

	invoice, err := h.service.Invoice(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Notice{Level: LevelInfo, Message: fmt.Sprintf("invoice %s", invoice.InvoiceCode)}, invoice)
}

// InvoiceDocument отдаёт документ счёта как есть, без конверта.
func (h *OrdersHandler) InvoiceDocument(w http.ResponseWriter, r *http.Request) {
	user, id, ok := orderRequest(w, r)
	if !ok {
		return
	}

	content, invoice, err := h.service.InvoiceDocument(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", invoice.InvoiceCode+".txt"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func orderRequest(w http.ResponseWriter, r *http.Request) (*models.User, int64, bool) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "user was not got")
		return nil, 0, false
	}
	id, err := orderIDParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return nil, 0, false
	}
	return user, id, true
}
