package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/enum"
	"github.com/kedai-qr/api/internal/middleware"
	"github.com/kedai-qr/api/internal/service"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService.
type OrderServicer interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, to database.OrderStatus, actor enum.Actor) (database.Order, error)
}

// OrderHandler handles customer checkout and staff order transitions.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterPublicRoutes registers the session-scoped checkout endpoint.
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/orders", h.Checkout)
}

// RegisterStaffRoutes registers order transitions. Expected behind
// Authenticate and RequireRole.
func (h *OrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Put("/orders/{id_order}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type checkoutRequest struct {
	TableNumber   string                `json:"table_number"`
	Token         string                `json:"token"`
	CustomerName  string                `json:"customer_name"`
	Phone         string                `json:"phone"`
	PaymentMethod string                `json:"payment_method"`
	PaymentType   string                `json:"payment_type"`
	TotalAmount   *decimal.Decimal      `json:"total_amount"`
	Items         []checkoutItemRequest `json:"items"`
}

type checkoutItemRequest struct {
	MenuID    int64  `json:"menu_id"`
	Quantity  int32  `json:"quantity"`
	DrinkType string `json:"drink_type"`
}

type checkoutResponse struct {
	OrderID   int64           `json:"order_id"`
	PaymentID int64           `json:"payment_id"`
	Total     string          `json:"total"`
	Order     orderResponse   `json:"order"`
	Payment   paymentResponse `json:"payment"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// Checkout handles POST /orders. The table token in the body is the
// customer's only credential.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.TableNumber == "" || req.Token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_number and token are required"})
		return
	}

	items := make([]service.CheckoutItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CheckoutItem{
			MenuID:    item.MenuID,
			Quantity:  item.Quantity,
			DrinkType: item.DrinkType,
		}
	}

	result, err := h.svc.Checkout(r.Context(), service.CheckoutRequest{
		TableNumber:   req.TableNumber,
		Token:         req.Token,
		CustomerName:  req.CustomerName,
		Phone:         req.Phone,
		PaymentMethod: req.PaymentMethod,
		PaymentType:   req.PaymentType,
		TotalAmount:   req.TotalAmount,
		Items:         items,
	})
	if err != nil {
		writeServiceError(w, "checkout", err)
		return
	}

	order := dbOrderToResponse(result.Order)
	order.Items = make([]orderItemResponse, len(result.Items))
	for i, item := range result.Items {
		order.Items[i] = dbOrderItemToResponse(item)
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		OrderID:   result.Order.ID,
		PaymentID: result.Payment.ID,
		Total:     result.Total.StringFixed(2),
		Order:     order,
		Payment:   dbPaymentToResponse(result.Payment),
	})
}

// UpdateStatus handles PUT /orders/{id_order}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, ok := parseIDParam(r, "id_order")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	updated, err := h.svc.UpdateOrderStatus(r.Context(), orderID, database.OrderStatus(req.Status), enum.ActorForRole(claims.Role))
	if err != nil {
		writeServiceError(w, "update order status", err)
		return
	}

	writeJSON(w, http.StatusOK, dbOrderToResponse(updated))
}
