package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/enum"
	"github.com/kedai-qr/api/internal/middleware"
	"github.com/shopspring/decimal"
)

// TransactionStore defines the database methods behind the cashier and
// kitchen views. Satisfied by *database.Queries.
type TransactionStore interface {
	ListCashierTransactions(ctx context.Context, arg database.ListCashierTransactionsParams) ([]database.ListCashierTransactionsRow, error)
	ListKitchenTransactions(ctx context.Context, arg database.ListKitchenTransactionsParams) ([]database.ListKitchenTransactionsRow, error)
	ListOrderItemDetails(ctx context.Context, orderID int64) ([]database.ListOrderItemDetailsRow, error)
	GetOrder(ctx context.Context, id int64) (database.Order, error)
}

// TransactionHandler serves the role-scoped "today" views.
type TransactionHandler struct {
	store  TransactionStore
	orders OrderServicer
	loc    *time.Location
}

// NewTransactionHandler creates a new TransactionHandler. loc defines the
// business day.
func NewTransactionHandler(store TransactionStore, orders OrderServicer, loc *time.Location) *TransactionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionHandler{store: store, orders: orders, loc: loc}
}

// RegisterCashierRoutes registers the cashier view (ADMIN, CASHIER).
func (h *TransactionHandler) RegisterCashierRoutes(r chi.Router) {
	r.Get("/transactions-cashier/today", h.CashierToday)
	r.Get("/transactions-cashier/{id}/items", h.Items)
}

// RegisterKitchenRoutes registers the kitchen view (ADMIN, KITCHEN). Status
// changes are limited to KITCHEN.
func (h *TransactionHandler) RegisterKitchenRoutes(r chi.Router) {
	r.Get("/transactions-kitchen/today", h.KitchenToday)
	r.Get("/transactions-kitchen/{id}/items", h.Items)
	r.With(middleware.RequireRole(enum.RoleKitchen)).Put("/transactions-kitchen/{id_order}/status", h.KitchenStatus)
}

// --- Response types ---

type cashierTransactionResponse struct {
	ID            int64      `json:"id"`
	TableID       int64      `json:"table_id"`
	TableNumber   string     `json:"table_number"`
	CustomerName  string     `json:"customer_name"`
	Phone         *string    `json:"phone"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	OrderTime     time.Time  `json:"order_time"`
	PaymentID     *int64     `json:"payment_id"`
	Amount        *string    `json:"amount"`
	AmountPaid    *string    `json:"amount_paid"`
	PaymentStatus *string    `json:"payment_status"`
	PaymentType   *string    `json:"payment_type"`
	PaymentTime   *time.Time `json:"payment_time"`
}

type kitchenTransactionResponse struct {
	ID           int64     `json:"id"`
	TableID      int64     `json:"table_id"`
	TableNumber  string    `json:"table_number"`
	CustomerName string    `json:"customer_name"`
	Status       string    `json:"status"`
	OrderTime    time.Time `json:"order_time"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type itemDetailResponse struct {
	ID          int64   `json:"id"`
	MenuID      *int64  `json:"menu_id"`
	MenuName    string  `json:"menu_name"`
	DrinkType   *string `json:"drink_type"`
	Quantity    int32   `json:"quantity"`
	Price       string  `json:"price"`
	Subtotal    string  `json:"subtotal"`
	MenuDeleted bool    `json:"menu_deleted"`
	ImageRef    *string `json:"image_ref"`
}

type orderItemsResponse struct {
	Order orderResponse        `json:"order"`
	Items []itemDetailResponse `json:"items"`
	Total string               `json:"total"`
}

func toCashierTransaction(row database.ListCashierTransactionsRow) cashierTransactionResponse {
	resp := cashierTransactionResponse{
		ID:            row.ID,
		TableID:       row.TableID,
		TableNumber:   row.TableNumber,
		CustomerName:  row.CustomerName,
		Phone:         optionalText(row.Phone),
		PaymentMethod: string(row.PaymentMethod),
		Status:        string(row.Status),
		OrderTime:     row.OrderTime,
		Amount:        optionalNumeric(row.Amount),
		AmountPaid:    optionalNumeric(row.AmountPaid),
	}
	if row.PaymentID.Valid {
		id := row.PaymentID.Int64
		resp.PaymentID = &id
	}
	if row.PaymentStatus.Valid {
		s := string(row.PaymentStatus.PaymentStatus)
		resp.PaymentStatus = &s
	}
	if row.PaymentType.Valid {
		s := string(row.PaymentType.PaymentType)
		resp.PaymentType = &s
	}
	if row.PaymentTime.Valid {
		ts := row.PaymentTime.Time
		resp.PaymentTime = &ts
	}
	return resp
}

// --- Handlers ---

// CashierToday handles GET /transactions-cashier/today?searchTerm=.
func (h *TransactionHandler) CashierToday(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.dayBounds(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.ListCashierTransactions(r.Context(), database.ListCashierTransactionsParams{
		DayStart: start,
		DayEnd:   end,
		Search:   strings.TrimSpace(r.URL.Query().Get("searchTerm")),
	})
	if err != nil {
		log.Printf("ERROR: list cashier transactions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]cashierTransactionResponse, len(rows))
	for i, row := range rows {
		resp[i] = toCashierTransaction(row)
	}

	writeJSON(w, http.StatusOK, resp)
}

// KitchenToday handles GET /transactions-kitchen/today?searchTerm=.
func (h *TransactionHandler) KitchenToday(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.dayBounds(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.ListKitchenTransactions(r.Context(), database.ListKitchenTransactionsParams{
		DayStart: start,
		DayEnd:   end,
		Search:   strings.TrimSpace(r.URL.Query().Get("searchTerm")),
	})
	if err != nil {
		log.Printf("ERROR: list kitchen transactions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]kitchenTransactionResponse, len(rows))
	for i, row := range rows {
		resp[i] = kitchenTransactionResponse{
			ID:           row.ID,
			TableID:      row.TableID,
			TableNumber:  row.TableNumber,
			CustomerName: row.CustomerName,
			Status:       string(row.Status),
			OrderTime:    row.OrderTime,
			UpdatedAt:    row.UpdatedAt,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Items returns an order's lines with their snapshotted names.
func (h *TransactionHandler) Items(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	rows, err := h.store.ListOrderItemDetails(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := orderItemsResponse{
		Order: dbOrderToResponse(order),
		Items: make([]itemDetailResponse, len(rows)),
	}
	sum := decimal.Zero
	for i, row := range rows {
		item := itemDetailResponse{
			ID:          row.ID,
			MenuName:    row.MenuName,
			DrinkType:   optionalText(row.DrinkType),
			Quantity:    row.Quantity,
			Price:       numericToString(row.Price),
			Subtotal:    lineSubtotal(row.Price, row.Quantity),
			MenuDeleted: row.MenuDeleted,
			ImageRef:    optionalText(row.ImageRef),
		}
		if row.MenuID.Valid {
			id := row.MenuID.Int64
			item.MenuID = &id
		}
		resp.Items[i] = item
		sum = sum.Add(lineTotal(row.Price, row.Quantity))
	}
	resp.Total = sum.StringFixed(2)

	writeJSON(w, http.StatusOK, resp)
}

// KitchenStatus handles PUT /transactions-kitchen/{id_order}/status.
func (h *TransactionHandler) KitchenStatus(w http.ResponseWriter, r *http.Request) {
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

	updated, err := h.orders.UpdateOrderStatus(r.Context(), orderID, database.OrderStatus(req.Status), enum.ActorForRole(claims.Role))
	if err != nil {
		writeServiceError(w, "kitchen order status", err)
		return
	}

	writeJSON(w, http.StatusOK, dbOrderToResponse(updated))
}

// --- Helpers ---

// dayBounds returns [midnight, next midnight) of the business day in the
// handler's location. ?date=YYYY-MM-DD selects another day.
func (h *TransactionHandler) dayBounds(r *http.Request) (time.Time, time.Time, error) {
	const layout = "2006-01-02"

	now := time.Now().In(h.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.loc)

	if s := r.URL.Query().Get("date"); s != "" {
		t, err := time.ParseInLocation(layout, s, h.loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid date format: %w", err)
		}
		start = t
	}

	return start, start.AddDate(0, 0, 1), nil
}
