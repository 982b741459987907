package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/service"
	"github.com/shopspring/decimal"
)

type sessionErrorResponse struct {
	Error   string `json:"error"`
	Expired bool   `json:"expired"`
}

// writeServiceError maps a service error to its HTTP status. Unknown errors
// are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch service.KindOf(err) {
	case service.KindValidation:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case service.KindNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case service.KindConflict:
		writeConflict(w, err)
	case service.KindUnauthorized:
		writeJSON(w, http.StatusUnauthorized, sessionErrorResponse{
			Error:   err.Error(),
			Expired: errors.Is(err, service.ErrTokenExpired),
		})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeConflict(w http.ResponseWriter, err error) {
	var stockErr *service.StockError
	if errors.As(err, &stockErr) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":     service.ErrInsufficientStock.Error(),
			"menu_id":   stockErr.MenuID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
		return
	}
	writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
}

// parseIDParam reads a positive integer URL parameter.
func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	return service.NumericToDecimal(n).StringFixed(2)
}

func optionalNumeric(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := numericToString(n)
	return &s
}

func optionalText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

// --- Shared response types ---

type orderResponse struct {
	ID            int64               `json:"id"`
	TableID       int64               `json:"table_id"`
	TableNumber   string              `json:"table_number"`
	CustomerName  string              `json:"customer_name"`
	Phone         *string             `json:"phone"`
	PaymentMethod string              `json:"payment_method"`
	Status        string              `json:"status"`
	OrderTime     time.Time           `json:"order_time"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Items         []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID        int64   `json:"id"`
	MenuID    *int64  `json:"menu_id"`
	MenuName  string  `json:"menu_name"`
	DrinkType *string `json:"drink_type"`
	Quantity  int32   `json:"quantity"`
	Price     string  `json:"price"`
	Subtotal  string  `json:"subtotal"`
}

type paymentResponse struct {
	ID            int64     `json:"id"`
	OrderID       int64     `json:"order_id"`
	TableID       int64     `json:"table_id"`
	Amount        string    `json:"amount"`
	AmountPaid    *string   `json:"amount_paid"`
	PaymentStatus string    `json:"payment_status"`
	PaymentType   string    `json:"payment_type"`
	PaymentTime   time.Time `json:"payment_time"`
}

func dbOrderToResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		TableID:       o.TableID,
		TableNumber:   o.TableNumber,
		CustomerName:  o.CustomerName,
		Phone:         optionalText(o.Phone),
		PaymentMethod: string(o.PaymentMethod),
		Status:        string(o.Status),
		OrderTime:     o.OrderTime,
		UpdatedAt:     o.UpdatedAt,
	}
}

func dbOrderItemToResponse(item database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:        item.ID,
		MenuName:  item.MenuName,
		DrinkType: optionalText(item.DrinkType),
		Quantity:  item.Quantity,
		Price:     numericToString(item.Price),
		Subtotal:  lineSubtotal(item.Price, item.Quantity),
	}
	if item.MenuID.Valid {
		id := item.MenuID.Int64
		resp.MenuID = &id
	}
	return resp
}

func dbPaymentToResponse(p database.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		TableID:       p.TableID,
		Amount:        numericToString(p.Amount),
		AmountPaid:    optionalNumeric(p.AmountPaid),
		PaymentStatus: string(p.PaymentStatus),
		PaymentType:   string(p.PaymentType),
		PaymentTime:   p.PaymentTime,
	}
}

func lineTotal(price pgtype.Numeric, qty int32) decimal.Decimal {
	return service.NumericToDecimal(price).Mul(decimal.NewFromInt32(qty))
}

func lineSubtotal(price pgtype.Numeric, qty int32) string {
	return lineTotal(price, qty).StringFixed(2)
}
