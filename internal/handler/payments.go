package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/enum"
	"github.com/kedai-qr/api/internal/middleware"
	"github.com/kedai-qr/api/internal/service"
	"github.com/shopspring/decimal"
)

// PaymentServicer defines the service methods needed by payment handlers.
// Satisfied by *service.PaymentService.
type PaymentServicer interface {
	UpdatePaymentStatus(ctx context.Context, req service.UpdatePaymentRequest) (*service.PaymentResult, error)
	MarkPaymentSuccess(ctx context.Context, tableNumber, token string, amountPaid decimal.Decimal) (database.Payment, error)
	CancelPaymentAndOrder(ctx context.Context, tableNumber, token string) (*service.PaymentResult, error)
	ExpirePendingPayments(ctx context.Context) (*service.ExpireResult, error)
	GetPaymentDetails(ctx context.Context, tableNumber, token string) (*service.PaymentDetails, error)
}

// PaymentStore defines the read-only database methods needed by payment
// handlers. Satisfied by *database.Queries.
type PaymentStore interface {
	GetPayment(ctx context.Context, id int64) (database.Payment, error)
	ListPaymentEvents(ctx context.Context, paymentID int64) ([]database.PaymentEvent, error)
}

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	svc   PaymentServicer
	store PaymentStore
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc PaymentServicer, store PaymentStore) *PaymentHandler {
	return &PaymentHandler{svc: svc, store: store}
}

// RegisterPublicRoutes registers the session-scoped customer endpoints.
func (h *PaymentHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/payments/success", h.Claim)
	r.Post("/payments/cancel", h.Cancel)
	r.Get("/payments/details", h.Details)
}

// RegisterStaffRoutes registers cashier endpoints. Expected behind
// Authenticate and RequireRole.
func (h *PaymentHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/payments/expire", h.Expire)
	r.Put("/payments/{id_payment}/status", h.UpdateStatus)
	r.Get("/payments/{id_payment}/events", h.Events)
}

// --- Request / Response types ---

type sessionRequest struct {
	TableNumber string `json:"table_number"`
	Token       string `json:"token"`
}

type claimPaymentRequest struct {
	sessionRequest
	AmountPaid *decimal.Decimal `json:"amount_paid"`
}

type updatePaymentRequest struct {
	Status     string           `json:"status"`
	AmountPaid *decimal.Decimal `json:"amount_paid"`
}

type paymentResultResponse struct {
	Payment   paymentResponse `json:"payment"`
	Order     orderResponse   `json:"order"`
	ChangeDue string          `json:"change_due"`
}

type paymentDetailsResponse struct {
	Payment paymentResponse `json:"payment"`
	Order   orderResponse   `json:"order"`
}

type expireResponse struct {
	Expired        []paymentResponse `json:"expired"`
	CanceledOrders []int64           `json:"canceled_orders"`
}

type paymentEventResponse struct {
	ID         int64     `json:"id"`
	PaymentID  int64     `json:"payment_id"`
	FromStatus *string   `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	AmountPaid *string   `json:"amount_paid"`
	Actor      string    `json:"actor"`
	Note       *string   `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

func toPaymentResultResponse(res *service.PaymentResult) paymentResultResponse {
	return paymentResultResponse{
		Payment:   dbPaymentToResponse(res.Payment),
		Order:     dbOrderToResponse(res.Order),
		ChangeDue: res.ChangeDue.StringFixed(2),
	}
}

// --- Handlers ---

// Claim handles POST /payments/success: the customer reports a completed
// QRIS transfer. The payment stays pending until a cashier confirms it.
func (h *PaymentHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.TableNumber == "" || req.Token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_number and token are required"})
		return
	}
	if req.AmountPaid == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount_paid is required"})
		return
	}

	payment, err := h.svc.MarkPaymentSuccess(r.Context(), req.TableNumber, req.Token, *req.AmountPaid)
	if err != nil {
		writeServiceError(w, "claim payment", err)
		return
	}

	writeJSON(w, http.StatusOK, dbPaymentToResponse(payment))
}

// Cancel handles POST /payments/cancel.
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.TableNumber == "" || req.Token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_number and token are required"})
		return
	}

	res, err := h.svc.CancelPaymentAndOrder(r.Context(), req.TableNumber, req.Token)
	if err != nil {
		writeServiceError(w, "cancel payment", err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResultResponse(res))
}

// Details handles GET /payments/details?table=&token=.
func (h *PaymentHandler) Details(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	token := r.URL.Query().Get("token")
	if table == "" || token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table and token are required"})
		return
	}

	details, err := h.svc.GetPaymentDetails(r.Context(), table, token)
	if err != nil {
		writeServiceError(w, "payment details", err)
		return
	}

	writeJSON(w, http.StatusOK, paymentDetailsResponse{
		Payment: dbPaymentToResponse(details.Payment),
		Order:   dbOrderToResponse(details.Order),
	})
}

// Expire handles POST /payments/expire.
func (h *PaymentHandler) Expire(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ExpirePendingPayments(r.Context())
	if err != nil {
		writeServiceError(w, "expire payments", err)
		return
	}

	resp := expireResponse{
		Expired:        make([]paymentResponse, len(res.Payments)),
		CanceledOrders: res.CanceledOrders,
	}
	if resp.CanceledOrders == nil {
		resp.CanceledOrders = []int64{}
	}
	for i, p := range res.Payments {
		resp.Expired[i] = dbPaymentToResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PUT /payments/{id_payment}/status.
func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	paymentID, ok := parseIDParam(r, "id_payment")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment ID"})
		return
	}

	var req updatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	res, err := h.svc.UpdatePaymentStatus(r.Context(), service.UpdatePaymentRequest{
		PaymentID:  paymentID,
		Status:     database.PaymentStatus(req.Status),
		AmountPaid: req.AmountPaid,
		Actor:      enum.ActorForRole(claims.Role),
	})
	if err != nil {
		writeServiceError(w, "update payment status", err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResultResponse(res))
}

// Events handles GET /payments/{id_payment}/events: the payment's audit log.
func (h *PaymentHandler) Events(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := parseIDParam(r, "id_payment")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment ID"})
		return
	}

	if _, err := h.store.GetPayment(r.Context(), paymentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "payment not found"})
			return
		}
		log.Printf("ERROR: get payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	evts, err := h.store.ListPaymentEvents(r.Context(), paymentID)
	if err != nil {
		log.Printf("ERROR: list payment events: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]paymentEventResponse, len(evts))
	for i, e := range evts {
		resp[i] = paymentEventResponse{
			ID:         e.ID,
			PaymentID:  e.PaymentID,
			ToStatus:   string(e.ToStatus),
			AmountPaid: optionalNumeric(e.AmountPaid),
			Actor:      e.Actor,
			Note:       optionalText(e.Note),
			CreatedAt:  e.CreatedAt,
		}
		if e.FromStatus.Valid {
			s := string(e.FromStatus.PaymentStatus)
			resp[i].FromStatus = &s
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
