package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/service"
	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// TableServicer defines the session methods needed by table handlers.
// Satisfied by *service.SessionService.
type TableServicer interface {
	CreateTable(ctx context.Context, tableNumber string) (database.Table, error)
	GenerateToken(ctx context.Context, tableID int64, force bool) (*service.TokenResult, error)
	ValidateToken(ctx context.Context, tableNumber, token string) (database.Table, error)
}

// TableStore defines the read/delete database methods for tables.
// Satisfied by *database.Queries.
type TableStore interface {
	ListTables(ctx context.Context) ([]database.Table, error)
	DeleteTable(ctx context.Context, id int64) (int64, error)
}

// TableHandler handles table registration and QR session endpoints.
type TableHandler struct {
	svc            TableServicer
	store          TableStore
	publicOrderURL string
}

// NewTableHandler creates a new TableHandler. publicOrderURL is the customer
// ordering page encoded into table QR codes.
func NewTableHandler(svc TableServicer, store TableStore, publicOrderURL string) *TableHandler {
	return &TableHandler{svc: svc, store: store, publicOrderURL: publicOrderURL}
}

// RegisterPublicRoutes registers the customer token check.
func (h *TableHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/tables/validate/{table_number}/{token}", h.Validate)
}

// RegisterQRRoutes registers QR issuing endpoints (ADMIN, CASHIER).
func (h *TableHandler) RegisterQRRoutes(r chi.Router) {
	r.Post("/tables/generate-qr/{id_table}", h.GenerateQR)
	r.Get("/tables/{id_table}/qr.png", h.QRImage)
}

// RegisterAdminRoutes registers table management endpoints (ADMIN).
func (h *TableHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/tables", h.List)
	r.Post("/tables", h.Create)
	r.Delete("/tables/{id_table}", h.Delete)
}

// --- Request / Response types ---

type createTableRequest struct {
	TableNumber string `json:"table_number"`
}

type tableResponse struct {
	ID            int64      `json:"id"`
	TableNumber   string     `json:"table_number"`
	HasToken      bool       `json:"has_token"`
	QRGeneratedAt *time.Time `json:"qr_generated_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

type qrResponse struct {
	TableID       int64     `json:"table_id"`
	TableNumber   string    `json:"table_number"`
	Token         string    `json:"token"`
	QRGeneratedAt time.Time `json:"qr_generated_at"`
	Reused        bool      `json:"reused"`
	URL           string    `json:"url"`
}

type validateResponse struct {
	Valid       bool   `json:"valid"`
	TableID     int64  `json:"table_id"`
	TableNumber string `json:"table_number"`
}

func toTableResponse(t database.Table) tableResponse {
	resp := tableResponse{
		ID:          t.ID,
		TableNumber: t.TableNumber,
		HasToken:    t.QrToken.Valid,
		CreatedAt:   t.CreatedAt,
	}
	if t.QrGeneratedAt.Valid {
		ts := t.QrGeneratedAt.Time
		resp.QRGeneratedAt = &ts
	}
	return resp
}

// --- Handlers ---

// Validate handles GET /tables/validate/{table_number}/{token}.
func (h *TableHandler) Validate(w http.ResponseWriter, r *http.Request) {
	table, err := h.svc.ValidateToken(r.Context(), chi.URLParam(r, "table_number"), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, "validate table token", err)
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		Valid:       true,
		TableID:     table.ID,
		TableNumber: table.TableNumber,
	})
}

// GenerateQR handles POST /tables/generate-qr/{id_table}?force=true|false.
// A still-fresh token is returned as-is unless force is set.
func (h *TableHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	tableID, ok := parseIDParam(r, "id_table")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "force must be true or false"})
			return
		}
		force = b
	}

	res, err := h.svc.GenerateToken(r.Context(), tableID, force)
	if err != nil {
		writeServiceError(w, "generate table token", err)
		return
	}

	orderURL, err := h.orderURL(res.Table.TableNumber, res.Token)
	if err != nil {
		log.Printf("ERROR: build order URL: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, qrResponse{
		TableID:       res.Table.ID,
		TableNumber:   res.Table.TableNumber,
		Token:         res.Token,
		QRGeneratedAt: res.Table.QrGeneratedAt.Time,
		Reused:        res.Reused,
		URL:           orderURL,
	})
}

// QRImage handles GET /tables/{id_table}/qr.png. It issues or reuses the
// table's token and renders the ordering URL as a PNG.
func (h *TableHandler) QRImage(w http.ResponseWriter, r *http.Request) {
	tableID, ok := parseIDParam(r, "id_table")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	res, err := h.svc.GenerateToken(r.Context(), tableID, false)
	if err != nil {
		writeServiceError(w, "generate table token", err)
		return
	}

	orderURL, err := h.orderURL(res.Table.TableNumber, res.Token)
	if err != nil {
		log.Printf("ERROR: build order URL: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	png, err := qrcode.Encode(orderURL, qrcode.Medium, qrImageSize)
	if err != nil {
		log.Printf("ERROR: encode QR: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		log.Printf("WARNING: write QR image: %v", err)
	}
}

// List handles GET /tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /tables.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	table, err := h.svc.CreateTable(r.Context(), req.TableNumber)
	if err != nil {
		writeServiceError(w, "create table", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTableResponse(table))
}

// Delete handles DELETE /tables/{id_table}.
func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tableID, ok := parseIDParam(r, "id_table")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	rows, err := h.store.DeleteTable(r.Context(), tableID)
	if err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "table has orders"})
			return
		}
		log.Printf("ERROR: delete table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if rows == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TableHandler) orderURL(tableNumber, token string) (string, error) {
	u, err := url.Parse(h.publicOrderURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("table", tableNumber)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
