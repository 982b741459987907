package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/enum"
	"github.com/kedai-qr/api/internal/service"
	"github.com/shopspring/decimal"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenus(ctx context.Context) ([]database.Menu, error)
	GetMenu(ctx context.Context, id int64) (database.Menu, error)
	CreateMenu(ctx context.Context, arg database.CreateMenuParams) (database.Menu, error)
	UpdateMenu(ctx context.Context, arg database.UpdateMenuParams) (database.Menu, error)
	SetMenuStock(ctx context.Context, arg database.SetMenuStockParams) (database.Menu, error)
	DeleteMenu(ctx context.Context, id int64) (int64, error)
}

// MenuHandler handles the catalog endpoints.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterPublicRoutes registers catalog reads.
func (h *MenuHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/menus", h.List)
	r.Get("/menus/{id}", h.Get)
}

// RegisterAdminRoutes registers catalog writes. Expected behind
// RequireRole(ADMIN).
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/menus", h.Create)
	r.Put("/menus/{id}", h.Update)
	r.Put("/menus/{id}/stock", h.SetStock)
	r.Delete("/menus/{id}", h.Delete)
}

// --- Request / Response types ---

type menuRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	ImageRef string `json:"image_ref"`
	Stock    *int32 `json:"stock"`
}

type setStockRequest struct {
	Stock json.Number `json:"stock"`
}

type menuResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Price      string    `json:"price"`
	Category   string    `json:"category"`
	ImageRef   *string   `json:"image_ref"`
	Stock      int32     `json:"stock"`
	DrinkTypes []string  `json:"drink_types,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toMenuResponse(m database.Menu) menuResponse {
	resp := menuResponse{
		ID:        m.ID,
		Name:      m.Name,
		Price:     numericToString(m.Price),
		Category:  m.Category,
		ImageRef:  optionalText(m.ImageRef),
		Stock:     m.Stock,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Category == enum.CategoryDrink {
		resp.DrinkTypes = []string{enum.DrinkTypeIced, enum.DrinkTypeHot}
	}
	return resp
}

var (
	errNegativePrice   = errors.New("negative price")
	errFractionalPrice = errors.New("fractional price")
)

// parsePrice accepts non-negative whole currency amounts.
func parsePrice(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errNegativePrice
	}
	if !d.Equal(d.Truncate(0)) {
		return pgtype.Numeric{}, errFractionalPrice
	}
	return service.DecimalToNumeric(d), nil
}

// validateMenu checks a create/update body and writes a 400 on failure.
func validateMenu(w http.ResponseWriter, req menuRequest) (pgtype.Numeric, bool) {
	if req.Name == "" || req.Category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and category are required"})
		return pgtype.Numeric{}, false
	}

	if req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price is required"})
		return pgtype.Numeric{}, false
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		switch {
		case errors.Is(err, errNegativePrice):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be >= 0"})
		case errors.Is(err, errFractionalPrice):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a whole number"})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		}
		return pgtype.Numeric{}, false
	}

	if req.Stock != nil && *req.Stock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "InvalidStock"})
		return pgtype.Numeric{}, false
	}

	return price, true
}

func imageRef(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// --- Handlers ---

// List returns the whole catalog.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	menus, err := h.store.ListMenus(r.Context())
	if err != nil {
		log.Printf("ERROR: list menus: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuResponse, len(menus))
	for i, m := range menus {
		resp[i] = toMenuResponse(m)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single menu by ID.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	menuID, ok := parseIDParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu ID"})
		return
	}

	menu, err := h.store.GetMenu(r.Context(), menuID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu not found"})
			return
		}
		log.Printf("ERROR: get menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuResponse(menu))
}

// Create adds a menu item.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, ok := validateMenu(w, req)
	if !ok {
		return
	}

	var stock int32
	if req.Stock != nil {
		stock = *req.Stock
	}

	menu, err := h.store.CreateMenu(r.Context(), database.CreateMenuParams{
		Name:     req.Name,
		Price:    price,
		Category: req.Category,
		ImageRef: imageRef(req.ImageRef),
		Stock:    stock,
	})
	if err != nil {
		log.Printf("ERROR: create menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuResponse(menu))
}

// Update replaces a menu item's fields. Past order lines keep their
// snapshotted name and price.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	menuID, ok := parseIDParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu ID"})
		return
	}

	var req menuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, ok := validateMenu(w, req)
	if !ok {
		return
	}

	if req.Stock == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock is required"})
		return
	}

	menu, err := h.store.UpdateMenu(r.Context(), database.UpdateMenuParams{
		ID:       menuID,
		Name:     req.Name,
		Price:    price,
		Category: req.Category,
		ImageRef: imageRef(req.ImageRef),
		Stock:    *req.Stock,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu not found"})
			return
		}
		log.Printf("ERROR: update menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuResponse(menu))
}

// SetStock handles PUT /menus/{id}/stock.
func (h *MenuHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	menuID, ok := parseIDParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu ID"})
		return
	}

	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "InvalidStock"})
		return
	}

	stock, err := strconv.ParseInt(req.Stock.String(), 10, 32)
	if err != nil || stock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "InvalidStock"})
		return
	}

	menu, err := h.store.SetMenuStock(r.Context(), database.SetMenuStockParams{
		ID:    menuID,
		Stock: int32(stock),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu not found"})
			return
		}
		log.Printf("ERROR: set menu stock: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuResponse(menu))
}

// Delete removes a menu item. Order lines that referenced it keep their
// snapshot and lose the link.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	menuID, ok := parseIDParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu ID"})
		return
	}

	rows, err := h.store.DeleteMenu(r.Context(), menuID)
	if err != nil {
		log.Printf("ERROR: delete menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if rows == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
