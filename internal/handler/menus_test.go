package handler_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/handler"
	"github.com/kedai-qr/api/internal/service"
	"github.com/shopspring/decimal"
)

// --- Mock store ---

type mockMenuStore struct {
	menus  map[int64]database.Menu
	nextID int64
}

func newMockMenuStore() *mockMenuStore {
	return &mockMenuStore{menus: make(map[int64]database.Menu), nextID: 1}
}

func (m *mockMenuStore) add(name, category, price string, stock int32) database.Menu {
	menu := database.Menu{
		ID:       m.nextID,
		Name:     name,
		Category: category,
		Price:    service.DecimalToNumeric(decimal.RequireFromString(price)),
		Stock:    stock,
	}
	m.menus[menu.ID] = menu
	m.nextID++
	return menu
}

func (m *mockMenuStore) ListMenus(_ context.Context) ([]database.Menu, error) {
	var out []database.Menu
	for id := int64(1); id < m.nextID; id++ {
		if menu, ok := m.menus[id]; ok {
			out = append(out, menu)
		}
	}
	return out, nil
}

func (m *mockMenuStore) GetMenu(_ context.Context, id int64) (database.Menu, error) {
	menu, ok := m.menus[id]
	if !ok {
		return database.Menu{}, pgx.ErrNoRows
	}
	return menu, nil
}

func (m *mockMenuStore) CreateMenu(_ context.Context, arg database.CreateMenuParams) (database.Menu, error) {
	menu := database.Menu{
		ID:       m.nextID,
		Name:     arg.Name,
		Price:    arg.Price,
		Category: arg.Category,
		ImageRef: arg.ImageRef,
		Stock:    arg.Stock,
	}
	m.menus[menu.ID] = menu
	m.nextID++
	return menu, nil
}

func (m *mockMenuStore) UpdateMenu(_ context.Context, arg database.UpdateMenuParams) (database.Menu, error) {
	menu, ok := m.menus[arg.ID]
	if !ok {
		return database.Menu{}, pgx.ErrNoRows
	}
	menu.Name = arg.Name
	menu.Price = arg.Price
	menu.Category = arg.Category
	menu.ImageRef = arg.ImageRef
	menu.Stock = arg.Stock
	m.menus[arg.ID] = menu
	return menu, nil
}

func (m *mockMenuStore) SetMenuStock(_ context.Context, arg database.SetMenuStockParams) (database.Menu, error) {
	menu, ok := m.menus[arg.ID]
	if !ok {
		return database.Menu{}, pgx.ErrNoRows
	}
	menu.Stock = arg.Stock
	m.menus[arg.ID] = menu
	return menu, nil
}

func (m *mockMenuStore) DeleteMenu(_ context.Context, id int64) (int64, error) {
	if _, ok := m.menus[id]; !ok {
		return 0, nil
	}
	delete(m.menus, id)
	return 1, nil
}

func setupMenuRouter(store *mockMenuStore) *chi.Mux {
	h := handler.NewMenuHandler(store)
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	h.RegisterAdminRoutes(r)
	return r
}

// --- Read tests ---

func TestListMenus_DrinkTypes(t *testing.T) {
	store := newMockMenuStore()
	store.add("Nasi Goreng", "Makanan", "25000", 10)
	store.add("Teh", "Minuman", "5000", 10)

	rr := doRequest(t, setupMenuRouter(store), "GET", "/menus", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeListResponse(t, rr)
	if len(resp) != 2 {
		t.Fatalf("expected 2 menus, got %d", len(resp))
	}
	if resp[0]["price"] != "25000.00" {
		t.Errorf("price: got %v, want 25000.00", resp[0]["price"])
	}
	if _, ok := resp[0]["drink_types"]; ok {
		t.Error("food must not offer drink types")
	}
	if dt, ok := resp[1]["drink_types"].([]interface{}); !ok || len(dt) != 2 {
		t.Errorf("drink must offer Iced/Hot, got %v", resp[1]["drink_types"])
	}
}

func TestGetMenu(t *testing.T) {
	store := newMockMenuStore()
	store.add("Nasi Goreng", "Makanan", "25000", 10)
	router := setupMenuRouter(store)

	if rr := doRequest(t, router, "GET", "/menus/1", nil); rr.Code != http.StatusOK {
		t.Errorf("existing: got %d, want %d", rr.Code, http.StatusOK)
	}
	if rr := doRequest(t, router, "GET", "/menus/42", nil); rr.Code != http.StatusNotFound {
		t.Errorf("missing: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if rr := doRequest(t, router, "GET", "/menus/abc", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Write tests ---

func TestCreateMenu_Valid(t *testing.T) {
	store := newMockMenuStore()

	rr := postJSON(t, setupMenuRouter(store), "/menus", map[string]interface{}{
		"name": "Es Jeruk", "price": "8000", "category": "Minuman", "stock": 20, "image_ref": "es-jeruk.jpg",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["stock"] != float64(20) || resp["image_ref"] != "es-jeruk.jpg" {
		t.Errorf("unexpected body: %v", resp)
	}
}

func TestCreateMenu_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"price": "1000", "category": "Makanan"}},
		{"missing price", map[string]interface{}{"name": "X", "category": "Makanan"}},
		{"negative price", map[string]interface{}{"name": "X", "price": "-1", "category": "Makanan"}},
		{"fractional price", map[string]interface{}{"name": "X", "price": "1000.50", "category": "Makanan"}},
		{"non-numeric price", map[string]interface{}{"name": "X", "price": "free", "category": "Makanan"}},
		{"negative stock", map[string]interface{}{"name": "X", "price": "1000", "category": "Makanan", "stock": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockMenuStore()
			rr := postJSON(t, setupMenuRouter(store), "/menus", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
			}
			if len(store.menus) != 0 {
				t.Error("invalid menu must not be stored")
			}
		})
	}
}

func TestUpdateMenu(t *testing.T) {
	store := newMockMenuStore()
	store.add("Nasi Goreng", "Makanan", "25000", 10)
	router := setupMenuRouter(store)

	rr := doRequest(t, router, "PUT", "/menus/1", map[string]interface{}{
		"name": "Nasi Goreng Spesial", "price": "30000", "category": "Makanan", "stock": 5,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if store.menus[1].Name != "Nasi Goreng Spesial" || store.menus[1].Stock != 5 {
		t.Errorf("menu not updated: %+v", store.menus[1])
	}

	rr = doRequest(t, router, "PUT", "/menus/9", map[string]interface{}{
		"name": "X", "price": "1", "category": "Makanan", "stock": 1,
	})
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestSetStock(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantStock int32
	}{
		{"set", `{"stock": 7}`, http.StatusOK, 7},
		{"zero", `{"stock": 0}`, http.StatusOK, 0},
		{"numeric string", `{"stock": "4"}`, http.StatusOK, 4},
		{"negative", `{"stock": -3}`, http.StatusBadRequest, 10},
		{"text", `{"stock": "many"}`, http.StatusBadRequest, 10},
		{"fraction", `{"stock": 1.5}`, http.StatusBadRequest, 10},
		{"missing", `{}`, http.StatusBadRequest, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockMenuStore()
			store.add("Nasi Goreng", "Makanan", "25000", 10)

			req := httptest.NewRequest("PUT", "/menus/1/stock", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			setupMenuRouter(store).ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d; body: %s", rr.Code, tt.wantCode, rr.Body.String())
			}
			if rr.Code == http.StatusBadRequest {
				if resp := decodeResponse(t, rr); resp["error"] != "InvalidStock" {
					t.Errorf("error: got %v, want InvalidStock", resp["error"])
				}
			}
			if got := store.menus[1].Stock; got != tt.wantStock {
				t.Errorf("stock: got %d, want %d", got, tt.wantStock)
			}
		})
	}
}

func TestDeleteMenu(t *testing.T) {
	store := newMockMenuStore()
	store.add("Nasi Goreng", "Makanan", "25000", 10)
	router := setupMenuRouter(store)

	if rr := doRequest(t, router, "DELETE", "/menus/1", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if rr := doRequest(t, router, "DELETE", "/menus/1", nil); rr.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
