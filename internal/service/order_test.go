package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/enum"
	"github.com/kedai-qr/api/internal/events"
)

// sc1 seeds the table and menus used by most checkout tests.
func sc1(db *fakeDB) (database.Table, database.Menu, database.Menu) {
	table := db.addTable("SC1", "T1", testNow.Add(-time.Hour))
	nasi := db.addMenu("Nasi Goreng", "Makanan", "10000", 5)
	ayam := db.addMenu("Ayam Bakar", "Makanan", "20000", 1)
	return table, nasi, ayam
}

func baseCheckout(items ...CheckoutItem) CheckoutRequest {
	return CheckoutRequest{
		TableNumber:   "SC1",
		Token:         "T1",
		CustomerName:  "Budi",
		Phone:         "081234567890",
		PaymentMethod: "pay_at_cashier",
		Items:         items,
	}
}

func TestCheckout_Scenario(t *testing.T) {
	db := newFakeDB()
	_, nasi, ayam := sc1(db)
	svc := newTestOrderService(db, nil, nil)

	result, err := svc.Checkout(context.Background(), baseCheckout(
		CheckoutItem{MenuID: nasi.ID, Quantity: 2},
		CheckoutItem{MenuID: ayam.ID, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if result.Total.String() != "40000" {
		t.Errorf("total: got %s, want 40000", result.Total)
	}
	if !numericEquals(result.Payment.Amount, "40000") {
		t.Errorf("payment amount: got %v, want 40000", numericToDecimal(result.Payment.Amount))
	}
	if result.Payment.PaymentStatus != database.PaymentStatusPending {
		t.Errorf("payment status: got %s, want pending", result.Payment.PaymentStatus)
	}
	if result.Payment.AmountPaid.Valid {
		t.Error("amount_paid should be NULL after checkout")
	}
	if result.Payment.PaymentType != database.PaymentTypeCashier {
		t.Errorf("payment type: got %s, want cashier", result.Payment.PaymentType)
	}
	if result.Order.Status != database.OrderStatusWaiting {
		t.Errorf("order status: got %s, want waiting", result.Order.Status)
	}
	if got := db.state.menus[nasi.ID].Stock; got != 3 {
		t.Errorf("nasi stock: got %d, want 3", got)
	}
	if got := db.state.menus[ayam.ID].Stock; got != 0 {
		t.Errorf("ayam stock: got %d, want 0", got)
	}
	if len(result.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(result.Items))
	}
	if evts := db.eventsFor(result.Payment.ID); len(evts) != 1 || evts[0].ToStatus != database.PaymentStatusPending {
		t.Errorf("expected one pending payment event, got %+v", evts)
	}

	// The last unit is gone.
	_, err = svc.Checkout(context.Background(), baseCheckout(CheckoutItem{MenuID: ayam.ID, Quantity: 1}))
	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError, got %v", err)
	}
	if stockErr.MenuID != ayam.ID {
		t.Errorf("stock error menu: got %d, want %d", stockErr.MenuID, ayam.ID)
	}
	if !errors.Is(err, ErrInsufficientStock) {
		t.Error("StockError should match ErrInsufficientStock")
	}
	if KindOf(err) != KindConflict {
		t.Errorf("kind: got %v, want conflict", KindOf(err))
	}
}

func TestCheckout_InsufficientStockWritesNothing(t *testing.T) {
	db := newFakeDB()
	_, nasi, ayam := sc1(db)
	svc := newTestOrderService(db, nil, nil)

	_, err := svc.Checkout(context.Background(), baseCheckout(
		CheckoutItem{MenuID: nasi.ID, Quantity: 2},
		CheckoutItem{MenuID: ayam.ID, Quantity: 2},
	))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if got := db.state.menus[nasi.ID].Stock; got != 5 {
		t.Errorf("nasi stock: got %d, want 5", got)
	}
	if len(db.state.orders) != 0 || len(db.state.payments) != 0 || len(db.state.items) != 0 {
		t.Error("no rows should be written on insufficient stock")
	}
}

func TestCheckout_DuplicateLinesShareStock(t *testing.T) {
	db := newFakeDB()
	_, nasi, _ := sc1(db)
	svc := newTestOrderService(db, nil, nil)

	_, err := svc.Checkout(context.Background(), baseCheckout(
		CheckoutItem{MenuID: nasi.ID, Quantity: 3},
		CheckoutItem{MenuID: nasi.ID, Quantity: 3},
	))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := db.state.menus[nasi.ID].Stock; got != 5 {
		t.Errorf("stock: got %d, want 5", got)
	}
}

func TestCheckout_RollsBackOnLateFailure(t *testing.T) {
	tests := []struct {
		name   string
		method string
	}{
		{"order item insert fails", "CreateOrderItem"},
		{"payment insert fails", "CreatePayment"},
		{"payment event insert fails", "CreatePaymentEvent"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := newFakeDB()
			_, nasi, ayam := sc1(db)
			db.fail[tc.method] = errors.New("connection reset")
			svc := newTestOrderService(db, nil, nil)

			_, err := svc.Checkout(context.Background(), baseCheckout(
				CheckoutItem{MenuID: nasi.ID, Quantity: 2},
				CheckoutItem{MenuID: ayam.ID, Quantity: 1},
			))
			if err == nil {
				t.Fatal("expected error")
			}
			if KindOf(err) != KindServer {
				t.Errorf("kind: got %v, want server", KindOf(err))
			}
			if got := db.state.menus[nasi.ID].Stock; got != 5 {
				t.Errorf("nasi stock: got %d, want 5", got)
			}
			if got := db.state.menus[ayam.ID].Stock; got != 1 {
				t.Errorf("ayam stock: got %d, want 1", got)
			}
			if len(db.state.orders) != 0 || len(db.state.items) != 0 || len(db.state.payments) != 0 {
				t.Error("partial writes survived rollback")
			}
		})
	}
}

func TestCheckout_CommitFailureRollsBack(t *testing.T) {
	db := newFakeDB()
	_, nasi, _ := sc1(db)
	db.commitErr = errors.New("commit failed")
	svc := newTestOrderService(db, nil, nil)

	if _, err := svc.Checkout(context.Background(), baseCheckout(CheckoutItem{MenuID: nasi.ID, Quantity: 1})); err == nil {
		t.Fatal("expected error")
	}
	if got := db.state.menus[nasi.ID].Stock; got != 5 {
		t.Errorf("stock: got %d, want 5", got)
	}
}

// fakeDB serializes transactions, so this checks the stock accounting across
// parallel callers. Row locking against Postgres is exercised by the
// integration flow in the handler package.
func TestCheckout_ParallelCallersShareStock(t *testing.T) {
	db := newFakeDB()
	db.addTable("SC1", "T1", testNow.Add(-time.Hour))
	menu := db.addMenu("Es Campur", "Dessert", "15000", 3)
	svc := newTestOrderService(db, nil, nil)

	const buyers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		soldOut   int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), baseCheckout(CheckoutItem{MenuID: menu.ID, Quantity: 1}))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientStock):
				soldOut++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 3 {
		t.Errorf("succeeded: got %d, want 3", succeeded)
	}
	if soldOut != buyers-3 {
		t.Errorf("sold out: got %d, want %d", soldOut, buyers-3)
	}
	if got := db.state.menus[menu.ID].Stock; got != 0 {
		t.Errorf("stock: got %d, want 0", got)
	}
}

func TestCheckout_PriceIsSnapshotted(t *testing.T) {
	db := newFakeDB()
	_, nasi, _ := sc1(db)
	svc := newTestOrderService(db, nil, nil)

	result, err := svc.Checkout(context.Background(), baseCheckout(CheckoutItem{MenuID: nasi.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// Raise the price and delete the menu afterwards.
	m := db.state.menus[nasi.ID]
	m.Price = makeNumeric("99000")
	db.state.menus[nasi.ID] = m
	delete(db.state.menus, nasi.ID)

	items := db.itemsFor(result.Order.ID)
	if len(items) != 1 {
		t.Fatalf("items: got %d, want 1", len(items))
	}
	if !numericEquals(items[0].Price, "10000") {
		t.Errorf("item price: got %v, want 10000", numericToDecimal(items[0].Price))
	}
	if items[0].MenuName != "Nasi Goreng" {
		t.Errorf("menu name: got %q, want %q", items[0].MenuName, "Nasi Goreng")
	}
}

func TestCheckout_DrinkType(t *testing.T) {
	db := newFakeDB()
	db.addTable("SC1", "T1", testNow.Add(-time.Hour))
	teh := db.addMenu("Teh", enum.CategoryDrink, "5000", 10)
	nasi := db.addMenu("Nasi Uduk", "Makanan", "12000", 10)
	svc := newTestOrderService(db, nil, nil)

	result, err := svc.Checkout(context.Background(), baseCheckout(
		CheckoutItem{MenuID: teh.ID, Quantity: 1, DrinkType: enum.DrinkTypeIced},
		CheckoutItem{MenuID: nasi.ID, Quantity: 1, DrinkType: enum.DrinkTypeHot},
	))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if got := result.Items[0].MenuName; got != "Iced Teh" {
		t.Errorf("drink name: got %q, want %q", got, "Iced Teh")
	}
	if !result.Items[0].DrinkType.Valid || result.Items[0].DrinkType.String != enum.DrinkTypeIced {
		t.Errorf("drink type: got %+v", result.Items[0].DrinkType)
	}
	if got := result.Items[1].MenuName; got != "Nasi Uduk" {
		t.Errorf("food name: got %q, want %q", got, "Nasi Uduk")
	}
	if result.Items[1].DrinkType.Valid {
		t.Error("drink type should be dropped for non-drink menus")
	}
}

func TestCheckout_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *CheckoutRequest)
		wantErr error
	}{
		{"short phone", func(r *CheckoutRequest) { r.Phone = "08123" }, ErrInvalidPhone},
		{"phone with letters", func(r *CheckoutRequest) { r.Phone = "08123456789a" }, ErrInvalidPhone},
		{"phone too long", func(r *CheckoutRequest) { r.Phone = "08123456789012" }, ErrInvalidPhone},
		{"no items", func(r *CheckoutRequest) { r.Items = nil }, ErrEmptyItems},
		{"zero quantity", func(r *CheckoutRequest) { r.Items[0].Quantity = 0 }, ErrInvalidQuantity},
		{"unknown drink type", func(r *CheckoutRequest) { r.Items[0].DrinkType = "Warm" }, ErrInvalidDrinkType},
		{"missing name", func(r *CheckoutRequest) { r.CustomerName = "  " }, ErrInvalidCustomerName},
		{"bad payment method", func(r *CheckoutRequest) { r.PaymentMethod = "card" }, ErrInvalidPaymentMethod},
		{"bad payment type", func(r *CheckoutRequest) { r.PaymentType = "debit" }, ErrInvalidPaymentType},
		{"negative total", func(r *CheckoutRequest) { r.TotalAmount = dec("-1") }, ErrInvalidAmount},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := newFakeDB()
			_, nasi, _ := sc1(db)
			svc := newTestOrderService(db, nil, nil)

			req := baseCheckout(CheckoutItem{MenuID: nasi.ID, Quantity: 1})
			tc.mutate(&req)

			_, err := svc.Checkout(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
			if KindOf(err) != KindValidation {
				t.Errorf("kind: got %v, want validation", KindOf(err))
			}
			if got := db.state.menus[nasi.ID].Stock; got != 5 {
				t.Errorf("stock changed on validation failure: %d", got)
			}
		})
	}
}

func TestCheckout_EmptyPhoneStoredAsNull(t *testing.T) {
	db := newFakeDB()
	_, nasi, _ := sc1(db)
	svc := newTestOrderService(db, nil, nil)

	req := baseCheckout(CheckoutItem{MenuID: nasi.ID, Quantity: 1})
	req.Phone = ""
	result, err := svc.Checkout(context.Background(), req)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.Order.Phone.Valid {
		t.Errorf("phone: got %q, want NULL", result.Order.Phone.String)
	}
}

func TestCheckout_PaymentTypeFollowsMethod(t *testing.T) {
	db := newFakeDB()
	_, nasi, _ := sc1(db)
	svc := newTestOrderService(db, nil, nil)

	req := baseCheckout(CheckoutItem{MenuID: nasi.ID, Quantity: 1})
	req.PaymentMethod = "online_payment"
	result, err := svc.Checkout(context.Background(), req)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.Payment.PaymentType != database.PaymentTypeQris {
		t.Errorf("payment type: got %s, want qris", result.Payment.PaymentType)
	}
}

func TestCheckout_TotalMismatch(t *testing.T) {
	db := newFakeDB()
	_, nasi, _ := sc1(db)
	svc := newTestOrderService(db, nil, nil)

	req := baseCheckout(CheckoutItem{MenuID: nasi.ID, Quantity: 2})
	req.TotalAmount = dec("15000")
	_, err := svc.Checkout(context.Background(), req)
	if !errors.Is(err, ErrTotalMismatch) {
		t.Fatalf("expected ErrTotalMismatch, got %v", err)
	}
	if got := db.state.menus[nasi.ID].Stock; got != 5 {
		t.Errorf("stock: got %d, want 5", got)
	}

	req.TotalAmount = dec("20000")
	if _, err := svc.Checkout(context.Background(), req); err != nil {
		t.Fatalf("matching total rejected: %v", err)
	}
}

func TestCheckout_SessionErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *CheckoutRequest)
		wantErr error
	}{
		{"unknown table", func(r *CheckoutRequest) { r.TableNumber = "Z9" }, ErrInvalidTable},
		{"wrong token", func(r *CheckoutRequest) { r.Token = "T2" }, ErrInvalidToken},
		{"missing token", func(r *CheckoutRequest) { r.Token = "" }, ErrInvalidToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := newFakeDB()
			_, nasi, _ := sc1(db)
			svc := newTestOrderService(db, nil, nil)

			req := baseCheckout(CheckoutItem{MenuID: nasi.ID, Quantity: 1})
			tc.mutate(&req)
			if _, err := svc.Checkout(context.Background(), req); !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}

	t.Run("expired token", func(t *testing.T) {
		db := newFakeDB()
		db.addTable("SC1", "T1", testNow.Add(-testTTL-time.Minute))
		nasi := db.addMenu("Nasi Goreng", "Makanan", "10000", 5)
		svc := newTestOrderService(db, nil, nil)

		_, err := svc.Checkout(context.Background(), baseCheckout(CheckoutItem{MenuID: nasi.ID, Quantity: 1}))
		if !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("got %v, want ErrTokenExpired", err)
		}
		if KindOf(err) != KindUnauthorized {
			t.Errorf("kind: got %v, want unauthorized", KindOf(err))
		}
	})
}

func TestCheckout_UnknownMenu(t *testing.T) {
	db := newFakeDB()
	sc1(db)
	svc := newTestOrderService(db, nil, nil)

	_, err := svc.Checkout(context.Background(), baseCheckout(CheckoutItem{MenuID: 9999, Quantity: 1}))
	if !errors.Is(err, ErrMenuNotFound) {
		t.Fatalf("got %v, want ErrMenuNotFound", err)
	}
}

func TestCheckout_PublishesAndClearsCart(t *testing.T) {
	db := newFakeDB()
	_, nasi, _ := sc1(db)
	pub := &recordingPublisher{}
	carts := &recordingCarts{}
	svc := newTestOrderService(db, pub, carts)

	if _, err := svc.Checkout(context.Background(), baseCheckout(CheckoutItem{MenuID: nasi.ID, Quantity: 1})); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if got := pub.types(); len(got) != 1 || got[0] != events.OrderCreated {
		t.Errorf("events: got %v, want [%s]", got, events.OrderCreated)
	}
	if len(carts.cleared) != 1 || carts.cleared[0] != "SC1:T1" {
		t.Errorf("cleared carts: got %v", carts.cleared)
	}
}

func TestCheckout_FailureDoesNotPublish(t *testing.T) {
	db := newFakeDB()
	_, _, ayam := sc1(db)
	pub := &recordingPublisher{}
	carts := &recordingCarts{}
	svc := newTestOrderService(db, pub, carts)

	if _, err := svc.Checkout(context.Background(), baseCheckout(CheckoutItem{MenuID: ayam.ID, Quantity: 2})); err == nil {
		t.Fatal("expected error")
	}
	if len(pub.types()) != 0 {
		t.Errorf("unexpected events: %v", pub.types())
	}
	if len(carts.cleared) != 0 {
		t.Errorf("cart cleared on failed checkout")
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    database.OrderStatus
		to      database.OrderStatus
		actor   enum.Actor
		wantErr error
	}{
		{"kitchen starts cooking", database.OrderStatusPending, database.OrderStatusProcessing, enum.ActorKitchen, nil},
		{"kitchen completes", database.OrderStatusProcessing, database.OrderStatusCompleted, enum.ActorKitchen, nil},
		{"kitchen releases waiting order", database.OrderStatusWaiting, database.OrderStatusPending, enum.ActorKitchen, nil},
		{"admin cancels processing", database.OrderStatusProcessing, database.OrderStatusCanceled, enum.ActorAdmin, nil},
		{"cashier cannot start cooking", database.OrderStatusPending, database.OrderStatusProcessing, enum.ActorCashier, ErrTransitionNotAllowed},
		{"admin cannot start cooking", database.OrderStatusPending, database.OrderStatusProcessing, enum.ActorAdmin, ErrTransitionNotAllowed},
		{"cashier cannot cancel processing", database.OrderStatusProcessing, database.OrderStatusCanceled, enum.ActorCashier, ErrTransitionNotAllowed},
		{"skip to completed", database.OrderStatusPending, database.OrderStatusCompleted, enum.ActorKitchen, ErrInvalidTransition},
		{"completed is terminal", database.OrderStatusCompleted, database.OrderStatusCanceled, enum.ActorAdmin, ErrInvalidTransition},
		{"canceled is terminal", database.OrderStatusCanceled, database.OrderStatusPending, enum.ActorAdmin, ErrInvalidTransition},
		{"same state", database.OrderStatusProcessing, database.OrderStatusProcessing, enum.ActorKitchen, ErrInvalidTransition},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := newFakeDB()
			table := db.addTable("A1", "tok", testNow)
			order, _ := db.addOrderWithPayment(table, tc.from, database.PaymentStatusSuccess, database.PaymentTypeCashier, "10000", testNow)
			pub := &recordingPublisher{}
			svc := newTestOrderService(db, pub, nil)

			updated, err := svc.UpdateOrderStatus(context.Background(), order.ID, tc.to, tc.actor)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got %v, want %v", err, tc.wantErr)
				}
				if KindOf(err) != KindConflict {
					t.Errorf("kind: got %v, want conflict", KindOf(err))
				}
				if got := db.state.orders[order.ID].Status; got != tc.from {
					t.Errorf("status changed on rejection: %s", got)
				}
				if len(pub.types()) != 0 {
					t.Errorf("unexpected events: %v", pub.types())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if updated.Status != tc.to {
				t.Errorf("status: got %s, want %s", updated.Status, tc.to)
			}
			if got := pub.types(); len(got) != 1 || got[0] != events.OrderStatusChanged {
				t.Errorf("events: got %v", got)
			}
		})
	}
}

func TestUpdateOrderStatus_NotFoundAndInvalidStatus(t *testing.T) {
	db := newFakeDB()
	svc := newTestOrderService(db, nil, nil)

	if _, err := svc.UpdateOrderStatus(context.Background(), 42, database.OrderStatusPending, enum.ActorAdmin); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("got %v, want ErrOrderNotFound", err)
	}
	if _, err := svc.UpdateOrderStatus(context.Background(), 42, "served", enum.ActorAdmin); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("got %v, want ErrInvalidStatus", err)
	}
}
