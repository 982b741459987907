package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/enum"
	"github.com/kedai-qr/api/internal/events"
	"github.com/shopspring/decimal"
)

var phonePattern = regexp.MustCompile(`^\d{10,13}$`)

// OrderStore defines the DB methods needed to check out and move orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetTableByNumber(ctx context.Context, tableNumber string) (database.Table, error)
	GetMenuForUpdate(ctx context.Context, id int64) (database.Menu, error)
	DecrementMenuStock(ctx context.Context, arg database.DecrementMenuStockParams) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	CreatePaymentEvent(ctx context.Context, arg database.CreatePaymentEventParams) (database.PaymentEvent, error)
	GetOrderForUpdate(ctx context.Context, id int64) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	GetOpenPaymentByOrderForUpdate(ctx context.Context, orderID int64) (database.Payment, error)
	UpdatePaymentStatus(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// CartClearer drops a session's server-side cart after checkout.
type CartClearer interface {
	Clear(ctx context.Context, tableNumber, token string) error
}

// CheckoutRequest is the customer's order submission.
type CheckoutRequest struct {
	TableNumber   string
	Token         string
	CustomerName  string
	Phone         string
	PaymentMethod string
	PaymentType   string           // optional, derived from PaymentMethod when empty
	TotalAmount   *decimal.Decimal // optional client-side total, must match
	Items         []CheckoutItem
}

// CheckoutItem is one order line.
type CheckoutItem struct {
	MenuID    int64
	Quantity  int32
	DrinkType string
}

// CheckoutResult is the created order with its items and pending payment.
type CheckoutResult struct {
	Order   database.Order
	Items   []database.OrderItem
	Payment database.Payment
	Total   decimal.Decimal
}

// OrderEvent is the payload of order.* events.
type OrderEvent struct {
	OrderID        int64                `json:"order_id"`
	TableNumber    string               `json:"table_number"`
	CustomerName   string               `json:"customer_name"`
	Status         database.OrderStatus `json:"status"`
	PreviousStatus database.OrderStatus `json:"previous_status,omitempty"`
	Total          string               `json:"total,omitempty"`
}

// OrderService handles checkout and order status changes.
type OrderService struct {
	pool      TxBeginner
	newStore  NewOrderStore
	publisher events.Publisher
	carts     CartClearer
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewOrderService creates a new OrderService. carts may be nil.
func NewOrderService(pool TxBeginner, newStore NewOrderStore, publisher events.Publisher, carts CartClearer, tokenTTL time.Duration) *OrderService {
	if publisher == nil {
		publisher = events.Nop
	}
	return &OrderService{
		pool:      pool,
		newStore:  newStore,
		publisher: publisher,
		carts:     carts,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

type checkoutInput struct {
	phone         pgtype.Text
	paymentMethod database.OrderPaymentMethod
	paymentType   database.PaymentType
}

func validateCheckout(req CheckoutRequest) (checkoutInput, error) {
	var in checkoutInput

	if strings.TrimSpace(req.CustomerName) == "" {
		return in, ErrInvalidCustomerName
	}

	phone := strings.TrimSpace(req.Phone)
	if phone != "" {
		if !phonePattern.MatchString(phone) {
			return in, ErrInvalidPhone
		}
		in.phone = pgtype.Text{String: phone, Valid: true}
	}

	if len(req.Items) == 0 {
		return in, ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return in, ErrInvalidQuantity
		}
		switch item.DrinkType {
		case "", enum.DrinkTypeIced, enum.DrinkTypeHot:
		default:
			return in, ErrInvalidDrinkType
		}
	}

	switch database.OrderPaymentMethod(req.PaymentMethod) {
	case database.OrderPaymentMethodPayAtCashier:
		in.paymentMethod = database.OrderPaymentMethodPayAtCashier
		in.paymentType = database.PaymentTypeCashier
	case database.OrderPaymentMethodOnlinePayment:
		in.paymentMethod = database.OrderPaymentMethodOnlinePayment
		in.paymentType = database.PaymentTypeQris
	default:
		return in, ErrInvalidPaymentMethod
	}

	if req.PaymentType != "" {
		switch database.PaymentType(req.PaymentType) {
		case database.PaymentTypeCashier, database.PaymentTypeQris:
			in.paymentType = database.PaymentType(req.PaymentType)
		default:
			return in, ErrInvalidPaymentType
		}
	}

	if req.TotalAmount != nil && req.TotalAmount.IsNegative() {
		return in, ErrInvalidAmount
	}
	return in, nil
}

// Checkout validates the session, reserves stock and creates the order, its
// items and a pending payment in one transaction. Nothing is written unless
// every line can be fulfilled.
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	in, err := validateCheckout(req)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	now := s.now()

	table, err := resolveSession(ctx, store, req.TableNumber, req.Token, now, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	// Lock menus in ascending id order so concurrent checkouts sharing
	// menus cannot deadlock.
	menuIDs := make([]int64, 0, len(req.Items))
	seen := make(map[int64]bool, len(req.Items))
	for _, item := range req.Items {
		if !seen[item.MenuID] {
			seen[item.MenuID] = true
			menuIDs = append(menuIDs, item.MenuID)
		}
	}
	sort.Slice(menuIDs, func(i, j int) bool { return menuIDs[i] < menuIDs[j] })

	menus := make(map[int64]database.Menu, len(menuIDs))
	remaining := make(map[int64]int32, len(menuIDs))
	for _, id := range menuIDs {
		menu, err := store.GetMenuForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("menu %d: %w", id, ErrMenuNotFound)
			}
			return nil, fmt.Errorf("lock menu %d: %w", id, err)
		}
		menus[id] = menu
		remaining[id] = menu.Stock
	}

	total := decimal.Zero
	for _, item := range req.Items {
		if remaining[item.MenuID] < item.Quantity {
			return nil, &StockError{MenuID: item.MenuID, Requested: item.Quantity, Available: remaining[item.MenuID]}
		}
		remaining[item.MenuID] -= item.Quantity
		price := numericToDecimal(menus[item.MenuID].Price)
		total = total.Add(price.Mul(decimal.NewFromInt32(item.Quantity)))
	}

	if req.TotalAmount != nil && !req.TotalAmount.Equal(total) {
		return nil, fmt.Errorf("%w: submitted %s, computed %s", ErrTotalMismatch, req.TotalAmount.StringFixed(2), total.StringFixed(2))
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		TableID:       table.ID,
		TableNumber:   table.TableNumber,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Phone:         in.phone,
		PaymentMethod: in.paymentMethod,
		OrderTime:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		menu := menus[line.MenuID]

		if _, err := store.DecrementMenuStock(ctx, database.DecrementMenuStockParams{
			Quantity: line.Quantity,
			ID:       menu.ID,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &StockError{MenuID: menu.ID, Requested: line.Quantity}
			}
			return nil, fmt.Errorf("decrement stock for menu %d: %w", menu.ID, err)
		}

		name, drinkType := snapshotName(menu, line.DrinkType)
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   order.ID,
			MenuID:    pgtype.Int8{Int64: menu.ID, Valid: true},
			MenuName:  name,
			DrinkType: drinkType,
			Quantity:  line.Quantity,
			Price:     menu.Price,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	payment, err := store.CreatePayment(ctx, database.CreatePaymentParams{
		OrderID:     order.ID,
		TableID:     table.ID,
		Amount:      decimalToNumeric(total),
		PaymentType: in.paymentType,
		PaymentTime: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if _, err := store.CreatePaymentEvent(ctx, database.CreatePaymentEventParams{
		PaymentID: payment.ID,
		ToStatus:  database.PaymentStatusPending,
		Actor:     string(enum.ActorCustomer),
		Note:      pgtype.Text{String: "created at checkout", Valid: true},
	}); err != nil {
		return nil, fmt.Errorf("create payment event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	if s.carts != nil {
		if err := s.carts.Clear(ctx, req.TableNumber, req.Token); err != nil {
			log.Printf("WARNING: clear cart for table %s: %v", req.TableNumber, err)
		}
	}

	publish(ctx, s.publisher, events.Event{
		Type:     events.OrderCreated,
		Channels: []string{enum.ChannelKitchen, enum.ChannelCashier},
		Payload: OrderEvent{
			OrderID:      order.ID,
			TableNumber:  order.TableNumber,
			CustomerName: order.CustomerName,
			Status:       order.Status,
			Total:        total.StringFixed(2),
		},
	})

	return &CheckoutResult{Order: order, Items: items, Payment: payment, Total: total}, nil
}

// snapshotName applies the drink rule: lines for the drink category carry
// their drink type in the stored name. Other categories drop it.
func snapshotName(menu database.Menu, drinkType string) (string, pgtype.Text) {
	if drinkType == "" || menu.Category != enum.CategoryDrink {
		return menu.Name, pgtype.Text{}
	}
	return drinkType + " " + menu.Name, pgtype.Text{String: drinkType, Valid: true}
}

// UpdateOrderStatus applies a staff-requested order transition. Canceling
// an order also fails its open payment so it can no longer be confirmed.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, to database.OrderStatus, actor enum.Actor) (database.Order, error) {
	if !validOrderStatus(to) {
		return database.Order{}, ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Payment row before order row, the same order the payment paths lock in.
	var open *database.Payment
	if to == database.OrderStatusCanceled {
		p, err := store.GetOpenPaymentByOrderForUpdate(ctx, orderID)
		switch {
		case err == nil:
			open = &p
		case !errors.Is(err, pgx.ErrNoRows):
			return database.Order{}, fmt.Errorf("get open payment: %w", err)
		}
	}

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	updated, err := transitionOrder(ctx, store, order, to, actor)
	if err != nil {
		return database.Order{}, err
	}

	evts := []events.Event{orderStatusEvent(order.Status, updated)}
	if open != nil {
		failed, err := failPayment(ctx, store, *open, actor, "order canceled", s.now())
		if err != nil {
			return database.Order{}, err
		}
		evts = append(evts, paymentEvent(events.PaymentStatusChanged, open.PaymentStatus, failed))
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	publish(ctx, s.publisher, evts...)
	return updated, nil
}

type paymentFailer interface {
	UpdatePaymentStatus(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error)
	paymentEventRecorder
}

// failPayment moves a locked open payment to failed and records who did it.
func failPayment(ctx context.Context, store paymentFailer, p database.Payment, actor enum.Actor, note string, now time.Time) (database.Payment, error) {
	failed, err := store.UpdatePaymentStatus(ctx, database.UpdatePaymentStatusParams{
		PaymentStatus: database.PaymentStatusFailed,
		AmountPaid:    p.AmountPaid,
		PaymentTime:   now,
		ID:            p.ID,
		CurrentStatus: p.PaymentStatus,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Payment{}, fmt.Errorf("payment %d changed concurrently: %w", p.ID, ErrInvalidTransition)
		}
		return database.Payment{}, fmt.Errorf("fail payment: %w", err)
	}
	if err := recordPaymentEvent(ctx, store, p.PaymentStatus, failed, actor, note); err != nil {
		return database.Payment{}, err
	}
	return failed, nil
}

type orderTransitioner interface {
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// transitionOrder checks and applies one order transition on a locked row.
func transitionOrder(ctx context.Context, store orderTransitioner, order database.Order, to database.OrderStatus, actor enum.Actor) (database.Order, error) {
	if err := CheckOrderTransition(order.Status, to, actor); err != nil {
		return database.Order{}, err
	}
	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		Status:        to,
		ID:            order.ID,
		CurrentStatus: order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, fmt.Errorf("order %d changed concurrently: %w", order.ID, ErrInvalidTransition)
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}
	return updated, nil
}

func orderStatusEvent(from database.OrderStatus, order database.Order) events.Event {
	return events.Event{
		Type:     events.OrderStatusChanged,
		Channels: []string{enum.ChannelKitchen, enum.ChannelCashier},
		Payload: OrderEvent{
			OrderID:        order.ID,
			TableNumber:    order.TableNumber,
			CustomerName:   order.CustomerName,
			Status:         order.Status,
			PreviousStatus: from,
		},
	}
}

// publish is best effort. The change it reports is already committed.
func publish(ctx context.Context, p events.Publisher, evts ...events.Event) {
	for _, e := range evts {
		if err := p.Publish(ctx, e); err != nil {
			log.Printf("WARNING: publish %s: %v", e.Type, err)
		}
	}
}
