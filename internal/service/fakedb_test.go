package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/events"
	"github.com/shopspring/decimal"
)

// --- In-memory database ---

// fakeDB is a map-backed store that implements SessionStore, OrderStore and
// PaymentStore. A transaction holds txMu from Begin until Commit or Rollback,
// so transactions are serialized, and Rollback restores the state captured
// at Begin.
type fakeDB struct {
	txMu  sync.Mutex
	state fakeState

	// fail makes the named method return the error.
	fail map[string]error
	// commitErr makes Commit fail (the deferred Rollback then restores).
	commitErr error
	// locked records every FOR UPDATE read.
	locked []string
}

type fakeState struct {
	nextID   int64
	tables   map[int64]database.Table
	menus    map[int64]database.Menu
	orders   map[int64]database.Order
	items    []database.OrderItem
	payments map[int64]database.Payment
	events   []database.PaymentEvent
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		state: fakeState{
			tables:   make(map[int64]database.Table),
			menus:    make(map[int64]database.Menu),
			orders:   make(map[int64]database.Order),
			payments: make(map[int64]database.Payment),
		},
		fail: make(map[string]error),
	}
}

func (s fakeState) clone() fakeState {
	c := fakeState{
		nextID:   s.nextID,
		tables:   make(map[int64]database.Table, len(s.tables)),
		menus:    make(map[int64]database.Menu, len(s.menus)),
		orders:   make(map[int64]database.Order, len(s.orders)),
		items:    append([]database.OrderItem(nil), s.items...),
		payments: make(map[int64]database.Payment, len(s.payments)),
		events:   append([]database.PaymentEvent(nil), s.events...),
	}
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.menus {
		c.menus[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

func (db *fakeDB) id() int64 {
	db.state.nextID++
	return db.state.nextID
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	db.txMu.Lock()
	return &fakeTx{db: db, snapshot: db.state.clone()}, nil
}

// --- Seeding helpers (call outside transactions) ---

func (db *fakeDB) addTable(number, token string, generatedAt time.Time) database.Table {
	t := database.Table{
		ID:          db.id(),
		TableNumber: number,
		CreatedAt:   generatedAt,
	}
	if token != "" {
		t.QrToken = pgtype.Text{String: token, Valid: true}
		t.QrGeneratedAt = pgtype.Timestamptz{Time: generatedAt, Valid: true}
	}
	db.state.tables[t.ID] = t
	return t
}

func (db *fakeDB) addMenu(name, category, price string, stock int32) database.Menu {
	m := database.Menu{
		ID:       db.id(),
		Name:     name,
		Price:    makeNumeric(price),
		Category: category,
		Stock:    stock,
	}
	db.state.menus[m.ID] = m
	return m
}

func (db *fakeDB) addOrderWithPayment(table database.Table, orderStatus database.OrderStatus, paymentStatus database.PaymentStatus, paymentType database.PaymentType, amount string, paidAt time.Time) (database.Order, database.Payment) {
	o := database.Order{
		ID:            db.id(),
		TableID:       table.ID,
		TableNumber:   table.TableNumber,
		CustomerName:  "Budi",
		PaymentMethod: database.OrderPaymentMethodPayAtCashier,
		Status:        orderStatus,
		OrderTime:     paidAt,
		UpdatedAt:     paidAt,
	}
	if paymentType == database.PaymentTypeQris {
		o.PaymentMethod = database.OrderPaymentMethodOnlinePayment
	}
	db.state.orders[o.ID] = o
	p := database.Payment{
		ID:            db.id(),
		OrderID:       o.ID,
		TableID:       table.ID,
		Amount:        makeNumeric(amount),
		PaymentStatus: paymentStatus,
		PaymentType:   paymentType,
		PaymentTime:   paidAt,
	}
	db.state.payments[p.ID] = p
	return o, p
}

func (db *fakeDB) eventsFor(paymentID int64) []database.PaymentEvent {
	var out []database.PaymentEvent
	for _, e := range db.state.events {
		if e.PaymentID == paymentID {
			out = append(out, e)
		}
	}
	return out
}

func (db *fakeDB) itemsFor(orderID int64) []database.OrderItem {
	var out []database.OrderItem
	for _, it := range db.state.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out
}

// --- Tables ---

func (db *fakeDB) CreateTable(ctx context.Context, tableNumber string) (database.Table, error) {
	if err := db.fail["CreateTable"]; err != nil {
		return database.Table{}, err
	}
	for _, t := range db.state.tables {
		if t.TableNumber == tableNumber {
			return database.Table{}, &pgconn.PgError{Code: "23505", ConstraintName: "tables_table_number_key"}
		}
	}
	t := database.Table{ID: db.id(), TableNumber: tableNumber, CreatedAt: time.Now()}
	db.state.tables[t.ID] = t
	return t, nil
}

func (db *fakeDB) GetTable(ctx context.Context, id int64) (database.Table, error) {
	t, ok := db.state.tables[id]
	if !ok {
		return database.Table{}, pgx.ErrNoRows
	}
	return t, nil
}

func (db *fakeDB) GetTableByNumber(ctx context.Context, tableNumber string) (database.Table, error) {
	for _, t := range db.state.tables {
		if t.TableNumber == tableNumber {
			return t, nil
		}
	}
	return database.Table{}, pgx.ErrNoRows
}

func (db *fakeDB) UpdateTableToken(ctx context.Context, arg database.UpdateTableTokenParams) (database.Table, error) {
	t, ok := db.state.tables[arg.ID]
	if !ok {
		return database.Table{}, pgx.ErrNoRows
	}
	t.QrToken = arg.QrToken
	t.QrGeneratedAt = arg.QrGeneratedAt
	db.state.tables[t.ID] = t
	return t, nil
}

// --- Menus ---

func (db *fakeDB) GetMenuForUpdate(ctx context.Context, id int64) (database.Menu, error) {
	m, ok := db.state.menus[id]
	if !ok {
		return database.Menu{}, pgx.ErrNoRows
	}
	return m, nil
}

func (db *fakeDB) DecrementMenuStock(ctx context.Context, arg database.DecrementMenuStockParams) (int32, error) {
	m, ok := db.state.menus[arg.ID]
	if !ok || m.Stock < arg.Quantity {
		return 0, pgx.ErrNoRows
	}
	m.Stock -= arg.Quantity
	db.state.menus[m.ID] = m
	return m.Stock, nil
}

// --- Orders ---

func (db *fakeDB) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if err := db.fail["CreateOrder"]; err != nil {
		return database.Order{}, err
	}
	o := database.Order{
		ID:            db.id(),
		TableID:       arg.TableID,
		TableNumber:   arg.TableNumber,
		CustomerName:  arg.CustomerName,
		Phone:         arg.Phone,
		PaymentMethod: arg.PaymentMethod,
		Status:        database.OrderStatusWaiting,
		OrderTime:     arg.OrderTime,
		UpdatedAt:     arg.OrderTime,
	}
	db.state.orders[o.ID] = o
	return o, nil
}

func (db *fakeDB) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	if err := db.fail["CreateOrderItem"]; err != nil {
		return database.OrderItem{}, err
	}
	it := database.OrderItem{
		ID:        db.id(),
		OrderID:   arg.OrderID,
		MenuID:    arg.MenuID,
		MenuName:  arg.MenuName,
		DrinkType: arg.DrinkType,
		Quantity:  arg.Quantity,
		Price:     arg.Price,
	}
	db.state.items = append(db.state.items, it)
	return it, nil
}

func (db *fakeDB) GetOrder(ctx context.Context, id int64) (database.Order, error) {
	o, ok := db.state.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (db *fakeDB) GetOrderForUpdate(ctx context.Context, id int64) (database.Order, error) {
	db.locked = append(db.locked, "order")
	o, ok := db.state.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (db *fakeDB) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	o, ok := db.state.orders[arg.ID]
	if !ok || o.Status != arg.CurrentStatus {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	db.state.orders[o.ID] = o
	return o, nil
}

// --- Payments ---

func (db *fakeDB) CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error) {
	if err := db.fail["CreatePayment"]; err != nil {
		return database.Payment{}, err
	}
	p := database.Payment{
		ID:            db.id(),
		OrderID:       arg.OrderID,
		TableID:       arg.TableID,
		Amount:        arg.Amount,
		PaymentStatus: database.PaymentStatusPending,
		PaymentType:   arg.PaymentType,
		PaymentTime:   arg.PaymentTime,
	}
	db.state.payments[p.ID] = p
	return p, nil
}

func (db *fakeDB) CreatePaymentEvent(ctx context.Context, arg database.CreatePaymentEventParams) (database.PaymentEvent, error) {
	if err := db.fail["CreatePaymentEvent"]; err != nil {
		return database.PaymentEvent{}, err
	}
	e := database.PaymentEvent{
		ID:         db.id(),
		PaymentID:  arg.PaymentID,
		FromStatus: arg.FromStatus,
		ToStatus:   arg.ToStatus,
		AmountPaid: arg.AmountPaid,
		Actor:      arg.Actor,
		Note:       arg.Note,
	}
	db.state.events = append(db.state.events, e)
	return e, nil
}

func (db *fakeDB) GetPaymentForUpdate(ctx context.Context, id int64) (database.Payment, error) {
	db.locked = append(db.locked, "payment")
	p, ok := db.state.payments[id]
	if !ok {
		return database.Payment{}, pgx.ErrNoRows
	}
	return p, nil
}

func (db *fakeDB) GetLatestPendingPaymentByTable(ctx context.Context, tableID int64) (database.Payment, error) {
	db.locked = append(db.locked, "payment")
	return db.latestPendingPayment(tableID)
}

func (db *fakeDB) latestPendingPayment(tableID int64) (database.Payment, error) {
	var (
		latest database.Payment
		found  bool
	)
	for _, p := range db.state.payments {
		if p.TableID != tableID || p.PaymentStatus != database.PaymentStatusPending {
			continue
		}
		if !found || p.PaymentTime.After(latest.PaymentTime) ||
			(p.PaymentTime.Equal(latest.PaymentTime) && p.ID > latest.ID) {
			latest, found = p, true
		}
	}
	if !found {
		return database.Payment{}, pgx.ErrNoRows
	}
	return latest, nil
}

func (db *fakeDB) FindLatestPendingPaymentByTable(ctx context.Context, tableID int64) (database.Payment, error) {
	return db.latestPendingPayment(tableID)
}

func (db *fakeDB) GetOpenPaymentByOrderForUpdate(ctx context.Context, orderID int64) (database.Payment, error) {
	db.locked = append(db.locked, "payment")
	var (
		open  database.Payment
		found bool
	)
	for _, p := range db.state.payments {
		if p.OrderID != orderID {
			continue
		}
		if p.PaymentStatus != database.PaymentStatusPending && p.PaymentStatus != database.PaymentStatusProcessing {
			continue
		}
		if !found || p.ID > open.ID {
			open, found = p, true
		}
	}
	if !found {
		return database.Payment{}, pgx.ErrNoRows
	}
	return open, nil
}

func (db *fakeDB) UpdatePaymentStatus(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error) {
	p, ok := db.state.payments[arg.ID]
	if !ok || p.PaymentStatus != arg.CurrentStatus {
		return database.Payment{}, pgx.ErrNoRows
	}
	p.PaymentStatus = arg.PaymentStatus
	p.AmountPaid = arg.AmountPaid
	p.PaymentTime = arg.PaymentTime
	db.state.payments[p.ID] = p
	return p, nil
}

func (db *fakeDB) RecordPaymentClaim(ctx context.Context, arg database.RecordPaymentClaimParams) (database.Payment, error) {
	p, ok := db.state.payments[arg.ID]
	if !ok || p.PaymentStatus != database.PaymentStatusPending {
		return database.Payment{}, pgx.ErrNoRows
	}
	p.AmountPaid = arg.AmountPaid
	p.PaymentTime = arg.PaymentTime
	db.state.payments[p.ID] = p
	return p, nil
}

func (db *fakeDB) ExpirePendingPayments(ctx context.Context, cutoff time.Time) ([]database.Payment, error) {
	var out []database.Payment
	for id, p := range db.state.payments {
		if p.PaymentStatus == database.PaymentStatusPending && p.PaymentTime.Before(cutoff) {
			p.PaymentStatus = database.PaymentStatusFailed
			db.state.payments[id] = p
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Transaction ---

// fakeTx implements pgx.Tx. Only Commit and Rollback are used; the query
// methods panic so accidental direct use is caught.
type fakeTx struct {
	db       *fakeDB
	snapshot fakeState
	done     bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	if t.db.commitErr != nil {
		return t.db.commitErr
	}
	t.done = true
	t.db.txMu.Unlock()
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.db.state = t.snapshot
	t.done = true
	t.db.txMu.Unlock()
	return nil
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (t *fakeTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (t *fakeTx) Conn() *pgx.Conn { panic("not implemented") }

// --- Collaborators ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type recordingCarts struct {
	cleared []string
}

func (c *recordingCarts) Clear(ctx context.Context, tableNumber, token string) error {
	c.cleared = append(c.cleared, tableNumber+":"+token)
	return nil
}

// --- Helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return n.Valid && d.Equal(exp)
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

const testTTL = 20 * time.Hour

func newTestOrderService(db *fakeDB, pub events.Publisher, carts CartClearer) *OrderService {
	svc := NewOrderService(db, func(database.DBTX) OrderStore { return db }, pub, carts, testTTL)
	svc.now = func() time.Time { return testNow }
	return svc
}

func newTestPaymentService(db *fakeDB, pub events.Publisher) *PaymentService {
	svc := NewPaymentService(db, func(database.DBTX) PaymentStore { return db }, pub, testTTL, 10*time.Minute)
	svc.now = func() time.Time { return testNow }
	return svc
}
