package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/enum"
	"github.com/kedai-qr/api/internal/events"
	"github.com/shopspring/decimal"
)

// PaymentStore defines the DB methods needed for payment reconciliation.
// Satisfied by *database.Queries (and its WithTx variant).
type PaymentStore interface {
	GetTableByNumber(ctx context.Context, tableNumber string) (database.Table, error)
	GetPaymentForUpdate(ctx context.Context, id int64) (database.Payment, error)
	GetLatestPendingPaymentByTable(ctx context.Context, tableID int64) (database.Payment, error)
	FindLatestPendingPaymentByTable(ctx context.Context, tableID int64) (database.Payment, error)
	UpdatePaymentStatus(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error)
	RecordPaymentClaim(ctx context.Context, arg database.RecordPaymentClaimParams) (database.Payment, error)
	ExpirePendingPayments(ctx context.Context, paymentTime time.Time) ([]database.Payment, error)
	CreatePaymentEvent(ctx context.Context, arg database.CreatePaymentEventParams) (database.PaymentEvent, error)
	GetOrder(ctx context.Context, id int64) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id int64) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// NewPaymentStore creates a PaymentStore from a DBTX (pool or tx).
type NewPaymentStore func(db database.DBTX) PaymentStore

// UpdatePaymentRequest is a staff payment status change.
type UpdatePaymentRequest struct {
	PaymentID  int64
	Status     database.PaymentStatus
	AmountPaid *decimal.Decimal // optional
	Actor      enum.Actor
}

// PaymentResult is a payment after reconciliation, with its order.
type PaymentResult struct {
	Payment   database.Payment
	Order     database.Order
	ChangeDue decimal.Decimal
}

// ExpireResult lists what one expiry sweep touched.
type ExpireResult struct {
	Payments       []database.Payment
	CanceledOrders []int64
}

// PaymentDetails is what a customer session sees before paying.
type PaymentDetails struct {
	Payment database.Payment
	Order   database.Order
}

// PaymentEvent is the payload of payment.* events.
type PaymentEvent struct {
	PaymentID      int64                  `json:"payment_id"`
	OrderID        int64                  `json:"order_id"`
	TableID        int64                  `json:"table_id"`
	Status         database.PaymentStatus `json:"status"`
	PreviousStatus database.PaymentStatus `json:"previous_status,omitempty"`
	PaymentType    database.PaymentType   `json:"payment_type"`
	Amount         string                 `json:"amount"`
	AmountPaid     string                 `json:"amount_paid,omitempty"`
}

// PaymentService reconciles payments and drives the order status coupling.
type PaymentService struct {
	pool      TxBeginner
	newStore  NewPaymentStore
	publisher events.Publisher
	tokenTTL  time.Duration
	expiry    time.Duration
	now       func() time.Time
}

// NewPaymentService creates a new PaymentService. Pending payments older
// than expiry are failed by ExpirePendingPayments.
func NewPaymentService(pool TxBeginner, newStore NewPaymentStore, publisher events.Publisher, tokenTTL, expiry time.Duration) *PaymentService {
	if publisher == nil {
		publisher = events.Nop
	}
	return &PaymentService{
		pool:      pool,
		newStore:  newStore,
		publisher: publisher,
		tokenTTL:  tokenTTL,
		expiry:    expiry,
		now:       time.Now,
	}
}

// UpdatePaymentStatus applies a staff payment transition, enforcing the
// amount rules for the payment type and propagating to the order.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, req UpdatePaymentRequest) (*PaymentResult, error) {
	if !validPaymentStatus(req.Status) {
		return nil, ErrInvalidStatus
	}
	if req.AmountPaid != nil && req.AmountPaid.IsNegative() {
		return nil, ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	payment, err := store.GetPaymentForUpdate(ctx, req.PaymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}

	if err := CheckPaymentTransition(payment.PaymentStatus, req.Status); err != nil {
		return nil, err
	}

	amount := numericToDecimal(payment.Amount)
	paid := pgtype.Numeric{}
	switch {
	case req.AmountPaid != nil:
		paid = decimalToNumeric(*req.AmountPaid)
	case payment.AmountPaid.Valid:
		paid = payment.AmountPaid
	case req.Status == database.PaymentStatusSuccess:
		paid = payment.Amount
	}

	changeDue := decimal.Zero
	if req.Status == database.PaymentStatusSuccess {
		changeDue, err = reconcile(payment.PaymentType, amount, numericToDecimal(paid))
		if err != nil {
			return nil, err
		}
	}

	result, orderEvt, err := s.applyPaymentTransition(ctx, store, payment, req.Status, paid, req.Actor, "")
	if err != nil {
		return nil, err
	}
	result.ChangeDue = changeDue

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	evts := []events.Event{paymentEvent(events.PaymentStatusChanged, payment.PaymentStatus, result.Payment)}
	if orderEvt != nil {
		evts = append(evts, *orderEvt)
	}
	publish(ctx, s.publisher, evts...)

	return result, nil
}

// reconcile enforces the success rule for a payment type and returns the
// change due.
func reconcile(paymentType database.PaymentType, amount, paid decimal.Decimal) (decimal.Decimal, error) {
	switch paymentType {
	case database.PaymentTypeCashier:
		if paid.LessThan(amount) {
			return decimal.Zero, fmt.Errorf("%w: paid %s, due %s", ErrInsufficientPayment, paid.StringFixed(2), amount.StringFixed(2))
		}
		return paid.Sub(amount), nil
	case database.PaymentTypeQris:
		if err := checkQRISAmount(amount, paid); err != nil {
			return decimal.Zero, err
		}
		return decimal.Zero, nil
	}
	return decimal.Zero, ErrInvalidPaymentType
}

func checkQRISAmount(amount, paid decimal.Decimal) error {
	if paid.Sub(amount).Abs().GreaterThan(qrisTolerance) {
		return fmt.Errorf("%w: paid %s, due %s", ErrAmountMismatch, paid.StringFixed(2), amount.StringFixed(2))
	}
	return nil
}

// applyPaymentTransition writes the payment status, its audit event and the
// coupled order change. The payment row must already be locked.
func (s *PaymentService) applyPaymentTransition(ctx context.Context, store PaymentStore, payment database.Payment, to database.PaymentStatus, paid pgtype.Numeric, actor enum.Actor, note string) (*PaymentResult, *events.Event, error) {
	order, err := lockPaymentOrder(ctx, store, payment)
	if err != nil {
		return nil, nil, err
	}
	if to != database.PaymentStatusFailed {
		if err := checkOrderOpen(order, payment, to); err != nil {
			return nil, nil, err
		}
	}

	updated, err := store.UpdatePaymentStatus(ctx, database.UpdatePaymentStatusParams{
		PaymentStatus: to,
		AmountPaid:    paid,
		PaymentTime:   s.now(),
		ID:            payment.ID,
		CurrentStatus: payment.PaymentStatus,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("payment %d changed concurrently: %w", payment.ID, ErrInvalidTransition)
		}
		return nil, nil, fmt.Errorf("update payment status: %w", err)
	}

	if err := recordPaymentEvent(ctx, store, payment.PaymentStatus, updated, actor, note); err != nil {
		return nil, nil, err
	}

	var orderEvt *events.Event
	if target, ok := orderTargetForPayment(order.Status, to); ok {
		prev := order.Status
		order, err = transitionOrder(ctx, store, order, target, enum.ActorSystem)
		if err != nil {
			return nil, nil, err
		}
		evt := orderStatusEvent(prev, order)
		orderEvt = &evt
	}

	return &PaymentResult{Payment: updated, Order: order}, orderEvt, nil
}

func lockPaymentOrder(ctx context.Context, store PaymentStore, payment database.Payment) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, payment.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// checkOrderOpen rejects moving a payment anywhere but failed once its order
// is canceled.
func checkOrderOpen(order database.Order, payment database.Payment, to database.PaymentStatus) error {
	if order.Status != database.OrderStatusCanceled {
		return nil
	}
	return &TransitionError{
		Entity: "payment",
		From:   string(payment.PaymentStatus),
		To:     string(to),
		cause:  fmt.Errorf("order %d is canceled: %w", order.ID, ErrInvalidTransition),
	}
}

type paymentEventRecorder interface {
	CreatePaymentEvent(ctx context.Context, arg database.CreatePaymentEventParams) (database.PaymentEvent, error)
}

func recordPaymentEvent(ctx context.Context, store paymentEventRecorder, from database.PaymentStatus, p database.Payment, actor enum.Actor, note string) error {
	_, err := store.CreatePaymentEvent(ctx, database.CreatePaymentEventParams{
		PaymentID:  p.ID,
		FromStatus: database.NullPaymentStatus{PaymentStatus: from, Valid: true},
		ToStatus:   p.PaymentStatus,
		AmountPaid: p.AmountPaid,
		Actor:      string(actor),
		Note:       pgtype.Text{String: note, Valid: note != ""},
	})
	if err != nil {
		return fmt.Errorf("create payment event: %w", err)
	}
	return nil
}

// MarkPaymentSuccess records a customer's QRIS payment claim. The payment
// stays pending until a cashier confirms it.
func (s *PaymentService) MarkPaymentSuccess(ctx context.Context, tableNumber, token string, amountPaid decimal.Decimal) (database.Payment, error) {
	if amountPaid.IsNegative() {
		return database.Payment{}, ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Payment{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	payment, err := s.latestPending(ctx, store, tableNumber, token)
	if err != nil {
		return database.Payment{}, err
	}
	if payment.PaymentType != database.PaymentTypeQris {
		return database.Payment{}, ErrPaymentTypeMismatch
	}
	order, err := lockPaymentOrder(ctx, store, payment)
	if err != nil {
		return database.Payment{}, err
	}
	if err := checkOrderOpen(order, payment, database.PaymentStatusPending); err != nil {
		return database.Payment{}, err
	}
	if err := checkQRISAmount(numericToDecimal(payment.Amount), amountPaid); err != nil {
		return database.Payment{}, err
	}

	claimed, err := store.RecordPaymentClaim(ctx, database.RecordPaymentClaimParams{
		ID:          payment.ID,
		AmountPaid:  decimalToNumeric(amountPaid),
		PaymentTime: s.now(),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Payment{}, ErrPaymentNotFound
		}
		return database.Payment{}, fmt.Errorf("record payment claim: %w", err)
	}

	if err := recordPaymentEvent(ctx, store, payment.PaymentStatus, claimed, enum.ActorCustomer, "claimed"); err != nil {
		return database.Payment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Payment{}, fmt.Errorf("commit tx: %w", err)
	}

	publish(ctx, s.publisher, paymentEvent(events.PaymentClaimed, "", claimed))
	return claimed, nil
}

// CancelPaymentAndOrder fails the session's latest pending payment and
// cancels its order.
func (s *PaymentService) CancelPaymentAndOrder(ctx context.Context, tableNumber, token string) (*PaymentResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	payment, err := s.latestPending(ctx, store, tableNumber, token)
	if err != nil {
		return nil, err
	}

	result, orderEvt, err := s.applyPaymentTransition(ctx, store, payment, database.PaymentStatusFailed, payment.AmountPaid, enum.ActorCustomer, "canceled by customer")
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	evts := []events.Event{paymentEvent(events.PaymentStatusChanged, payment.PaymentStatus, result.Payment)}
	if orderEvt != nil {
		evts = append(evts, *orderEvt)
	}
	publish(ctx, s.publisher, evts...)

	return result, nil
}

// ExpirePendingPayments fails every payment left pending longer than the
// expiry window and cancels the orders behind them. Running it again is a
// no-op.
func (s *PaymentService) ExpirePendingPayments(ctx context.Context) (*ExpireResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	expired, err := store.ExpirePendingPayments(ctx, s.now().Add(-s.expiry))
	if err != nil {
		return nil, fmt.Errorf("expire pending payments: %w", err)
	}

	result := &ExpireResult{Payments: expired}
	var evts []events.Event
	for _, p := range expired {
		if err := recordPaymentEvent(ctx, store, database.PaymentStatusPending, p, enum.ActorSystem, "expired"); err != nil {
			return nil, err
		}
		evts = append(evts, paymentEvent(events.PaymentExpired, database.PaymentStatusPending, p))

		order, err := store.GetOrderForUpdate(ctx, p.OrderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("get order %d: %w", p.OrderID, err)
		}
		target, ok := orderTargetForPayment(order.Status, database.PaymentStatusFailed)
		if !ok {
			continue
		}
		prev := order.Status
		updated, err := transitionOrder(ctx, store, order, target, enum.ActorSystem)
		if err != nil {
			return nil, err
		}
		result.CanceledOrders = append(result.CanceledOrders, updated.ID)
		evts = append(evts, orderStatusEvent(prev, updated))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	publish(ctx, s.publisher, evts...)
	return result, nil
}

// RunExpirySweeper calls ExpirePendingPayments every interval until ctx is
// done.
func (s *PaymentService) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ExpirePendingPayments(ctx); err != nil && ctx.Err() == nil {
				log.Printf("ERROR: payment expiry sweep: %v", err)
			}
		}
	}
}

// GetPaymentDetails returns the session's latest pending payment. It only
// reads, so it takes no row locks.
func (s *PaymentService) GetPaymentDetails(ctx context.Context, tableNumber, token string) (*PaymentDetails, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := resolveSession(ctx, store, tableNumber, token, s.now(), s.tokenTTL)
	if err != nil {
		return nil, err
	}
	payment, err := store.FindLatestPendingPaymentByTable(ctx, table.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get pending payment: %w", err)
	}
	order, err := store.GetOrder(ctx, payment.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status == database.OrderStatusCanceled {
		return nil, ErrPaymentNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &PaymentDetails{Payment: payment, Order: order}, nil
}

// latestPending locks the session's latest pending payment.
func (s *PaymentService) latestPending(ctx context.Context, store PaymentStore, tableNumber, token string) (database.Payment, error) {
	table, err := resolveSession(ctx, store, tableNumber, token, s.now(), s.tokenTTL)
	if err != nil {
		return database.Payment{}, err
	}
	payment, err := store.GetLatestPendingPaymentByTable(ctx, table.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Payment{}, ErrPaymentNotFound
		}
		return database.Payment{}, fmt.Errorf("get pending payment: %w", err)
	}
	return payment, nil
}

func paymentEvent(typ string, from database.PaymentStatus, p database.Payment) events.Event {
	e := PaymentEvent{
		PaymentID:      p.ID,
		OrderID:        p.OrderID,
		TableID:        p.TableID,
		Status:         p.PaymentStatus,
		PreviousStatus: from,
		PaymentType:    p.PaymentType,
		Amount:         numericToDecimal(p.Amount).StringFixed(2),
	}
	if p.AmountPaid.Valid {
		e.AmountPaid = numericToDecimal(p.AmountPaid).StringFixed(2)
	}
	return events.Event{Type: typ, Channels: []string{enum.ChannelCashier}, Payload: e}
}
