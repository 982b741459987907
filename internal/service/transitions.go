package service

import (
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/enum"
)

type orderEdge struct {
	from, to database.OrderStatus
}

// orderTransitions lists every legal order status change and who may make it.
// completed and canceled are terminal. Cashiers cancel by failing the payment,
// which cancels the order as SYSTEM.
var orderTransitions = map[orderEdge][]enum.Actor{
	{database.OrderStatusWaiting, database.OrderStatusPending}:      {enum.ActorSystem, enum.ActorAdmin, enum.ActorKitchen},
	{database.OrderStatusWaiting, database.OrderStatusCanceled}:     {enum.ActorSystem, enum.ActorAdmin},
	{database.OrderStatusPending, database.OrderStatusProcessing}:   {enum.ActorKitchen},
	{database.OrderStatusPending, database.OrderStatusCanceled}:     {enum.ActorSystem, enum.ActorAdmin},
	{database.OrderStatusProcessing, database.OrderStatusCompleted}: {enum.ActorKitchen},
	{database.OrderStatusProcessing, database.OrderStatusCanceled}:  {enum.ActorSystem, enum.ActorAdmin},
}

// paymentTransitions lists legal payment status changes. success and failed
// are terminal. Actor checks for payments happen at the route level.
var paymentTransitions = map[database.PaymentStatus][]database.PaymentStatus{
	database.PaymentStatusPending:    {database.PaymentStatusProcessing, database.PaymentStatusSuccess, database.PaymentStatusFailed},
	database.PaymentStatusProcessing: {database.PaymentStatusSuccess, database.PaymentStatusFailed},
}

// CheckOrderTransition returns nil when actor may move an order from -> to.
func CheckOrderTransition(from, to database.OrderStatus, actor enum.Actor) error {
	actors, ok := orderTransitions[orderEdge{from, to}]
	if !ok {
		return &TransitionError{Entity: "order", From: string(from), To: string(to), cause: ErrInvalidTransition}
	}
	for _, a := range actors {
		if a == actor {
			return nil
		}
	}
	return &TransitionError{Entity: "order", From: string(from), To: string(to), cause: ErrTransitionNotAllowed}
}

// CheckPaymentTransition returns nil when a payment may move from -> to.
func CheckPaymentTransition(from, to database.PaymentStatus) error {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{Entity: "payment", From: string(from), To: string(to), cause: ErrInvalidTransition}
}

// orderTargetForPayment returns the order status implied by a payment moving
// to paymentTo, or false when the order should stay where it is.
func orderTargetForPayment(orderStatus database.OrderStatus, paymentTo database.PaymentStatus) (database.OrderStatus, bool) {
	switch paymentTo {
	case database.PaymentStatusSuccess:
		if orderStatus == database.OrderStatusWaiting {
			return database.OrderStatusPending, true
		}
	case database.PaymentStatusFailed:
		if orderStatus != database.OrderStatusCompleted && orderStatus != database.OrderStatusCanceled {
			return database.OrderStatusCanceled, true
		}
	}
	return "", false
}

func validOrderStatus(s database.OrderStatus) bool {
	switch s {
	case database.OrderStatusWaiting, database.OrderStatusPending, database.OrderStatusProcessing,
		database.OrderStatusCompleted, database.OrderStatusCanceled:
		return true
	}
	return false
}

func validPaymentStatus(s database.PaymentStatus) bool {
	switch s {
	case database.PaymentStatusPending, database.PaymentStatusProcessing,
		database.PaymentStatusSuccess, database.PaymentStatusFailed:
		return true
	}
	return false
}
