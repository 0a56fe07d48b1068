package domain

import (
	"time"
)

// PaymentStatus is a normalized payment gateway status
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusWaitingForCapture PaymentStatus = "waiting_for_capture"
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusCanceled          PaymentStatus = "canceled"
)

// PendingPayment is the audit record created when a payment is initiated.
// It is never deleted; Processed is flipped exactly once when a subscription
// has been activated from the payment, and doubles as the idempotency guard
// for the activation path.
type PendingPayment struct {
	PaymentID string    `json:"paymentId"`
	UserID    string    `json:"userId"`
	Type      PlanType  `json:"type"`
	Amount    float64   `json:"amount"`
	Processed bool      `json:"processed"`
	CreatedAt time.Time `json:"createdAt"`
}

// PurchaseRequest is the payload of POST /payments
type PurchaseRequest struct {
	Type string `json:"type" binding:"required,plantype"`
}

// PurchaseResponse is returned after a gateway payment has been created
type PurchaseResponse struct {
	PaymentID       string `json:"paymentId"`
	ConfirmationURL string `json:"confirmationUrl"`
	Status          string `json:"status"`
}

// ActivateRequest is the payload of POST /payments/activate. The client
// fallback path supplies the plan type in case payment metadata is missing.
type ActivateRequest struct {
	PaymentID        string `json:"paymentId" binding:"required"`
	SubscriptionType string `json:"subscriptionType" binding:"omitempty,plantype"`
}

// StatusResponse is returned by GET /subscriptions/status
type StatusResponse struct {
	HasSubscription bool          `json:"hasSubscription"`
	Subscription    *Subscription `json:"subscription,omitempty"`
}
