package kafka

import (
	"time"

	"github.com/pulsefit-app/billing-service/internal/domain"
)

// Topics used by the billing service
const (
	TopicSubscriptionUpdated = "subscription.updated"
)

// SubscriptionEvent is the wire form of a subscription change. Consumers may
// receive events serialized by older producers, so the dates are parsed
// leniently.
type SubscriptionEvent struct {
	UserID       string              `json:"userId"`
	Email        string              `json:"email,omitempty"`
	Subscription SubscriptionPayload `json:"subscription"`
	Timestamp    time.Time           `json:"timestamp"`
}

// SubscriptionPayload mirrors the subscription sub-object with flexible
// timestamp decoding
type SubscriptionPayload struct {
	Active    bool                `json:"active"`
	Type      string              `json:"type"`
	StartDate domain.FlexibleTime `json:"startDate"`
	EndDate   domain.FlexibleTime `json:"endDate"`
	PaymentID string              `json:"paymentId"`
	Amount    float64             `json:"amount"`
}

// NewSubscriptionEvent builds an event from a domain subscription
func NewSubscriptionEvent(userID, email string, sub *domain.Subscription) SubscriptionEvent {
	return SubscriptionEvent{
		UserID: userID,
		Email:  email,
		Subscription: SubscriptionPayload{
			Active:    sub.Active,
			Type:      string(sub.Type),
			StartDate: domain.FlexibleTime{Time: sub.StartDate},
			EndDate:   domain.FlexibleTime{Time: sub.EndDate},
			PaymentID: sub.PaymentID,
			Amount:    sub.Amount,
		},
		Timestamp: time.Now(),
	}
}
