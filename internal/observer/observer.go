package observer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/kafka"
	"github.com/pulsefit-app/billing-service/internal/service"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// Observer consumes subscription change events and keeps a per-user access
// flag up to date without anyone polling the database. Events are handled one
// at a time; a handler runs to completion before the next event is read.
type Observer struct {
	reader     *kafkaGo.Reader
	reconciler service.ReconcilerService
	log        *logger.Logger
	now        func() time.Time

	mu     sync.RWMutex
	access map[string]bool
}

// New creates a new subscription observer
func New(brokers []string, groupID string, reconciler service.ReconcilerService, log *logger.Logger) *Observer {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    kafka.TopicSubscriptionUpdated,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  250 * time.Millisecond,
	})

	return &Observer{
		reader:     reader,
		reconciler: reconciler,
		log:        log,
		now:        time.Now,
		access:     make(map[string]bool),
	}
}

// Run consumes events until the context is canceled
func (o *Observer) Run(ctx context.Context) error {
	o.log.Info("Subscription observer started")

	for {
		msg, err := o.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				o.log.Info("Subscription observer stopped")
				return nil
			}
			o.log.Errorw("Failed to read subscription event", "error", err)
			continue
		}

		o.handle(msg.Value)
	}
}

// IsActive reports the last observed access flag for a user
func (o *Observer) IsActive(userID string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.access[userID]
}

// Close closes the underlying reader
func (o *Observer) Close() error {
	return o.reader.Close()
}

// looseEvent defers date decoding so one malformed timestamp does not drop
// the whole event
type looseEvent struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	Subscription struct {
		Active    bool            `json:"active"`
		Type      string          `json:"type"`
		StartDate json.RawMessage `json:"startDate"`
		EndDate   json.RawMessage `json:"endDate"`
		PaymentID string          `json:"paymentId"`
		Amount    float64         `json:"amount"`
	} `json:"subscription"`
}

func (o *Observer) handle(value []byte) {
	var event looseEvent
	if err := json.Unmarshal(value, &event); err != nil {
		o.log.Warnw("Discarding malformed subscription event", "error", err)
		return
	}
	if event.UserID == "" {
		o.log.Warnw("Discarding subscription event without user id")
		return
	}

	endDate, endErr := parseRawTime(event.Subscription.EndDate)

	active := event.Subscription.Active && endDate.After(o.now())
	if event.Subscription.Active && endErr != nil {
		// An unparseable end date on an active subscription keeps access
		// granted rather than locking the user out over bad data
		o.log.Warnw("Subscription end date unparseable, keeping access",
			"userID", event.UserID, "endDate", string(event.Subscription.EndDate))
		active = true
	}

	o.mu.Lock()
	o.access[event.UserID] = active
	o.mu.Unlock()

	o.log.Debugw("Access flag updated", "userID", event.UserID, "active", active)

	if !active && event.Email != "" {
		// Fire-and-forget repair, does not block the consume loop
		go func(userID, email string) {
			if _, err := o.reconciler.Reconcile(context.Background(), userID, email); err != nil {
				o.log.Warnw("Background reconciliation failed", "error", err, "userID", userID)
			}
		}(event.UserID, event.Email)
	}
}

func parseRawTime(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 {
		return time.Time{}, domain.ErrUnparseableTime
	}
	var ft domain.FlexibleTime
	if err := json.Unmarshal(raw, &ft); err != nil {
		return time.Time{}, err
	}
	if ft.IsZero() {
		return time.Time{}, domain.ErrUnparseableTime
	}
	return ft.Time, nil
}
