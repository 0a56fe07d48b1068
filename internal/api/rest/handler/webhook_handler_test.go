package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

type fakeSubscriptionService struct {
	status   domain.StatusResponse
	upserted map[string]*domain.Subscription
}

func (f *fakeSubscriptionService) GetStatus(ctx context.Context, userID string) (domain.StatusResponse, error) {
	return f.status, nil
}

func (f *fakeSubscriptionService) UpsertFromWebhook(ctx context.Context, userID string, sub *domain.Subscription) error {
	if f.upserted == nil {
		f.upserted = make(map[string]*domain.Subscription)
	}
	f.upserted[userID] = sub
	return nil
}

func newWebhookRouter(svc *fakeSubscriptionService, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewWebhookHandler(svc, secret, logger.New(logger.ERROR))
	router.POST("/webhooks/payment", h.HandlePaymentWebhook)
	return router
}

func TestWebhookRejectsMissingSecret(t *testing.T) {
	router := newWebhookRouter(&fakeSubscriptionService{}, "hook-secret")

	body := bytes.NewBufferString(`{"userId":"user-1","subscription":{"active":true,"type":"monthly"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	router := newWebhookRouter(&fakeSubscriptionService{}, "hook-secret")

	body := bytes.NewBufferString(`{"userId":"user-1","subscription":{"active":true,"type":"monthly"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", body)
	req.Header.Set(WebhookSecretHeader, "guess")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestWebhookAppliesSubscription(t *testing.T) {
	svc := &fakeSubscriptionService{}
	router := newWebhookRouter(svc, "hook-secret")

	body := bytes.NewBufferString(`{
		"userId": "user-1",
		"subscription": {
			"active": true,
			"type": "yearly",
			"startDate": "2024-02-15T00:00:00Z",
			"endDate": "2025-02-15T00:00:00Z",
			"paymentId": "pay-1",
			"amount": 7990
		}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", body)
	req.Header.Set(WebhookSecretHeader, "hook-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	sub := svc.upserted["user-1"]
	if sub == nil {
		t.Fatal("subscription was not applied")
	}
	if sub.Type != domain.PlanYearly {
		t.Errorf("type = %s, want yearly", sub.Type)
	}
	if want := time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC); !sub.EndDate.Equal(want) {
		t.Errorf("endDate = %v, want %v", sub.EndDate, want)
	}
}

func TestWebhookAcceptsEpochDates(t *testing.T) {
	svc := &fakeSubscriptionService{}
	router := newWebhookRouter(svc, "hook-secret")

	body := bytes.NewBufferString(`{
		"userId": "user-1",
		"subscription": {
			"active": true,
			"type": "monthly",
			"startDate": 1707955200,
			"endDate": {"seconds": 1710460800, "nanoseconds": 0}
		}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", body)
	req.Header.Set(WebhookSecretHeader, "hook-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	sub := svc.upserted["user-1"]
	if sub == nil {
		t.Fatal("subscription was not applied")
	}
	if !sub.EndDate.Equal(time.Unix(1710460800, 0).UTC()) {
		t.Errorf("endDate = %v", sub.EndDate)
	}
}

func TestWebhookRejectsUnknownPlan(t *testing.T) {
	router := newWebhookRouter(&fakeSubscriptionService{}, "hook-secret")

	body := bytes.NewBufferString(`{"userId":"user-1","subscription":{"active":true,"type":"weekly"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", body)
	req.Header.Set(WebhookSecretHeader, "hook-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
