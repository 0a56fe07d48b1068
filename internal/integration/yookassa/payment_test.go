package yookassa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pulsefit-app/billing-service/config"
	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(config.GatewayConfig{
		ShopID:    "shop-123",
		SecretKey: "sk-secret",
		BaseURL:   serverURL,
		ReturnURL: "https://app.example/return",
	}, logger.New(logger.ERROR))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(config.GatewayConfig{BaseURL: "https://api.example"}, logger.New(logger.ERROR))
	if !errors.Is(err, config.ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestCreatePaymentSendsAuthAndIdempotenceKey(t *testing.T) {
	var gotPath, gotKey string
	var gotUser, gotPass string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Idempotence-Key")
		gotUser, gotPass, _ = r.BasicAuth()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pay-abc",
			"status": "pending",
			"paid":   false,
			"amount": map[string]string{"value": "999.00", "currency": "RUB"},
			"confirmation": map[string]string{
				"type":             "redirect",
				"confirmation_url": "https://gateway.example/confirm",
			},
			"metadata": map[string]string{"userId": "user-1"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	payment, err := client.CreatePayment(context.Background(), CreatePaymentRequest{
		Amount:         999,
		Currency:       "RUB",
		Description:    "test purchase",
		Metadata:       map[string]string{"userId": "user-1"},
		IdempotenceKey: "key-1",
	})
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	if gotPath != "/payments" {
		t.Errorf("path = %s, want /payments", gotPath)
	}
	if gotUser != "shop-123" || gotPass != "sk-secret" {
		t.Errorf("basic auth = %s:%s, want shop-123:sk-secret", gotUser, gotPass)
	}
	if gotKey != "key-1" {
		t.Errorf("Idempotence-Key = %q, want key-1", gotKey)
	}
	if amount, _ := gotBody["amount"].(map[string]interface{}); amount["value"] != "999.00" {
		t.Errorf("amount value = %v, want 999.00", amount["value"])
	}
	if capture, _ := gotBody["capture"].(bool); !capture {
		t.Error("capture flag should be set")
	}

	if payment.ID != "pay-abc" {
		t.Errorf("payment id = %s, want pay-abc", payment.ID)
	}
	if payment.Status != domain.PaymentStatusPending {
		t.Errorf("status = %s, want pending", payment.Status)
	}
	if payment.ConfirmationURL != "https://gateway.example/confirm" {
		t.Errorf("confirmation URL = %s", payment.ConfirmationURL)
	}
	if payment.Amount != 999 {
		t.Errorf("amount = %v, want 999", payment.Amount)
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	client := newTestClient(t, "http://unused.invalid")

	tests := []struct {
		name string
		req  CreatePaymentRequest
	}{
		{"zero amount", CreatePaymentRequest{Amount: 0, Currency: "RUB", IdempotenceKey: "k"}},
		{"negative amount", CreatePaymentRequest{Amount: -1, Currency: "RUB", IdempotenceKey: "k"}},
		{"unsupported currency", CreatePaymentRequest{Amount: 10, Currency: "USD", IdempotenceKey: "k"}},
		{"missing idempotence key", CreatePaymentRequest{Amount: 10, Currency: "RUB"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreatePayment(context.Background(), tt.req)
			var verr domain.ValidationErrors
			if !errors.As(err, &verr) {
				t.Errorf("err = %v, want ValidationErrors", err)
			}
		})
	}
}

func TestGetPaymentMapsGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"type":        "error",
			"code":        "not_found",
			"description": "Payment not found",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GetPayment(context.Background(), "missing")

	var gatewayErr *domain.GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("err = %v, want GatewayError", err)
	}
	if gatewayErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", gatewayErr.StatusCode)
	}
	if gatewayErr.Code != "not_found" {
		t.Errorf("code = %s, want not_found", gatewayErr.Code)
	}
}

func TestCapturePaymentPath(t *testing.T) {
	var gotPath, gotMethod, gotKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotKey = r.Header.Get("Idempotence-Key")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pay-abc",
			"status": "succeeded",
			"paid":   true,
			"amount": map[string]string{"value": "999.00", "currency": "RUB"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	payment, err := client.CapturePayment(context.Background(), "pay-abc", "cap-key")
	if err != nil {
		t.Fatalf("CapturePayment failed: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/payments/pay-abc/capture" {
		t.Errorf("request = %s %s, want POST /payments/pay-abc/capture", gotMethod, gotPath)
	}
	if gotKey != "cap-key" {
		t.Errorf("Idempotence-Key = %q, want cap-key", gotKey)
	}
	if payment.Status != domain.PaymentStatusSucceeded || !payment.Paid {
		t.Errorf("payment = %+v, want succeeded and paid", payment)
	}
}

func TestGetPaymentTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.GetPayment(ctx, "pay-slow")
	if !errors.Is(err, domain.ErrTimeoutExceeded) {
		t.Fatalf("err = %v, want ErrTimeoutExceeded", err)
	}
}
