package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/pulsefit-app/billing-service/internal/domain"
)

// supportedCurrencies is the allow-list checked before any network call
var supportedCurrencies = map[string]bool{
	"RUB": true,
}

// Payment is a normalized view of a gateway payment
type Payment struct {
	ID              string
	Status          domain.PaymentStatus
	Paid            bool
	Amount          float64
	Currency        string
	ConfirmationURL string
	Metadata        map[string]string
}

// CreatePaymentRequest carries a purchase intent to the gateway
type CreatePaymentRequest struct {
	Amount         float64
	Currency       string
	Description    string
	Metadata       map[string]string
	IdempotenceKey string
}

type amountPayload struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type confirmationPayload struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type paymentPayload struct {
	Amount       amountPayload        `json:"amount"`
	Capture      bool                 `json:"capture"`
	Confirmation *confirmationPayload `json:"confirmation,omitempty"`
	Description  string               `json:"description,omitempty"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
}

type paymentResponse struct {
	ID           string               `json:"id"`
	Status       string               `json:"status"`
	Paid         bool                 `json:"paid"`
	Amount       amountPayload        `json:"amount"`
	Confirmation *confirmationPayload `json:"confirmation,omitempty"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
	CreatedAt    string               `json:"created_at"`
}

type errorResponse struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// CreatePayment creates a payment at the gateway and returns its id together
// with the redirect URL the user must complete payment at. The idempotence
// key makes retried creation safe on the provider side.
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	payload := paymentPayload{
		Amount: amountPayload{
			Value:    strconv.FormatFloat(req.Amount, 'f', 2, 64),
			Currency: req.Currency,
		},
		Capture: true,
		Confirmation: &confirmationPayload{
			Type:      "redirect",
			ReturnURL: c.returnURL,
		},
		Description: req.Description,
		Metadata:    req.Metadata,
	}

	c.log.Debugw("Creating gateway payment", "amount", req.Amount, "currency", req.Currency)

	resp, err := c.do(ctx, http.MethodPost, "/payments", payload, req.IdempotenceKey)
	if err != nil {
		return nil, err
	}

	c.log.Infow("Gateway payment created", "paymentID", resp.ID, "status", resp.Status)
	return normalize(resp)
}

// GetPayment fetches the current state of a payment
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	c.log.Debugw("Fetching gateway payment", "paymentID", paymentID)

	resp, err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, "")
	if err != nil {
		return nil, err
	}
	return normalize(resp)
}

// CapturePayment captures an authorized payment. Used for two-stage flows
// where a status check finds the payment waiting_for_capture.
func (c *Client) CapturePayment(ctx context.Context, paymentID, idempotenceKey string) (*Payment, error) {
	c.log.Debugw("Capturing gateway payment", "paymentID", paymentID)

	resp, err := c.do(ctx, http.MethodPost, "/payments/"+paymentID+"/capture", struct{}{}, idempotenceKey)
	if err != nil {
		return nil, err
	}

	c.log.Infow("Gateway payment captured", "paymentID", resp.ID, "status", resp.Status)
	return normalize(resp)
}

func validateCreateRequest(req CreatePaymentRequest) error {
	var verr domain.ValidationErrors
	if req.Amount <= 0 {
		verr.Add("amount", "must be greater than zero")
	}
	if !supportedCurrencies[req.Currency] {
		verr.Add("currency", fmt.Sprintf("currency %q is not supported", req.Currency))
	}
	if req.IdempotenceKey == "" {
		verr.Add("idempotence_key", "must not be empty")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, idempotenceKey string) (*paymentResponse, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.shopID, c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	if idempotenceKey != "" {
		req.Header.Set("Idempotence-Key", idempotenceKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.log.Errorw("Gateway request timed out", "method", method, "path", path)
			return nil, fmt.Errorf("%w: %s %s", domain.ErrTimeoutExceeded, method, path)
		}
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			apiErr.Code = "unknown"
			apiErr.Description = resp.Status
		}
		c.log.Errorw("Gateway returned an error",
			"method", method, "path", path,
			"status", resp.StatusCode, "code", apiErr.Code, "description", apiErr.Description)
		return nil, domain.NewGatewayError(method+" "+path, apiErr.Code, apiErr.Description, resp.StatusCode, nil)
	}

	var paymentResp paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&paymentResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &paymentResp, nil
}

func normalize(resp *paymentResponse) (*Payment, error) {
	amount, err := strconv.ParseFloat(resp.Amount.Value, 64)
	if err != nil && resp.Amount.Value != "" {
		return nil, fmt.Errorf("failed to parse payment amount %q: %w", resp.Amount.Value, err)
	}

	payment := &Payment{
		ID:       resp.ID,
		Status:   domain.PaymentStatus(resp.Status),
		Paid:     resp.Paid,
		Amount:   amount,
		Currency: resp.Amount.Currency,
		Metadata: resp.Metadata,
	}
	if resp.Confirmation != nil {
		payment.ConfirmationURL = resp.Confirmation.ConfirmationURL
	}
	return payment, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
