package yookassa

import (
	"net/http"
	"time"

	"github.com/pulsefit-app/billing-service/config"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// requestTimeout is the fixed budget for every gateway call. Exceeding it
// aborts the operation and surfaces a timeout error to the caller.
const requestTimeout = 15 * time.Second

// Client is an HTTP client for the YooKassa payments API. Authentication is
// Basic auth with the shop id as user and the secret key as password.
type Client struct {
	baseURL    string
	shopID     string
	secretKey  string
	returnURL  string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new YooKassa API client
func NewClient(cfg config.GatewayConfig, log *logger.Logger) (*Client, error) {
	if cfg.ShopID == "" || cfg.SecretKey == "" {
		return nil, config.ErrMissingCredentials
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		shopID:    cfg.ShopID,
		secretKey: cfg.SecretKey,
		returnURL: cfg.ReturnURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		log: log,
	}, nil
}
