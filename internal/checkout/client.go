// Package checkout предоставляет клиент внешнего провайдера оплаты (Stripe Checkout).
package checkout

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"go.uber.org/zap"

	"github.com/mmeshcher/carsharing-system/internal/model"
)

// StatusPaid задаёт статус оплаты сессии, который провайдер возвращает после успешного платежа.
const StatusPaid = string(stripe.CheckoutSessionPaymentStatusPaid)

const productName = "Car rental payment"

// Session описывает созданную сессию оплаты.
type Session struct {
	ID  string
	URL string
}

// Client инкапсулирует взаимодействие с API сессий оплаты.
type Client struct {
	sessions session.Client
}

// NewClient создаёт клиент провайдера оплаты. Пустой apiURL означает боевой адрес провайдера.
func NewClient(secretKey, apiURL string, logger *zap.Logger) *Client {
	cfg := &stripe.BackendConfig{
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     logger.Sugar(),
	}
	if apiURL != "" {
		cfg.URL = stripe.String(strings.TrimRight(apiURL, "/"))
	}

	return &Client{
		sessions: session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
			Key: secretKey,
		},
	}
}

// CreateSession открывает сессию оплаты на сумму amount в минимальных единицах валюты.
func (c *Client) CreateSession(ctx context.Context, amount model.Money, currency, successURL, cancelURL string) (*Session, error) {
	if c == nil || c.sessions.Key == "" {
		return nil, fmt.Errorf("%w: checkout client not configured", model.ErrPaymentProvider)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(int64(amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
				},
			},
		},
	}
	params.Context = ctx

	s, err := c.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %w", model.ErrPaymentProvider, err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%w: empty session id", model.ErrPaymentProvider)
	}

	return &Session{ID: s.ID, URL: s.URL}, nil
}

// PaymentStatus возвращает статус оплаты сессии в терминах провайдера ("paid", "unpaid", ...).
func (c *Client) PaymentStatus(ctx context.Context, sessionID string) (string, error) {
	if c == nil || c.sessions.Key == "" {
		return "", fmt.Errorf("%w: checkout client not configured", model.ErrPaymentProvider)
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := c.sessions.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("%w: get session %s: %w", model.ErrPaymentProvider, sessionID, err)
	}

	return string(s.PaymentStatus), nil
}
