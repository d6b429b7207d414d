package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const defaultAPIBase = "https://api.stripe.com/v1"

// StripeClient talks to the Stripe REST API with form-encoded requests.
// All calls go through a circuit breaker so a provider outage fails fast
// instead of piling up blocked checkout requests.
type StripeClient struct {
	apiBase   string
	secretKey string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
}

func NewStripeClient(secretKey string) *StripeClient {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &StripeClient{
		apiBase:   defaultAPIBase,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
		breaker:   breaker,
	}
}

// WithAPIBase points the client at a different endpoint. Used in tests.
func (c *StripeClient) WithAPIBase(base string) *StripeClient {
	c.apiBase = strings.TrimRight(base, "/")
	return c
}

func (c *StripeClient) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinorUnits, 10))
	form.Set("currency", currency)
	addMetadata(form, metadata)

	body, err := c.do(ctx, http.MethodPost, "/payment_intents", form)
	if err != nil {
		return nil, err
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("decode payment intent response: %w", err)
	}
	return &intent, nil
}

func (c *StripeClient) ModifyIntentMetadata(ctx context.Context, intentID string, metadata map[string]string) error {
	form := url.Values{}
	addMetadata(form, metadata)

	_, err := c.do(ctx, http.MethodPost, "/payment_intents/"+url.PathEscape(intentID), form)
	return err
}

func (c *StripeClient) RetrieveCharge(ctx context.Context, chargeID string) (*Charge, error) {
	body, err := c.do(ctx, http.MethodGet, "/charges/"+url.PathEscape(chargeID), nil)
	if err != nil {
		return nil, err
	}

	var charge Charge
	if err := json.Unmarshal(body, &charge); err != nil {
		return nil, fmt.Errorf("decode charge response: %w", err)
	}
	return &charge, nil
}

func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		var reqBody io.Reader
		if form != nil {
			reqBody = strings.NewReader(form.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("build stripe request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("stripe %s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("read stripe response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("%w: %s %s returned %d: %s",
				ErrGatewayRequest, method, path, resp.StatusCode, truncate(body, 256))
		}
		return body, nil
	})
}

func addMetadata(form url.Values, metadata map[string]string) {
	for key, value := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
