package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const defaultBaseURL = "https://api.stripe.com"

var ErrBadClientSecret = errors.New("malformed client secret")

// StripeClient talks to the Stripe payment intents API. All calls go through
// a circuit breaker so a struggling processor fails fast instead of piling
// up in-flight requests.
type StripeClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	createBreaker  *gobreaker.CircuitBreaker[*Intent]
	confirmBreaker *gobreaker.CircuitBreaker[*ConfirmResult]
}

func NewStripeClient(apiKey string) *StripeClient {
	return &StripeClient{
		apiKey:         apiKey,
		baseURL:        defaultBaseURL,
		httpClient:     &http.Client{},
		createBreaker:  gobreaker.NewCircuitBreaker[*Intent](breakerSettings("stripe-create-intent")),
		confirmBreaker: gobreaker.NewCircuitBreaker[*ConfirmResult](breakerSettings("stripe-confirm-intent")),
	}
}

// NewStripeClientWithBaseURL points the client at a non-default API host
// (used against stripe-mock and in tests).
func NewStripeClientWithBaseURL(apiKey, baseURL string) *StripeClient {
	c := NewStripeClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func breakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			log.Printf("circuit breaker %s changed state: %s -> %s", cbName, from, to)
		},
		IsSuccessful: func(err error) bool {
			// A decline is the processor answering, not the processor down.
			var apiErr *APIError
			return err == nil || errors.As(err, &apiErr)
		},
	}
}

type intentPayload struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *StripeClient) CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error) {
	return c.createBreaker.Execute(func() (*Intent, error) {
		form := url.Values{}
		form.Set("amount", strconv.FormatInt(amount, 10))
		form.Set("currency", currency)

		var payload intentPayload
		if err := c.postForm(ctx, "/v1/payment_intents", form, &payload); err != nil {
			return nil, err
		}

		return &Intent{
			ID:           payload.ID,
			ClientSecret: payload.ClientSecret,
			Status:       payload.Status,
		}, nil
	})
}

func (c *StripeClient) ConfirmIntent(ctx context.Context, clientSecret string, card CardDetails) (*ConfirmResult, error) {
	return c.confirmBreaker.Execute(func() (*ConfirmResult, error) {
		intentID, ok := intentIDFromSecret(clientSecret)
		if !ok {
			return nil, ErrBadClientSecret
		}

		form := url.Values{}
		form.Set("client_secret", clientSecret)
		form.Set("payment_method", card.PaymentMethod)

		var payload intentPayload
		path := fmt.Sprintf("/v1/payment_intents/%s/confirm", intentID)
		if err := c.postForm(ctx, path, form, &payload); err != nil {
			return nil, err
		}

		if payload.Status != "succeeded" {
			return nil, &APIError{Code: payload.Status, Message: fmt.Sprintf("payment not confirmed, intent status is %q", payload.Status)}
		}

		return &ConfirmResult{
			SettlementID: payload.ID,
			Status:       payload.Status,
		}, nil
	})
}

func (c *StripeClient) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call processor: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read processor response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorPayload
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return &APIError{Code: apiErr.Error.Code, Message: apiErr.Error.Message}
		}
		return fmt.Errorf("processor returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode processor response: %w", err)
	}
	return nil
}

// intentIDFromSecret extracts the intent id from a "pi_..._secret_..." token.
func intentIDFromSecret(clientSecret string) (string, bool) {
	id, _, found := strings.Cut(clientSecret, "_secret")
	if !found || id == "" {
		return "", false
	}
	return id, true
}
