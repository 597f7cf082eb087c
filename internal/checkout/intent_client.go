package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// IntentClient calls the payment service's create endpoint over HTTP. It
// satisfies IntentCreator.
type IntentClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewIntentClient(baseURL string, timeout time.Duration) *IntentClient {
	return &IntentClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type createPaymentRequest struct {
	Total int64 `json:"total"`
}

type createPaymentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Error        string `json:"error"`
}

func (c *IntentClient) CreateIntent(ctx context.Context, total int64) (string, error) {
	body, err := json.Marshal(createPaymentRequest{Total: total})
	if err != nil {
		return "", fmt.Errorf("marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment/create", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call payment service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read payment response: %w", err)
	}

	var payload createPaymentResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decode payment response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if payload.Error != "" {
			return "", errors.New(payload.Error)
		}
		return "", fmt.Errorf("payment service returned status %d", resp.StatusCode)
	}

	if payload.ClientSecret == "" {
		return "", errors.New("payment service returned no client secret")
	}

	return payload.ClientSecret, nil
}
