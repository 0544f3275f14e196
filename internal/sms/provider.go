package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/servistore/servistore-backend/pkg/config"
)

const providerStatusOK = 200

// Provider delivers a single SMS message.
type Provider interface {
	Send(ctx context.Context, phone, message string) error
}

// ProviderRejectionError means the SMS provider answered but refused the
// message. Retrying the same task will not help.
type ProviderRejectionError struct {
	Status  int
	Message string
}

func (e *ProviderRejectionError) Error() string {
	return fmt.Sprintf("sms provider rejected message: %s (status %d)", e.Message, e.Status)
}

// KavenegarClient talks to a Kavenegar-compatible SMS HTTP API.
type KavenegarClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	sender     string
}

// NewKavenegarClient validates the SMS provider configuration.
func NewKavenegarClient(cfg config.SMSConfig) (*KavenegarClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("sms api key is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("sms base url is required")
	}
	return &KavenegarClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		sender:     strings.TrimSpace(cfg.Sender),
	}, nil
}

type providerResponse struct {
	Return struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"return"`
}

// Send posts the message to the provider's send endpoint.
func (c *KavenegarClient) Send(ctx context.Context, phone, message string) error {
	form := url.Values{}
	form.Set("receptor", phone)
	form.Set("message", message)
	if c.sender != "" {
		form.Set("sender", c.sender)
	}

	endpoint := fmt.Sprintf("%s/v1/%s/sms/send.json", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling sms provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading sms provider response: %w", err)
	}

	var parsed providerResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("decoding sms provider response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Return.Status != providerStatusOK {
		return &ProviderRejectionError{
			Status:  parsed.Return.Status,
			Message: parsed.Return.Message,
		}
	}
	return nil
}
