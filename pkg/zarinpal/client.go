package zarinpal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/servistore/servistore-backend/pkg/config"
	"github.com/servistore/servistore-backend/pkg/logger"
)

// Gateway status codes. 100 means success; 101 on verify means the
// transaction was already verified in an earlier call.
const (
	CodeSuccess         = 100
	CodeAlreadyVerified = 101
)

var (
	errMerchantIDRequired = errors.New("payment merchant id is required")
	errRequestURLRequired = errors.New("payment request url is required")
	errVerifyURLRequired  = errors.New("payment verify url is required")
	errStartURLRequired   = errors.New("payment start pay url is required")
)

// Client talks to the ZarinPal-compatible payment gateway over its JSON API.
type Client struct {
	httpClient  *http.Client
	merchantID  string
	requestURL  string
	verifyURL   string
	startPayURL string
}

// SessionRequest carries what the gateway needs to open a payment session.
// Amount is in the gateway's integer subunit.
type SessionRequest struct {
	Amount      int64
	CallbackURL string
	Description string
	OrderID     string
	Email       string
}

// Session is an accepted payment session. Authority is the gateway's token
// for the pending transaction.
type Session struct {
	Authority   string
	StartPayURL string
}

// VerifyResult reports the outcome of a verify call that reached the gateway.
type VerifyResult struct {
	Verified bool
	RefID    string
	Code     int
	Message  string
}

// RejectionError is returned when the gateway answered but refused the
// request. Transport failures are returned as plain errors.
type RejectionError struct {
	Code    int
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("gateway rejected request: %s (code %d)", e.Message, e.Code)
}

// NewClient validates the gateway configuration and returns a ready client.
func NewClient(ctx context.Context, cfg config.PaymentConfig, logg *logger.Logger) (*Client, error) {
	merchantID := strings.TrimSpace(cfg.MerchantID)
	if merchantID == "" {
		return nil, errMerchantIDRequired
	}
	if strings.TrimSpace(cfg.RequestURL) == "" {
		return nil, errRequestURLRequired
	}
	if strings.TrimSpace(cfg.VerifyURL) == "" {
		return nil, errVerifyURLRequired
	}
	if strings.TrimSpace(cfg.StartPayURL) == "" {
		return nil, errStartURLRequired
	}

	if logg != nil {
		logg.Info(ctx, "payment gateway client initialized")
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		merchantID:  merchantID,
		requestURL:  strings.TrimRight(cfg.RequestURL, "/"),
		verifyURL:   strings.TrimRight(cfg.VerifyURL, "/"),
		startPayURL: strings.TrimRight(cfg.StartPayURL, "/"),
	}, nil
}

type requestPayload struct {
	MerchantID  string          `json:"merchant_id"`
	Amount      int64           `json:"amount"`
	CallbackURL string          `json:"callback_url"`
	Description string          `json:"description"`
	Metadata    requestMetadata `json:"metadata"`
}

type requestMetadata struct {
	OrderID string `json:"order_id"`
	Email   string `json:"email,omitempty"`
}

type verifyPayload struct {
	MerchantID string `json:"merchant_id"`
	Amount     int64  `json:"amount"`
	Authority  string `json:"authority"`
}

type gatewayResponse struct {
	Data   gatewayData       `json:"data"`
	Errors gatewayErrorField `json:"errors"`
}

type gatewayData struct {
	Code      int         `json:"code"`
	Authority string      `json:"authority"`
	RefID     json.Number `json:"ref_id"`
	Message   string      `json:"message"`
}

// The gateway returns errors either as an object or an empty array.
type gatewayErrorField struct {
	Code    int
	Message string
}

func (e *gatewayErrorField) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var obj struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	e.Code = obj.Code
	e.Message = obj.Message
	return nil
}

// CreateSession opens a payment session for the given amount. A gateway
// response with any code other than 100 is returned as an error.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	payload := requestPayload{
		MerchantID:  c.merchantID,
		Amount:      req.Amount,
		CallbackURL: req.CallbackURL,
		Description: req.Description,
		Metadata: requestMetadata{
			OrderID: req.OrderID,
			Email:   req.Email,
		},
	}

	resp, err := c.post(ctx, c.requestURL, payload)
	if err != nil {
		return nil, err
	}

	if resp.Data.Code != CodeSuccess {
		return nil, rejectionError(resp)
	}
	if strings.TrimSpace(resp.Data.Authority) == "" {
		return nil, fmt.Errorf("gateway accepted the session but returned no authority")
	}

	return &Session{
		Authority:   resp.Data.Authority,
		StartPayURL: c.StartPayURL(resp.Data.Authority),
	}, nil
}

// Verify confirms a transaction after the customer returns from the gateway.
// Codes 100 and 101 both count as verified; 101 means a prior verify already
// settled the same authority.
func (c *Client) Verify(ctx context.Context, authority string, amount int64) (*VerifyResult, error) {
	payload := verifyPayload{
		MerchantID: c.merchantID,
		Amount:     amount,
		Authority:  authority,
	}

	resp, err := c.post(ctx, c.verifyURL, payload)
	if err != nil {
		return nil, err
	}

	code := resp.Data.Code
	if code == 0 && resp.Errors.Code != 0 {
		code = resp.Errors.Code
	}

	message := resp.Data.Message
	if message == "" {
		message = resp.Errors.Message
	}

	result := &VerifyResult{
		Verified: code == CodeSuccess || code == CodeAlreadyVerified,
		RefID:    resp.Data.RefID.String(),
		Code:     code,
		Message:  message,
	}
	return result, nil
}

// StartPayURL returns the redirect URL the customer completes payment at.
func (c *Client) StartPayURL(authority string) string {
	return c.startPayURL + "/" + authority
}

func (c *Client) post(ctx context.Context, url string, payload any) (*gatewayResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling payment gateway: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading gateway response: %w", err)
	}

	var resp gatewayResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding gateway response (status %d): %w", httpResp.StatusCode, err)
	}
	return &resp, nil
}

func rejectionError(resp *gatewayResponse) error {
	code := resp.Data.Code
	message := resp.Data.Message
	if code == 0 && resp.Errors.Code != 0 {
		code = resp.Errors.Code
		message = resp.Errors.Message
	}
	if message == "" {
		message = "payment session rejected"
	}
	return &RejectionError{Code: code, Message: message}
}
