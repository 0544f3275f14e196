package zarinpal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/servistore/servistore-backend/pkg/config"
)

func testConfig(requestURL, verifyURL string) config.PaymentConfig {
	return config.PaymentConfig{
		MerchantID:  "test-merchant",
		RequestURL:  requestURL,
		VerifyURL:   verifyURL,
		StartPayURL: "https://gateway.example/start",
		CallbackURL: "https://store.example/orders/callback",
		Timeout:     2 * time.Second,
	}
}

func TestNewClient_Validation(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig("https://gateway.example/request", "https://gateway.example/verify")
	cfg.MerchantID = "  "
	if _, err := NewClient(ctx, cfg, nil); err == nil {
		t.Fatalf("expected error for blank merchant id")
	}

	cfg = testConfig("", "https://gateway.example/verify")
	if _, err := NewClient(ctx, cfg, nil); err == nil {
		t.Fatalf("expected error for missing request url")
	}
}

func TestCreateSession_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if payload["merchant_id"] != "test-merchant" {
			t.Fatalf("unexpected merchant id %v", payload["merchant_id"])
		}
		if payload["amount"] != float64(125000) {
			t.Fatalf("unexpected amount %v", payload["amount"])
		}
		meta, _ := payload["metadata"].(map[string]any)
		if meta["order_id"] != "order-1" {
			t.Fatalf("unexpected metadata %v", payload["metadata"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":   map[string]any{"code": 100, "authority": "A0000123", "message": "Success"},
			"errors": []any{},
		})
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(srv.URL, srv.URL), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	session, err := client.CreateSession(context.Background(), SessionRequest{
		Amount:      125000,
		CallbackURL: "https://store.example/orders/callback",
		Description: "order order-1",
		OrderID:     "order-1",
		Email:       "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Authority != "A0000123" {
		t.Fatalf("unexpected authority %q", session.Authority)
	}
	if session.StartPayURL != "https://gateway.example/start/A0000123" {
		t.Fatalf("unexpected start pay url %q", session.StartPayURL)
	}
}

func TestCreateSession_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":   []any{},
			"errors": map[string]any{"code": -9, "message": "The input params invalid"},
		})
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), testConfig(srv.URL, srv.URL), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.CreateSession(context.Background(), SessionRequest{Amount: 1000})
	if err == nil {
		t.Fatalf("expected rejection error")
	}
	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected RejectionError, got %T", err)
	}
	if rejection.Code != -9 {
		t.Fatalf("expected gateway code -9, got %d", rejection.Code)
	}
	if !strings.Contains(rejection.Message, "input params invalid") {
		t.Fatalf("unexpected gateway message %q", rejection.Message)
	}
}

func TestVerify_Codes(t *testing.T) {
	cases := []struct {
		name     string
		body     map[string]any
		verified bool
		refID    string
	}{
		{
			name: "verified",
			body: map[string]any{
				"data":   map[string]any{"code": 100, "ref_id": 201123456789},
				"errors": []any{},
			},
			verified: true,
			refID:    "201123456789",
		},
		{
			name: "already verified",
			body: map[string]any{
				"data":   map[string]any{"code": 101, "ref_id": 201123456789},
				"errors": []any{},
			},
			verified: true,
			refID:    "201123456789",
		},
		{
			name: "rejected",
			body: map[string]any{
				"data":   []any{},
				"errors": map[string]any{"code": -51, "message": "Session is not valid"},
			},
			verified: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(tc.body)
			}))
			defer srv.Close()

			client, err := NewClient(context.Background(), testConfig(srv.URL, srv.URL), nil)
			if err != nil {
				t.Fatalf("new client: %v", err)
			}

			result, err := client.Verify(context.Background(), "A0000123", 125000)
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if result.Verified != tc.verified {
				t.Fatalf("expected verified=%v got %v (code %d)", tc.verified, result.Verified, result.Code)
			}
			if tc.refID != "" && result.RefID != tc.refID {
				t.Fatalf("expected ref id %q got %q", tc.refID, result.RefID)
			}
		})
	}
}

func TestVerify_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client, err := NewClient(context.Background(), testConfig(srv.URL, srv.URL), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.Verify(context.Background(), "A0000123", 125000); err == nil {
		t.Fatalf("expected transport error")
	}
}
