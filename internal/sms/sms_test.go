package sms

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/servistore/servistore-backend/pkg/config"
	"github.com/servistore/servistore-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "sms-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}

func TestTask_EncodeDecode(t *testing.T) {
	t.Parallel()

	task := Task{Phone: "09120000000", Message: "Your verification code is: 123456"}
	data, err := task.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodeTask(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != task {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestTask_ValidateRejectsBlanks(t *testing.T) {
	t.Parallel()

	if err := (Task{Phone: "  ", Message: "hi"}).Validate(); err == nil {
		t.Fatalf("expected error for blank phone")
	}
	if err := (Task{Phone: "09120000000"}).Validate(); err == nil {
		t.Fatalf("expected error for blank message")
	}
	if _, err := DecodeTask([]byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestKavenegarClient_Send(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/test-key/sms/send.json") {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("receptor") != "09120000000" {
			t.Fatalf("unexpected receptor %q", r.PostForm.Get("receptor"))
		}
		if r.PostForm.Get("sender") != "10004321" {
			t.Fatalf("unexpected sender %q", r.PostForm.Get("sender"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"return": map[string]any{"status": 200, "message": "approved"},
		})
	}))
	defer srv.Close()

	client, err := NewKavenegarClient(config.SMSConfig{
		APIKey:  "test-key",
		Sender:  "10004321",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.Send(context.Background(), "09120000000", "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func TestKavenegarClient_Rejection(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"return": map[string]any{"status": 411, "message": "invalid receptor"},
		})
	}))
	defer srv.Close()

	client, err := NewKavenegarClient(config.SMSConfig{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Send(context.Background(), "bad", "hello")
	var rejection *ProviderRejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected ProviderRejectionError, got %v", err)
	}
	if rejection.Status != 411 {
		t.Fatalf("unexpected status %d", rejection.Status)
	}
}

type stubProvider struct {
	err   error
	calls int
	phone string
}

func (s *stubProvider) Send(ctx context.Context, phone, message string) error {
	s.calls++
	s.phone = phone
	return s.err
}

func TestConsumer_Process(t *testing.T) {
	t.Parallel()

	logg := testLogger()
	task := Task{Phone: "09120000000", Message: "hello"}
	data, err := task.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	attrs := map[string]string{"task_type": TaskType}

	t.Run("delivers and acks", func(t *testing.T) {
		provider := &stubProvider{}
		consumer := Consumer{provider: provider, logg: logg}

		result := consumer.process(context.Background(), "m1", attrs, data)
		if !result.ack || result.nack {
			t.Fatalf("expected ack, got %+v", result)
		}
		if provider.calls != 1 || provider.phone != "09120000000" {
			t.Fatalf("provider not invoked correctly: %+v", provider)
		}
	})

	t.Run("acks malformed payload", func(t *testing.T) {
		provider := &stubProvider{}
		consumer := Consumer{provider: provider, logg: logg}

		result := consumer.process(context.Background(), "m2", attrs, []byte("{broken"))
		if !result.ack {
			t.Fatalf("malformed task must be dropped, got %+v", result)
		}
		if provider.calls != 0 {
			t.Fatalf("provider must not run for malformed tasks")
		}
	})

	t.Run("acks provider rejection", func(t *testing.T) {
		provider := &stubProvider{err: &ProviderRejectionError{Status: 411, Message: "invalid receptor"}}
		consumer := Consumer{provider: provider, logg: logg}

		result := consumer.process(context.Background(), "m3", attrs, data)
		if !result.ack || result.nack {
			t.Fatalf("rejected task must not be retried, got %+v", result)
		}
	})

	t.Run("nacks transport failure", func(t *testing.T) {
		provider := &stubProvider{err: errors.New("connection refused")}
		consumer := Consumer{provider: provider, logg: logg}

		result := consumer.process(context.Background(), "m4", attrs, data)
		if !result.nack {
			t.Fatalf("transport failure must be retried, got %+v", result)
		}
	})

	t.Run("skips foreign task types", func(t *testing.T) {
		provider := &stubProvider{}
		consumer := Consumer{provider: provider, logg: logg}

		result := consumer.process(context.Background(), "m5", map[string]string{"task_type": "email.send"}, data)
		if !result.ack {
			t.Fatalf("foreign task must be acked, got %+v", result)
		}
		if provider.calls != 0 {
			t.Fatalf("provider must not run for foreign tasks")
		}
	})
}
