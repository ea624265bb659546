package orch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/orch-console/internal/observability/metrics"
	"github.com/wolfman30/orch-console/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *prometheus.Registry) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	reg := prometheus.NewRegistry()
	client, err := NewClient(Config{URL: ts.URL}, metrics.NewOrchMetrics(reg), logging.New("error"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, reg
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient(Config{URL: "  "}, nil, nil); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestClientSend_Success(t *testing.T) {
	var body map[string]any
	client, reg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("content type = %s", r.Header.Get("Content-Type"))
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"answer":"Take ibuprofen"}`))
	})

	raw, err := client.Send(context.Background(), Request{SessionID: "s-1", UserID: "user_abcd1234", Input: "headache"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if string(raw) != `{"answer":"Take ibuprofen"}` {
		t.Fatalf("raw = %s", raw)
	}
	if body["session_id"] != "s-1" || body["user_id"] != "user_abcd1234" || body["input"] != "headache" {
		t.Fatalf("unexpected payload %v", body)
	}
	if _, ok := body["slot_id"]; ok {
		t.Fatalf("expected slot_id to be omitted, got %v", body)
	}
	if snap := metrics.Snapshot(reg); snap.OK != 1 || snap.ByKind[KindAsk] != 1 {
		t.Fatalf("expected one ok ask call recorded, got %+v", snap)
	}
}

func TestClientSend_BootstrapOmitsInput(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{}`))
	})

	if _, err := client.Send(context.Background(), Request{SessionID: "s", UserID: "u", SlotID: "slot_123"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if _, ok := body["input"]; ok {
		t.Fatalf("bootstrap payload must not carry input: %v", body)
	}
	if len(body) != 3 || body["slot_id"] != "slot_123" {
		t.Fatalf("unexpected bootstrap payload %v", body)
	}
}

func TestClientSend_Non200(t *testing.T) {
	client, reg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := client.Send(context.Background(), Request{SessionID: "s", UserID: "u", Input: "hi"})
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transport.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", transport.StatusCode)
	}
	if !strings.HasPrefix(err.Error(), "HTTP 502: upstream exploded") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if snap := metrics.Snapshot(reg); snap.Failed != 1 {
		t.Fatalf("expected failed call recorded, got %+v", snap)
	}
}

func TestClientSend_CreatedIsNotSuccess(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"answer":"x"}`))
	})

	_, err := client.Send(context.Background(), Request{SessionID: "s", UserID: "u", Input: "hi"})
	var transport *TransportError
	if !errors.As(err, &transport) || transport.StatusCode != http.StatusCreated {
		t.Fatalf("expected TransportError with 201, got %v", err)
	}
}

func TestClientSend_NonJSON200(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway page</html>`))
	})

	_, err := client.Send(context.Background(), Request{SessionID: "s", UserID: "u", Input: "hi"})
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
	if malformed.Body != "<html>gateway page</html>" {
		t.Fatalf("body = %q", malformed.Body)
	}
}

func TestClientSend_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(ts.Close)
	client, err := NewClient(Config{URL: ts.URL, Timeout: 20 * time.Millisecond}, nil, logging.New("error"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.Send(context.Background(), Request{SessionID: "s", UserID: "u", Input: "hi"})
	var transport *TransportError
	if !errors.As(err, &transport) || transport.Err == nil {
		t.Fatalf("expected network TransportError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Request failed: ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestClientSend_ContextCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Send(ctx, Request{SessionID: "s", UserID: "u", Input: "hi"}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestRequestKind(t *testing.T) {
	idx := 0
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"ask", Request{Input: "hi"}, KindAsk},
		{"booking bootstrap", Request{SlotID: "slot_1"}, KindBookingBootstrap},
		{"booking", Request{SlotID: "slot_1", Input: "hi"}, KindBooking},
		{"post", Request{SlotID: "slot_1", PostConsultationText: "notes", Input: "plan"}, KindPost},
		{"upload", Request{FileURLs: []string{"https://x/a.pdf"}}, KindUpload},
		{"mcq index zero", Request{Input: "A", MCQSelectedIndex: &idx}, KindMCQ},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.Kind(); got != tt.want {
				t.Fatalf("Kind() = %s, want %s", got, tt.want)
			}
		})
	}
}
