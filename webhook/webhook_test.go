package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestDeliver_Signed(t *testing.T) {
	const secret = "s3cret"
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !Verify(secret, body, r.Header.Get(SignatureHeader)) {
			t.Errorf("bad signature %q", r.Header.Get(SignatureHeader))
		}
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("unmarshal: %v", err)
		}
	}))
	defer srv.Close()

	s := NewSender(time.Second, nil)
	ev := &Event{Type: EventBatchCompleted, JobID: "job-1", Timestamp: 42, Data: map[string]int{"total": 2}}
	if err := s.Deliver(context.Background(), srv.URL, secret, ev); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got.Type != EventBatchCompleted || got.JobID != "job-1" || got.Timestamp != 42 {
		t.Errorf("received %+v", got)
	}
}

func TestDeliver_Unsigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(SignatureHeader) != "" {
			t.Error("signature sent without secret")
		}
	}))
	defer srv.Close()

	if err := NewSender(time.Second, nil).Deliver(context.Background(), srv.URL, "", &Event{Type: "x"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
}

func TestDeliverRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	s := NewSender(time.Second, []time.Duration{0, time.Millisecond, time.Millisecond})
	if err := s.DeliverRetry(context.Background(), srv.URL, "", &Event{Type: "x"}); err != nil {
		t.Fatalf("DeliverRetry: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDeliverRetry_Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSender(time.Second, []time.Duration{0, time.Millisecond})
	if err := s.DeliverRetry(context.Background(), srv.URL, "", &Event{Type: "x"}); err == nil {
		t.Error("expected error")
	}
}

func TestVerify(t *testing.T) {
	body := []byte(`{"a":1}`)
	sig := Sign("k", body)
	if !Verify("k", body, sig) {
		t.Error("valid signature rejected")
	}
	if Verify("other", body, sig) || Verify("k", []byte(`{}`), sig) {
		t.Error("invalid signature accepted")
	}
}
