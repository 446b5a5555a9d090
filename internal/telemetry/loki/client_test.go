package loki

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPushEventJSONLabels(t *testing.T) {
	var got pushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode push: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	payload := []byte(`{"orgId":"org-1","userId":"user-1","eventType":"auth.sign_in","source":"api","createdAt":"2026-08-01T10:00:00Z"}`)
	if err := NewClient(srv.URL).PushEventJSON(context.Background(), payload); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}

	if len(got.Streams) != 1 {
		t.Fatalf("expected 1 stream, got %d", len(got.Streams))
	}
	labels := got.Streams[0].Stream
	if labels["job"] != "strategypilot" {
		t.Errorf("job = %q", labels["job"])
	}
	if labels["event_type"] != "auth.sign_in" {
		t.Errorf("event_type = %q", labels["event_type"])
	}
	if labels["org_id"] != "org-1" {
		t.Errorf("org_id = %q", labels["org_id"])
	}
	if string(got.Streams[0].Values[0][1]) != string(payload) {
		t.Errorf("log line altered")
	}
}

func TestPushEventJSONUnparseablePayloadStillShipped(t *testing.T) {
	var got pushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).PushEventJSON(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if got.Streams[0].Stream["event_type"] != "unknown" {
		t.Errorf("event_type = %q, want unknown", got.Streams[0].Stream["event_type"])
	}
}

func TestPushErrorStatusSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).PushEventJSON(context.Background(), []byte(`{}`)); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestSanitizeLabel(t *testing.T) {
	if got := sanitizeLabel(`auth sign-in{x="1"}`); got != "auth_sign-in_x__1__" {
		t.Errorf("sanitizeLabel = %q", got)
	}
}
