package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("auth = %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.Form.Get("mode") != "subscription" {
			t.Errorf("mode = %q", r.Form.Get("mode"))
		}
		if r.Form.Get("line_items[0][price_data][unit_amount]") != "4900" {
			t.Errorf("unit_amount = %q", r.Form.Get("line_items[0][price_data][unit_amount]"))
		}
		if r.Form.Get("metadata[organization_id]") != "org-1" {
			t.Errorf("org metadata = %q", r.Form.Get("metadata[organization_id]"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_123","url":"https://pay.example/cs_123"}`))
	}))
	defer srv.Close()

	c := NewClient("sk_test", srv.URL)
	sess, err := c.CreateCheckoutSession(context.Background(), "starter", 4900, "org-1", "https://ok", "https://cancel")
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if sess.ID != "cs_123" || sess.URL != "https://pay.example/cs_123" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestProviderErrorsMatchSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"no such customer"}}`, http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := NewClient("sk_test", srv.URL)
	_, err := c.CreatePortalSession(context.Background(), "cus_missing", "https://back")
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}

	// Unreachable host is also a provider error.
	down := NewClient("sk_test", "http://127.0.0.1:1")
	if _, err := down.CreateCheckoutSession(context.Background(), "starter", 4900, "org-1", "a", "b"); !errors.Is(err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
}
