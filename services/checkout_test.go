package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchProviderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/checkout/sessions/cs_123") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header: %q", got)
		}
		w.Write([]byte(`{"id":"cs_123","payment_status":"paid"}`))
	}))
	defer srv.Close()

	svc := &CheckoutService{APIKey: "test-key", BaseURL: srv.URL, Client: srv.Client()}
	status, err := svc.fetchProviderStatus(context.Background(), "cs_123")
	if err != nil {
		t.Fatalf("fetchProviderStatus error: %v", err)
	}
	if status != "paid" {
		t.Fatalf("expected paid, got %q", status)
	}
}

func TestFetchProviderStatusRejectsErrorResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream unavailable"}`))
	}))
	defer srv.Close()

	svc := &CheckoutService{APIKey: "test-key", BaseURL: srv.URL, Client: srv.Client()}
	if _, err := svc.fetchProviderStatus(context.Background(), "cs_123"); err == nil {
		t.Fatal("a 502 from the provider must surface as an error, not a payment state")
	}
}
