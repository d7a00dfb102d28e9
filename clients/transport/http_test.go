package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/jacentio/orgmanager/clients/transport"
)

func TestNewHTTPDoerRequiresBaseURL(t *testing.T) {
	_, err := transport.NewHTTPDoer(nil, "", nil)
	if !errors.Is(err, transport.ErrBadConfig) {
		t.Errorf("expected ErrBadConfig, got %v", err)
	}
}

func TestHTTPDoerRequestShape(t *testing.T) {
	var captured *http.Request
	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		capturedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ou-1"}`))
	}))
	defer server.Close()

	doer, err := transport.NewHTTPDoer(server.Client(), server.URL+"/", map[string]string{
		"Authorization": "token",
		"Accept":        "application/json",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	query := url.Values{}
	query.Add("offset", "0")
	query.Add("type", "mote")
	query.Add("type", "gateway")

	resp, err := doer.Do(context.Background(), transport.Request{
		Method:  http.MethodPost,
		Path:    "/organizationalUnits",
		Query:   query,
		Headers: map[string]string{"Accept": "application/yaml"},
		Body:    map[string]string{"name": "workloads"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", captured.Method)
	}
	if captured.URL.Path != "/organizationalUnits" {
		t.Errorf("expected path '/organizationalUnits', got %q", captured.URL.Path)
	}
	if got := captured.URL.Query()["type"]; len(got) != 2 {
		t.Errorf("expected repeated 'type' parameter, got %v", got)
	}
	if got := captured.Header.Get("Authorization"); got != "token" {
		t.Errorf("expected default header applied, got %q", got)
	}
	// Per-request headers win over defaults.
	if got := captured.Header.Get("Accept"); got != "application/yaml" {
		t.Errorf("expected per-request Accept override, got %q", got)
	}
	if got := captured.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("expected JSON content type, got %q", got)
	}

	var sent map[string]string
	if err := json.Unmarshal(capturedBody, &sent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent["name"] != "workloads" {
		t.Errorf("expected body name 'workloads', got %q", sent["name"])
	}

	if resp.Status != http.StatusCreated {
		t.Errorf("expected status 201, got %d", resp.Status)
	}
	var decoded map[string]string
	if err := resp.DecodeBody(&decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded["id"] != "ou-1" {
		t.Errorf("expected id 'ou-1', got %q", decoded["id"])
	}
}

func TestHTTPDoerUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"unit already exists"}`))
	}))
	defer server.Close()

	doer, err := transport.NewHTTPDoer(server.Client(), server.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = doer.Do(context.Background(), transport.Request{Method: http.MethodPost, Path: "/organizationalUnits"})

	var httpErr *transport.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.Status != http.StatusConflict {
		t.Errorf("expected status 409, got %d", httpErr.Status)
	}
	if httpErr.Message != "unit already exists" {
		t.Errorf("expected envelope message, got %q", httpErr.Message)
	}
}

func TestHTTPDoerErrorFallsBackToRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	doer, err := transport.NewHTTPDoer(server.Client(), server.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = doer.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "/health"})

	var httpErr *transport.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.Message != "upstream unavailable" {
		t.Errorf("expected raw body message, got %q", httpErr.Message)
	}
}

func TestDecodeBodyToleratesEmpty(t *testing.T) {
	resp := &transport.Response{Status: http.StatusNoContent}
	var v map[string]string
	if err := resp.DecodeBody(&v); err != nil {
		t.Errorf("expected empty body tolerated, got %v", err)
	}
}
