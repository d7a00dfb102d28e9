package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPDoer executes requests directly against the API's base URL.
type HTTPDoer struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

// NewHTTPDoer builds an HTTP transport. A nil client falls back to
// http.DefaultClient; headers are applied to every request.
func NewHTTPDoer(client *http.Client, baseURL string, headers map[string]string) (*HTTPDoer, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrBadConfig)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPDoer{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
	}, nil
}

var _ Doer = (*HTTPDoer)(nil)

func (d *HTTPDoer) Do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	target := d.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	for key, value := range d.headers {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &HTTPError{
			Status:  httpResp.StatusCode,
			Message: upstreamMessage(payload),
		}
	}

	return &Response{Status: httpResp.StatusCode, Body: payload}, nil
}

// upstreamMessage extracts the error envelope's message, falling back to the
// raw payload.
func upstreamMessage(payload []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return string(payload)
}
