// Package transport provides the request execution strategies shared by the
// client SDK families: direct HTTP, or dispatch through a serverless
// function invocation. The strategy is chosen once when a client is built,
// never per request.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// Mode selects how requests reach the upstream API.
type Mode string

const (
	// ModeHTTP issues requests directly against the API's base URL.
	ModeHTTP Mode = "http"

	// ModeLambda wraps requests in proxy-style invocation events and
	// dispatches them to the configured function.
	ModeLambda Mode = "lambda"
)

// ErrBadConfig is returned when a client configuration is unusable.
var ErrBadConfig = errors.New("transport: invalid configuration")

// Request is one upstream API call, transport-agnostic.
type Request struct {
	Method string
	Path   string

	// Query holds query parameters; a key may carry multiple values.
	Query url.Values

	// Headers are merged over the transport's defaults.
	Headers map[string]string

	// Body, when non-nil, is JSON-encoded as the request body.
	Body any
}

// Response is the decoded upstream outcome of a successful call.
type Response struct {
	Status int

	// Body is the raw response payload; empty on bodyless responses.
	Body []byte
}

// Doer executes one request. Implementations return *HTTPError for any
// non-2xx upstream response.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// HTTPError carries the upstream status and message of a failed call.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Message)
}

// DecodeBody unmarshals a response body into v, tolerating empty bodies.
func (r *Response) DecodeBody(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}
