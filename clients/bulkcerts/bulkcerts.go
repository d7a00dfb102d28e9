// Package bulkcerts is a thin client for the bulk-certificates REST API.
// Certificate batches are created asynchronously: a create call returns a
// task id that is polled until the batch completes and can be downloaded.
package bulkcerts

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jacentio/orgmanager/clients/transport"
)

// ErrMissingArgument is returned when a required argument is empty.
var ErrMissingArgument = errors.New("bulkcerts: required argument is empty")

// Config selects the transport and its target.
type Config struct {
	// Mode selects the transport; defaults to ModeHTTP.
	Mode transport.Mode

	// BaseURL targets the API directly; required in HTTP mode.
	BaseURL string

	// FunctionName targets the fronting function; required in Lambda mode.
	FunctionName string

	// HTTPClient overrides the default HTTP client in HTTP mode.
	HTTPClient *http.Client

	// Invoker dispatches invocation events in Lambda mode.
	Invoker transport.Invoker

	// Headers are applied to every request.
	Headers map[string]string
}

// Client groups the certificate operations over one transport.
type Client struct {
	Certificates *CertificatesService
}

// New builds a client with the transport the configuration selects.
func New(cfg Config) (*Client, error) {
	var (
		doer transport.Doer
		err  error
	)
	switch cfg.Mode {
	case transport.ModeHTTP, "":
		doer, err = transport.NewHTTPDoer(cfg.HTTPClient, cfg.BaseURL, cfg.Headers)
	case transport.ModeLambda:
		doer, err = transport.NewLambdaDoer(cfg.Invoker, cfg.FunctionName, cfg.Headers)
	default:
		err = fmt.Errorf("%w: unknown mode %q", transport.ErrBadConfig, cfg.Mode)
	}
	if err != nil {
		return nil, err
	}
	return &Client{Certificates: &CertificatesService{doer: doer}}, nil
}
