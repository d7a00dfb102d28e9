// Package assetlibrary is a thin client for the asset-library REST API.
// Each resource family is exposed as a service over a shared transport;
// whether calls go out over HTTP or through a function invocation is decided
// once when the client is built.
package assetlibrary

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jacentio/orgmanager/clients/transport"
)

// ErrMissingArgument is returned when a required argument is empty.
var ErrMissingArgument = errors.New("assetlibrary: required argument is empty")

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

	// Headers are applied to every request, e.g. API version accepts.
	Headers map[string]string
}

// Client groups the per-resource services over one transport.
type Client struct {
	Devices   *DevicesService
	Groups    *GroupsService
	Policies  *PoliciesService
	Templates *TemplatesService
	Profiles  *ProfilesService
	Search    *SearchService
}

// New builds a client with the transport the configuration selects.
func New(cfg Config) (*Client, error) {
	doer, err := newDoer(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		Devices:   &DevicesService{doer: doer},
		Groups:    &GroupsService{doer: doer},
		Policies:  &PoliciesService{doer: doer},
		Templates: &TemplatesService{doer: doer},
		Profiles:  &ProfilesService{doer: doer},
		Search:    &SearchService{doer: doer},
	}, nil
}

func newDoer(cfg Config) (transport.Doer, error) {
	switch cfg.Mode {
	case transport.ModeHTTP, "":
		return transport.NewHTTPDoer(cfg.HTTPClient, cfg.BaseURL, cfg.Headers)
	case transport.ModeLambda:
		return transport.NewLambdaDoer(cfg.Invoker, cfg.FunctionName, cfg.Headers)
	}
	return nil, fmt.Errorf("%w: unknown mode %q", transport.ErrBadConfig, cfg.Mode)
}

// requireArgs fails when any named argument is empty. Write paths call this
// before building a request.
func requireArgs(args map[string]string) error {
	for name, value := range args {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingArgument, name)
		}
	}
	return nil
}
