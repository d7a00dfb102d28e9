package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/google/go-cmp/cmp"

	"github.com/jacentio/orgmanager/clients/transport"
)

type fakeInvoker struct {
	input    *lambda.InvokeInput
	response events.APIGatewayProxyResponse
	funcErr  string
	err      error
}

func (f *fakeInvoker) Invoke(_ context.Context, params *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	if f.funcErr != "" {
		return &lambda.InvokeOutput{FunctionError: aws.String(f.funcErr)}, nil
	}
	payload, err := json.Marshal(f.response)
	if err != nil {
		return nil, err
	}
	return &lambda.InvokeOutput{Payload: payload}, nil
}

func TestNewLambdaDoerRequiresFunctionName(t *testing.T) {
	_, err := transport.NewLambdaDoer(&fakeInvoker{}, "", nil)
	if !errors.Is(err, transport.ErrBadConfig) {
		t.Errorf("expected ErrBadConfig, got %v", err)
	}
}

func TestLambdaDoerEventShape(t *testing.T) {
	invoker := &fakeInvoker{
		response: events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Body:       `{"id":"ou-1"}`,
		},
	}
	doer, err := transport.NewLambdaDoer(invoker, "orgmanager-api", map[string]string{
		"Authorization": "token",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	query := url.Values{}
	query.Add("type", "mote")
	query.Add("type", "gateway")
	query.Add("offset", "0")

	resp, err := doer.Do(context.Background(), transport.Request{
		Method: http.MethodPost,
		Path:   "/search",
		Query:  query,
		Body:   map[string]string{"name": "workloads"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := aws.ToString(invoker.input.FunctionName); got != "orgmanager-api" {
		t.Errorf("expected function 'orgmanager-api', got %q", got)
	}

	var event events.APIGatewayProxyRequest
	if err := json.Unmarshal(invoker.input.Payload, &event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.HTTPMethod != http.MethodPost || event.Path != "/search" {
		t.Errorf("unexpected event %s %s", event.HTTPMethod, event.Path)
	}
	if event.Headers["Authorization"] != "token" {
		t.Errorf("expected default header, got %v", event.Headers)
	}
	if event.Headers["Content-Type"] != "application/json" {
		t.Errorf("expected JSON content type, got %v", event.Headers)
	}
	if event.QueryStringParameters["type"] != "mote" {
		t.Errorf("expected first value in single-valued params, got %v", event.QueryStringParameters)
	}
	expectedMulti := map[string][]string{
		"type":   {"mote", "gateway"},
		"offset": {"0"},
	}
	if diff := cmp.Diff(expectedMulti, event.MultiValueQueryStringParameters); diff != "" {
		t.Errorf("multi-valued params mismatch (-expected +got):\n%s", diff)
	}
	if event.Body != `{"name":"workloads"}` {
		t.Errorf("unexpected event body %q", event.Body)
	}

	var decoded map[string]string
	if err := resp.DecodeBody(&decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded["id"] != "ou-1" {
		t.Errorf("expected id 'ou-1', got %q", decoded["id"])
	}
}

func TestLambdaDoerUpstreamError(t *testing.T) {
	invoker := &fakeInvoker{
		response: events.APIGatewayProxyResponse{
			StatusCode: http.StatusNotFound,
			Body:       `{"error":"account not found"}`,
		},
	}
	doer, err := transport.NewLambdaDoer(invoker, "orgmanager-api", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = doer.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "/accounts/0"})

	var httpErr *transport.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", httpErr.Status)
	}
	if httpErr.Message != "account not found" {
		t.Errorf("expected envelope message, got %q", httpErr.Message)
	}
}

func TestLambdaDoerFunctionError(t *testing.T) {
	invoker := &fakeInvoker{funcErr: "Unhandled"}
	doer, err := transport.NewLambdaDoer(invoker, "orgmanager-api", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := doer.Do(context.Background(), transport.Request{Method: http.MethodGet, Path: "/health"}); err == nil {
		t.Error("expected error for function failure")
	}
}
