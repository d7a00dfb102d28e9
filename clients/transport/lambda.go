package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

// Invoker is the subset of the Lambda client the transport depends on.
type Invoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

var _ Invoker = (*lambda.Client)(nil)

// LambdaDoer wraps requests in API-Gateway-style proxy events and dispatches
// them to the configured function.
type LambdaDoer struct {
	invoker      Invoker
	functionName string
	headers      map[string]string
}

// NewLambdaDoer builds a function-invocation transport targeting
// functionName; headers are applied to every request.
func NewLambdaDoer(invoker Invoker, functionName string, headers map[string]string) (*LambdaDoer, error) {
	if functionName == "" {
		return nil, fmt.Errorf("%w: function name is required", ErrBadConfig)
	}
	return &LambdaDoer{
		invoker:      invoker,
		functionName: functionName,
		headers:      headers,
	}, nil
}

var _ Doer = (*LambdaDoer)(nil)

func (d *LambdaDoer) Do(ctx context.Context, req Request) (*Response, error) {
	event := events.APIGatewayProxyRequest{
		HTTPMethod: req.Method,
		Path:       req.Path,
		Headers:    map[string]string{},
	}
	for key, value := range d.headers {
		event.Headers[key] = value
	}
	for key, value := range req.Headers {
		event.Headers[key] = value
	}

	if len(req.Query) > 0 {
		single := make(map[string]string, len(req.Query))
		multi := make(map[string][]string, len(req.Query))
		for key, values := range req.Query {
			if len(values) == 0 {
				continue
			}
			single[key] = values[0]
			multi[key] = values
		}
		event.QueryStringParameters = single
		event.MultiValueQueryStringParameters = multi
	}

	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		event.Body = string(encoded)
		event.Headers["Content-Type"] = "application/json"
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	out, err := d.invoker.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(d.functionName),
		Payload:      payload,
	})
	if err != nil {
		return nil, err
	}
	if out.FunctionError != nil {
		return nil, fmt.Errorf("function error: %s", aws.ToString(out.FunctionError))
	}

	var proxyResp events.APIGatewayProxyResponse
	if err := json.Unmarshal(out.Payload, &proxyResp); err != nil {
		return nil, fmt.Errorf("decode invocation response: %w", err)
	}

	if proxyResp.StatusCode < 200 || proxyResp.StatusCode > 299 {
		return nil, &HTTPError{
			Status:  proxyResp.StatusCode,
			Message: upstreamMessage([]byte(proxyResp.Body)),
		}
	}

	return &Response{Status: proxyResp.StatusCode, Body: []byte(proxyResp.Body)}, nil
}
