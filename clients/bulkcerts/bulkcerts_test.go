package bulkcerts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jacentio/orgmanager/clients/transport"
)

type fakeDoer struct {
	requests []transport.Request
	response *transport.Response
}

func (f *fakeDoer) Do(_ context.Context, req transport.Request) (*transport.Response, error) {
	f.requests = append(f.requests, req)
	if f.response != nil {
		return f.response, nil
	}
	return &transport.Response{Status: http.StatusOK}, nil
}

func jsonResponse(t *testing.T, status int, v any) *transport.Response {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &transport.Response{Status: status, Body: body}
}

func TestNewModeSelection(t *testing.T) {
	if _, err := New(Config{BaseURL: "http://localhost:8080"}); err != nil {
		t.Errorf("expected HTTP default mode, got %v", err)
	}
	if _, err := New(Config{Mode: transport.ModeLambda}); !errors.Is(err, transport.ErrBadConfig) {
		t.Errorf("expected ErrBadConfig without function name, got %v", err)
	}
	if _, err := New(Config{Mode: "carrier-pigeon"}); !errors.Is(err, transport.ErrBadConfig) {
		t.Errorf("expected ErrBadConfig for unknown mode, got %v", err)
	}
}

func TestBatchPathEscaping(t *testing.T) {
	if got := BatchPath("task/01"); got != "/certificates/task%2F01" {
		t.Errorf("expected '/certificates/task%%2F01', got %q", got)
	}
}

func TestCreateBatch(t *testing.T) {
	doer := &fakeDoer{response: jsonResponse(t, http.StatusAccepted, BatchTask{
		TaskID: "task-1",
		Status: TaskPending,
	})}
	svc := &CertificatesService{doer: doer}

	task, err := svc.CreateBatch(context.Background(), BatchRequest{
		Quantity: 100,
		CAAlias:  "edge-ca",
		CertificateInfo: &CertificateInfo{
			CommonName:   "edge-device",
			Organization: "example",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.TaskID != "task-1" || task.Status != TaskPending {
		t.Errorf("unexpected task %+v", task)
	}

	req := doer.requests[0]
	if req.Method != http.MethodPost || req.Path != "/certificates" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	sent := req.Body.(BatchRequest)
	if sent.Quantity != 100 || sent.CAAlias != "edge-ca" {
		t.Errorf("unexpected body %+v", sent)
	}
}

func TestCreateBatchRejectsNonPositiveQuantity(t *testing.T) {
	svc := &CertificatesService{doer: &fakeDoer{}}

	for _, quantity := range []int{0, -5} {
		if _, err := svc.CreateBatch(context.Background(), BatchRequest{Quantity: quantity}); !errors.Is(err, ErrMissingArgument) {
			t.Errorf("quantity %d: expected ErrMissingArgument, got %v", quantity, err)
		}
	}
}

func TestGetBatch(t *testing.T) {
	doer := &fakeDoer{response: jsonResponse(t, http.StatusOK, Batch{
		TaskID:       "task-1",
		Status:       TaskComplete,
		ChunksTotal:  4,
		ChunksDone:   4,
		DownloadURLs: []string{"https://example.com/certs/task-1/0.zip"},
	})}
	svc := &CertificatesService{doer: doer}

	batch, err := svc.GetBatch(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Status != TaskComplete {
		t.Errorf("expected complete batch, got %q", batch.Status)
	}
	if len(batch.DownloadURLs) != 1 {
		t.Errorf("expected 1 download URL, got %v", batch.DownloadURLs)
	}
	if doer.requests[0].Path != "/certificates/task-1" {
		t.Errorf("unexpected path %q", doer.requests[0].Path)
	}
}

func TestGetBatchRequiresTaskID(t *testing.T) {
	svc := &CertificatesService{doer: &fakeDoer{}}
	if _, err := svc.GetBatch(context.Background(), ""); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestListByStatus(t *testing.T) {
	doer := &fakeDoer{response: jsonResponse(t, http.StatusOK, BatchList{
		Results: []BatchTask{{TaskID: "task-1", Status: TaskInProgress}},
	})}
	svc := &CertificatesService{doer: doer}

	list, err := svc.ListByStatus(context.Background(), TaskInProgress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Results) != 1 {
		t.Errorf("expected 1 task, got %d", len(list.Results))
	}
	if got := doer.requests[0].Query.Get("status"); got != TaskInProgress {
		t.Errorf("expected status query %q, got %q", TaskInProgress, got)
	}
}
