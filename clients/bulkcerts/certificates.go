package bulkcerts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jacentio/orgmanager/clients/transport"
)

// Batch task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskComplete   = "complete"
)

// CertificateInfo carries the subject fields stamped into each certificate
// of a batch.
type CertificateInfo struct {
	CommonName         string `json:"commonName,omitempty"`
	Organization       string `json:"organization,omitempty"`
	OrganizationalUnit string `json:"organizationalUnit,omitempty"`
	Locality           string `json:"locality,omitempty"`
	StateName          string `json:"stateName,omitempty"`
	Country            string `json:"country,omitempty"`
	Email              string `json:"emailAddress,omitempty"`
}

// BatchRequest asks for a batch of certificates.
type BatchRequest struct {
	// Quantity is the number of certificates to mint; must be positive.
	Quantity int `json:"quantity"`

	// CAAlias names the issuing certificate authority configuration.
	CAAlias string `json:"certificateAuthorityAlias,omitempty"`

	CertificateInfo *CertificateInfo `json:"certInfo,omitempty"`

	// Tags are stamped onto the batch for later lookup.
	Tags map[string]string `json:"tags,omitempty"`
}

// BatchTask identifies an asynchronous batch and its progress.
type BatchTask struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

// Batch is a completed batch with its download locations.
type Batch struct {
	TaskID       string   `json:"taskId"`
	Status       string   `json:"status"`
	ChunksTotal  int      `json:"chunksTotal,omitempty"`
	ChunksDone   int      `json:"chunksComplete,omitempty"`
	DownloadURLs []string `json:"downloadUrls,omitempty"`
}

// BatchList is a batch result set.
type BatchList struct {
	Results []BatchTask `json:"results"`
}

// CertificatesService operates on certificate batches.
type CertificatesService struct {
	doer transport.Doer
}

// BatchPath returns the resource path of one batch task.
func BatchPath(taskID string) string {
	return "/certificates/" + url.PathEscape(taskID)
}

// CreateBatch starts minting a batch of certificates and returns its task.
func (s *CertificatesService) CreateBatch(ctx context.Context, req BatchRequest) (*BatchTask, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrMissingArgument)
	}

	resp, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/certificates",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	var task BatchTask
	if err := resp.DecodeBody(&task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetBatch returns a batch's progress and, once complete, its download
// locations.
func (s *CertificatesService) GetBatch(ctx context.Context, taskID string) (*Batch, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: taskId", ErrMissingArgument)
	}
	resp, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   BatchPath(taskID),
	})
	if err != nil {
		return nil, err
	}
	var batch Batch
	if err := resp.DecodeBody(&batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListByStatus returns the batch tasks currently in the given status.
func (s *CertificatesService) ListByStatus(ctx context.Context, status string) (*BatchList, error) {
	if status == "" {
		return nil, fmt.Errorf("%w: status", ErrMissingArgument)
	}
	resp, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/certificates",
		Query:  url.Values{"status": {status}},
	})
	if err != nil {
		return nil, err
	}
	var list BatchList
	if err := resp.DecodeBody(&list); err != nil {
		return nil, err
	}
	return &list, nil
}
