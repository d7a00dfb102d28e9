package assetlibrary

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jacentio/orgmanager/clients/transport"
)

// Policy is an asset-library policy record.
type Policy struct {
	PolicyID  string   `json:"policyId"`
	Type      string   `json:"type"`
	Document  string   `json:"document"`
	AppliesTo []string `json:"appliesTo,omitempty"`
}

// PolicyList is a policy result set.
type PolicyList struct {
	Results []Policy `json:"results"`
}

// PoliciesService operates on policies.
type PoliciesService struct {
	doer transport.Doer
}

// PolicyPath returns the resource path of one policy.
func PolicyPath(policyID string) string {
	return "/policies/" + url.PathEscape(policyID)
}

// Get returns one policy by id.
func (s *PoliciesService) Get(ctx context.Context, policyID string) (*Policy, error) {
	if err := requireArgs(map[string]string{"policyId": policyID}); err != nil {
		return nil, err
	}
	resp, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   PolicyPath(policyID),
	})
	if err != nil {
		return nil, err
	}
	var policy Policy
	if err := resp.DecodeBody(&policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

// Create registers a new policy.
func (s *PoliciesService) Create(ctx context.Context, policy Policy) error {
	if err := requireArgs(map[string]string{
		"policyId": policy.PolicyID,
		"type":     policy.Type,
		"document": policy.Document,
	}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/policies",
		Body:   policy,
	})
	return err
}

// Delete removes a policy.
func (s *PoliciesService) Delete(ctx context.Context, policyID string) error {
	if err := requireArgs(map[string]string{"policyId": policyID}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   PolicyPath(policyID),
	})
	return err
}

// ListInherited returns the policies of the given type a set of group paths
// inherits. Each path is carried as a repeated query parameter.
func (s *PoliciesService) ListInherited(ctx context.Context, policyType string, groupPaths []string) (*PolicyList, error) {
	if err := requireArgs(map[string]string{"type": policyType}); err != nil {
		return nil, err
	}
	if len(groupPaths) == 0 {
		return nil, fmt.Errorf("%w: groupPaths", ErrMissingArgument)
	}

	query := url.Values{"type": {policyType}}
	for _, path := range groupPaths {
		query.Add("groupPath", path)
	}

	resp, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/policies/inherited",
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	var list PolicyList
	if err := resp.DecodeBody(&list); err != nil {
		return nil, err
	}
	return &list, nil
}
