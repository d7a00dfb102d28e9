package assetlibrary

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jacentio/orgmanager/clients/transport"
)

// Group is an asset-library group record.
type Group struct {
	GroupPath   string         `json:"groupPath"`
	Name        string         `json:"name"`
	ParentPath  string         `json:"parentPath,omitempty"`
	TemplateID  string         `json:"templateId"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// DeviceList is one page of device results.
type DeviceList struct {
	Results    []Device    `json:"results"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination carries offset-based paging state.
type Pagination struct {
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// GroupsService operates on groups.
type GroupsService struct {
	doer transport.Doer
}

// GroupPath returns the resource path of one group.
func GroupPath(groupPath string) string {
	return "/groups/" + url.PathEscape(groupPath)
}

// Get returns one group by path.
func (s *GroupsService) Get(ctx context.Context, groupPath string) (*Group, error) {
	if err := requireArgs(map[string]string{"groupPath": groupPath}); err != nil {
		return nil, err
	}
	resp, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   GroupPath(groupPath),
	})
	if err != nil {
		return nil, err
	}
	var group Group
	if err := resp.DecodeBody(&group); err != nil {
		return nil, err
	}
	return &group, nil
}

// Create registers a new group.
func (s *GroupsService) Create(ctx context.Context, group Group) error {
	if err := requireArgs(map[string]string{
		"name":       group.Name,
		"templateId": group.TemplateID,
	}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/groups",
		Body:   group,
	})
	return err
}

// Update patches an existing group.
func (s *GroupsService) Update(ctx context.Context, groupPath string, group Group) error {
	if err := requireArgs(map[string]string{"groupPath": groupPath}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   GroupPath(groupPath),
		Body:   group,
	})
	return err
}

// Delete removes a group.
func (s *GroupsService) Delete(ctx context.Context, groupPath string) error {
	if err := requireArgs(map[string]string{"groupPath": groupPath}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   GroupPath(groupPath),
	})
	return err
}

// ListMembers returns one page of a group's member devices.
func (s *GroupsService) ListMembers(ctx context.Context, groupPath string, offset, count int) (*DeviceList, error) {
	if err := requireArgs(map[string]string{"groupPath": groupPath}); err != nil {
		return nil, err
	}

	query := url.Values{}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}

	resp, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   GroupPath(groupPath) + "/members/devices",
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	var list DeviceList
	if err := resp.DecodeBody(&list); err != nil {
		return nil, err
	}
	return &list, nil
}
