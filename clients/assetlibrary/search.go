package assetlibrary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jacentio/orgmanager/clients/transport"
)

// SearchFilter is one field/value equality or containment predicate.
type SearchFilter struct {
	Field string
	Value string
}

func (f SearchFilter) encode() string {
	return f.Field + ":" + f.Value
}

// SearchRequest describes a search over devices and groups.
type SearchRequest struct {
	// Types restricts results to the given template ids.
	Types []string

	// Eq are equality predicates; each is carried as a repeated parameter.
	Eq []SearchFilter

	// Contains are containment predicates.
	Contains []SearchFilter

	Offset int
	Count  int
}

// SearchResult is one matched device or group.
type SearchResult struct {
	Category string
	Device   *Device
	Group    *Group
}

// SearchResults is one page of matches.
type SearchResults struct {
	Results    []SearchResult
	Pagination *Pagination
}

// SearchService queries the asset library.
type SearchService struct {
	doer transport.Doer
}

// Search runs one search request.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResults, error) {
	query := url.Values{}
	for _, t := range req.Types {
		query.Add("type", t)
	}
	for _, f := range req.Eq {
		query.Add("eq", f.encode())
	}
	for _, f := range req.Contains {
		query.Add("contains", f.encode())
	}
	if req.Offset > 0 {
		query.Set("offset", strconv.Itoa(req.Offset))
	}
	if req.Count > 0 {
		query.Set("count", strconv.Itoa(req.Count))
	}

	resp, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/search",
		Query:  query,
	})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Results    []json.RawMessage `json:"results"`
		Pagination *Pagination       `json:"pagination,omitempty"`
	}
	if err := resp.DecodeBody(&raw); err != nil {
		return nil, err
	}

	out := &SearchResults{Pagination: raw.Pagination}
	for _, item := range raw.Results {
		result, err := decodeSearchResult(item)
		if err != nil {
			return nil, err
		}
		out.Results = append(out.Results, result)
	}
	return out, nil
}

// decodeSearchResult sniffs the item's category to pick the concrete shape.
func decodeSearchResult(raw json.RawMessage) (SearchResult, error) {
	var probe struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{Category: probe.Category}
	if probe.Category == CategoryGroup {
		var group Group
		if err := json.Unmarshal(raw, &group); err != nil {
			return SearchResult{}, err
		}
		result.Group = &group
		return result, nil
	}

	var device Device
	if err := json.Unmarshal(raw, &device); err != nil {
		return SearchResult{}, err
	}
	result.Device = &device
	return result, nil
}
