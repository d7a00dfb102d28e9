package assetlibrary

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jacentio/orgmanager/clients/transport"
)

// Profile is a reusable set of defaults applied to instances of a template.
type Profile struct {
	ProfileID  string              `json:"profileId"`
	TemplateID string              `json:"templateId"`
	Category   string              `json:"category,omitempty"`
	Attributes map[string]any      `json:"attributes,omitempty"`
	Groups     map[string][]string `json:"groups,omitempty"`
}

// ProfileList is a profile result set.
type ProfileList struct {
	Results []Profile `json:"results"`
}

// ProfilesService operates on profiles.
type ProfilesService struct {
	doer transport.Doer
}

// ProfilesPath returns the collection path of a template's profiles.
func ProfilesPath(category, templateID string) string {
	return "/profiles/" + url.PathEscape(category) + "/" + url.PathEscape(templateID)
}

// ProfilePath returns the resource path of one profile.
func ProfilePath(category, templateID, profileID string) string {
	return ProfilesPath(category, templateID) + "/" + url.PathEscape(profileID)
}

// Get returns one profile.
func (s *ProfilesService) Get(ctx context.Context, category, templateID, profileID string) (*Profile, error) {
	if err := requireArgs(map[string]string{
		"category":   category,
		"templateId": templateID,
		"profileId":  profileID,
	}); err != nil {
		return nil, err
	}
	resp, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   ProfilePath(category, templateID, profileID),
	})
	if err != nil {
		return nil, err
	}
	var profile Profile
	if err := resp.DecodeBody(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create registers a new profile under a template.
func (s *ProfilesService) Create(ctx context.Context, profile Profile) error {
	if err := requireArgs(map[string]string{
		"category":   profile.Category,
		"templateId": profile.TemplateID,
		"profileId":  profile.ProfileID,
	}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   ProfilesPath(profile.Category, profile.TemplateID),
		Body:   profile,
	})
	return err
}

// List returns every profile of a template.
func (s *ProfilesService) List(ctx context.Context, category, templateID string) (*ProfileList, error) {
	if err := requireArgs(map[string]string{
		"category":   category,
		"templateId": templateID,
	}); err != nil {
		return nil, err
	}
	resp, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   ProfilesPath(category, templateID),
	})
	if err != nil {
		return nil, err
	}
	var list ProfileList
	if err := resp.DecodeBody(&list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Delete removes a profile.
func (s *ProfilesService) Delete(ctx context.Context, category, templateID, profileID string) error {
	if err := requireArgs(map[string]string{
		"category":   category,
		"templateId": templateID,
		"profileId":  profileID,
	}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   ProfilePath(category, templateID, profileID),
	})
	return err
}
