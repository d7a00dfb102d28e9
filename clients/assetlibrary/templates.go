package assetlibrary

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jacentio/orgmanager/clients/transport"
)

// Template categories.
const (
	CategoryDevice = "device"
	CategoryGroup  = "group"
)

// Template defines the shape of a device or group type.
type Template struct {
	TemplateID string         `json:"templateId"`
	Category   string         `json:"category"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
	Relations  map[string]any `json:"relations,omitempty"`
}

// TemplatesService operates on templates.
type TemplatesService struct {
	doer transport.Doer
}

// TemplatePath returns the resource path of one template.
func TemplatePath(category, templateID string) string {
	return "/templates/" + url.PathEscape(category) + "/" + url.PathEscape(templateID)
}

// Get returns one template.
func (s *TemplatesService) Get(ctx context.Context, category, templateID string) (*Template, error) {
	if err := requireArgs(map[string]string{
		"category":   category,
		"templateId": templateID,
	}); err != nil {
		return nil, err
	}
	resp, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   TemplatePath(category, templateID),
	})
	if err != nil {
		return nil, err
	}
	var template Template
	if err := resp.DecodeBody(&template); err != nil {
		return nil, err
	}
	return &template, nil
}

// Create registers a new template in draft state.
func (s *TemplatesService) Create(ctx context.Context, template Template) error {
	if err := requireArgs(map[string]string{
		"category":   template.Category,
		"templateId": template.TemplateID,
	}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   TemplatePath(template.Category, template.TemplateID),
		Body:   template,
	})
	return err
}

// Update patches an existing template.
func (s *TemplatesService) Update(ctx context.Context, template Template) error {
	if err := requireArgs(map[string]string{
		"category":   template.Category,
		"templateId": template.TemplateID,
	}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   TemplatePath(template.Category, template.TemplateID),
		Body:   template,
	})
	return err
}

// Publish promotes a draft template so instances can be created from it.
func (s *TemplatesService) Publish(ctx context.Context, category, templateID string) error {
	if err := requireArgs(map[string]string{
		"category":   category,
		"templateId": templateID,
	}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   TemplatePath(category, templateID) + "/publish",
	})
	return err
}

// Delete removes a template.
func (s *TemplatesService) Delete(ctx context.Context, category, templateID string) error {
	if err := requireArgs(map[string]string{
		"category":   category,
		"templateId": templateID,
	}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   TemplatePath(category, templateID),
	})
	return err
}
