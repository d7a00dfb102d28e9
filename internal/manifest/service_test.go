package manifest_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jacentio/orgmanager/internal/component"
	"github.com/jacentio/orgmanager/internal/manifest"
	"github.com/jacentio/orgmanager/internal/orgunit"
)

type fakeUnits struct {
	units []orgunit.OrganizationalUnit
}

func (f *fakeUnits) List(context.Context) ([]orgunit.OrganizationalUnit, error) {
	return f.units, nil
}

type fakeComponents struct {
	byUnit map[string][]component.Component
}

func (f *fakeComponents) List(_ context.Context, ouID string) ([]component.Component, error) {
	return f.byUnit[ouID], nil
}

type fakeRegionSets struct {
	byUnit map[string]map[string][]string
}

func (f *fakeRegionSets) RegionSets(_ context.Context, ouID string) (map[string][]string, error) {
	return f.byUnit[ouID], nil
}

type capturePublisher struct {
	payload []byte
}

func (p *capturePublisher) Upload(_ context.Context, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	p.payload = data
	return "etag-123", nil
}

func TestUpdateManifestFile(t *testing.T) {
	units := &fakeUnits{units: []orgunit.OrganizationalUnit{{ID: "ou-1", Name: "workloads"}}}
	components := &fakeComponents{byUnit: map[string][]component.Component{
		"ou-1": {
			{Name: "vpc", RunOrder: 1, ResourceFile: "templates/vpc.yaml", Parameters: map[string]string{"Cidr": "10.0.0.0/16"}},
		},
	}}
	regionSets := &fakeRegionSets{byUnit: map[string]map[string][]string{
		"ou-1": {"us-west-2": {"111122223333"}},
	}}
	publisher := &capturePublisher{}

	svc := manifest.NewService(units, components, regionSets, publisher, "us-west-2", zerolog.Nop())

	etag, err := svc.UpdateManifestFile(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if etag != "etag-123" {
		t.Errorf("expected etag 'etag-123', got %q", etag)
	}

	// The published artifact is a zip archive with a single document entry.
	reader, err := zip.NewReader(bytes.NewReader(publisher.payload), int64(len(publisher.payload)))
	if err != nil {
		t.Fatalf("payload is not a zip archive: %v", err)
	}
	if len(reader.File) != 1 {
		t.Fatalf("expected 1 archive entry, got %d", len(reader.File))
	}
	entry := reader.File[0]
	if entry.Name != "manifest.yaml" {
		t.Errorf("expected entry 'manifest.yaml', got %q", entry.Name)
	}

	rc, err := entry.Open()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	doc, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := string(doc)
	if strings.Contains(text, "%%VERSION%%") {
		t.Error("expected version placeholder to be substituted")
	}

	var m manifest.Manifest
	if err := yaml.Unmarshal(doc, &m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Version != "2021-03-15" {
		t.Errorf("expected version '2021-03-15', got %q", m.Version)
	}
	if len(m.Resources) != 1 {
		t.Fatalf("expected 1 resource, got %d", len(m.Resources))
	}
	if m.Resources[0].Name != "vpc-us-west-2" {
		t.Errorf("expected resource 'vpc-us-west-2', got %q", m.Resources[0].Name)
	}
}

func TestUpdateManifestFileEmptyOrganization(t *testing.T) {
	publisher := &capturePublisher{}
	svc := manifest.NewService(
		&fakeUnits{},
		&fakeComponents{},
		&fakeRegionSets{},
		publisher,
		"us-west-2",
		zerolog.Nop(),
	)

	if _, err := svc.UpdateManifestFile(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.payload) == 0 {
		t.Error("expected an archive to be published even with no units")
	}
}
