package manifest

import (
	"archive/zip"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jacentio/orgmanager/internal/component"
	"github.com/jacentio/orgmanager/internal/orgunit"
)

// manifestVersion is the release token substituted for the placeholder.
const manifestVersion = "2021-03-15"

// archiveEntryName is the document's name inside the published archive.
const archiveEntryName = "manifest.yaml"

// UnitLister enumerates the known organizational units.
type UnitLister interface {
	List(ctx context.Context) ([]orgunit.OrganizationalUnit, error)
}

// ComponentSource lists a unit's component definitions.
type ComponentSource interface {
	List(ctx context.Context, ouID string) ([]component.Component, error)
}

// RegionSetSource groups a unit's accounts by identical region sets.
type RegionSetSource interface {
	RegionSets(ctx context.Context, ouID string) (map[string][]string, error)
}

// Service regenerates and publishes the deployment manifest.
type Service struct {
	units      UnitLister
	components ComponentSource
	regionSets RegionSetSource
	publisher  BlobPublisher
	region     string
	log        zerolog.Logger
}

func NewService(units UnitLister, components ComponentSource, regionSets RegionSetSource, publisher BlobPublisher, publishRegion string, log zerolog.Logger) *Service {
	return &Service{
		units:      units,
		components: components,
		regionSets: regionSets,
		publisher:  publisher,
		region:     publishRegion,
		log:        log.With().Str("service", "manifest").Logger(),
	}
}

// UpdateManifestFile recomputes the manifest from the current units,
// components, and region mappings, packages it, and publishes it to the
// object store. Returns the storage confirmation token.
func (s *Service) UpdateManifestFile(ctx context.Context) (string, error) {
	units, err := s.units.List(ctx)
	if err != nil {
		return "", err
	}

	componentsByUnit := make(map[string][]component.Component, len(units))
	regionSetsByUnit := make(map[string]map[string][]string, len(units))
	for _, ou := range units {
		components, err := s.components.List(ctx, ou.ID)
		if err != nil {
			return "", err
		}
		componentsByUnit[ou.ID] = components

		sets, err := s.regionSets.RegionSets(ctx, ou.ID)
		if err != nil {
			return "", err
		}
		regionSetsByUnit[ou.ID] = sets
	}

	m := Assemble(componentsByUnit, regionSetsByUnit, s.region)

	doc, err := yaml.Marshal(m)
	if err != nil {
		return "", err
	}
	text := strings.ReplaceAll(string(doc), versionPlaceholder, manifestVersion)

	etag, err := s.publisher.Upload(ctx, packageArchive(text))
	if err != nil {
		return "", err
	}

	s.log.Info().
		Int("resources", len(m.Resources)).
		Str("etag", etag).
		Msg("manifest published")
	return etag, nil
}

// packageArchive streams the document as the single entry of a zip archive.
func packageArchive(doc string) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		zw := zip.NewWriter(pw)
		entry, err := zw.Create(archiveEntryName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.WriteString(entry, doc); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(zw.Close())
	}()
	return pr
}
