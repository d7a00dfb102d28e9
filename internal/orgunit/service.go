package orgunit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const maxNameLength = 128

// Store is the persistence surface the service needs; *DAO implements it.
type Store interface {
	Save(ctx context.Context, ou OrganizationalUnit) error
	Get(ctx context.Context, id string) (*OrganizationalUnit, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]OrganizationalUnit, error)
}

// AccountCounter reports whether any accounts remain under a unit.
type AccountCounter interface {
	HasAccounts(ctx context.Context, ouID string) (bool, error)
}

// Config holds service behavior toggles.
type Config struct {
	// CreateOuEnabled delegates unit creation/deletion to the org
	// capability. When false, units must be pre-created externally and the
	// service only registers their metadata.
	CreateOuEnabled bool
}

// Service implements organizational unit operations.
type Service struct {
	store    Store
	org      OrgAPI
	accounts AccountCounter
	cfg      Config
	log      zerolog.Logger
}

func NewService(store Store, org OrgAPI, accounts AccountCounter, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		org:      org,
		accounts: accounts,
		cfg:      cfg,
		log:      log.With().Str("service", "orgunit").Logger(),
	}
}

// Create registers a unit and returns its identifier. When unit creation is
// delegated, the unit is first created under the organization root and the
// returned identifier adopted; otherwise the caller must supply one.
func (s *Service) Create(ctx context.Context, ou OrganizationalUnit) (string, error) {
	if ou.Name == "" {
		return "", fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(ou.Name) > maxNameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrValidation, maxNameLength)
	}

	if s.cfg.CreateOuEnabled {
		rootID, err := s.org.RootID(ctx)
		if err != nil {
			return "", err
		}
		id, err := s.org.CreateUnit(ctx, rootID, ou.Name)
		if err != nil {
			return "", err
		}
		ou.ID = id
	} else if ou.ID == "" {
		return "", fmt.Errorf("%w: id is required when unit creation is not delegated", ErrValidation)
	}

	ou.CreatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, ou); err != nil {
		return "", err
	}

	s.log.Info().Str("ouId", ou.ID).Str("name", ou.Name).Msg("organizational unit created")
	return ou.ID, nil
}

// List returns all known units. When unit management is delegated, units are
// enumerated from the org capability and returned with their live tags;
// otherwise the locally registered records are returned without tags.
func (s *Service) List(ctx context.Context) ([]OrganizationalUnit, error) {
	if !s.cfg.CreateOuEnabled {
		return s.store.List(ctx)
	}

	rootID, err := s.org.RootID(ctx)
	if err != nil {
		return nil, err
	}
	units, err := s.org.ListUnits(ctx, rootID)
	if err != nil {
		return nil, err
	}
	for i := range units {
		tags, err := s.org.Tags(ctx, units[i].ID)
		if err != nil {
			return nil, err
		}
		units[i].Tags = tags
	}
	return units, nil
}

// Get returns the unit with the given id, merged with live tags when unit
// management is delegated. Returns ErrNotFound when absent.
func (s *Service) Get(ctx context.Context, id string) (*OrganizationalUnit, error) {
	ou, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cfg.CreateOuEnabled {
		tags, err := s.org.Tags(ctx, id)
		if err != nil {
			return nil, err
		}
		ou.Tags = tags
	}
	return ou, nil
}

// Delete removes a unit. Fails with ErrHasAccounts while any account still
// references it. When unit management is delegated, the external unit is
// deleted before the local record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}

	hasAccounts, err := s.accounts.HasAccounts(ctx, id)
	if err != nil {
		return err
	}
	if hasAccounts {
		return ErrHasAccounts
	}

	if s.cfg.CreateOuEnabled {
		if err := s.org.DeleteUnit(ctx, id); err != nil {
			return err
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("ouId", id).Msg("organizational unit deleted")
	return nil
}
