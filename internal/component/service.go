package component

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jacentio/orgmanager/internal/orgunit"
)

// Store is the persistence surface the service needs; *DAO implements it.
type Store interface {
	Save(ctx context.Context, c Component) error
	List(ctx context.Context, ouID string) ([]Component, error)
	Delete(ctx context.Context, ouID, name string) error
}

// UnitGetter resolves an organizational unit, failing when it is unknown.
type UnitGetter interface {
	Get(ctx context.Context, id string) (*orgunit.OrganizationalUnit, error)
}

// Service implements component operations.
type Service struct {
	store Store
	units UnitGetter
	log   zerolog.Logger
}

func NewService(store Store, units UnitGetter, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		units: units,
		log:   log.With().Str("service", "component").Logger(),
	}
}

func validate(c Component) error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if c.Description == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if c.RunOrder < 1 {
		return fmt.Errorf("%w: runOrder must be a positive integer", ErrValidation)
	}
	if c.ResourceFile == "" {
		return fmt.Errorf("%w: resourceFile is required", ErrValidation)
	}
	if len(c.Parameters) == 0 {
		return fmt.Errorf("%w: parameters are required", ErrValidation)
	}
	return nil
}

// Create persists a single component of a unit.
func (s *Service) Create(ctx context.Context, ouID string, c Component) error {
	if err := validate(c); err != nil {
		return err
	}
	c.OrganizationalUnitID = ouID
	return s.store.Save(ctx, c)
}

// CreateBulk applies Create to each item independently, accumulating
// per-item errors keyed by component name. One item's failure never aborts
// the batch. The unit must exist.
func (s *Service) CreateBulk(ctx context.Context, ouID string, components []Component) (BulkResult, error) {
	if _, err := s.units.Get(ctx, ouID); err != nil {
		return BulkResult{}, err
	}

	result := BulkResult{Total: len(components), Errors: map[string]string{}}
	for _, c := range components {
		if err := s.Create(ctx, ouID, c); err != nil {
			result.Failed++
			result.Errors[c.Name] = err.Error()
			s.log.Warn().
				Str("ouId", ouID).
				Str("component", c.Name).
				Err(err).
				Msg("bulk component create item failed")
			continue
		}
		result.Success++
	}
	return result, nil
}

// List returns all components of a unit.
func (s *Service) List(ctx context.Context, ouID string) ([]Component, error) {
	return s.store.List(ctx, ouID)
}

// GetBulk returns all components of a unit; the unit must exist.
func (s *Service) GetBulk(ctx context.Context, ouID string) ([]Component, error) {
	if _, err := s.units.Get(ctx, ouID); err != nil {
		return nil, err
	}
	return s.store.List(ctx, ouID)
}

// DeleteBulk fetches the unit's components and deletes them one by one.
func (s *Service) DeleteBulk(ctx context.Context, ouID string) error {
	components, err := s.store.List(ctx, ouID)
	if err != nil {
		return err
	}
	for _, c := range components {
		if err := s.store.Delete(ctx, ouID, c.Name); err != nil {
			return err
		}
	}
	return nil
}
