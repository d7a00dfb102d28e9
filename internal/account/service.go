package account

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jacentio/orgmanager/internal/component"
	"github.com/jacentio/orgmanager/internal/manifest"
	"github.com/jacentio/orgmanager/internal/orgunit"
)

const (
	maxUnitIDLength = 64
	maxRegions      = 40
	defaultPageSize = 20
	maxPageSize     = 100
)

// Store is the persistence surface the service needs; *DAO implements it.
type Store interface {
	SaveNew(ctx context.Context, a Account) error
	GetByName(ctx context.Context, name string) (*Account, error)
	GetByID(ctx context.Context, accountID string) (*Account, error)
	ListByUnit(ctx context.Context, ouID string, limit int32, after *Cursor) ([]Account, *Cursor, error)
	HasAccounts(ctx context.Context, ouID string) (bool, error)
	UpdateStatus(ctx context.Context, name, ouID string, status Status, accountID string) error
	UpdateRegions(ctx context.Context, name, ouID string, regions []string) error
	RebuildRegionMapping(ctx context.Context, ouID, accountID string, regions []string) error
	RegionRows(ctx context.Context, ouID string) ([]RegionRow, error)
	DeleteWithMapping(ctx context.Context, a *Account) error
	UpsertComponentStatus(ctx context.Context, row ComponentStatusRow) error
	ComponentStatuses(ctx context.Context, accountID string) ([]ComponentStatusRow, error)
}

// UnitLister enumerates the currently known organizational units.
type UnitLister interface {
	List(ctx context.Context) ([]orgunit.OrganizationalUnit, error)
}

// Mover relocates an external account between organizational parents.
type Mover interface {
	MoveAccount(ctx context.Context, accountID, sourceParentID, destParentID string) error
}

// Config holds service behavior toggles.
type Config struct {
	// ProvisioningEnabled selects account creation through the external
	// provisioning product. When false, accounts must arrive with an
	// externally assigned id and become ACTIVE immediately.
	ProvisioningEnabled bool

	// SuspendedOuID, when set, is the parent deleted accounts are moved
	// under before the local record is removed.
	SuspendedOuID string
}

// Service implements account operations and the provisioning lifecycle.
type Service struct {
	store       Store
	units       UnitLister
	provisioner Provisioner
	mover       Mover
	cfg         Config
	log         zerolog.Logger
}

func NewService(store Store, units UnitLister, provisioner Provisioner, mover Mover, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		store:       store,
		units:       units,
		provisioner: provisioner,
		mover:       mover,
		cfg:         cfg,
		log:         log.With().Str("service", "account").Logger(),
	}
}

func (s *Service) validateCreate(a Account) error {
	required := map[string]string{
		"name":                 a.Name,
		"email":                a.Email,
		"ssoEmail":             a.SSOEmail,
		"ssoFirstName":         a.SSOFirstName,
		"ssoLastName":          a.SSOLastName,
		"organizationalUnitId": a.OrganizationalUnitID,
	}
	for field, value := range required {
		if value == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, field)
		}
	}
	if len(a.OrganizationalUnitID) > maxUnitIDLength {
		return fmt.Errorf("%w: organizationalUnitId exceeds %d characters", ErrValidation, maxUnitIDLength)
	}
	if len(a.Regions) == 0 {
		return fmt.Errorf("%w: at least one region is required", ErrValidation)
	}
	if len(a.Regions) > maxRegions {
		return fmt.Errorf("%w: at most %d regions are allowed", ErrValidation, maxRegions)
	}
	for _, region := range a.Regions {
		if region == "" {
			return fmt.Errorf("%w: empty region", ErrValidation)
		}
	}
	return nil
}

// resolveUnitName confirms the unit is known and returns its human name.
func (s *Service) resolveUnitName(ctx context.Context, ouID string) (string, error) {
	units, err := s.units.List(ctx)
	if err != nil {
		return "", err
	}
	for _, ou := range units {
		if ou.ID == ouID {
			return ou.Name, nil
		}
	}
	return "", fmt.Errorf("%w: unknown organizational unit %q", ErrValidation, ouID)
}

// Create registers an account under its organizational unit. With
// provisioning enabled the external workflow is started and the account is
// persisted as CREATING; otherwise the supplied account id is adopted, the
// account becomes ACTIVE immediately, and the region mapping is rebuilt.
func (s *Service) Create(ctx context.Context, a Account) (*Account, error) {
	if err := s.validateCreate(a); err != nil {
		return nil, err
	}
	unitName, err := s.resolveUnitName(ctx, a.OrganizationalUnitID)
	if err != nil {
		return nil, err
	}

	sort.Strings(a.Regions)

	if s.cfg.ProvisioningEnabled {
		if len(a.Tags) == 0 {
			return nil, fmt.Errorf("%w: tags are required when provisioning is enabled", ErrValidation)
		}
		token := uuid.NewString()
		if err := s.provisioner.Provision(ctx, ProvisionRequest{
			Token:                  token,
			Account:                a,
			OrganizationalUnitName: unitName,
		}); err != nil {
			return nil, err
		}
		a.Status = StatusCreating
	} else {
		if a.AccountID == "" {
			return nil, fmt.Errorf("%w: accountId is required when provisioning is disabled", ErrValidation)
		}
		a.Status = StatusActive
	}

	if err := s.store.SaveNew(ctx, a); err != nil {
		return nil, err
	}

	if a.Status == StatusActive {
		if err := s.store.RebuildRegionMapping(ctx, a.OrganizationalUnitID, a.AccountID, a.Regions); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Str("name", a.Name).
		Str("ouId", a.OrganizationalUnitID).
		Str("status", string(a.Status)).
		Msg("account created")
	return &a, nil
}

// GetByID returns the account with the given external id, or nil when absent.
func (s *Service) GetByID(ctx context.Context, accountID string) (*Account, error) {
	return s.store.GetByID(ctx, accountID)
}

// GetByName returns the named account, failing with ErrNotFound when absent.
func (s *Service) GetByName(ctx context.Context, name string) (*Account, error) {
	return s.store.GetByName(ctx, name)
}

// ListInOu returns one page of a unit's accounts and, when more remain, an
// opaque cursor to resume from.
func (s *Service) ListInOu(ctx context.Context, ouID string, count int, cursor string) ([]Account, string, error) {
	if count <= 0 {
		count = defaultPageSize
	}
	if count > maxPageSize {
		count = maxPageSize
	}

	var after *Cursor
	if cursor != "" {
		decoded, err := DecodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		after = decoded
	}

	accounts, next, err := s.store.ListByUnit(ctx, ouID, int32(count), after)
	if err != nil {
		return nil, "", err
	}
	if next == nil {
		return accounts, "", nil
	}
	return accounts, next.Encode(), nil
}

// HasAccounts reports whether any account still references the unit.
func (s *Service) HasAccounts(ctx context.Context, ouID string) (bool, error) {
	return s.store.HasAccounts(ctx, ouID)
}

// UpdateStatus applies an externally driven status transition. Reaching
// ACTIVE rebuilds the unit's region mapping from the account's current
// regions.
func (s *Service) UpdateStatus(ctx context.Context, u StatusUpdate) error {
	acct, err := s.store.GetByName(ctx, u.Name)
	if err != nil {
		return err
	}
	if err := s.store.UpdateStatus(ctx, u.Name, acct.OrganizationalUnitID, u.Status, u.AccountID); err != nil {
		return err
	}

	s.log.Info().
		Str("name", u.Name).
		Str("status", string(u.Status)).
		Msg("account status updated")

	if u.Status != StatusActive {
		return nil
	}
	accountID := u.AccountID
	if accountID == "" {
		accountID = acct.AccountID
	}
	if accountID == "" {
		// Without an external id there is nothing to map regions onto.
		s.log.Warn().Str("name", u.Name).Msg("account activated without an account id; region mapping not rebuilt")
		return nil
	}
	return s.store.RebuildRegionMapping(ctx, acct.OrganizationalUnitID, accountID, acct.Regions)
}

// UpdateRegions rewrites the account's region set and rebuilds the unit's
// region mapping for the account.
func (s *Service) UpdateRegions(ctx context.Context, accountID string, regions []string) error {
	if len(regions) == 0 {
		return fmt.Errorf("%w: at least one region is required", ErrValidation)
	}
	if len(regions) > maxRegions {
		return fmt.Errorf("%w: at most %d regions are allowed", ErrValidation, maxRegions)
	}

	acct, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acct == nil {
		return ErrNotFound
	}

	sort.Strings(regions)
	if err := s.store.UpdateRegions(ctx, acct.Name, acct.OrganizationalUnitID, regions); err != nil {
		return err
	}
	return s.store.RebuildRegionMapping(ctx, acct.OrganizationalUnitID, accountID, regions)
}

// Delete removes an account whose status permits it, optionally relocating
// the external account under the configured suspended parent first. The
// record and its mapping rows are removed together.
func (s *Service) Delete(ctx context.Context, accountID string) error {
	acct, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acct == nil {
		return ErrNotFound
	}
	if !acct.Status.Deletable() {
		return fmt.Errorf("%w: %s", ErrBadStatus, acct.Status)
	}

	if s.cfg.SuspendedOuID != "" {
		if err := s.mover.MoveAccount(ctx, accountID, acct.OrganizationalUnitID, s.cfg.SuspendedOuID); err != nil {
			return err
		}
	}

	if err := s.store.DeleteWithMapping(ctx, acct); err != nil {
		return err
	}

	s.log.Info().Str("accountId", accountID).Msg("account deleted")
	return nil
}

// UpdateComponentByAccount records an observed component deployment status.
func (s *Service) UpdateComponentByAccount(ctx context.Context, row ComponentStatusRow) error {
	return s.store.UpsertComponentStatus(ctx, row)
}

// AreAllComponentsDeployed reports whether every non-bypassed component has
// a CREATED status in every one of the account's regions.
func (s *Service) AreAllComponentsDeployed(ctx context.Context, accountID string, components []component.Component) (bool, error) {
	var required []component.Component
	for _, c := range components {
		if !c.BypassCheck {
			required = append(required, c)
		}
	}
	if len(required) == 0 {
		return true, nil
	}

	acct, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return false, err
	}
	if acct == nil {
		return false, ErrNotFound
	}

	rows, err := s.store.ComponentStatuses(ctx, accountID)
	if err != nil {
		return false, err
	}
	type regionComponent struct {
		region    string
		component string
	}
	observed := make(map[regionComponent]ComponentStatus, len(rows))
	for _, row := range rows {
		observed[regionComponent{row.Region, row.Component}] = row.Status
	}

	for _, c := range required {
		for _, region := range acct.Regions {
			if observed[regionComponent{region, c.Name}] != ComponentCreated {
				return false, nil
			}
		}
	}
	return true, nil
}

// RegionSets groups the unit's accounts by identical region sets: the key is
// the account's sorted region list joined by the manifest delimiter, the
// value the sorted account ids sharing it.
func (s *Service) RegionSets(ctx context.Context, ouID string) (map[string][]string, error) {
	rows, err := s.store.RegionRows(ctx, ouID)
	if err != nil {
		return nil, err
	}

	regionsByAccount := map[string][]string{}
	for _, row := range rows {
		regionsByAccount[row.AccountID] = append(regionsByAccount[row.AccountID], row.Region)
	}

	sets := map[string][]string{}
	for accountID, regions := range regionsByAccount {
		sort.Strings(regions)
		key := manifest.RegionSetKey(regions)
		sets[key] = append(sets[key], accountID)
	}
	for _, accounts := range sets {
		sort.Strings(accounts)
	}
	return sets, nil
}
