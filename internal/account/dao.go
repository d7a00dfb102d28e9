package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/orgmanager/internal/store"
)

// accountRecord is the persisted shape of an account.
type accountRecord struct {
	PK           string    `dynamodbav:"pk"`
	SK           string    `dynamodbav:"sk"`
	Kind         string    `dynamodbav:"kind"`
	AccountID    string    `dynamodbav:"accountId,omitempty"`
	Email        string    `dynamodbav:"email"`
	SSOEmail     string    `dynamodbav:"ssoEmail"`
	SSOFirstName string    `dynamodbav:"ssoFirstName"`
	SSOLastName  string    `dynamodbav:"ssoLastName"`
	Regions      []string  `dynamodbav:"regions"`
	Status       string    `dynamodbav:"status"`
	CreatedAt    time.Time `dynamodbav:"createdAt"`
}

// RegionRow is one derived (region, account) assignment within a unit.
type RegionRow struct {
	Region    string
	AccountID string
}

func accountPK(name string) store.Key {
	return store.NewKey(store.KindAccount, name)
}

func unitSK(ouID string) store.Key {
	return store.NewKey(store.KindOrganizationalUnit, ouID)
}

func regionSK(region, accountID string) store.Key {
	return store.NewKey(store.KindRegion, region, accountID)
}

func statusPK(accountID string) store.Key {
	return store.NewKey(store.KindComponentStatus, accountID)
}

func statusSK(region, componentName string) store.Key {
	return store.NewKey(store.KindComponentStatus, region, componentName)
}

// DAO persists account records, the derived region mapping, and component
// deployment status rows in the shared table.
type DAO struct {
	store *store.Store
}

func NewDAO(s *store.Store) *DAO {
	return &DAO{store: s}
}

func marshalAccount(a Account) (store.Item, error) {
	record := accountRecord{
		PK:           accountPK(a.Name).String(),
		SK:           unitSK(a.OrganizationalUnitID).String(),
		Kind:         string(store.KindAccount),
		AccountID:    a.AccountID,
		Email:        a.Email,
		SSOEmail:     a.SSOEmail,
		SSOFirstName: a.SSOFirstName,
		SSOLastName:  a.SSOLastName,
		Regions:      a.Regions,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt,
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("marshal account: %w", err)
	}
	return item, nil
}

func unmarshalAccount(item store.Item) (*Account, error) {
	var record accountRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}
	pk, err := store.ParseKey(record.PK)
	if err != nil || len(pk.Parts) == 0 {
		return nil, fmt.Errorf("unmarshal account: bad key %q", record.PK)
	}
	sk, err := store.ParseKey(record.SK)
	if err != nil || len(sk.Parts) == 0 {
		return nil, fmt.Errorf("unmarshal account: bad key %q", record.SK)
	}
	return &Account{
		Name:                 pk.Parts[0],
		AccountID:            record.AccountID,
		Email:                record.Email,
		SSOEmail:             record.SSOEmail,
		SSOFirstName:         record.SSOFirstName,
		SSOLastName:          record.SSOLastName,
		OrganizationalUnitID: sk.Parts[0],
		Regions:              record.Regions,
		Status:               Status(record.Status),
		CreatedAt:            record.CreatedAt,
	}, nil
}

// SaveNew persists a new account, failing with ErrAlreadyExists when an
// account with the same name exists in the unit.
func (d *DAO) SaveNew(ctx context.Context, a Account) error {
	item, err := marshalAccount(a)
	if err != nil {
		return err
	}
	if err := d.store.PutNew(ctx, item); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetByName returns the account with the given name, or ErrNotFound.
func (d *DAO) GetByName(ctx context.Context, name string) (*Account, error) {
	page, err := d.store.QueryPage(ctx, store.Query{
		HashValue: accountPK(name).String(),
		Limit:     1,
	})
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, ErrNotFound
	}
	return unmarshalAccount(page.Items[0])
}

// GetByID returns the account with the given external id via the secondary
// index, or nil when absent.
func (d *DAO) GetByID(ctx context.Context, accountID string) (*Account, error) {
	_, byAccountID, _ := d.store.Indexes()
	page, err := d.store.QueryPage(ctx, store.Query{
		Index:     byAccountID,
		HashAttr:  "accountId",
		HashValue: accountID,
		Limit:     1,
	})
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, nil
	}
	return unmarshalAccount(page.Items[0])
}

// ListByUnit returns one page of the unit's accounts ordered by name, plus
// the cursor to resume from, nil when the page is the last.
func (d *DAO) ListByUnit(ctx context.Context, ouID string, limit int32, after *Cursor) ([]Account, *Cursor, error) {
	byParent, _, _ := d.store.Indexes()

	q := store.Query{
		Index:       byParent,
		HashAttr:    "sk",
		HashValue:   unitSK(ouID).String(),
		RangeAttr:   "pk",
		RangePrefix: store.NewKey(store.KindAccount).Prefix(),
		Limit:       limit,
	}
	if after != nil {
		q.StartKey = store.Item{
			"pk": &types.AttributeValueMemberS{Value: accountPK(after.Name).String()},
			"sk": &types.AttributeValueMemberS{Value: unitSK(after.OuID).String()},
		}
	}

	page, err := d.store.QueryPage(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	accounts := make([]Account, 0, len(page.Items))
	for _, item := range page.Items {
		a, err := unmarshalAccount(item)
		if err != nil {
			return nil, nil, err
		}
		accounts = append(accounts, *a)
	}

	var next *Cursor
	if page.LastKey != nil && len(accounts) > 0 {
		last := accounts[len(accounts)-1]
		next = &Cursor{OuID: last.OrganizationalUnitID, Name: last.Name}
	}
	return accounts, next, nil
}

// HasAccounts reports whether the unit has at least one account.
func (d *DAO) HasAccounts(ctx context.Context, ouID string) (bool, error) {
	accounts, _, err := d.ListByUnit(ctx, ouID, 1, nil)
	if err != nil {
		return false, err
	}
	return len(accounts) > 0, nil
}

// UpdateStatus sets the account's status and, when provided, its external
// account id, failing with ErrNotFound when the record is absent.
func (d *DAO) UpdateStatus(ctx context.Context, name, ouID string, status Status, accountID string) error {
	set := map[string]types.AttributeValue{
		"status": &types.AttributeValueMemberS{Value: string(status)},
	}
	if accountID != "" {
		set["accountId"] = &types.AttributeValueMemberS{Value: accountID}
	}
	err := d.store.Update(ctx, accountPK(name), unitSK(ouID), set)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// UpdateRegions rewrites the account's persisted region list.
func (d *DAO) UpdateRegions(ctx context.Context, name, ouID string, regions []string) error {
	regionsAttr, err := attributevalue.Marshal(regions)
	if err != nil {
		return fmt.Errorf("marshal regions: %w", err)
	}
	err = d.store.Update(ctx, accountPK(name), unitSK(ouID), map[string]types.AttributeValue{
		"regions": regionsAttr,
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// RebuildRegionMapping replaces the unit's mapping rows for one account:
// existing rows are batch-deleted, then the rows for the new region list are
// written in a single transaction. The two steps are not atomic as a pair; a
// concurrent reader may briefly observe the account missing from the mapping.
func (d *DAO) RebuildRegionMapping(ctx context.Context, ouID, accountID string, regions []string) error {
	if err := d.deleteRegionRows(ctx, ouID, accountID); err != nil {
		return err
	}

	puts := make([]types.TransactWriteItem, 0, len(regions))
	for _, region := range regions {
		item := store.Item{
			"pk":   &types.AttributeValueMemberS{Value: unitSK(ouID).String()},
			"sk":   &types.AttributeValueMemberS{Value: regionSK(region, accountID).String()},
			"kind": &types.AttributeValueMemberS{Value: string(store.KindRegion)},
		}
		puts = append(puts, d.store.NewPut(item))
	}
	return d.store.TransactWrite(ctx, puts...)
}

// RegionRows returns every (region, account) assignment of a unit.
func (d *DAO) RegionRows(ctx context.Context, ouID string) ([]RegionRow, error) {
	items, err := d.store.QueryAll(ctx, store.Query{
		HashValue:   unitSK(ouID).String(),
		RangePrefix: store.NewKey(store.KindRegion).Prefix(),
	})
	if err != nil {
		return nil, err
	}

	rows := make([]RegionRow, 0, len(items))
	for _, item := range items {
		sk, ok := item["sk"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		key, err := store.ParseKey(sk.Value)
		if err != nil || len(key.Parts) < 2 {
			return nil, fmt.Errorf("bad region mapping key %q", sk.Value)
		}
		rows = append(rows, RegionRow{Region: key.Parts[0], AccountID: key.Parts[1]})
	}
	return rows, nil
}

func (d *DAO) deleteRegionRows(ctx context.Context, ouID, accountID string) error {
	rows, err := d.RegionRows(ctx, ouID)
	if err != nil {
		return err
	}
	var keys []store.KeyPair
	for _, row := range rows {
		if row.AccountID != accountID {
			continue
		}
		keys = append(keys, store.KeyPair{
			PK: unitSK(ouID),
			SK: regionSK(row.Region, row.AccountID),
		})
	}
	if len(keys) == 0 {
		return nil
	}
	return d.store.BatchDelete(ctx, keys)
}

// DeleteWithMapping removes the account record and all of its region-mapping
// rows in one transaction.
func (d *DAO) DeleteWithMapping(ctx context.Context, a *Account) error {
	rows, err := d.RegionRows(ctx, a.OrganizationalUnitID)
	if err != nil {
		return err
	}

	deletes := []types.TransactWriteItem{
		d.store.NewDelete(accountPK(a.Name), unitSK(a.OrganizationalUnitID)),
	}
	for _, row := range rows {
		if row.AccountID != a.AccountID {
			continue
		}
		deletes = append(deletes, d.store.NewDelete(
			unitSK(a.OrganizationalUnitID),
			regionSK(row.Region, row.AccountID),
		))
	}
	return d.store.TransactWrite(ctx, deletes...)
}

// UpsertComponentStatus records the observed deployment status of a
// component for an account in a region, replacing any prior observation.
func (d *DAO) UpsertComponentStatus(ctx context.Context, row ComponentStatusRow) error {
	item := store.Item{
		"pk":     &types.AttributeValueMemberS{Value: statusPK(row.AccountID).String()},
		"sk":     &types.AttributeValueMemberS{Value: statusSK(row.Region, row.Component).String()},
		"kind":   &types.AttributeValueMemberS{Value: string(store.KindComponentStatus)},
		"status": &types.AttributeValueMemberS{Value: string(row.Status)},
	}
	return d.store.Put(ctx, item)
}

// ComponentStatuses returns every recorded component status for an account.
func (d *DAO) ComponentStatuses(ctx context.Context, accountID string) ([]ComponentStatusRow, error) {
	items, err := d.store.QueryAll(ctx, store.Query{
		HashValue:   statusPK(accountID).String(),
		RangePrefix: store.NewKey(store.KindComponentStatus).Prefix(),
	})
	if err != nil {
		return nil, err
	}

	rows := make([]ComponentStatusRow, 0, len(items))
	for _, item := range items {
		sk, ok := item["sk"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		key, err := store.ParseKey(sk.Value)
		if err != nil || len(key.Parts) < 2 {
			return nil, fmt.Errorf("bad component status key %q", sk.Value)
		}
		row := ComponentStatusRow{
			AccountID: accountID,
			Region:    key.Parts[0],
			Component: key.Parts[1],
		}
		if status, ok := item["status"].(*types.AttributeValueMemberS); ok {
			row.Status = ComponentStatus(status.Value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
