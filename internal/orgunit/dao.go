package orgunit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/jacentio/orgmanager/internal/store"
)

// unitRecord is the persisted shape of an organizational unit.
type unitRecord struct {
	PK        string    `dynamodbav:"pk"`
	SK        string    `dynamodbav:"sk"`
	Kind      string    `dynamodbav:"kind"`
	Name      string    `dynamodbav:"name"`
	CreatedAt time.Time `dynamodbav:"createdAt"`
}

// DAO persists organizational unit records in the shared table.
type DAO struct {
	store *store.Store
}

func NewDAO(s *store.Store) *DAO {
	return &DAO{store: s}
}

func unitKey(id string) store.Key {
	return store.NewKey(store.KindOrganizationalUnit, id)
}

// Save registers a unit, failing with ErrAlreadyExists on a duplicate id.
func (d *DAO) Save(ctx context.Context, ou OrganizationalUnit) error {
	record := unitRecord{
		PK:        unitKey(ou.ID).String(),
		SK:        unitKey(ou.ID).String(),
		Kind:      string(store.KindOrganizationalUnit),
		Name:      ou.Name,
		CreatedAt: ou.CreatedAt,
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal unit: %w", err)
	}
	if err := d.store.PutNew(ctx, item); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Get returns the unit with the given id, or ErrNotFound.
func (d *DAO) Get(ctx context.Context, id string) (*OrganizationalUnit, error) {
	item, err := d.store.Get(ctx, unitKey(id), unitKey(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return unmarshalUnit(item)
}

// Delete removes the local unit record.
func (d *DAO) Delete(ctx context.Context, id string) error {
	return d.store.Delete(ctx, unitKey(id), unitKey(id))
}

// List returns all locally registered units.
func (d *DAO) List(ctx context.Context) ([]OrganizationalUnit, error) {
	_, _, byKind := d.store.Indexes()
	items, err := d.store.QueryAll(ctx, store.Query{
		Index:     byKind,
		HashAttr:  "kind",
		HashValue: string(store.KindOrganizationalUnit),
	})
	if err != nil {
		return nil, err
	}

	units := make([]OrganizationalUnit, 0, len(items))
	for _, item := range items {
		ou, err := unmarshalUnit(item)
		if err != nil {
			return nil, err
		}
		units = append(units, *ou)
	}
	return units, nil
}

func unmarshalUnit(item store.Item) (*OrganizationalUnit, error) {
	var record unitRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return nil, fmt.Errorf("unmarshal unit: %w", err)
	}
	key, err := store.ParseKey(record.PK)
	if err != nil || len(key.Parts) == 0 {
		return nil, fmt.Errorf("unmarshal unit: bad key %q", record.PK)
	}
	return &OrganizationalUnit{
		ID:        key.Parts[0],
		Name:      record.Name,
		CreatedAt: record.CreatedAt,
	}, nil
}
