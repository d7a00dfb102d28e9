package component

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/jacentio/orgmanager/internal/store"
)

type componentRecord struct {
	PK           string            `dynamodbav:"pk"`
	SK           string            `dynamodbav:"sk"`
	Kind         string            `dynamodbav:"kind"`
	Description  string            `dynamodbav:"description"`
	RunOrder     int               `dynamodbav:"runOrder"`
	ResourceFile string            `dynamodbav:"resourceFile"`
	Parameters   map[string]string `dynamodbav:"parameters"`
	BypassCheck  bool              `dynamodbav:"bypassCheck"`
}

func unitPK(ouID string) store.Key {
	return store.NewKey(store.KindOrganizationalUnit, ouID)
}

func componentSK(name string) store.Key {
	return store.NewKey(store.KindComponent, name)
}

// DAO persists component definitions in the shared table.
type DAO struct {
	store *store.Store
}

func NewDAO(s *store.Store) *DAO {
	return &DAO{store: s}
}

// Save persists a component, failing with ErrAlreadyExists on a duplicate
// name within the unit.
func (d *DAO) Save(ctx context.Context, c Component) error {
	record := componentRecord{
		PK:           unitPK(c.OrganizationalUnitID).String(),
		SK:           componentSK(c.Name).String(),
		Kind:         string(store.KindComponent),
		Description:  c.Description,
		RunOrder:     c.RunOrder,
		ResourceFile: c.ResourceFile,
		Parameters:   c.Parameters,
		BypassCheck:  c.BypassCheck,
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal component: %w", err)
	}
	if err := d.store.PutNew(ctx, item); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// List returns all components of a unit.
func (d *DAO) List(ctx context.Context, ouID string) ([]Component, error) {
	items, err := d.store.QueryAll(ctx, store.Query{
		HashValue:   unitPK(ouID).String(),
		RangePrefix: store.NewKey(store.KindComponent).Prefix(),
	})
	if err != nil {
		return nil, err
	}

	components := make([]Component, 0, len(items))
	for _, item := range items {
		var record componentRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return nil, fmt.Errorf("unmarshal component: %w", err)
		}
		sk, err := store.ParseKey(record.SK)
		if err != nil || len(sk.Parts) == 0 {
			return nil, fmt.Errorf("unmarshal component: bad key %q", record.SK)
		}
		components = append(components, Component{
			OrganizationalUnitID: ouID,
			Name:                 sk.Parts[0],
			Description:          record.Description,
			RunOrder:             record.RunOrder,
			ResourceFile:         record.ResourceFile,
			Parameters:           record.Parameters,
			BypassCheck:          record.BypassCheck,
		})
	}
	return components, nil
}

// Delete removes one component of a unit.
func (d *DAO) Delete(ctx context.Context, ouID, name string) error {
	return d.store.Delete(ctx, unitPK(ouID), componentSK(name))
}
