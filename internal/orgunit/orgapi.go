package orgunit

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
)

// OrgAPI is the external org-management capability: creating and deleting
// units under the organization root, enumerating them, reading their tags,
// and relocating accounts between parents.
type OrgAPI interface {
	RootID(ctx context.Context) (string, error)
	CreateUnit(ctx context.Context, parentID, name string) (string, error)
	DeleteUnit(ctx context.Context, id string) error
	ListUnits(ctx context.Context, parentID string) ([]OrganizationalUnit, error)
	Tags(ctx context.Context, resourceID string) (map[string]string, error)
	MoveAccount(ctx context.Context, accountID, sourceParentID, destParentID string) error
}

// OrganizationsAPI is the subset of the organizations client the adapter uses.
type OrganizationsAPI interface {
	ListRoots(ctx context.Context, params *organizations.ListRootsInput, optFns ...func(*organizations.Options)) (*organizations.ListRootsOutput, error)
	CreateOrganizationalUnit(ctx context.Context, params *organizations.CreateOrganizationalUnitInput, optFns ...func(*organizations.Options)) (*organizations.CreateOrganizationalUnitOutput, error)
	DeleteOrganizationalUnit(ctx context.Context, params *organizations.DeleteOrganizationalUnitInput, optFns ...func(*organizations.Options)) (*organizations.DeleteOrganizationalUnitOutput, error)
	ListOrganizationalUnitsForParent(ctx context.Context, params *organizations.ListOrganizationalUnitsForParentInput, optFns ...func(*organizations.Options)) (*organizations.ListOrganizationalUnitsForParentOutput, error)
	ListTagsForResource(ctx context.Context, params *organizations.ListTagsForResourceInput, optFns ...func(*organizations.Options)) (*organizations.ListTagsForResourceOutput, error)
	MoveAccount(ctx context.Context, params *organizations.MoveAccountInput, optFns ...func(*organizations.Options)) (*organizations.MoveAccountOutput, error)
}

var _ OrganizationsAPI = (*organizations.Client)(nil)

// AWSOrgAPI implements OrgAPI over the organizations service.
type AWSOrgAPI struct {
	client OrganizationsAPI
}

func NewAWSOrgAPI(client OrganizationsAPI) *AWSOrgAPI {
	return &AWSOrgAPI{client: client}
}

var _ OrgAPI = (*AWSOrgAPI)(nil)

// RootID resolves the organization root, failing with ErrRootNotFound
// when the organization has no root.
func (a *AWSOrgAPI) RootID(ctx context.Context) (string, error) {
	out, err := a.client.ListRoots(ctx, &organizations.ListRootsInput{})
	if err != nil {
		return "", fmt.Errorf("list roots: %w", err)
	}
	if len(out.Roots) == 0 || out.Roots[0].Id == nil {
		return "", ErrRootNotFound
	}
	return *out.Roots[0].Id, nil
}

func (a *AWSOrgAPI) CreateUnit(ctx context.Context, parentID, name string) (string, error) {
	out, err := a.client.CreateOrganizationalUnit(ctx, &organizations.CreateOrganizationalUnitInput{
		ParentId: aws.String(parentID),
		Name:     aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("create organizational unit: %w", err)
	}
	return aws.ToString(out.OrganizationalUnit.Id), nil
}

func (a *AWSOrgAPI) DeleteUnit(ctx context.Context, id string) error {
	_, err := a.client.DeleteOrganizationalUnit(ctx, &organizations.DeleteOrganizationalUnitInput{
		OrganizationalUnitId: aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("delete organizational unit: %w", err)
	}
	return nil
}

// ListUnits enumerates the children of a parent, paging through the
// upstream token until exhausted.
func (a *AWSOrgAPI) ListUnits(ctx context.Context, parentID string) ([]OrganizationalUnit, error) {
	var units []OrganizationalUnit
	var next *string
	for {
		out, err := a.client.ListOrganizationalUnitsForParent(ctx, &organizations.ListOrganizationalUnitsForParentInput{
			ParentId:  aws.String(parentID),
			NextToken: next,
		})
		if err != nil {
			return nil, fmt.Errorf("list organizational units: %w", err)
		}
		for _, ou := range out.OrganizationalUnits {
			units = append(units, OrganizationalUnit{
				ID:   aws.ToString(ou.Id),
				Name: aws.ToString(ou.Name),
			})
		}
		if out.NextToken == nil {
			return units, nil
		}
		next = out.NextToken
	}
}

func (a *AWSOrgAPI) Tags(ctx context.Context, resourceID string) (map[string]string, error) {
	tags := map[string]string{}
	var next *string
	for {
		out, err := a.client.ListTagsForResource(ctx, &organizations.ListTagsForResourceInput{
			ResourceId: aws.String(resourceID),
			NextToken:  next,
		})
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		for _, tag := range out.Tags {
			tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
		}
		if out.NextToken == nil {
			return tags, nil
		}
		next = out.NextToken
	}
}

func (a *AWSOrgAPI) MoveAccount(ctx context.Context, accountID, sourceParentID, destParentID string) error {
	_, err := a.client.MoveAccount(ctx, &organizations.MoveAccountInput{
		AccountId:           aws.String(accountID),
		SourceParentId:      aws.String(sourceParentID),
		DestinationParentId: aws.String(destParentID),
	})
	if err != nil {
		return fmt.Errorf("move account: %w", err)
	}
	return nil
}
