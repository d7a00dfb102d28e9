package account

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/servicecatalog"
	"github.com/aws/aws-sdk-go-v2/service/servicecatalog/types"
)

// ProvisionRequest carries what the provisioning capability needs to start
// an account creation workflow.
type ProvisionRequest struct {
	// Token makes the provisioning request idempotent across retries.
	Token string

	Account Account

	// OrganizationalUnitName is the human name the provisioning product
	// expects for the managed unit.
	OrganizationalUnitName string
}

// Provisioner starts the external account provisioning workflow.
type Provisioner interface {
	Provision(ctx context.Context, req ProvisionRequest) error
}

// ServiceCatalogAPI is the subset of the catalog client the adapter uses.
type ServiceCatalogAPI interface {
	SearchProductsAsAdmin(ctx context.Context, params *servicecatalog.SearchProductsAsAdminInput, optFns ...func(*servicecatalog.Options)) (*servicecatalog.SearchProductsAsAdminOutput, error)
	ListProvisioningArtifacts(ctx context.Context, params *servicecatalog.ListProvisioningArtifactsInput, optFns ...func(*servicecatalog.Options)) (*servicecatalog.ListProvisioningArtifactsOutput, error)
	ProvisionProduct(ctx context.Context, params *servicecatalog.ProvisionProductInput, optFns ...func(*servicecatalog.Options)) (*servicecatalog.ProvisionProductOutput, error)
}

var _ ServiceCatalogAPI = (*servicecatalog.Client)(nil)

// CatalogProvisioner provisions accounts through a configured catalog
// product, resolving the product and its active artifact version on each
// request so catalog updates take effect without a restart.
type CatalogProvisioner struct {
	client       ServiceCatalogAPI
	productOwner string
	productName  string
}

func NewCatalogProvisioner(client ServiceCatalogAPI, productOwner, productName string) *CatalogProvisioner {
	return &CatalogProvisioner{
		client:       client,
		productOwner: productOwner,
		productName:  productName,
	}
}

var _ Provisioner = (*CatalogProvisioner)(nil)

func (p *CatalogProvisioner) Provision(ctx context.Context, req ProvisionRequest) error {
	productID, err := p.findProduct(ctx)
	if err != nil {
		return err
	}
	artifactID, err := p.findActiveArtifact(ctx, productID)
	if err != nil {
		return err
	}

	params := map[string]string{
		"AccountName":               req.Account.Name,
		"AccountEmail":              req.Account.Email,
		"SSOUserEmail":              req.Account.SSOEmail,
		"SSOUserFirstName":          req.Account.SSOFirstName,
		"SSOUserLastName":           req.Account.SSOLastName,
		"ManagedOrganizationalUnit": req.OrganizationalUnitName,
	}
	provisioningParams := make([]types.ProvisioningParameter, 0, len(params))
	for key, value := range params {
		provisioningParams = append(provisioningParams, types.ProvisioningParameter{
			Key:   aws.String(key),
			Value: aws.String(value),
		})
	}

	tags := make([]types.Tag, 0, len(req.Account.Tags))
	for key, value := range req.Account.Tags {
		tags = append(tags, types.Tag{Key: aws.String(key), Value: aws.String(value)})
	}

	_, err = p.client.ProvisionProduct(ctx, &servicecatalog.ProvisionProductInput{
		ProductId:              aws.String(productID),
		ProvisioningArtifactId: aws.String(artifactID),
		ProvisionedProductName: aws.String(req.Account.Name),
		ProvisionToken:         aws.String(req.Token),
		ProvisioningParameters: provisioningParams,
		Tags:                   tags,
	})
	if err != nil {
		return fmt.Errorf("provision product: %w", err)
	}
	return nil
}

func (p *CatalogProvisioner) findProduct(ctx context.Context) (string, error) {
	out, err := p.client.SearchProductsAsAdmin(ctx, &servicecatalog.SearchProductsAsAdminInput{
		Filters: map[string][]string{
			string(types.ProductViewFilterByOwner): {p.productOwner},
		},
	})
	if err != nil {
		return "", fmt.Errorf("search products: %w", err)
	}
	for _, detail := range out.ProductViewDetails {
		summary := detail.ProductViewSummary
		if summary == nil {
			continue
		}
		if aws.ToString(summary.Name) == p.productName {
			return aws.ToString(summary.ProductId), nil
		}
	}
	return "", fmt.Errorf("%w: owner %q, name %q", ErrNoProduct, p.productOwner, p.productName)
}

func (p *CatalogProvisioner) findActiveArtifact(ctx context.Context, productID string) (string, error) {
	out, err := p.client.ListProvisioningArtifacts(ctx, &servicecatalog.ListProvisioningArtifactsInput{
		ProductId: aws.String(productID),
	})
	if err != nil {
		return "", fmt.Errorf("list provisioning artifacts: %w", err)
	}
	for _, artifact := range out.ProvisioningArtifactDetails {
		if aws.ToBool(artifact.Active) {
			return aws.ToString(artifact.Id), nil
		}
	}
	return "", fmt.Errorf("%w: product %q", ErrNoActiveArtifact, productID)
}
