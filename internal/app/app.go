// Package app wires configuration, AWS clients, and services into the
// composed application shared by the server and the event handler.
package app

import (
	"context"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/servicecatalog"
	"github.com/rs/zerolog"

	"github.com/jacentio/orgmanager/internal/account"
	"github.com/jacentio/orgmanager/internal/component"
	"github.com/jacentio/orgmanager/internal/config"
	"github.com/jacentio/orgmanager/internal/manifest"
	"github.com/jacentio/orgmanager/internal/orgunit"
	"github.com/jacentio/orgmanager/internal/store"
)

// App holds the composed services.
type App struct {
	Units      *orgunit.Service
	Accounts   *account.Service
	Components *component.Service
	Manifests  *manifest.Service
	Log        zerolog.Logger
}

// NewLogger builds the root logger from the logging configuration.
func NewLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Format == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}

// Build constructs every service against real AWS clients.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, err
	}

	db := store.New(dynamodb.NewFromConfig(awsCfg), store.Config{
		TableName:        cfg.AWS.Table.Name,
		ByParentIndex:    cfg.AWS.Table.ByParentIndex,
		ByAccountIDIndex: cfg.AWS.Table.ByAccountIDIndex,
		ByKindIndex:      cfg.AWS.Table.ByKindIndex,
	})

	orgAPI := orgunit.NewAWSOrgAPI(organizations.NewFromConfig(awsCfg))
	provisioner := account.NewCatalogProvisioner(
		servicecatalog.NewFromConfig(awsCfg),
		cfg.Provisioning.ProductOwner,
		cfg.Provisioning.ProductName,
	)

	accountDAO := account.NewDAO(db)

	units := orgunit.NewService(orgunit.NewDAO(db), orgAPI, accountDAO, orgunit.Config{
		CreateOuEnabled: cfg.Organizations.CreateOuEnabled,
	}, log)

	accounts := account.NewService(accountDAO, units, provisioner, orgAPI, account.Config{
		ProvisioningEnabled: cfg.Provisioning.Enabled,
		SuspendedOuID:       cfg.Organizations.SuspendedOuID,
	}, log)

	components := component.NewService(component.NewDAO(db), units, log)

	publisher := manifest.NewS3Publisher(
		s3.NewFromConfig(awsCfg),
		cfg.Manifest.Bucket,
		cfg.Manifest.Prefix,
		cfg.Manifest.Filename,
	)
	manifests := manifest.NewService(units, components, accounts, publisher, cfg.Manifest.Region, log)

	return &App{
		Units:      units,
		Accounts:   accounts,
		Components: components,
		Manifests:  manifests,
		Log:        log,
	}, nil
}
