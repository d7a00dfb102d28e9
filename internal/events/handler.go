// Package events drives account state transitions from asynchronous
// provisioning-lifecycle and stack-deployment notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/jacentio/orgmanager/internal/account"
	"github.com/jacentio/orgmanager/internal/component"
)

// Event source tags routing incoming notifications to their handler.
const (
	// SourceAccountLifecycle marks account provisioning lifecycle events.
	SourceAccountLifecycle = "aws.controltower"

	// SourceStackDeployments marks per-component stack deployment events.
	SourceStackDeployments = "deployments.stacksets"
)

// StateSucceeded is the terminal outcome that activates an account; any
// other outcome marks it as errored.
const StateSucceeded = "SUCCEEDED"

// AccountLifecycleDetail is the payload of a lifecycle notification.
type AccountLifecycleDetail struct {
	OrganizationalUnitID string `json:"organizationalUnitId"`
	AccountName          string `json:"accountName"`
	AccountID            string `json:"accountId,omitempty"`
	State                string `json:"state"`
}

// StackDeploymentDetail is the payload of a stack deployment notification.
type StackDeploymentDetail struct {
	AccountID string `json:"accountId"`
	Region    string `json:"region"`
	StackName string `json:"stackName"`
	Status    string `json:"status"`
}

// AccountService is the account surface the handler drives.
type AccountService interface {
	GetByID(ctx context.Context, accountID string) (*account.Account, error)
	UpdateStatus(ctx context.Context, u account.StatusUpdate) error
	UpdateComponentByAccount(ctx context.Context, row account.ComponentStatusRow) error
	AreAllComponentsDeployed(ctx context.Context, accountID string, components []component.Component) (bool, error)
}

// ComponentLister lists a unit's component definitions.
type ComponentLister interface {
	List(ctx context.Context, ouID string) ([]component.Component, error)
}

// ManifestPublisher regenerates and publishes the deployment manifest.
type ManifestPublisher interface {
	UpdateManifestFile(ctx context.Context) (string, error)
}

// Handler processes asynchronous events. Failures are logged and swallowed:
// event sources have no synchronous caller to respond to, processing is
// idempotent, and redelivery is the external bus's responsibility.
type Handler struct {
	accounts   AccountService
	components ComponentLister
	manifests  ManifestPublisher
	log        zerolog.Logger
}

func NewHandler(accounts AccountService, components ComponentLister, manifests ManifestPublisher, log zerolog.Logger) *Handler {
	return &Handler{
		accounts:   accounts,
		components: components,
		manifests:  manifests,
		log:        log.With().Str("handler", "events").Logger(),
	}
}

// Handle routes one event by its source tag. Designed to be used as an
// AWS Lambda handler.
func (h *Handler) Handle(ctx context.Context, event events.CloudWatchEvent) error {
	var err error
	switch event.Source {
	case SourceAccountLifecycle:
		err = h.handleLifecycle(ctx, event.Detail)
	case SourceStackDeployments:
		err = h.handleStackDeployment(ctx, event.Detail)
	default:
		h.log.Debug().Str("source", event.Source).Msg("ignoring event from unknown source")
		return nil
	}
	if err != nil {
		h.log.Error().
			Str("source", event.Source).
			Str("eventId", event.ID).
			Err(err).
			Msg("event processing failed")
	}
	return nil
}

// handleLifecycle maps a terminal provisioning outcome onto the account
// status. Activation additionally regenerates the manifest.
func (h *Handler) handleLifecycle(ctx context.Context, raw json.RawMessage) error {
	var detail AccountLifecycleDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return fmt.Errorf("unmarshal lifecycle detail: %w", err)
	}

	status := account.StatusError
	if detail.State == StateSucceeded {
		status = account.StatusActive
	}

	if err := h.accounts.UpdateStatus(ctx, account.StatusUpdate{
		Name:      detail.AccountName,
		AccountID: detail.AccountID,
		Status:    status,
	}); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	h.log.Info().
		Str("account", detail.AccountName).
		Str("status", string(status)).
		Msg("account lifecycle event processed")

	if status != account.StatusActive {
		return nil
	}
	if _, err := h.manifests.UpdateManifestFile(ctx); err != nil {
		return fmt.Errorf("update manifest: %w", err)
	}
	return nil
}

// handleStackDeployment records a component's deployment status and promotes
// the account to PROVISIONED once every required component is deployed in
// every one of its regions.
func (h *Handler) handleStackDeployment(ctx context.Context, raw json.RawMessage) error {
	var detail StackDeploymentDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return fmt.Errorf("unmarshal stack deployment detail: %w", err)
	}

	acct, err := h.accounts.GetByID(ctx, detail.AccountID)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if acct == nil {
		h.log.Warn().Str("accountId", detail.AccountID).Msg("stack event for unknown account")
		return nil
	}

	components, err := h.components.List(ctx, acct.OrganizationalUnitID)
	if err != nil {
		return fmt.Errorf("list components: %w", err)
	}
	sort.SliceStable(components, func(i, j int) bool {
		return components[i].RunOrder < components[j].RunOrder
	})

	matched := matchComponent(components, detail.StackName)
	if matched == nil {
		h.log.Warn().
			Str("stackName", detail.StackName).
			Str("ouId", acct.OrganizationalUnitID).
			Msg("stack event matches no component")
		return nil
	}

	if err := h.accounts.UpdateComponentByAccount(ctx, account.ComponentStatusRow{
		AccountID: detail.AccountID,
		Region:    detail.Region,
		Component: matched.Name,
		Status:    account.ComponentStatus(detail.Status),
	}); err != nil {
		return fmt.Errorf("record component status: %w", err)
	}

	deployed, err := h.accounts.AreAllComponentsDeployed(ctx, detail.AccountID, components)
	if err != nil {
		return fmt.Errorf("check completeness: %w", err)
	}
	if !deployed {
		return nil
	}

	if err := h.accounts.UpdateStatus(ctx, account.StatusUpdate{
		Name:   acct.Name,
		Status: account.StatusProvisioned,
	}); err != nil {
		return fmt.Errorf("promote account: %w", err)
	}

	h.log.Info().
		Str("account", acct.Name).
		Msg("account fully provisioned")
	return nil
}

// matchComponent returns the first component whose name appears in the
// reported stack name, or nil.
func matchComponent(components []component.Component, stackName string) *component.Component {
	for i := range components {
		if strings.Contains(stackName, components[i].Name) {
			return &components[i]
		}
	}
	return nil
}
