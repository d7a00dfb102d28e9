// Package account manages account records, their provisioning lifecycle,
// and the derived region mapping consumed by manifest generation.
package account

import "time"

// Status is an account lifecycle status.
type Status string

const (
	// StatusCreating means an external provisioning workflow is in flight.
	StatusCreating Status = "CREATING"
	// StatusActive means the account exists and is usable.
	StatusActive Status = "ACTIVE"
	// StatusProvisioned means every required component is deployed in
	// every one of the account's regions.
	StatusProvisioned Status = "PROVISIONED"
	// StatusSuspended means the account was taken out of service.
	StatusSuspended Status = "SUSPENDED"
	// StatusPending means the account is awaiting external action.
	StatusPending Status = "PENDING"
	// StatusError means provisioning failed.
	StatusError Status = "ERROR"
	// StatusFailed is reported by external tooling; accepted for deletion.
	StatusFailed Status = "FAILED"
)

// Deletable reports whether an account in this status may be deleted.
func (s Status) Deletable() bool {
	switch s {
	case StatusActive, StatusProvisioned, StatusFailed, StatusSuspended:
		return true
	}
	return false
}

// Account is a cloud account scoped under an organizational unit.
type Account struct {
	// Name is unique within the organizational unit and keys the record.
	Name string `json:"name"`

	// AccountID is the external account identifier; empty until
	// provisioning completes.
	AccountID string `json:"accountId,omitempty"`

	Email        string `json:"email"`
	SSOEmail     string `json:"ssoEmail"`
	SSOFirstName string `json:"ssoFirstName"`
	SSOLastName  string `json:"ssoLastName"`

	OrganizationalUnitID string `json:"organizationalUnitId"`

	// Regions is persisted sorted; order carries no meaning.
	Regions []string `json:"regions"`

	Status Status `json:"status"`

	// Tags are request-only and handed to the provisioning capability;
	// they are never persisted.
	Tags map[string]string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// ComponentStatus is the deployment status of one component in one region.
type ComponentStatus string

const (
	ComponentCreated ComponentStatus = "CREATED"
	ComponentUpdated ComponentStatus = "UPDATED"
	ComponentFailed  ComponentStatus = "FAILED"
)

// ComponentStatusRow records the observed deployment status of a component
// for an account in a region.
type ComponentStatusRow struct {
	AccountID string
	Region    string
	Component string
	Status    ComponentStatus
}

// StatusUpdate is a request to move an account to a new lifecycle status.
type StatusUpdate struct {
	// Name identifies the account.
	Name string

	// AccountID, when set, records the externally assigned identifier
	// alongside the status change.
	AccountID string

	Status Status
}
