// Package component manages deployable component definitions scoped to an
// organizational unit, including bulk operations with per-item accounting.
package component

import "errors"

// Component is a deployable stack-like definition within a unit.
type Component struct {
	OrganizationalUnitID string `json:"organizationalUnitId"`

	// Name is unique within the unit.
	Name string `json:"name"`

	Description string `json:"description"`

	// RunOrder determines deployment sequencing, lowest first.
	RunOrder int `json:"runOrder"`

	// ResourceFile points at the deployable template.
	ResourceFile string `json:"resourceFile"`

	Parameters map[string]string `json:"parameters"`

	// BypassCheck excludes this component from deployment completeness
	// checks.
	BypassCheck bool `json:"bypassCheck"`
}

// BulkResult reports per-item outcomes of a bulk operation. A single item's
// failure never aborts the batch.
type BulkResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`

	// Errors maps a failed component's name to its error message.
	Errors map[string]string `json:"errors,omitempty"`
}

var (
	// ErrValidation is returned when a component fails input validation.
	ErrValidation = errors.New("component: invalid component")

	// ErrAlreadyExists is returned when a component with the same name
	// already exists in the unit.
	ErrAlreadyExists = errors.New("component: component already exists")
)
