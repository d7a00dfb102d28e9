// Package orgunit manages organizational unit records and their optional
// creation through the external organizations capability.
package orgunit

import "time"

// OrganizationalUnit is a registered unit that accounts are provisioned into.
type OrganizationalUnit struct {
	// ID is the opaque identifier assigned by the organizations capability.
	ID string `json:"id"`

	// Name is the human name, unique among units.
	Name string `json:"name"`

	CreatedAt time.Time `json:"createdAt"`

	// Tags are fetched live from the organizations capability when unit
	// management is delegated; they are never persisted locally.
	Tags map[string]string `json:"tags,omitempty"`
}
