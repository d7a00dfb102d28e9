package account

import "errors"

var (
	// ErrValidation is returned when a request fails input validation.
	ErrValidation = errors.New("account: invalid request")

	// ErrNotFound is returned when an account doesn't exist.
	ErrNotFound = errors.New("account: account not found")

	// ErrAlreadyExists is returned when an account with the same name
	// already exists in the unit.
	ErrAlreadyExists = errors.New("account: account already exists")

	// ErrBadStatus is returned when deleting an account whose current
	// status does not permit deletion.
	ErrBadStatus = errors.New("account: status does not permit deletion")

	// ErrBadCursor is returned when a pagination cursor cannot be decoded.
	ErrBadCursor = errors.New("account: malformed pagination cursor")

	// ErrNoProduct is returned when no provisioning product matches the
	// configured owner and name.
	ErrNoProduct = errors.New("account: no provisioning product found for configured owner and name")

	// ErrNoActiveArtifact is returned when the provisioning product has no
	// active artifact version to provision from.
	ErrNoActiveArtifact = errors.New("account: provisioning product has no active artifact version")
)
