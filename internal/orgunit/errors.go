package orgunit

import "errors"

var (
	// ErrValidation is returned when a request fails input validation.
	ErrValidation = errors.New("orgunit: invalid request")

	// ErrNotFound is returned when a unit doesn't exist.
	ErrNotFound = errors.New("orgunit: organizational unit not found")

	// ErrAlreadyExists is returned when a unit with the same identifier
	// is already registered.
	ErrAlreadyExists = errors.New("orgunit: organizational unit already exists")

	// ErrRootNotFound is returned when no organization root resolves.
	ErrRootNotFound = errors.New("orgunit: organization root not found")

	// ErrHasAccounts is returned when deleting a unit that still owns accounts.
	ErrHasAccounts = errors.New("orgunit: organizational unit still has accounts")
)
