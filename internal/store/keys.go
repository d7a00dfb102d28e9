package store

import (
	"fmt"
	"strings"
)

// Delimiter separates the kind tag and components of an encoded key.
const Delimiter = "#"

// Kind tags an item key with the entity kind it addresses.
type Kind string

const (
	// KindOrganizationalUnit keys an organizational unit record.
	KindOrganizationalUnit Kind = "OU"

	// KindAccount keys an account record by account name.
	KindAccount Kind = "AC"

	// KindComponent keys a component definition within a unit.
	KindComponent Kind = "CM"

	// KindRegion keys a derived region-mapping row within a unit.
	KindRegion Kind = "RG"

	// KindComponentStatus keys a per-account component deployment status row.
	KindComponentStatus Kind = "CS"
)

// Key is a tagged composite key: a kind plus ordered components.
// Encoding and decoding live here so callers never split strings themselves.
type Key struct {
	Kind  Kind
	Parts []string
}

// NewKey builds a Key from a kind and its components.
func NewKey(kind Kind, parts ...string) Key {
	return Key{Kind: kind, Parts: parts}
}

// String encodes the key as "KIND#part1#part2...".
func (k Key) String() string {
	if len(k.Parts) == 0 {
		return string(k.Kind)
	}
	return string(k.Kind) + Delimiter + strings.Join(k.Parts, Delimiter)
}

// Prefix encodes the key with a trailing delimiter, for begins_with queries
// that must not match a sibling sharing the same leading component.
func (k Key) Prefix() string {
	return k.String() + Delimiter
}

// ParseKey decodes an encoded key back into its kind and components.
func ParseKey(encoded string) (Key, error) {
	parts := strings.Split(encoded, Delimiter)
	if parts[0] == "" {
		return Key{}, fmt.Errorf("store: malformed key %q", encoded)
	}
	return Key{Kind: Kind(parts[0]), Parts: parts[1:]}, nil
}
