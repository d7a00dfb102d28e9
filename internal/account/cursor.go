package account

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Cursor marks the last (unit, account name) pair a listing returned.
// Its encoded form is opaque to callers.
type Cursor struct {
	OuID string `json:"ou"`
	Name string `json:"name"`
}

// Encode serializes the cursor for use as a query parameter.
func (c Cursor) Encode() string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses an encoded cursor, returning ErrBadCursor when the
// token is not one this service issued.
func DecodeCursor(encoded string) (*Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	if c.OuID == "" || c.Name == "" {
		return nil, ErrBadCursor
	}
	return &c, nil
}
