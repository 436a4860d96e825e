package model

import (
	"strings"

	"github.com/oklog/ulid/v2"

	"edu-tutor/internal/domain"
)

// ID is an opaque entity identifier. Ownership checks compare IDs by value.
// The zero value means "no id" (e.g. an ungrouped session has a zero ProjectID).
type ID string

// NewID returns a fresh, lexically sortable identifier.
func NewID() ID { return ID(ulid.Make().String()) }

// ParseID validates s and returns it in canonical form.
func ParseID(s string) (ID, error) {
	u, err := ulid.ParseStrict(strings.TrimSpace(s))
	if err != nil {
		return "", domain.ErrInvalidArgument
	}
	return ID(u.String()), nil
}

// ParseOptionalID treats an empty string as the zero ID.
func ParseOptionalID(s string) (ID, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return ParseID(s)
}

func (id ID) String() string { return string(id) }
func (id ID) IsZero() bool   { return id == "" }

// Ptr returns nil for the zero ID, for nullable columns and JSON fields.
func (id ID) Ptr() *string {
	if id.IsZero() {
		return nil
	}
	s := string(id)
	return &s
}
