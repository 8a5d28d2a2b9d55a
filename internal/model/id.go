package model

import "github.com/oklog/ulid/v2"

// NewID generates a new ULID string. Used for journal record IDs and as the
// default correlation key when a caller does not supply one.
func NewID() string {
	return ulid.Make().String()
}
