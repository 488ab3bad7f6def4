package schema

import "errors"

var (
	// ErrInvalidType is returned for type text that is not a known Spanner
	// type, or for STRING/BYTES types without a size bound
	ErrInvalidType = errors.New("invalid type")

	// ErrMalformedSchema is returned when a builder finishes with a required
	// field missing
	ErrMalformedSchema = errors.New("malformed schema")

	// ErrCyclicSchema is returned when the interleave relation is not a forest
	ErrCyclicSchema = errors.New("cyclic schema")

	// ErrUnknownReference is returned when a key, index or parent names
	// something that does not exist
	ErrUnknownReference = errors.New("unknown reference")
)
