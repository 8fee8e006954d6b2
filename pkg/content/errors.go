package content

import "errors"

var (
	// ErrShapeMismatch is returned when a document node cannot populate the
	// requested type, e.g. an object for an int.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrUnknownProperty is returned when a property required by a
	// non-nillable accessor is missing or null.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrInvalidView is returned when a view type declares an accessor that
	// takes parameters or has an unsupported result list.
	ErrInvalidView = errors.New("invalid view")
	// ErrMalformed is returned when a document cannot be parsed.
	ErrMalformed = errors.New("malformed document")
	// ErrUnknownFormat is returned for unrecognized format names and file
	// extensions.
	ErrUnknownFormat = errors.New("unknown format")
)
