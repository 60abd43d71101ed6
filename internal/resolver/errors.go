package resolver

import "errors"

// Terminal input errors. Everything else the engine encounters is
// absorbed into the next fallback: lookups that fail or find nothing
// degrade the result, they never surface to the viewer.
var (
	// ErrMissingIdentifier means neither a qr nor an ad identifier was
	// supplied, so there is nothing to resolve.
	ErrMissingIdentifier = errors.New("missing qr and ad identifiers")

	// ErrInvalidIdentifier means a supplied identifier is not a
	// canonically formatted UUID. Checked before any datastore call.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)
