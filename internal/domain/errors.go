package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// tag does not exist in the record store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. malformed EPC, unknown station).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrDuplicateEPC is returned by Create when a tag with the same EPC already
// exists. The duplicate check is lookup-then-create, not atomic; see the
// accepted-race note in DESIGN.md.
// Handlers should map this to HTTP 409 Conflict.
var ErrDuplicateEPC = errors.New("duplicate epc")

// ErrNotABox is returned by box operations when the target EPC resolves to a
// tag that is not of type box.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrNotABox = errors.New("not a box")
