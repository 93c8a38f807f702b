package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these
// (optionally wrapped) so callers can translate them into transport
// responses.
//
// These represent factual states about resources, not validation
// failures:
// - ErrNotFound: no artifact exists for the requested category/source
// - ErrUnavailable: a backing resource is temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
