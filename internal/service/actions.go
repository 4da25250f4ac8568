package service

import "errors"

// Bulk actions accepted by the back office.
const (
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
	ActionFeature    = "feature"
	ActionUnfeature  = "unfeature"
)

var ErrUnknownAction = errors.New("unknown bulk action")

// maxSlugAttempts bounds the retries after a concurrent writer takes the
// slug that was just computed.
const maxSlugAttempts = 5
