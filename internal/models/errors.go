package models

import (
	"errors"
	"fmt"
)

// Error kinds. Wrapped kinds also match their parent under errors.Is, e.g.
// ErrMissingConfiguration is an ErrMalformedConfiguration and an ErrInvalidArgument.
var (
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrInvalidTemplate        = fmt.Errorf("%w: invalid template", ErrInvalidArgument)
	ErrMissingField           = fmt.Errorf("%w: missing field", ErrInvalidArgument)
	ErrMalformedConfiguration = fmt.Errorf("%w: malformed configuration", ErrInvalidArgument)
	ErrMissingConfiguration   = fmt.Errorf("%w: missing configuration", ErrMalformedConfiguration)

	ErrIndexUnavailable = errors.New("index unavailable")
	ErrIndexNotFound    = fmt.Errorf("%w: index not found", ErrIndexUnavailable)
)

// MappingError wraps a failure of one funnel stage for one entity.
type MappingError struct {
	Stage    Stage
	EntityID string
	Err      error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping entity %s failed at stage %s: %v", e.EntityID, e.Stage, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }
