package api

import (
	"context"
	"errors"

	"github.com/rotblauer/catpace/types/fix"
)

// ErrPermissionDenied is returned by location providers the user has not authorized.
var ErrPermissionDenied = errors.New("location permission denied")

// LocationProvider delivers raw fixes to a sink.
// Foreground and background providers are both adapters onto Cat.HandleFix.
type LocationProvider interface {
	// Permission returns an error if fixes cannot be delivered. It is not retried.
	Permission(ctx context.Context) error
	// Start delivers fixes to sink until ctx is done or Stop is called.
	Start(ctx context.Context, sink func(fix.Fix)) error
	Pause()
	Resume()
	Stop() error
}

// StepProvider delivers cumulative step counts to a sink.
type StepProvider interface {
	Available() bool
	Start(ctx context.Context, sink func(cumulative int)) error
	Stop() error
}
