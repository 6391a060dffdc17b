// Package sizing assigns best-effort byte estimates to the layers of a
// semantic build model.
//
// Sizes come from a pluggable Lookup capability (a static table, a registry
// query, or a caching wrapper around either). Estimation never fails: when a
// lookup is unavailable the estimator falls back to configured defaults and
// marks the affected layers low-confidence.
package sizing

import (
	"context"
	"errors"
)

// ErrLookupUnavailable is returned by a Lookup when it cannot produce a
// size for a reference (unknown image, network failure, timeout).
var ErrLookupUnavailable = errors.New("size lookup unavailable")

// Confidence grades how trustworthy a size figure is.
type Confidence int

const (
	// ConfidenceHigh means the size came from real data (registry
	// manifest or curated table).
	ConfidenceHigh Confidence = iota
	// ConfidenceLow means the size is a default or derived guess.
	ConfidenceLow
)

// String returns the confidence grade name.
func (c Confidence) String() string {
	if c == ConfidenceHigh {
		return "high"
	}
	return "low"
}

// Size is an estimated image size.
type Size struct {
	// Bytes is the estimated compressed size.
	Bytes int64

	// Confidence grades the estimate.
	Confidence Confidence
}

// Lookup maps an image reference to an estimated size.
//
// Implementations must be safe for concurrent use: one Lookup instance is
// typically shared across analyses while each analysis owns its own model.
type Lookup interface {
	// ImageSize returns the estimated size of the referenced image, or
	// ErrLookupUnavailable (possibly wrapped) when no estimate exists.
	ImageSize(ctx context.Context, ref string) (Size, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, ref string) (Size, error)

// ImageSize implements Lookup.
func (f LookupFunc) ImageSize(ctx context.Context, ref string) (Size, error) {
	return f(ctx, ref)
}

// Chain tries each lookup in order and returns the first available size.
// It fails with the last error only when every lookup is unavailable.
func Chain(lookups ...Lookup) Lookup {
	return LookupFunc(func(ctx context.Context, ref string) (Size, error) {
		err := ErrLookupUnavailable
		for _, l := range lookups {
			size, lookupErr := l.ImageSize(ctx, ref)
			if lookupErr == nil {
				return size, nil
			}
			err = lookupErr
		}
		return Size{}, err
	})
}
