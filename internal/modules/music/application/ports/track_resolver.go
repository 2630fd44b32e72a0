package ports

import (
	"context"
	"fmt"

	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// ResolutionFailure classifies why every resolution strategy failed,
// for user-facing messaging.
type ResolutionFailure string

const (
	// ResolutionBlocked means the upstream platform refused to serve the
	// stream (throttling, geo restriction, age gate).
	ResolutionBlocked ResolutionFailure = "blocked"
	// ResolutionNoStream means the source exists but exposes no usable
	// audio stream.
	ResolutionNoStream ResolutionFailure = "no-stream"
	// ResolutionGeneric covers everything else.
	ResolutionGeneric ResolutionFailure = "generic"
)

// ResolutionError is returned when all extractors and search fallbacks have
// been exhausted for a track.
type ResolutionError struct {
	Reason ResolutionFailure
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stream resolution failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("stream resolution failed (%s)", e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// TrackResolver turns a Track into a playable stream handle, trying multiple
// extraction strategies before giving up with a ResolutionError.
type TrackResolver interface {
	Resolve(ctx context.Context, track *domain.Track) (*StreamHandle, error)
}

// Extractor is a single stream-extraction backend (one library).
// Extractors are composed into the resolver's fallback chain.
type Extractor interface {
	// Name identifies the extractor in logs and stream handles.
	Name() string

	// Extract returns a stream handle for the URL, or an error.
	Extract(ctx context.Context, sourceURL string) (*StreamHandle, error)

	// Supports reports whether the extractor can handle the source kind.
	Supports(kind domain.SourceKind) bool
}
