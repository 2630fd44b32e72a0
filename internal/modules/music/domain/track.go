package domain

import (
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Track represents a playable audio track. A Track is immutable once
// created; it is never mutated after being placed in a queue.
type Track struct {
	Title        string
	Author       string
	Duration     time.Duration
	ThumbnailURL string
	SourceURL    string
	Source       SourceKind
	RequestedBy  snowflake.ID
	EnqueuedAt   time.Time
}

// NewTrack creates a new Track with the given parameters.
func NewTrack(
	title string,
	author string,
	duration time.Duration,
	thumbnailURL string,
	sourceURL string,
	source SourceKind,
	requestedBy snowflake.ID,
) *Track {
	return &Track{
		Title:        title,
		Author:       author,
		Duration:     duration,
		ThumbnailURL: thumbnailURL,
		SourceURL:    sourceURL,
		Source:       source,
		RequestedBy:  requestedBy,
		EnqueuedAt:   time.Now().UTC(),
	}
}

// IsValid returns true if the track has the minimum required fields.
func (t *Track) IsValid() bool {
	return t.Title != "" && t.SourceURL != ""
}

// SameSource reports whether both tracks point at the same source URL.
// Used as the stale-result guard when a resolution completes late.
func (t *Track) SameSource(other *Track) bool {
	if t == nil || other == nil {
		return false
	}
	return t.SourceURL == other.SourceURL
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (t *Track) FormattedDuration() string {
	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
