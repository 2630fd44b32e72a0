package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// TrackEndReason represents why a track ended.
type TrackEndReason string

const (
	// TrackEndFinished means the track played to completion.
	TrackEndFinished TrackEndReason = "finished"
	// TrackEndResolveFailed means no playable stream could be acquired.
	TrackEndResolveFailed TrackEndReason = "resolve_failed"
	// TrackEndSkipped means the track was skipped by a user.
	TrackEndSkipped TrackEndReason = "skipped"
	// TrackEndStopped means playback was stopped by a user.
	TrackEndStopped TrackEndReason = "stopped"
)

// ShouldContinue returns true if this end reason should trigger the
// continuation policy (advance the queue / autoplay).
func (r TrackEndReason) ShouldContinue() bool {
	return r == TrackEndFinished || r == TrackEndResolveFailed || r == TrackEndSkipped
}

// BypassesLoop returns true if this end reason forces an advance even when
// track looping is enabled. A looped track would otherwise be unskippable.
func (r TrackEndReason) BypassesLoop() bool {
	return r == TrackEndSkipped || r == TrackEndResolveFailed
}

// TrackEnqueuedEvent is published when a track is added to the queue.
type TrackEnqueuedEvent struct {
	GuildID snowflake.ID
	Track   *Track
	WasIdle bool // true if no track was playing when this was enqueued
}

// TrackEndedEvent is published when the audio player goes idle.
type TrackEndedEvent struct {
	GuildID snowflake.ID
	Reason  TrackEndReason
}

// PlaybackStartedEvent is published when a track starts playing.
type PlaybackStartedEvent struct {
	GuildID       snowflake.ID
	Track         *Track
	TextChannelID snowflake.ID
}

// PlaybackFailedEvent is published when every resolution strategy for a
// track has been exhausted. Exactly one event is published per failed track.
type PlaybackFailedEvent struct {
	GuildID       snowflake.ID
	Track         *Track
	Reason        string // classified resolution failure for user messaging
	TextChannelID snowflake.ID
}

// QueueClearedEvent is published when the queue is cleared including the
// current track. This triggers playback to stop.
type QueueClearedEvent struct {
	GuildID       snowflake.ID
	TextChannelID snowflake.ID
}
