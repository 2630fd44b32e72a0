package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// StreamHandle is a playable audio stream acquired by a TrackResolver.
type StreamHandle struct {
	// URL is a direct media URL that the encoder can consume.
	URL string
	// Extractor names the strategy that produced the handle, for logging.
	Extractor string
}

// AudioPlayer defines the interface for per-guild audio playback.
// The player publishes a TrackEndedEvent when a stream finishes.
type AudioPlayer interface {
	// Play starts playback of the given stream at the given volume (0-100).
	// Any stream already playing for the guild is replaced without
	// publishing an end event.
	Play(ctx context.Context, guildID snowflake.ID, stream *StreamHandle, volume int) error

	// Stop stops the current playback without publishing an end event.
	Stop(ctx context.Context, guildID snowflake.ID) error

	// Pause pauses the current playback.
	Pause(ctx context.Context, guildID snowflake.ID) error

	// Resume resumes the paused playback.
	Resume(ctx context.Context, guildID snowflake.ID) error

	// IsPlaying reports whether a stream is currently active for the guild.
	IsPlaying(guildID snowflake.ID) bool
}
