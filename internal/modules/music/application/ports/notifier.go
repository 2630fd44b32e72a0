package ports

import (
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// Notifier defines the interface for sending playback notifications to
// Discord text channels.
type Notifier interface {
	// SendNowPlaying sends a "Now Playing" embed and returns the message ID.
	SendNowPlaying(channelID snowflake.ID, track *domain.Track) (snowflake.ID, error)

	// SendTrackFailed reports that a track could not be resolved, with the
	// classified reason.
	SendTrackFailed(channelID snowflake.ID, track *domain.Track, reason string) error

	// DeleteMessage deletes a previously sent message.
	DeleteMessage(channelID, messageID snowflake.ID) error
}
