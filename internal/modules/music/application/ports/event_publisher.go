package ports

import (
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// EventPublisher defines the interface for publishing playback events
// asynchronously.
type EventPublisher interface {
	PublishTrackEnqueued(event domain.TrackEnqueuedEvent)
	PublishTrackEnded(event domain.TrackEndedEvent)
	PublishPlaybackStarted(event domain.PlaybackStartedEvent)
	PublishPlaybackFailed(event domain.PlaybackFailedEvent)
	PublishQueueCleared(event domain.QueueClearedEvent)
}
