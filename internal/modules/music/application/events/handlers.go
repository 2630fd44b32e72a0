package events

import (
	"context"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/application/usecases"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// PlaybackEventHandler consumes playback lifecycle events and drives the
// continuation policy.
type PlaybackEventHandler struct {
	playback *usecases.PlaybackService
}

// NewPlaybackEventHandler creates a new PlaybackEventHandler.
func NewPlaybackEventHandler(playback *usecases.PlaybackService) *PlaybackEventHandler {
	return &PlaybackEventHandler{playback: playback}
}

// Run consumes events from the bus until the context is cancelled or the
// bus channels are closed.
func (h *PlaybackEventHandler) Run(ctx context.Context, bus *Bus) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-bus.TrackEnded():
			if !ok {
				return
			}
			h.handleTrackEnded(ctx, event)
		case event, ok := <-bus.TrackEnqueued():
			if !ok {
				return
			}
			h.handleTrackEnqueued(event)
		}
	}
}

func (h *PlaybackEventHandler) handleTrackEnded(ctx context.Context, event domain.TrackEndedEvent) {
	slog.Debug("track ended", "guild", event.GuildID, "reason", event.Reason)
	h.playback.ContinueAfterTrackEnd(ctx, event.GuildID, event.Reason)
}

func (h *PlaybackEventHandler) handleTrackEnqueued(event domain.TrackEnqueuedEvent) {
	slog.Info("track enqueued",
		"guild", event.GuildID,
		"track", event.Track.Title,
		"autoplay", event.WasIdle,
	)
}

// NotificationEventHandler consumes playback events and posts the
// corresponding announcements to the guild's text channel. It keeps the
// latest now-playing message per guild so it can be cleaned up when
// playback stops.
type NotificationEventHandler struct {
	registry domain.SessionRegistry
	notifier ports.Notifier
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	registry domain.SessionRegistry,
	notifier ports.Notifier,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		registry: registry,
		notifier: notifier,
	}
}

// Run consumes events from the bus until the context is cancelled or the
// bus channels are closed.
func (h *NotificationEventHandler) Run(ctx context.Context, bus *Bus) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-bus.PlaybackStarted():
			if !ok {
				return
			}
			h.handlePlaybackStarted(event)
		case event, ok := <-bus.PlaybackFailed():
			if !ok {
				return
			}
			h.handlePlaybackFailed(event)
		case event, ok := <-bus.QueueCleared():
			if !ok {
				return
			}
			h.handleQueueCleared(event)
		}
	}
}

func (h *NotificationEventHandler) handlePlaybackStarted(event domain.PlaybackStartedEvent) {
	if event.TextChannelID == 0 {
		return
	}

	h.deletePreviousAnnouncement(event.GuildID)

	messageID, err := h.notifier.SendNowPlaying(event.TextChannelID, event.Track)
	if err != nil {
		slog.Warn("failed to send now-playing message",
			"guild", event.GuildID,
			"error", err,
		)
		return
	}

	if session := h.registry.Get(event.GuildID); session != nil {
		session.WithLock(func() {
			session.NowPlayingChannelID = event.TextChannelID
			session.NowPlayingMessageID = messageID
		})
	}
}

func (h *NotificationEventHandler) handlePlaybackFailed(event domain.PlaybackFailedEvent) {
	if event.TextChannelID == 0 {
		return
	}

	if err := h.notifier.SendTrackFailed(event.TextChannelID, event.Track, event.Reason); err != nil {
		slog.Warn("failed to send track-failed message",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleQueueCleared(event domain.QueueClearedEvent) {
	h.deletePreviousAnnouncement(event.GuildID)
}

func (h *NotificationEventHandler) deletePreviousAnnouncement(guildID snowflake.ID) {
	session := h.registry.Get(guildID)
	if session == nil {
		return
	}

	var channelID, messageID snowflake.ID
	session.WithLock(func() {
		channelID = session.NowPlayingChannelID
		messageID = session.NowPlayingMessageID
		session.NowPlayingChannelID = 0
		session.NowPlayingMessageID = 0
	})
	if messageID == 0 {
		return
	}

	if err := h.notifier.DeleteMessage(channelID, messageID); err != nil {
		slog.Debug("failed to delete now-playing message",
			"guild", guildID,
			"error", err,
		)
	}
}
