package usecases

import (
	"context"
	"errors"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// PlayInput contains the input for the Play use case.
type PlayInput struct {
	GuildID       snowflake.ID
	UserID        snowflake.ID
	TextChannelID snowflake.ID
	Query         string
}

// PlayOutput contains the result of the Play use case.
type PlayOutput struct {
	Tracks  []*domain.Track
	Started bool // true if playback started with the first track
}

// SkipInput contains the input for the Skip use case.
type SkipInput struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
	// Force bypasses skip voting. Set for the requester of the current
	// track or users with channel-management permission.
	Force bool
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	Skipped       bool
	SkippedTrack  *domain.Track
	NextTrack     *domain.Track // nil if the queue ended
	VotesReceived int           // populated when voting is in progress
	VotesRequired int
}

// NowPlayingOutput describes the current playback state of a guild.
type NowPlayingOutput struct {
	Track     *domain.Track
	Paused    bool
	Volume    int
	LoopTrack bool
	Autoplay  bool
	Pending   int
}

// PlaybackService orchestrates the queue, the resolver and the audio player.
// It owns the continuation policy that decides what plays after a track ends.
type PlaybackService struct {
	registry   domain.SessionRegistry
	loader     ports.TrackLoader
	resolver   ports.TrackResolver
	suggester  ports.Suggester
	player     ports.AudioPlayer
	voice      ports.VoiceGateway
	voiceState ports.VoiceStateProvider
	settings   ports.SettingsStore
	publisher  ports.EventPublisher
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(
	registry domain.SessionRegistry,
	loader ports.TrackLoader,
	resolver ports.TrackResolver,
	suggester ports.Suggester,
	player ports.AudioPlayer,
	voice ports.VoiceGateway,
	voiceState ports.VoiceStateProvider,
	settings ports.SettingsStore,
	publisher ports.EventPublisher,
) *PlaybackService {
	return &PlaybackService{
		registry:   registry,
		loader:     loader,
		resolver:   resolver,
		suggester:  suggester,
		player:     player,
		voice:      voice,
		voiceState: voiceState,
		settings:   settings,
		publisher:  publisher,
	}
}

// Play resolves the query into tracks, enqueues them, and starts playback
// if the guild was idle. The first track of an idle guild becomes the
// current track directly; Advance is only used for continuations.
func (p *PlaybackService) Play(ctx context.Context, input PlayInput) (*PlayOutput, error) {
	channelID, err := p.voiceState.UserVoiceChannel(input.GuildID, input.UserID)
	if err != nil || channelID == nil {
		return nil, ErrUserNotInVoice
	}

	session := p.ensureSession(ctx, input.GuildID)
	session.WithLock(func() {
		session.TextChannelID = input.TextChannelID
	})

	if err := p.voice.Join(ctx, input.GuildID, *channelID); err != nil {
		return nil, ErrJoinFailed
	}
	session.WithLock(func() {
		session.VoiceChannelID = *channelID
	})

	tracks, err := p.loader.Load(ctx, input.Query, input.UserID)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, ErrNoResults
	}

	var first *domain.Track
	var enqueueErr error
	session.WithLock(func() {
		queue := session.Queue
		for _, track := range tracks {
			if queue.NowPlaying() == nil && queue.IsEmpty() {
				// Initial playback: assign directly, no Advance.
				queue.SetNowPlaying(track)
				first = track
				continue
			}
			if err := queue.Enqueue(track); err != nil {
				enqueueErr = err
				return
			}
			p.publisher.PublishTrackEnqueued(domain.TrackEnqueuedEvent{
				GuildID: input.GuildID,
				Track:   track,
				WasIdle: false,
			})
		}
	})
	if enqueueErr != nil {
		return nil, enqueueErr
	}

	if first != nil {
		if err := p.startTrack(ctx, session, first); err != nil {
			var resErr *ports.ResolutionError
			if !errors.As(err, &resErr) {
				// The player never started; nowPlaying must not keep
				// pointing at a silent track, or later plays would only
				// enqueue.
				session.WithLock(func() {
					if first.SameSource(session.Queue.NowPlaying()) {
						session.Queue.SetNowPlaying(nil)
					}
				})
				return nil, err
			}
			// The failure has been reported; let the continuation policy
			// try whatever else was enqueued. The command itself still
			// succeeded in queueing the tracks.
			p.ContinueAfterTrackEnd(ctx, input.GuildID, domain.TrackEndResolveFailed)
			return &PlayOutput{Tracks: tracks, Started: false}, nil
		}
	}

	return &PlayOutput{Tracks: tracks, Started: first != nil}, nil
}

// Skip skips the current track. Loop mode never prevents a manual skip.
// Without Force, a skip vote is registered and the skip only proceeds once
// a majority of the voice channel has voted.
func (p *PlaybackService) Skip(ctx context.Context, input SkipInput) (*SkipOutput, error) {
	session := p.registry.Get(input.GuildID)
	if session == nil {
		return nil, ErrNotPlaying
	}

	var current *domain.Track
	session.WithLock(func() {
		current = session.Queue.NowPlaying()
	})
	if current == nil {
		return nil, ErrNotPlaying
	}

	if !input.Force {
		occupancy, err := p.voiceState.HumanOccupancy(input.GuildID, session.VoiceChannelID)
		if err != nil {
			occupancy = 1
		}
		required := domain.RequiredSkipVotes(occupancy)

		var votes int
		session.WithLock(func() {
			votes = session.Queue.RegisterSkipVote(input.UserID)
		})
		if votes < required {
			return &SkipOutput{
				Skipped:       false,
				SkippedTrack:  current,
				VotesReceived: votes,
				VotesRequired: required,
			}, nil
		}
	}

	if err := p.player.Stop(ctx, input.GuildID); err != nil {
		slog.Warn("failed to stop player for skip", "guild", input.GuildID, "error", err)
	}

	p.ContinueAfterTrackEnd(ctx, input.GuildID, domain.TrackEndSkipped)

	var next *domain.Track
	session.WithLock(func() {
		next = session.Queue.NowPlaying()
	})

	return &SkipOutput{
		Skipped:      true,
		SkippedTrack: current,
		NextTrack:    next,
	}, nil
}

// Stop stops playback, clears the queue, and releases the voice connection.
func (p *PlaybackService) Stop(ctx context.Context, guildID snowflake.ID) error {
	session := p.registry.Get(guildID)
	if session == nil {
		return ErrNotConnected
	}

	if err := p.player.Stop(ctx, guildID); err != nil {
		slog.Warn("failed to stop player", "guild", guildID, "error", err)
	}

	var textChannelID snowflake.ID
	session.WithLock(func() {
		session.Queue.Clear()
		session.Paused = false
		textChannelID = session.TextChannelID
	})

	p.publisher.PublishQueueCleared(domain.QueueClearedEvent{
		GuildID:       guildID,
		TextChannelID: textChannelID,
	})

	if err := p.voice.Leave(ctx, guildID); err != nil {
		slog.Warn("failed to leave voice channel", "guild", guildID, "error", err)
	}
	p.registry.Delete(guildID)

	return nil
}

// Pause pauses the current playback.
func (p *PlaybackService) Pause(ctx context.Context, guildID snowflake.ID) error {
	session := p.registry.Get(guildID)
	if session == nil {
		return ErrNotConnected
	}

	var playing, paused bool
	session.WithLock(func() {
		playing = session.Queue.NowPlaying() != nil
		paused = session.Paused
	})
	if !playing {
		return ErrNotPlaying
	}
	if paused {
		return ErrAlreadyPaused
	}

	if err := p.player.Pause(ctx, guildID); err != nil {
		return err
	}
	session.WithLock(func() {
		session.Paused = true
	})
	return nil
}

// Resume resumes paused playback.
func (p *PlaybackService) Resume(ctx context.Context, guildID snowflake.ID) error {
	session := p.registry.Get(guildID)
	if session == nil {
		return ErrNotConnected
	}

	var playing, paused bool
	session.WithLock(func() {
		playing = session.Queue.NowPlaying() != nil
		paused = session.Paused
	})
	if !playing {
		return ErrNotPlaying
	}
	if !paused {
		return ErrNotPaused
	}

	if err := p.player.Resume(ctx, guildID); err != nil {
		return err
	}
	session.WithLock(func() {
		session.Paused = false
	})
	return nil
}

// Previous replays the most recently played track. The interrupted track is
// pushed back to the front of the queue.
func (p *PlaybackService) Previous(ctx context.Context, guildID snowflake.ID) (*domain.Track, error) {
	session := p.registry.Get(guildID)
	if session == nil {
		return nil, ErrNotConnected
	}

	var recalled *domain.Track
	session.WithLock(func() {
		recalled = session.Queue.RecallPrevious()
		if recalled != nil {
			session.Queue.SetNowPlaying(recalled)
		}
	})
	if recalled == nil {
		return nil, ErrNoHistory
	}

	if err := p.player.Stop(ctx, guildID); err != nil {
		slog.Warn("failed to stop player for previous", "guild", guildID, "error", err)
	}

	if err := p.startTrack(ctx, session, recalled); err != nil {
		return nil, err
	}
	return recalled, nil
}

// SetVolume updates the guild volume. The new volume applies from the next
// encoded stream onward.
func (p *PlaybackService) SetVolume(ctx context.Context, guildID snowflake.ID, volume int) error {
	if volume < 0 || volume > 100 {
		return ErrInvalidVolume
	}

	session := p.ensureSession(ctx, guildID)
	session.WithLock(func() {
		session.Queue.SetVolume(volume)
	})

	if err := p.settings.UpdateVolume(ctx, guildID, volume); err != nil {
		slog.Warn("failed to persist volume", "guild", guildID, "error", err)
	}
	return nil
}

// SetLoopTrack enables or disables looping of the current track.
func (p *PlaybackService) SetLoopTrack(ctx context.Context, guildID snowflake.ID, loop bool) error {
	session := p.ensureSession(ctx, guildID)
	session.WithLock(func() {
		session.Queue.SetLoopTrack(loop)
	})

	if err := p.settings.UpdateLoopMode(ctx, guildID, loop); err != nil {
		slog.Warn("failed to persist loop mode", "guild", guildID, "error", err)
	}
	return nil
}

// ToggleAutoplay flips the autoplay toggle and returns the new state.
func (p *PlaybackService) ToggleAutoplay(ctx context.Context, guildID snowflake.ID) (bool, error) {
	session := p.ensureSession(ctx, guildID)

	var enabled bool
	session.WithLock(func() {
		enabled = !session.Queue.Autoplay()
		session.Queue.SetAutoplay(enabled)
	})

	if err := p.settings.UpdateAutoplay(ctx, guildID, enabled); err != nil {
		slog.Warn("failed to persist autoplay", "guild", guildID, "error", err)
	}
	return enabled, nil
}

// NowPlaying returns the guild's current playback state.
func (p *PlaybackService) NowPlaying(guildID snowflake.ID) (*NowPlayingOutput, error) {
	session := p.registry.Get(guildID)
	if session == nil {
		return nil, ErrNotPlaying
	}

	var out NowPlayingOutput
	session.WithLock(func() {
		out = NowPlayingOutput{
			Track:     session.Queue.NowPlaying(),
			Paused:    session.Paused,
			Volume:    session.Queue.Volume(),
			LoopTrack: session.Queue.LoopTrack(),
			Autoplay:  session.Queue.Autoplay(),
			Pending:   session.Queue.Len(),
		}
	})
	if out.Track == nil {
		return nil, ErrNotPlaying
	}
	return &out, nil
}

// ContinueAfterTrackEnd applies the continuation policy after the audio
// player goes idle: loop replays the current track, otherwise the queue
// advances; a track whose resolution fails is skipped forward (one failure
// notification each, bounded by the queue length); an empty queue asks for
// one autoplay suggestion before going idle and releasing the voice
// connection.
func (p *PlaybackService) ContinueAfterTrackEnd(
	ctx context.Context,
	guildID snowflake.ID,
	reason domain.TrackEndReason,
) {
	session := p.registry.Get(guildID)
	if session == nil {
		return
	}
	if !reason.ShouldContinue() {
		return
	}

	bypassLoop := reason.BypassesLoop()
	suggested := false

	// Bound the walk so a queue of all-failing tracks terminates.
	var bound int
	session.WithLock(func() {
		bound = session.Queue.Len() + 2
	})

	for range bound {
		var next, lastPlayed *domain.Track
		session.WithLock(func() {
			queue := session.Queue
			lastPlayed = queue.NowPlaying()
			if bypassLoop && queue.LoopTrack() {
				queue.SetLoopTrack(false)
				next = queue.Advance()
				queue.SetLoopTrack(true)
			} else {
				next = queue.Advance()
			}
			queue.SetNowPlaying(next)
			session.Paused = false
		})
		bypassLoop = false

		if next == nil {
			var autoplay bool
			session.WithLock(func() {
				autoplay = session.Queue.Autoplay()
			})
			if autoplay && lastPlayed != nil && !suggested {
				suggested = true
				if p.enqueueSuggestion(ctx, session, lastPlayed) {
					continue
				}
			}
			p.goIdle(ctx, session)
			return
		}

		if err := p.startTrack(ctx, session, next); err != nil {
			var resErr *ports.ResolutionError
			if errors.As(err, &resErr) {
				// startTrack already reported the failure; move on.
				continue
			}
			slog.Error("failed to start next track", "guild", guildID, "error", err)
			continue
		}
		return
	}

	slog.Warn("continuation bound exhausted, going idle", "guild", guildID)
	p.goIdle(ctx, session)
}

// startTrack resolves the track's stream and hands it to the audio player.
// Exactly one PlaybackFailedEvent is published when resolution exhausts all
// strategies. A stale result (current track changed while resolving) is
// discarded silently.
func (p *PlaybackService) startTrack(
	ctx context.Context,
	session *domain.Session,
	track *domain.Track,
) error {
	stream, err := p.resolver.Resolve(ctx, track)
	if err != nil {
		reason := string(ports.ResolutionGeneric)
		var resErr *ports.ResolutionError
		if errors.As(err, &resErr) {
			reason = string(resErr.Reason)
		}

		var textChannelID snowflake.ID
		session.WithLock(func() {
			textChannelID = session.TextChannelID
		})
		p.publisher.PublishPlaybackFailed(domain.PlaybackFailedEvent{
			GuildID:       session.GuildID,
			Track:         track,
			Reason:        reason,
			TextChannelID: textChannelID,
		})
		return err
	}

	// Stale-result guard: a stop or skip may have changed the current
	// track while the resolver was working.
	var current *domain.Track
	var volume int
	var textChannelID snowflake.ID
	session.WithLock(func() {
		current = session.Queue.NowPlaying()
		volume = session.Queue.Volume()
		textChannelID = session.TextChannelID
	})
	if !track.SameSource(current) {
		slog.Debug("discarding stale resolution result",
			"guild", session.GuildID,
			"track", track.Title,
		)
		return nil
	}

	if err := p.player.Play(ctx, session.GuildID, stream, volume); err != nil {
		return err
	}

	p.publisher.PublishPlaybackStarted(domain.PlaybackStartedEvent{
		GuildID:       session.GuildID,
		Track:         track,
		TextChannelID: textChannelID,
	})
	return nil
}

// enqueueSuggestion asks the suggester for one track similar to the last
// played one and enqueues it. Returns false when no suggestion is available.
func (p *PlaybackService) enqueueSuggestion(
	ctx context.Context,
	session *domain.Session,
	lastPlayed *domain.Track,
) bool {
	suggestion, err := p.suggester.Suggest(ctx, lastPlayed)
	if err != nil || suggestion == nil {
		if err != nil && !errors.Is(err, ErrNoSuggestion) {
			slog.Warn("autoplay suggestion failed", "guild", session.GuildID, "error", err)
		}
		return false
	}

	var enqueued bool
	session.WithLock(func() {
		enqueued = session.Queue.Enqueue(suggestion) == nil
	})
	if enqueued {
		slog.Info("autoplay enqueued suggestion",
			"guild", session.GuildID,
			"track", suggestion.Title,
			"seed", lastPlayed.Title,
		)
		p.publisher.PublishTrackEnqueued(domain.TrackEnqueuedEvent{
			GuildID: session.GuildID,
			Track:   suggestion,
			WasIdle: true,
		})
	}
	return enqueued
}

// goIdle clears the queue and releases the guild's voice connection.
func (p *PlaybackService) goIdle(ctx context.Context, session *domain.Session) {
	var textChannelID snowflake.ID
	session.WithLock(func() {
		session.Queue.Clear()
		session.Paused = false
		textChannelID = session.TextChannelID
	})

	p.publisher.PublishQueueCleared(domain.QueueClearedEvent{
		GuildID:       session.GuildID,
		TextChannelID: textChannelID,
	})

	if err := p.voice.Leave(ctx, session.GuildID); err != nil {
		slog.Warn("failed to release voice connection",
			"guild", session.GuildID,
			"error", err,
		)
	}
}

// ensureSession returns the guild's session, creating and hydrating it from
// persisted settings when absent. Commands racing the idle reaper always see
// a live session.
func (p *PlaybackService) ensureSession(ctx context.Context, guildID snowflake.ID) *domain.Session {
	if session := p.registry.Get(guildID); session != nil {
		return session
	}

	session := p.registry.GetOrCreate(guildID)
	settings, err := p.settings.GetSettings(ctx, guildID)
	if err != nil {
		slog.Warn("failed to load guild settings", "guild", guildID, "error", err)
		return session
	}
	session.WithLock(func() {
		session.Queue.SetVolume(settings.Volume)
		session.Queue.SetAutoplay(settings.Autoplay)
		session.Queue.SetLoopTrack(settings.LoopTrack)
	})
	return session
}
