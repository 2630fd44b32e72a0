package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/jonas747/dca"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// ErrNoVoiceConnection is returned when playback is requested without a
// live voice connection for the guild.
var ErrNoVoiceConnection = errors.New("no voice connection for guild")

// Compile-time check that DCAPlayer implements ports.AudioPlayer.
var _ ports.AudioPlayer = (*DCAPlayer)(nil)

// guildStream is the per-guild encoder/stream pair for an active playback.
type guildStream struct {
	encoder *dca.EncodeSession
	stream  *dca.StreamingSession
	stopped bool
}

// DCAPlayer plays resolved streams into Discord voice connections, encoding
// them to opus with ffmpeg via dca. A TrackEndedEvent is published when a
// stream finishes on its own; explicit stops and replacements are silent.
type DCAPlayer struct {
	gateway   *DiscordVoiceGateway
	publisher ports.EventPublisher

	streams map[snowflake.ID]*guildStream
	mu      sync.Mutex
}

// NewDCAPlayer creates a DCAPlayer.
func NewDCAPlayer(gateway *DiscordVoiceGateway, publisher ports.EventPublisher) *DCAPlayer {
	return &DCAPlayer{
		gateway:   gateway,
		publisher: publisher,
		streams:   make(map[snowflake.ID]*guildStream),
	}
}

// Play starts playback of the stream at the given volume (0-100). Any
// stream already playing for the guild is torn down first.
func (p *DCAPlayer) Play(
	ctx context.Context,
	guildID snowflake.ID,
	stream *ports.StreamHandle,
	volume int,
) error {
	conn := p.gateway.Connection(guildID)
	if conn == nil {
		return ErrNoVoiceConnection
	}

	p.teardown(guildID)

	options := dca.StdEncodeOptions
	options.RawOutput = true
	options.Bitrate = 96
	options.Application = dca.AudioApplicationAudio
	options.Volume = volume * 256 / 100
	options.BufferedFrames = 100

	encoder, err := dca.EncodeFile(stream.URL, options)
	if err != nil {
		return err
	}

	if err := conn.Speaking(true); err != nil {
		slog.Warn("failed to set speaking state", "guild", guildID, "error", err)
	}

	done := make(chan error)
	streaming := dca.NewStream(encoder, conn, done)

	entry := &guildStream{encoder: encoder, stream: streaming}
	p.mu.Lock()
	p.streams[guildID] = entry
	p.mu.Unlock()

	go p.watch(guildID, entry, done)

	slog.Info("playback started",
		"guild", guildID,
		"extractor", stream.Extractor,
		"volume", volume,
	)
	return nil
}

// watch waits for the stream to end and publishes the end event unless the
// stream was stopped or replaced explicitly.
func (p *DCAPlayer) watch(guildID snowflake.ID, entry *guildStream, done chan error) {
	err := <-done

	p.mu.Lock()
	current, active := p.streams[guildID]
	natural := active && current == entry && !entry.stopped
	if natural {
		delete(p.streams, guildID)
	}
	p.mu.Unlock()

	entry.encoder.Cleanup()
	if conn := p.gateway.Connection(guildID); conn != nil {
		if err := conn.Speaking(false); err != nil {
			slog.Debug("failed to clear speaking state", "guild", guildID, "error", err)
		}
	}

	if !natural {
		return
	}
	if err != nil && !errors.Is(err, io.EOF) {
		slog.Warn("stream ended with error", "guild", guildID, "error", err)
	}

	p.publisher.PublishTrackEnded(domain.TrackEndedEvent{
		GuildID: guildID,
		Reason:  domain.TrackEndFinished,
	})
}

// Stop stops the current playback without publishing an end event.
func (p *DCAPlayer) Stop(_ context.Context, guildID snowflake.ID) error {
	p.teardown(guildID)
	return nil
}

// Pause pauses the current playback.
func (p *DCAPlayer) Pause(_ context.Context, guildID snowflake.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry := p.streams[guildID]
	if entry == nil {
		return ErrNoVoiceConnection
	}
	entry.stream.SetPaused(true)
	return nil
}

// Resume resumes the paused playback.
func (p *DCAPlayer) Resume(_ context.Context, guildID snowflake.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry := p.streams[guildID]
	if entry == nil {
		return ErrNoVoiceConnection
	}
	entry.stream.SetPaused(false)
	return nil
}

// IsPlaying reports whether a stream is currently active for the guild.
func (p *DCAPlayer) IsPlaying(guildID snowflake.ID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streams[guildID] != nil
}

// teardown silently kills the guild's active stream, if any. Cleanup makes
// the encoder's done channel fire, which the watcher ignores for stopped
// streams.
func (p *DCAPlayer) teardown(guildID snowflake.ID) {
	p.mu.Lock()
	entry := p.streams[guildID]
	if entry != nil {
		entry.stopped = true
		delete(p.streams, guildID)
	}
	p.mu.Unlock()

	if entry != nil {
		entry.encoder.Cleanup()
	}
}
