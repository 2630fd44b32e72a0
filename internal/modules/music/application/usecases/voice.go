package usecases

import (
	"context"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID       snowflake.ID
	UserID        snowflake.ID
	TextChannelID snowflake.ID
	// VoiceChannelID is optional; the user's current channel is used
	// when zero.
	VoiceChannelID snowflake.ID
}

// VoiceService handles joining and leaving voice channels.
type VoiceService struct {
	registry   domain.SessionRegistry
	voice      ports.VoiceGateway
	voiceState ports.VoiceStateProvider
	player     ports.AudioPlayer
}

// NewVoiceService creates a new VoiceService.
func NewVoiceService(
	registry domain.SessionRegistry,
	voice ports.VoiceGateway,
	voiceState ports.VoiceStateProvider,
	player ports.AudioPlayer,
) *VoiceService {
	return &VoiceService{
		registry:   registry,
		voice:      voice,
		voiceState: voiceState,
		player:     player,
	}
}

// Join connects the bot to a voice channel and returns the channel joined.
func (v *VoiceService) Join(ctx context.Context, input JoinInput) (snowflake.ID, error) {
	channelID := input.VoiceChannelID
	if channelID == 0 {
		userChannel, err := v.voiceState.UserVoiceChannel(input.GuildID, input.UserID)
		if err != nil || userChannel == nil {
			return 0, ErrUserNotInVoice
		}
		channelID = *userChannel
	}

	if err := v.voice.Join(ctx, input.GuildID, channelID); err != nil {
		return 0, ErrJoinFailed
	}

	session := v.registry.GetOrCreate(input.GuildID)
	session.WithLock(func() {
		session.VoiceChannelID = channelID
		if input.TextChannelID != 0 {
			session.TextChannelID = input.TextChannelID
		}
	})

	return channelID, nil
}

// Leave stops playback and disconnects the bot from the guild's voice
// channel. The session is removed from the registry.
func (v *VoiceService) Leave(ctx context.Context, guildID snowflake.ID) error {
	session := v.registry.Get(guildID)
	if session == nil {
		return ErrNotConnected
	}

	if err := v.player.Stop(ctx, guildID); err != nil {
		slog.Warn("failed to stop player on leave", "guild", guildID, "error", err)
	}
	if err := v.voice.Leave(ctx, guildID); err != nil {
		slog.Warn("failed to disconnect voice", "guild", guildID, "error", err)
	}
	v.registry.Delete(guildID)

	return nil
}
