package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceGateway defines the interface for voice channel connection operations.
type VoiceGateway interface {
	// Join connects the bot to the specified voice channel.
	Join(ctx context.Context, guildID, channelID snowflake.ID) error

	// Leave disconnects the bot from the guild's voice channel.
	// Best-effort: teardown failures are logged, not returned.
	Leave(ctx context.Context, guildID snowflake.ID) error
}

// VoiceStateProvider defines the interface for reading Discord voice state.
type VoiceStateProvider interface {
	// UserVoiceChannel returns the voice channel the user is currently in,
	// or nil if the user is not in a voice channel.
	UserVoiceChannel(guildID, userID snowflake.ID) (*snowflake.ID, error)

	// HumanOccupancy returns the number of non-bot members in the channel.
	HumanOccupancy(guildID, channelID snowflake.ID) (int, error)
}
