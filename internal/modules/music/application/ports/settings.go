package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// GuildSettings is the per-guild persisted configuration row.
type GuildSettings struct {
	GuildID   snowflake.ID
	Prefix    string
	Volume    int
	Autoplay  bool
	LoopTrack bool
}

// SettingsStore persists per-guild settings and the command usage log.
// Rows are created with defaults on first access.
type SettingsStore interface {
	// GetSettings returns the guild's settings, creating the row with
	// defaults if it does not exist.
	GetSettings(ctx context.Context, guildID snowflake.ID) (*GuildSettings, error)

	// UpdatePrefix sets the guild's command prefix.
	UpdatePrefix(ctx context.Context, guildID snowflake.ID, prefix string) error

	// UpdateVolume persists the guild's default volume.
	UpdateVolume(ctx context.Context, guildID snowflake.ID, volume int) error

	// UpdateAutoplay persists the guild's autoplay toggle.
	UpdateAutoplay(ctx context.Context, guildID snowflake.ID, enabled bool) error

	// UpdateLoopMode persists the guild's loop toggle.
	UpdateLoopMode(ctx context.Context, guildID snowflake.ID, loopTrack bool) error

	// LogCommandUsage appends a usage record. Fire-and-forget: callers
	// ignore the error beyond logging it.
	LogCommandUsage(ctx context.Context, guildID, userID snowflake.ID, command string) error
}
