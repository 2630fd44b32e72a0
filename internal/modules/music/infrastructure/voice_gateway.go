package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/retry"
)

// Compile-time check that DiscordVoiceGateway implements ports.VoiceGateway.
var _ ports.VoiceGateway = (*DiscordVoiceGateway)(nil)

// DiscordVoiceGateway manages the bot's voice connections through the
// Discord gateway.
type DiscordVoiceGateway struct {
	session     *discordgo.Session
	connections map[snowflake.ID]*discordgo.VoiceConnection
	mu          sync.Mutex
}

// NewDiscordVoiceGateway creates a DiscordVoiceGateway.
func NewDiscordVoiceGateway(session *discordgo.Session) *DiscordVoiceGateway {
	return &DiscordVoiceGateway{
		session:     session,
		connections: make(map[snowflake.ID]*discordgo.VoiceConnection),
	}
}

// Join connects the bot to the voice channel. The handshake is retried a few
// times; Discord occasionally drops the first attempt after a region change.
func (g *DiscordVoiceGateway) Join(ctx context.Context, guildID, channelID snowflake.ID) error {
	g.mu.Lock()
	existing := g.connections[guildID]
	g.mu.Unlock()
	if existing != nil && existing.ChannelID == channelID.String() {
		return nil
	}

	var conn *discordgo.VoiceConnection
	err := retry.Do(ctx, retry.DefaultPolicy, func(_ context.Context) error {
		c, err := g.session.ChannelVoiceJoin(guildID.String(), channelID.String(), false, true)
		if err != nil {
			return fmt.Errorf("voice handshake failed: %w", err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.connections[guildID] = conn
	g.mu.Unlock()

	slog.Info("joined voice channel", "guild", guildID, "channel", channelID)
	return nil
}

// Leave disconnects the bot from the guild's voice channel.
func (g *DiscordVoiceGateway) Leave(_ context.Context, guildID snowflake.ID) error {
	g.mu.Lock()
	conn := g.connections[guildID]
	delete(g.connections, guildID)
	g.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Disconnect(); err != nil {
		return fmt.Errorf("voice disconnect failed: %w", err)
	}
	slog.Info("left voice channel", "guild", guildID)
	return nil
}

// Connection returns the live voice connection for the guild, or nil.
func (g *DiscordVoiceGateway) Connection(guildID snowflake.ID) *discordgo.VoiceConnection {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connections[guildID]
}

// Compile-time check that DiscordVoiceStateProvider implements ports.VoiceStateProvider.
var _ ports.VoiceStateProvider = (*DiscordVoiceStateProvider)(nil)

// DiscordVoiceStateProvider reads voice state from the gateway's state cache.
type DiscordVoiceStateProvider struct {
	session *discordgo.Session
}

// NewDiscordVoiceStateProvider creates a DiscordVoiceStateProvider.
func NewDiscordVoiceStateProvider(session *discordgo.Session) *DiscordVoiceStateProvider {
	return &DiscordVoiceStateProvider{session: session}
}

// UserVoiceChannel returns the voice channel the user is in, or nil.
func (p *DiscordVoiceStateProvider) UserVoiceChannel(guildID, userID snowflake.ID) (*snowflake.ID, error) {
	guild, err := p.session.State.Guild(guildID.String())
	if err != nil {
		return nil, fmt.Errorf("guild not in state cache: %w", err)
	}

	for _, state := range guild.VoiceStates {
		if state.UserID != userID.String() {
			continue
		}
		channelID, err := snowflake.Parse(state.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("invalid channel id in voice state: %w", err)
		}
		return &channelID, nil
	}
	return nil, nil
}

// HumanOccupancy returns the number of non-bot members in the channel.
func (p *DiscordVoiceStateProvider) HumanOccupancy(guildID, channelID snowflake.ID) (int, error) {
	guild, err := p.session.State.Guild(guildID.String())
	if err != nil {
		return 0, fmt.Errorf("guild not in state cache: %w", err)
	}

	count := 0
	for _, state := range guild.VoiceStates {
		if state.ChannelID != channelID.String() {
			continue
		}
		member, err := p.session.State.Member(guildID.String(), state.UserID)
		if err == nil && member.User != nil && member.User.Bot {
			continue
		}
		count++
	}
	return count, nil
}
