package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

const embedColor = 0x5865F2

// Compile-time check that DiscordNotifier implements ports.Notifier.
var _ ports.Notifier = (*DiscordNotifier)(nil)

// DiscordNotifier posts playback announcements as embeds.
type DiscordNotifier struct {
	session *discordgo.Session
}

// NewDiscordNotifier creates a DiscordNotifier.
func NewDiscordNotifier(session *discordgo.Session) *DiscordNotifier {
	return &DiscordNotifier{session: session}
}

// SendNowPlaying sends a now-playing embed and returns the message ID.
func (n *DiscordNotifier) SendNowPlaying(channelID snowflake.ID, track *domain.Track) (snowflake.ID, error) {
	embed := &discordgo.MessageEmbed{
		Title:       "Now Playing",
		Description: fmt.Sprintf("[%s](%s)", track.Title, track.SourceURL),
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: valueOrDash(track.Author), Inline: true},
			{Name: "Duration", Value: track.FormattedDuration(), Inline: true},
		},
	}
	if track.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.ThumbnailURL}
	}
	if track.RequestedBy != 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Requested by user %s", track.RequestedBy),
		}
	}

	message, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	if err != nil {
		return 0, fmt.Errorf("failed to send now-playing embed: %w", err)
	}
	return snowflake.Parse(message.ID)
}

// SendTrackFailed reports a track that could not be resolved.
func (n *DiscordNotifier) SendTrackFailed(channelID snowflake.ID, track *domain.Track, reason string) error {
	var detail string
	switch ports.ResolutionFailure(reason) {
	case ports.ResolutionBlocked:
		detail = "The platform refused to serve this track."
	case ports.ResolutionNoStream:
		detail = "No playable audio stream was found for this track."
	default:
		detail = "The track could not be played."
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Skipping track",
		Description: fmt.Sprintf("**%s**\n%s", track.Title, detail),
		Color:       0xED4245,
	}
	if _, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed); err != nil {
		return fmt.Errorf("failed to send failure embed: %w", err)
	}
	return nil
}

// DeleteMessage deletes a previously sent message.
func (n *DiscordNotifier) DeleteMessage(channelID, messageID snowflake.ID) error {
	return n.session.ChannelMessageDelete(channelID.String(), messageID.String())
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
