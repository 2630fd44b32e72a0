package presentation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/application/usecases"
)

// commandAliases maps shorthand text commands to their canonical names.
var commandAliases = map[string]string{
	"p":    "play",
	"s":    "skip",
	"np":   "nowplaying",
	"q":    "queue",
	"vol":  "volume",
	"prev": "previous",
	"r":    "resume",
	"h":    "history",
	"dc":   "leave",
}

// PrefixRouter dispatches prefixed text commands from regular chat messages.
// The prefix is configurable per guild and defaults to the store's default.
type PrefixRouter struct {
	voice    *usecases.VoiceService
	playback *usecases.PlaybackService
	queue    *usecases.QueueService
	settings ports.SettingsStore
}

// NewPrefixRouter creates a new PrefixRouter.
func NewPrefixRouter(
	voice *usecases.VoiceService,
	playback *usecases.PlaybackService,
	queue *usecases.QueueService,
	settings ports.SettingsStore,
) *PrefixRouter {
	return &PrefixRouter{
		voice:    voice,
		playback: playback,
		queue:    queue,
		settings: settings,
	}
}

// HandleMessage is registered as a discordgo MessageCreate handler.
func (p *PrefixRouter) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	guildID, err := snowflake.Parse(m.GuildID)
	if err != nil {
		return
	}
	userID, err := snowflake.Parse(m.Author.ID)
	if err != nil {
		return
	}
	channelID, err := snowflake.Parse(m.ChannelID)
	if err != nil {
		return
	}

	ctx := context.Background()
	prefix := p.guildPrefix(ctx, guildID)

	name, args, ok := parseCommand(m.Content, prefix)
	if !ok {
		return
	}

	if err := p.settings.LogCommandUsage(ctx, guildID, userID, name); err != nil {
		slog.Debug("failed to log command usage", "command", name, "error", err)
	}

	p.dispatch(ctx, s, m, guildID, userID, channelID, name, args)
}

func (p *PrefixRouter) guildPrefix(ctx context.Context, guildID snowflake.ID) string {
	settings, err := p.settings.GetSettings(ctx, guildID)
	if err != nil || settings.Prefix == "" {
		return "!"
	}
	return settings.Prefix
}

// parseCommand splits a prefixed message into a canonical command name and
// its argument string. Aliases are resolved and matching is
// case-insensitive.
func parseCommand(content, prefix string) (name, args string, ok bool) {
	if !strings.HasPrefix(content, prefix) {
		return "", "", false
	}

	rest := strings.TrimSpace(content[len(prefix):])
	if rest == "" {
		return "", "", false
	}

	name, args, _ = strings.Cut(rest, " ")
	name = strings.ToLower(name)
	if canonical, found := commandAliases[name]; found {
		name = canonical
	}
	return name, strings.TrimSpace(args), true
}

func (p *PrefixRouter) dispatch(
	ctx context.Context,
	s *discordgo.Session,
	m *discordgo.MessageCreate,
	guildID, userID, channelID snowflake.ID,
	name, args string,
) {
	switch name {
	case "play":
		if args == "" {
			p.reply(s, m, "Usage: play <url or search term>", colorError)
			return
		}
		output, err := p.playback.Play(ctx, usecases.PlayInput{
			GuildID:       guildID,
			UserID:        userID,
			TextChannelID: channelID,
			Query:         args,
		})
		if err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		p.replyPlayResult(s, m, output)

	case "skip":
		output, err := p.playback.Skip(ctx, usecases.SkipInput{GuildID: guildID, UserID: userID})
		if err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		if !output.Skipped {
			p.reply(s, m, fmt.Sprintf("Skip vote registered (%d/%d).",
				output.VotesReceived, output.VotesRequired), colorSuccess)
			return
		}
		p.reply(s, m, fmt.Sprintf("Skipped **%s**.", output.SkippedTrack.Title), colorSuccess)

	case "stop":
		if err := p.playback.Stop(ctx, guildID); err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		p.reply(s, m, "Stopped playback and cleared the queue.", colorSuccess)

	case "pause":
		if err := p.playback.Pause(ctx, guildID); err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		p.reply(s, m, "Paused playback.", colorSuccess)

	case "resume":
		if err := p.playback.Resume(ctx, guildID); err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		p.reply(s, m, "Resumed playback.", colorSuccess)

	case "previous":
		track, err := p.playback.Previous(ctx, guildID)
		if err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		p.reply(s, m, fmt.Sprintf("Replaying **%s**.", track.Title), colorSuccess)

	case "nowplaying":
		output, err := p.playback.NowPlaying(guildID)
		if err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		p.reply(s, m, fmt.Sprintf("Now playing [%s](%s).",
			output.Track.Title, output.Track.SourceURL), colorSuccess)

	case "queue":
		page := 1
		if args != "" {
			if parsed, err := strconv.Atoi(args); err == nil {
				page = parsed
			}
		}
		output, err := p.queue.List(ctx, usecases.QueueListInput{GuildID: guildID, Page: page})
		if err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		p.replyQueueList(s, m, output)

	case "volume":
		level, err := strconv.Atoi(args)
		if err != nil {
			p.reply(s, m, "Usage: volume <0-100>", colorError)
			return
		}
		if err := p.playback.SetVolume(ctx, guildID, level); err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		p.reply(s, m, fmt.Sprintf("Volume set to %d%%.", level), colorSuccess)

	case "loop":
		enabled := strings.EqualFold(args, "on") || strings.EqualFold(args, "true")
		if err := p.playback.SetLoopTrack(ctx, guildID, enabled); err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		if enabled {
			p.reply(s, m, "Now looping the current track.", colorSuccess)
		} else {
			p.reply(s, m, "Loop disabled.", colorSuccess)
		}

	case "autoplay":
		enabled, err := p.playback.ToggleAutoplay(ctx, guildID)
		if err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		if enabled {
			p.reply(s, m, "Autoplay enabled.", colorSuccess)
		} else {
			p.reply(s, m, "Autoplay disabled.", colorSuccess)
		}

	case "shuffle":
		count, err := p.queue.Shuffle(ctx, guildID)
		if err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		p.reply(s, m, fmt.Sprintf("Shuffled %d tracks.", count), colorSuccess)

	case "clear":
		count, err := p.queue.Clear(ctx, guildID)
		if err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		p.reply(s, m, fmt.Sprintf("Cleared %d tracks from the queue.", count), colorSuccess)

	case "history":
		history, err := p.queue.History(ctx, guildID)
		if err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		if len(history) == 0 {
			p.reply(s, m, "Nothing has been played yet.", colorSuccess)
			return
		}
		var sb strings.Builder
		for n, track := range history {
			fmt.Fprintf(&sb, "`%d.` [%s](%s)\n", n+1, track.Title, track.SourceURL)
		}
		p.reply(s, m, sb.String(), colorSuccess)

	case "join":
		joined, err := p.voice.Join(ctx, usecases.JoinInput{
			GuildID:       guildID,
			UserID:        userID,
			TextChannelID: channelID,
		})
		if err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		p.reply(s, m, fmt.Sprintf("Connected to <#%d>.", joined), colorSuccess)

	case "leave":
		if err := p.voice.Leave(ctx, guildID); err != nil {
			p.reply(s, m, err.Error(), colorError)
			return
		}
		p.reply(s, m, "Disconnected.", colorSuccess)
	}
}

func (p *PrefixRouter) replyPlayResult(
	s *discordgo.Session,
	m *discordgo.MessageCreate,
	output *usecases.PlayOutput,
) {
	switch {
	case len(output.Tracks) > 1:
		p.reply(s, m, fmt.Sprintf("Added **%d** tracks to the queue.", len(output.Tracks)), colorSuccess)
	case output.Started:
		track := output.Tracks[0]
		p.reply(s, m, fmt.Sprintf("Playing [%s](%s).", track.Title, track.SourceURL), colorSuccess)
	default:
		track := output.Tracks[0]
		p.reply(s, m, fmt.Sprintf("Added [%s](%s) to the queue.", track.Title, track.SourceURL), colorSuccess)
	}
}

func (p *PrefixRouter) replyQueueList(
	s *discordgo.Session,
	m *discordgo.MessageCreate,
	output *usecases.QueueListOutput,
) {
	var sb strings.Builder
	if output.CurrentTrack != nil {
		fmt.Fprintf(&sb, "**Now playing:** [%s](%s)\n\n",
			output.CurrentTrack.Title, output.CurrentTrack.SourceURL)
	}
	if output.TotalTracks == 0 {
		sb.WriteString("The queue is empty.")
	} else {
		offset := (output.CurrentPage - 1) * usecases.DefaultPageSize
		for n, track := range output.Tracks {
			fmt.Fprintf(&sb, "`%d.` [%s](%s)\n", offset+n+1, track.Title, track.SourceURL)
		}
	}
	p.reply(s, m, sb.String(), colorSuccess)
}

func (p *PrefixRouter) reply(
	s *discordgo.Session,
	m *discordgo.MessageCreate,
	description string,
	color int,
) {
	_, err := s.ChannelMessageSendEmbed(m.ChannelID, &discordgo.MessageEmbed{
		Description: description,
		Color:       color,
	})
	if err != nil {
		slog.Error("failed to send text command response", "error", err)
	}
}
