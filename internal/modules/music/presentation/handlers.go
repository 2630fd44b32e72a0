package presentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebox/internal/bot"
	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/application/usecases"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// maxPrefixLength bounds custom text command prefixes.
const maxPrefixLength = 5

// Handlers holds all the command handlers.
type Handlers struct {
	voice    *usecases.VoiceService
	playback *usecases.PlaybackService
	queue    *usecases.QueueService
	settings ports.SettingsStore
}

// NewHandlers creates new Handlers.
func NewHandlers(
	voice *usecases.VoiceService,
	playback *usecases.PlaybackService,
	queue *usecases.QueueService,
	settings ports.SettingsStore,
) *Handlers {
	return &Handlers{
		voice:    voice,
		playback: playback,
		queue:    queue,
		settings: settings,
	}
}

// HandleJoin handles the /join command.
func (h *Handlers) HandleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "join")

	var voiceChannelID snowflake.ID
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "channel" {
			voiceChannelID, _ = snowflake.Parse(opt.ChannelValue(s).ID)
		}
	}

	channelID, err := h.voice.Join(context.Background(), usecases.JoinInput{
		GuildID:        ids.guildID,
		UserID:         ids.userID,
		TextChannelID:  ids.channelID,
		VoiceChannelID: voiceChannelID,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, fmt.Sprintf("Connected to <#%d>.", channelID))
}

// HandleLeave handles the /leave command.
func (h *Handlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "leave")

	if err := h.voice.Leave(context.Background(), ids.guildID); err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, "Disconnected.")
}

// HandlePlay handles the /play command.
func (h *Handlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "play")

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	output, err := h.playback.Play(context.Background(), usecases.PlayInput{
		GuildID:       ids.guildID,
		UserID:        ids.userID,
		TextChannelID: ids.channelID,
		Query:         query,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondPlayResult(r, output)
}

// HandleStop handles the /stop command.
func (h *Handlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "stop")

	if err := h.playback.Stop(context.Background(), ids.guildID); err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, "Stopped playback and cleared the queue.")
}

// HandlePause handles the /pause command.
func (h *Handlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "pause")

	if err := h.playback.Pause(context.Background(), ids.guildID); err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, "Paused playback.")
}

// HandleResume handles the /resume command.
func (h *Handlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "resume")

	if err := h.playback.Resume(context.Background(), ids.guildID); err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, "Resumed playback.")
}

// HandleSkip handles the /skip command. The requester of the current track
// and members with channel-management permission skip immediately; everyone
// else casts a majority vote.
func (h *Handlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "skip")
	ctx := context.Background()

	force := canForceSkip(i)
	if !force {
		if current, err := h.playback.NowPlaying(ids.guildID); err == nil &&
			current.Track.RequestedBy == ids.userID {
			force = true
		}
	}

	output, err := h.playback.Skip(ctx, usecases.SkipInput{
		GuildID: ids.guildID,
		UserID:  ids.userID,
		Force:   force,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	if !output.Skipped {
		return respondSuccess(r, fmt.Sprintf(
			"Skip vote registered (%d/%d).",
			output.VotesReceived, output.VotesRequired,
		))
	}
	return respondSuccess(r, fmt.Sprintf("Skipped **%s**.", output.SkippedTrack.Title))
}

// HandlePrevious handles the /previous command.
func (h *Handlers) HandlePrevious(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "previous")

	track, err := h.playback.Previous(context.Background(), ids.guildID)
	if err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, fmt.Sprintf("Replaying **%s**.", track.Title))
}

// HandleNowPlaying handles the /nowplaying command.
func (h *Handlers) HandleNowPlaying(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "nowplaying")

	output, err := h.playback.NowPlaying(ids.guildID)
	if err != nil {
		return respondError(r, err.Error())
	}
	return respondNowPlaying(r, output)
}

// HandleQueue handles the /queue command.
func (h *Handlers) HandleQueue(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondError(r, "Invalid subcommand")
	}

	subCmd := options[0]
	switch subCmd.Name {
	case "list":
		return h.handleQueueList(i, r, subCmd.Options)
	case "remove":
		return h.handleQueueRemove(i, r, subCmd.Options)
	case "clear":
		return h.handleQueueClear(i, r)
	case "shuffle":
		return h.handleQueueShuffle(i, r)
	case "history":
		return h.handleQueueHistory(i, r)
	default:
		return respondError(r, "Unknown subcommand")
	}
}

func (h *Handlers) handleQueueList(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "queue list")

	page := 1
	for _, opt := range options {
		if opt.Name == "page" {
			page = int(opt.IntValue())
		}
	}

	output, err := h.queue.List(context.Background(), usecases.QueueListInput{
		GuildID: ids.guildID,
		Page:    page,
	})
	if err != nil {
		return respondError(r, err.Error())
	}
	return respondQueueList(r, output)
}

func (h *Handlers) handleQueueRemove(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "queue remove")

	var position int
	for _, opt := range options {
		if opt.Name == "position" {
			position = int(opt.IntValue())
		}
	}

	removed, err := h.queue.Remove(context.Background(), usecases.QueueRemoveInput{
		GuildID:  ids.guildID,
		Position: position,
	})
	if err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, fmt.Sprintf("Removed **%s** from the queue.", removed.Title))
}

func (h *Handlers) handleQueueClear(i *discordgo.InteractionCreate, r bot.Responder) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "queue clear")

	count, err := h.queue.Clear(context.Background(), ids.guildID)
	if err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, fmt.Sprintf("Cleared %d tracks from the queue.", count))
}

func (h *Handlers) handleQueueShuffle(i *discordgo.InteractionCreate, r bot.Responder) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "queue shuffle")

	count, err := h.queue.Shuffle(context.Background(), ids.guildID)
	if err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, fmt.Sprintf("Shuffled %d tracks.", count))
}

func (h *Handlers) handleQueueHistory(i *discordgo.InteractionCreate, r bot.Responder) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "queue history")

	history, err := h.queue.History(context.Background(), ids.guildID)
	if err != nil {
		return respondError(r, err.Error())
	}
	return respondHistory(r, history)
}

// HandleVolume handles the /volume command.
func (h *Handlers) HandleVolume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "volume")

	var level int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "level" {
			level = int(opt.IntValue())
		}
	}

	if err := h.playback.SetVolume(context.Background(), ids.guildID, level); err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, fmt.Sprintf("Volume set to %d%%. Applies from the next track.", level))
}

// HandleLoop handles the /loop command.
func (h *Handlers) HandleLoop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "loop")

	var enabled bool
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "enabled" {
			enabled = opt.BoolValue()
		}
	}

	if err := h.playback.SetLoopTrack(context.Background(), ids.guildID, enabled); err != nil {
		return respondError(r, err.Error())
	}
	if enabled {
		return respondSuccess(r, "Now looping the current track.")
	}
	return respondSuccess(r, "Loop disabled.")
}

// HandleAutoplay handles the /autoplay command.
func (h *Handlers) HandleAutoplay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "autoplay")

	enabled, err := h.playback.ToggleAutoplay(context.Background(), ids.guildID)
	if err != nil {
		return respondError(r, err.Error())
	}
	if enabled {
		return respondSuccess(r, "Autoplay enabled. Similar tracks will play when the queue runs out.")
	}
	return respondSuccess(r, "Autoplay disabled.")
}

// HandleSetPrefix handles the /setprefix command.
func (h *Handlers) HandleSetPrefix(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := interactionIDs(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	h.logUsage(ids, "setprefix")

	var prefix string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "prefix" {
			prefix = strings.TrimSpace(opt.StringValue())
		}
	}
	if prefix == "" || len(prefix) > maxPrefixLength {
		return respondError(r, usecases.ErrPrefixTooLong.Error())
	}

	if err := h.settings.UpdatePrefix(context.Background(), ids.guildID, prefix); err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, fmt.Sprintf("Text command prefix set to `%s`.", prefix))
}

// ids extracted from an interaction.
type interactionContext struct {
	guildID   snowflake.ID
	userID    snowflake.ID
	channelID snowflake.ID
}

var errNotInGuild = errors.New("this command only works in a server")

func interactionIDs(i *discordgo.InteractionCreate) (interactionContext, error) {
	if i.GuildID == "" || i.Member == nil {
		return interactionContext{}, errNotInGuild
	}

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return interactionContext{}, errNotInGuild
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return interactionContext{}, errNotInGuild
	}
	channelID, _ := snowflake.Parse(i.ChannelID)

	return interactionContext{guildID: guildID, userID: userID, channelID: channelID}, nil
}

// canForceSkip reports whether the member may bypass skip voting by
// permission.
func canForceSkip(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionManageChannels != 0
}

func (h *Handlers) logUsage(ids interactionContext, command string) {
	if h.settings == nil {
		return
	}
	if err := h.settings.LogCommandUsage(context.Background(), ids.guildID, ids.userID, command); err != nil {
		slog.Debug("failed to log command usage", "command", command, "error", err)
	}
}

// Response helpers.

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

func respondSuccess(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: message,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func respondPlayResult(r bot.Responder, output *usecases.PlayOutput) error {
	var description string
	switch {
	case len(output.Tracks) > 1:
		description = fmt.Sprintf("Added **%d** tracks to the queue.", len(output.Tracks))
	case output.Started:
		track := output.Tracks[0]
		description = fmt.Sprintf("Playing [%s](%s).", track.Title, track.SourceURL)
	default:
		track := output.Tracks[0]
		description = fmt.Sprintf("Added [%s](%s) to the queue.", track.Title, track.SourceURL)
	}

	return respondSuccess(r, description)
}

func respondNowPlaying(r bot.Responder, output *usecases.NowPlayingOutput) error {
	track := output.Track

	status := "Playing"
	if output.Paused {
		status = "Paused"
	}

	flags := make([]string, 0, 2)
	if output.LoopTrack {
		flags = append(flags, "loop")
	}
	if output.Autoplay {
		flags = append(flags, "autoplay")
	}
	footer := fmt.Sprintf("%s | volume %d%% | %d queued", status, output.Volume, output.Pending)
	if len(flags) > 0 {
		footer += " | " + strings.Join(flags, ", ")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Now Playing",
		Description: fmt.Sprintf("[%s](%s)", track.Title, track.SourceURL),
		Color:       colorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: orDash(track.Author), Inline: true},
			{Name: "Duration", Value: track.FormattedDuration(), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: footer},
	}
	if track.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.ThumbnailURL}
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func respondQueueList(r bot.Responder, output *usecases.QueueListOutput) error {
	embed := &discordgo.MessageEmbed{Title: "Queue"}

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
			fmt.Fprintf(&sb, "`%d.` [%s](%s) `%s`\n",
				offset+n+1, track.Title, track.SourceURL, track.FormattedDuration())
		}
	}

	embed.Description = sb.String()
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Page %d/%d | %d tracks", output.CurrentPage, output.TotalPages, output.TotalTracks),
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func respondHistory(r bot.Responder, history []*domain.Track) error {
	embed := &discordgo.MessageEmbed{Title: "Recently Played"}

	if len(history) == 0 {
		embed.Description = "Nothing has been played yet."
	} else {
		var sb strings.Builder
		for n, track := range history {
			fmt.Fprintf(&sb, "`%d.` [%s](%s)\n", n+1, track.Title, track.SourceURL)
		}
		embed.Description = sb.String()
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
