package music

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"

	"github.com/sglre6355/groovebox/internal/bot"
	"github.com/sglre6355/groovebox/internal/modules/music/application/events"
	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/application/usecases"
	"github.com/sglre6355/groovebox/internal/modules/music/infrastructure"
	"github.com/sglre6355/groovebox/internal/modules/music/presentation"
)

func init() {
	bot.Register(&MusicModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*MusicModule)(nil)

// MusicModule provides music playback commands.
type MusicModule struct {
	config   *Config
	handlers *presentation.Handlers
	prefix   *presentation.PrefixRouter

	eventBus *events.Bus
	registry *infrastructure.MemorySessionRegistry
	store    *infrastructure.SQLiteStore

	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *MusicModule) Name() string {
	return "music"
}

// Commands returns the slash commands for this module.
func (m *MusicModule) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"join":       m.handlers.HandleJoin,
		"leave":      m.handlers.HandleLeave,
		"play":       m.handlers.HandlePlay,
		"stop":       m.handlers.HandleStop,
		"pause":      m.handlers.HandlePause,
		"resume":     m.handlers.HandleResume,
		"skip":       m.handlers.HandleSkip,
		"previous":   m.handlers.HandlePrevious,
		"nowplaying": m.handlers.HandleNowPlaying,
		"queue":      m.handlers.HandleQueue,
		"volume":     m.handlers.HandleVolume,
		"loop":       m.handlers.HandleLoop,
		"autoplay":   m.handlers.HandleAutoplay,
		"setprefix":  m.handlers.HandleSetPrefix,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.MessageCreate) {
			m.prefix.HandleMessage(s, event)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicModule) Init(deps bot.ModuleDependencies) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.eventBus = events.NewBus(events.DefaultEventBufferSize)

	store, err := infrastructure.NewSQLiteStore(m.config.DatabasePath)
	if err != nil {
		return err
	}
	m.store = store

	gateway := infrastructure.NewDiscordVoiceGateway(deps.Session)
	voiceState := infrastructure.NewDiscordVoiceStateProvider(deps.Session)
	player := infrastructure.NewDCAPlayer(gateway, m.eventBus)
	notifier := infrastructure.NewDiscordNotifier(deps.Session)

	m.registry = infrastructure.NewMemorySessionRegistry(gateway)
	m.registry.StartReaper(m.ctx)

	ytdlpExtractor := infrastructure.NewYtdlpExtractor()
	searcher := infrastructure.NewYoutubeSearcher()
	resolver := infrastructure.NewChainResolver(
		[]ports.Extractor{
			infrastructure.NewYoutubeExtractor(),
			ytdlpExtractor,
		},
		searcher,
	)

	var spotify *infrastructure.SpotifySource
	if m.config.SpotifyClientID != "" && m.config.SpotifyClientSecret != "" {
		spotify, err = infrastructure.NewSpotifySource(
			m.ctx,
			m.config.SpotifyClientID,
			m.config.SpotifyClientSecret,
		)
		if err != nil {
			return err
		}
		slog.Info("spotify source enabled")
	} else {
		slog.Info("spotify credentials not configured, spotify links disabled")
	}

	loader := infrastructure.NewMultiSourceLoader(ytdlpExtractor, spotify, searcher)
	suggester := infrastructure.NewMusicSuggester()

	voiceService := usecases.NewVoiceService(m.registry, gateway, voiceState, player)
	playbackService := usecases.NewPlaybackService(
		m.registry,
		loader,
		resolver,
		suggester,
		player,
		gateway,
		voiceState,
		store,
		m.eventBus,
	)
	queueService := usecases.NewQueueService(m.registry)

	playbackHandler := events.NewPlaybackEventHandler(playbackService)
	notificationHandler := events.NewNotificationEventHandler(m.registry, notifier)
	go playbackHandler.Run(m.ctx, m.eventBus)
	go notificationHandler.Run(m.ctx, m.eventBus)

	m.handlers = presentation.NewHandlers(voiceService, playbackService, queueService, store)
	m.prefix = presentation.NewPrefixRouter(voiceService, playbackService, queueService, store)

	slog.Info("music module initialized")

	return nil
}

// Shutdown cleans up module resources.
func (m *MusicModule) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.eventBus != nil {
		m.eventBus.Close()
	}
	if m.registry != nil {
		m.registry.Close()
	}
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}
