package health

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"

	"github.com/sglre6355/groovebox/internal/bot"
)

func init() {
	bot.Register(&HealthModule{})
}

var _ bot.ConfigurableModule = (*HealthModule)(nil)

// HealthModule exposes a /ping command and an HTTP liveness endpoint.
type HealthModule struct {
	config *Config
	server *Server
}

// Name returns the module name.
func (m *HealthModule) Name() string {
	return "health"
}

// Commands returns the slash commands for this module.
func (m *HealthModule) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Check the bot's responsiveness",
		},
	}
}

// CommandHandlers returns the command handlers for this module.
func (m *HealthModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"ping": m.handlePing,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *HealthModule) EventHandlers() []bot.EventHandler {
	return nil
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *HealthModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *HealthModule) Init(_ bot.ModuleDependencies) error {
	if m.config.Addr == "" {
		return nil
	}
	m.server = NewServer(m.config.Addr)
	m.server.Start()
	return nil
}

// Shutdown cleans up module resources.
func (m *HealthModule) Shutdown() error {
	if m.server != nil {
		return m.server.Stop()
	}
	return nil
}

func (m *HealthModule) handlePing(
	s *discordgo.Session,
	_ *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	latency := s.HeartbeatLatency().Round(time.Millisecond)

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("Pong! Gateway latency: %s", latency),
		},
	})
}
