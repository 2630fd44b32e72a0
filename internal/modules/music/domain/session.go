package domain

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// Session holds everything the bot tracks for a single guild: the queue,
// the channels it is bound to, and a mutex serializing mutations so that
// near-simultaneous commands for the same guild cannot interleave.
type Session struct {
	GuildID        snowflake.ID
	VoiceChannelID snowflake.ID
	TextChannelID  snowflake.ID
	Queue          *GuildQueue

	// Paused reports whether playback is currently paused.
	Paused bool

	// NowPlayingChannelID and NowPlayingMessageID locate the most recent
	// now-playing announcement so it can be removed when playback stops.
	NowPlayingChannelID snowflake.ID
	NowPlayingMessageID snowflake.ID

	mu sync.Mutex
}

// NewSession creates a Session with an empty queue.
func NewSession(guildID snowflake.ID) *Session {
	return &Session{
		GuildID: guildID,
		Queue:   NewGuildQueue(),
	}
}

// WithLock runs fn while holding the session's mutation lock.
// Blocking I/O must not be performed inside fn.
func (s *Session) WithLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// SessionRegistry stores the one-session-per-guild mapping. Sessions are
// created lazily on first access and removed on explicit stop/leave or by
// the idle reaper; callers must tolerate a session disappearing between
// commands and transparently recreate it.
type SessionRegistry interface {
	// GetOrCreate returns the session for the guild, creating it if absent.
	GetOrCreate(guildID snowflake.ID) *Session

	// Get returns the session for the guild, or nil if absent.
	Get(guildID snowflake.ID) *Session

	// Delete removes the session for the guild.
	Delete(guildID snowflake.ID)

	// All returns a snapshot of every live session.
	All() []*Session
}
