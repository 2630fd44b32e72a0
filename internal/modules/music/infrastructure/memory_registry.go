package infrastructure

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

const (
	// reapInterval is how often the idle reaper scans sessions.
	reapInterval = time.Minute

	// idleTimeout is how long an empty session may sit before being reaped.
	idleTimeout = 5 * time.Minute
)

// Compile-time check that MemorySessionRegistry implements domain.SessionRegistry.
var _ domain.SessionRegistry = (*MemorySessionRegistry)(nil)

// MemorySessionRegistry is an in-memory, thread-safe SessionRegistry.
// It runs a background reaper that disconnects and removes sessions that
// have been idle with an empty queue for longer than idleTimeout.
type MemorySessionRegistry struct {
	sessions map[snowflake.ID]*domain.Session
	mu       sync.RWMutex

	voice ports.VoiceGateway
	done  chan struct{}
	once  sync.Once
}

// NewMemorySessionRegistry creates a registry. The voice gateway is used by
// the reaper to release connections of reaped sessions; it may be nil in
// tests.
func NewMemorySessionRegistry(voice ports.VoiceGateway) *MemorySessionRegistry {
	return &MemorySessionRegistry{
		sessions: make(map[snowflake.ID]*domain.Session),
		voice:    voice,
		done:     make(chan struct{}),
	}
}

// GetOrCreate returns the session for the guild, creating it if absent.
func (r *MemorySessionRegistry) GetOrCreate(guildID snowflake.ID) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[guildID]; ok {
		return session
	}

	session := domain.NewSession(guildID)
	r.sessions[guildID] = session
	slog.Debug("created guild session", "guild", guildID)
	return session
}

// Get returns the session for the guild, or nil if absent.
func (r *MemorySessionRegistry) Get(guildID snowflake.ID) *domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[guildID]
}

// Delete removes the session for the guild.
func (r *MemorySessionRegistry) Delete(guildID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, guildID)
}

// All returns a snapshot of every live session.
func (r *MemorySessionRegistry) All() []*domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		out = append(out, session)
	}
	return out
}

// StartReaper launches the idle reaper goroutine. It stops when the context
// is cancelled or Close is called.
func (r *MemorySessionRegistry) StartReaper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(reapInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.done:
				return
			case <-ticker.C:
				r.reapIdle(ctx)
			}
		}
	}()
}

// Close stops the reaper.
func (r *MemorySessionRegistry) Close() {
	r.once.Do(func() {
		close(r.done)
	})
}

// reapIdle removes sessions that have nothing playing, nothing pending, and
// no activity for idleTimeout. The voice connection is released best-effort.
func (r *MemorySessionRegistry) reapIdle(ctx context.Context) {
	cutoff := time.Now().Add(-idleTimeout)

	var reapable []*domain.Session
	for _, session := range r.All() {
		var idle bool
		session.WithLock(func() {
			queue := session.Queue
			idle = queue.NowPlaying() == nil &&
				queue.IsEmpty() &&
				queue.LastActive().Before(cutoff)
		})
		if idle {
			reapable = append(reapable, session)
		}
	}

	for _, session := range reapable {
		slog.Info("reaping idle session", "guild", session.GuildID)
		if r.voice != nil {
			if err := r.voice.Leave(ctx, session.GuildID); err != nil {
				slog.Warn("failed to disconnect reaped session",
					"guild", session.GuildID,
					"error", err,
				)
			}
		}
		r.Delete(session.GuildID)
	}
}
