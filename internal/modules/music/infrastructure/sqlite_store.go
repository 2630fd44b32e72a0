package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// DefaultPrefix is the command prefix assigned to new guilds.
const DefaultPrefix = "!"

// Compile-time check that SQLiteStore implements ports.SettingsStore.
var _ ports.SettingsStore = (*SQLiteStore)(nil)

// SQLiteStore persists guild settings and the command usage log in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and creates if necessary) the database at path.
// Pass ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	if path == ":memory:" {
		dsn = path
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id   TEXT PRIMARY KEY,
			prefix     TEXT NOT NULL,
			volume     INTEGER NOT NULL,
			autoplay   INTEGER NOT NULL DEFAULT 0,
			loop_track INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS command_usage (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id   TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			command    TEXT NOT NULL,
			used_at    TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_command_usage_guild ON command_usage (guild_id, used_at)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetSettings returns the guild's settings, creating the row with defaults
// if it does not exist.
func (s *SQLiteStore) GetSettings(ctx context.Context, guildID snowflake.ID) (*ports.GuildSettings, error) {
	settings := &ports.GuildSettings{GuildID: guildID}

	var autoplay, loopTrack int
	err := s.db.QueryRowContext(ctx,
		`SELECT prefix, volume, autoplay, loop_track FROM guild_settings WHERE guild_id = ?`,
		guildID.String(),
	).Scan(&settings.Prefix, &settings.Volume, &autoplay, &loopTrack)

	switch {
	case err == sql.ErrNoRows:
		settings.Prefix = DefaultPrefix
		settings.Volume = domain.DefaultVolume
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO guild_settings (guild_id, prefix, volume, autoplay, loop_track, updated_at)
			 VALUES (?, ?, ?, 0, 0, ?)`,
			guildID.String(), settings.Prefix, settings.Volume, time.Now().UTC(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create settings row: %w", err)
		}
		return settings, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	settings.Autoplay = autoplay != 0
	settings.LoopTrack = loopTrack != 0
	return settings, nil
}

// UpdatePrefix sets the guild's command prefix.
func (s *SQLiteStore) UpdatePrefix(ctx context.Context, guildID snowflake.ID, prefix string) error {
	return s.updateColumn(ctx, guildID, "prefix", prefix)
}

// UpdateVolume persists the guild's default volume.
func (s *SQLiteStore) UpdateVolume(ctx context.Context, guildID snowflake.ID, volume int) error {
	return s.updateColumn(ctx, guildID, "volume", volume)
}

// UpdateAutoplay persists the guild's autoplay toggle.
func (s *SQLiteStore) UpdateAutoplay(ctx context.Context, guildID snowflake.ID, enabled bool) error {
	return s.updateColumn(ctx, guildID, "autoplay", boolToInt(enabled))
}

// UpdateLoopMode persists the guild's loop toggle.
func (s *SQLiteStore) UpdateLoopMode(ctx context.Context, guildID snowflake.ID, loopTrack bool) error {
	return s.updateColumn(ctx, guildID, "loop_track", boolToInt(loopTrack))
}

// updateColumn upserts a single settings column. The row is created with
// defaults first so updates to unseen guilds never vanish.
func (s *SQLiteStore) updateColumn(ctx context.Context, guildID snowflake.ID, column string, value any) error {
	if _, err := s.GetSettings(ctx, guildID); err != nil {
		return err
	}

	query := fmt.Sprintf(
		`UPDATE guild_settings SET %s = ?, updated_at = ? WHERE guild_id = ?`,
		column,
	)
	if _, err := s.db.ExecContext(ctx, query, value, time.Now().UTC(), guildID.String()); err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return nil
}

// LogCommandUsage appends a usage record.
func (s *SQLiteStore) LogCommandUsage(ctx context.Context, guildID, userID snowflake.ID, command string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO command_usage (guild_id, user_id, command, used_at) VALUES (?, ?, ?, ?)`,
		guildID.String(), userID.String(), command, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to log command usage: %w", err)
	}
	return nil
}

// CommandUsageCount returns how many commands the guild has run since the
// given time.
func (s *SQLiteStore) CommandUsageCount(ctx context.Context, guildID snowflake.ID, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM command_usage WHERE guild_id = ? AND used_at >= ?`,
		guildID.String(), since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count command usage: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
