package music

// Config holds the music module configuration.
type Config struct {
	// DatabasePath is the SQLite file holding per-guild settings.
	DatabasePath string `env:"DATABASE_PATH" envDefault:"groovebox.db"`

	// Spotify credentials are optional. Without them Spotify links are
	// rejected with an explanatory error.
	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`
}
