package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// SpotifySource loads track metadata from the Spotify API. Spotify serves
// metadata only; playback streams are re-derived from YouTube by the
// resolver's search fallback.
type SpotifySource struct {
	client *spotify.Client
}

// NewSpotifySource creates a SpotifySource using the client-credentials flow.
func NewSpotifySource(ctx context.Context, clientID, clientSecret string) (*SpotifySource, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("spotify credentials are required")
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain spotify token: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	return &SpotifySource{client: spotify.New(httpClient)}, nil
}

// Load converts a Spotify track, album or playlist URL into tracks.
func (s *SpotifySource) Load(
	ctx context.Context,
	url string,
	requestedBy snowflake.ID,
) ([]*domain.Track, error) {
	switch {
	case strings.Contains(url, "/track/") || strings.HasPrefix(url, "spotify:track:"):
		return s.loadTrack(ctx, url, requestedBy)
	case strings.Contains(url, "/playlist/") || strings.HasPrefix(url, "spotify:playlist:"):
		return s.loadPlaylist(ctx, url, requestedBy)
	case strings.Contains(url, "/album/") || strings.HasPrefix(url, "spotify:album:"):
		return s.loadAlbum(ctx, url, requestedBy)
	default:
		return nil, fmt.Errorf("unsupported spotify url: %s", url)
	}
}

func (s *SpotifySource) loadTrack(
	ctx context.Context,
	url string,
	requestedBy snowflake.ID,
) ([]*domain.Track, error) {
	track, err := s.client.GetTrack(ctx, spotify.ID(extractSpotifyID(url, "track")))
	if err != nil {
		return nil, fmt.Errorf("failed to load spotify track: %w", err)
	}
	return []*domain.Track{s.convertFull(track, requestedBy)}, nil
}

func (s *SpotifySource) loadPlaylist(
	ctx context.Context,
	url string,
	requestedBy snowflake.ID,
) ([]*domain.Track, error) {
	page, err := s.client.GetPlaylistItems(ctx,
		spotify.ID(extractSpotifyID(url, "playlist")),
		spotify.Limit(maxPlaylistTracks),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load spotify playlist: %w", err)
	}

	tracks := make([]*domain.Track, 0, len(page.Items))
	for _, item := range page.Items {
		if item.Track.Track == nil || item.Track.Track.ID == "" {
			continue
		}
		tracks = append(tracks, s.convertFull(item.Track.Track, requestedBy))
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("spotify playlist contains no playable tracks")
	}
	return tracks, nil
}

func (s *SpotifySource) loadAlbum(
	ctx context.Context,
	url string,
	requestedBy snowflake.ID,
) ([]*domain.Track, error) {
	album, err := s.client.GetAlbum(ctx, spotify.ID(extractSpotifyID(url, "album")))
	if err != nil {
		return nil, fmt.Errorf("failed to load spotify album: %w", err)
	}

	var art string
	if len(album.Images) > 0 {
		art = album.Images[0].URL
	}

	tracks := make([]*domain.Track, 0, len(album.Tracks.Tracks))
	for _, t := range album.Tracks.Tracks {
		if len(tracks) >= maxPlaylistTracks {
			break
		}
		tracks = append(tracks, domain.NewTrack(
			t.Name,
			joinArtists(t.Artists),
			time.Duration(t.Duration)*time.Millisecond,
			art,
			"https://open.spotify.com/track/"+string(t.ID),
			domain.SourceSpotify,
			requestedBy,
		))
	}
	return tracks, nil
}

func (s *SpotifySource) convertFull(track *spotify.FullTrack, requestedBy snowflake.ID) *domain.Track {
	var art string
	if len(track.Album.Images) > 0 {
		art = track.Album.Images[0].URL
	}
	return domain.NewTrack(
		track.Name,
		joinArtists(track.Artists),
		time.Duration(track.Duration)*time.Millisecond,
		art,
		"https://open.spotify.com/track/"+string(track.ID),
		domain.SourceSpotify,
		requestedBy,
	)
}

func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// extractSpotifyID pulls the resource ID out of a Spotify URL or URI.
func extractSpotifyID(input, kind string) string {
	input = strings.TrimSpace(input)
	if prefix := "spotify:" + kind + ":"; strings.HasPrefix(input, prefix) {
		return strings.TrimPrefix(input, prefix)
	}
	if marker := "/" + kind + "/"; strings.Contains(input, marker) {
		parts := strings.Split(input, marker)
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}
	return input
}
