package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kkdai/youtube/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/application/usecases"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// maxPlaylistTracks caps how many entries a playlist URL expands to.
const maxPlaylistTracks = 100

// Compile-time check that MultiSourceLoader implements ports.TrackLoader.
var _ ports.TrackLoader = (*MultiSourceLoader)(nil)

// MultiSourceLoader materializes user queries into tracks with normalized
// metadata. YouTube URLs go through the innertube client, Spotify URLs
// through the Spotify API, everything else through yt-dlp; plain text is
// searched on YouTube.
type MultiSourceLoader struct {
	youtube  *youtube.Client
	ytdlp    *YtdlpExtractor
	spotify  *SpotifySource
	searcher ports.TrackSearcher
}

// NewMultiSourceLoader creates a loader. spotify may be nil when no
// credentials are configured; Spotify URLs then fail with a clear error.
func NewMultiSourceLoader(
	ytdlp *YtdlpExtractor,
	spotify *SpotifySource,
	searcher ports.TrackSearcher,
) *MultiSourceLoader {
	return &MultiSourceLoader{
		youtube:  &youtube.Client{},
		ytdlp:    ytdlp,
		spotify:  spotify,
		searcher: searcher,
	}
}

// Load converts a query into one or more tracks.
func (l *MultiSourceLoader) Load(
	ctx context.Context,
	query string,
	requestedBy snowflake.ID,
) ([]*domain.Track, error) {
	search := domain.NewSearchQuery(query)
	if !search.IsValid() {
		return nil, usecases.ErrNoResults
	}

	if !search.IsURL {
		return l.loadFromSearch(ctx, search.Query, requestedBy)
	}

	switch domain.DetectSourceKind(search.Query) {
	case domain.SourceYouTube:
		return l.loadYoutube(ctx, search.Query, requestedBy)
	case domain.SourceSpotify:
		return l.loadSpotify(ctx, search.Query, requestedBy)
	default:
		return l.loadViaYtdlp(ctx, search.Query, requestedBy)
	}
}

// loadYoutube loads a single video or a full playlist.
func (l *MultiSourceLoader) loadYoutube(
	ctx context.Context,
	url string,
	requestedBy snowflake.ID,
) ([]*domain.Track, error) {
	if strings.Contains(url, "list=") && !strings.Contains(url, "watch?v=") {
		return l.loadYoutubePlaylist(ctx, url, requestedBy)
	}

	video, err := l.youtube.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to load video: %w", err)
	}

	track := domain.NewTrack(
		video.Title,
		video.Author,
		video.Duration,
		videoThumbnail(video),
		"https://www.youtube.com/watch?v="+video.ID,
		domain.SourceYouTube,
		requestedBy,
	)
	return []*domain.Track{track}, nil
}

func (l *MultiSourceLoader) loadYoutubePlaylist(
	ctx context.Context,
	url string,
	requestedBy snowflake.ID,
) ([]*domain.Track, error) {
	playlist, err := l.youtube.GetPlaylistContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist: %w", err)
	}

	tracks := make([]*domain.Track, 0, len(playlist.Videos))
	for _, entry := range playlist.Videos {
		if len(tracks) >= maxPlaylistTracks {
			break
		}
		tracks = append(tracks, domain.NewTrack(
			entry.Title,
			entry.Author,
			entry.Duration,
			"",
			"https://www.youtube.com/watch?v="+entry.ID,
			domain.SourceYouTube,
			requestedBy,
		))
	}
	if len(tracks) == 0 {
		return nil, usecases.ErrNoResults
	}
	slog.Info("loaded playlist", "title", playlist.Title, "tracks", len(tracks))
	return tracks, nil
}

func (l *MultiSourceLoader) loadSpotify(
	ctx context.Context,
	url string,
	requestedBy snowflake.ID,
) ([]*domain.Track, error) {
	if l.spotify == nil {
		return nil, fmt.Errorf("spotify support is not configured")
	}
	return l.spotify.Load(ctx, url, requestedBy)
}

func (l *MultiSourceLoader) loadViaYtdlp(
	ctx context.Context,
	url string,
	requestedBy snowflake.ID,
) ([]*domain.Track, error) {
	title, uploader, seconds, err := l.ytdlp.Metadata(ctx, url)
	if err != nil {
		return nil, err
	}

	track := domain.NewTrack(
		title,
		uploader,
		time.Duration(seconds)*time.Second,
		"",
		url,
		domain.DetectSourceKind(url),
		requestedBy,
	)
	return []*domain.Track{track}, nil
}

// loadFromSearch resolves plain text to the top YouTube result, then loads
// full metadata for it.
func (l *MultiSourceLoader) loadFromSearch(
	ctx context.Context,
	query string,
	requestedBy snowflake.ID,
) ([]*domain.Track, error) {
	results, err := l.searcher.Search(ctx, query, 1)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		return nil, usecases.ErrNoResults
	}
	return l.loadYoutube(ctx, results[0].URL, requestedBy)
}

func videoThumbnail(video *youtube.Video) string {
	if len(video.Thumbnails) == 0 {
		return ""
	}
	return video.Thumbnails[len(video.Thumbnails)-1].URL
}
