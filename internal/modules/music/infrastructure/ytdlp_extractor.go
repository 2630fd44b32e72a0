package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// Compile-time check that YtdlpExtractor implements ports.Extractor.
var _ ports.Extractor = (*YtdlpExtractor)(nil)

// YtdlpExtractor extracts stream URLs through the yt-dlp binary. It is the
// secondary extractor for YouTube and the only one for SoundCloud and
// generic sources.
type YtdlpExtractor struct{}

// NewYtdlpExtractor creates a YtdlpExtractor. The yt-dlp binary is installed
// on first use if missing.
func NewYtdlpExtractor() *YtdlpExtractor {
	ytdlp.MustInstall(context.Background(), nil)
	return &YtdlpExtractor{}
}

// Name identifies the extractor in logs and stream handles.
func (e *YtdlpExtractor) Name() string {
	return "yt-dlp"
}

// Supports reports whether the extractor can handle the source kind.
// Spotify is metadata-only; its tracks are re-derived to YouTube before
// extraction.
func (e *YtdlpExtractor) Supports(kind domain.SourceKind) bool {
	return kind != domain.SourceSpotify
}

// Extract returns a direct audio stream URL for the source.
func (e *YtdlpExtractor) Extract(ctx context.Context, sourceURL string) (*ports.StreamHandle, error) {
	res, err := ytdlp.New().
		Format("bestaudio[ext=webm]/bestaudio").
		Print("%(url)s").
		NoCheckFormats().
		NoPlaylist().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, "--skip-download", sourceURL)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp extraction failed: %w", err)
	}

	streamURL := strings.TrimSpace(res.Stdout)
	if streamURL == "" || !strings.HasPrefix(streamURL, "http") {
		return nil, ErrNoUsableStream
	}
	if i := strings.IndexByte(streamURL, '\n'); i > 0 {
		streamURL = streamURL[:i]
	}

	return &ports.StreamHandle{URL: streamURL, Extractor: e.Name()}, nil
}

// Metadata fetches title, uploader and duration for a source without
// downloading it. Used by the track loader for non-YouTube URLs.
func (e *YtdlpExtractor) Metadata(ctx context.Context, sourceURL string) (title, uploader string, durationSeconds int, err error) {
	res, err := ytdlp.New().
		Print("%(title)s\t%(uploader)s\t%(duration)s").
		NoPlaylist().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, "--skip-download", sourceURL)
	if err != nil {
		return "", "", 0, fmt.Errorf("yt-dlp metadata fetch failed: %w", err)
	}

	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}
		seconds := 0
		fmt.Sscanf(parts[2], "%d", &seconds)
		return parts[0], parts[1], seconds, nil
	}
	return "", "", 0, fmt.Errorf("no metadata for %s", sourceURL)
}
