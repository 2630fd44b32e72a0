package infrastructure

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"

	"github.com/kkdai/youtube/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// userAgents is rotated per request to spread extraction traffic across
// browser fingerprints.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
}

// rotatingTransport sets a random User-Agent on every outgoing request.
type rotatingTransport struct {
	base http.RoundTripper
}

func (t *rotatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

// Compile-time check that YoutubeExtractor implements ports.Extractor.
var _ ports.Extractor = (*YoutubeExtractor)(nil)

// YoutubeExtractor extracts direct stream URLs from YouTube via the innertube
// API. It is the primary extractor for YouTube sources.
type YoutubeExtractor struct {
	client *youtube.Client
}

// NewYoutubeExtractor creates a YoutubeExtractor with a rotating user agent.
func NewYoutubeExtractor() *YoutubeExtractor {
	return &YoutubeExtractor{
		client: &youtube.Client{
			HTTPClient: &http.Client{
				Transport: &rotatingTransport{},
			},
		},
	}
}

// Name identifies the extractor in logs and stream handles.
func (e *YoutubeExtractor) Name() string {
	return "youtube"
}

// Supports reports whether the extractor can handle the source kind.
func (e *YoutubeExtractor) Supports(kind domain.SourceKind) bool {
	return kind == domain.SourceYouTube
}

// Extract returns a direct audio stream URL for the video.
func (e *YoutubeExtractor) Extract(ctx context.Context, sourceURL string) (*ports.StreamHandle, error) {
	video, err := e.client.GetVideoContext(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	formats := video.Formats.WithAudioChannels().Type("audio")
	if len(formats) == 0 {
		formats = video.Formats.WithAudioChannels()
	}
	if len(formats) == 0 {
		return nil, ErrNoUsableStream
	}

	streamURL, err := e.client.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return nil, fmt.Errorf("failed to derive stream url: %w", err)
	}

	return &ports.StreamHandle{URL: streamURL, Extractor: e.Name()}, nil
}
