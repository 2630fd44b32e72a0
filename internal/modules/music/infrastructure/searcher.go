package infrastructure

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppalone/ytsearch"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
)

// Compile-time check that YoutubeSearcher implements ports.TrackSearcher.
var _ ports.TrackSearcher = (*YoutubeSearcher)(nil)

// YoutubeSearcher performs text searches against YouTube.
type YoutubeSearcher struct {
	client *ytsearch.Client
}

// NewYoutubeSearcher creates a YoutubeSearcher.
func NewYoutubeSearcher() *YoutubeSearcher {
	return &YoutubeSearcher{client: ytsearch.NewClient(nil)}
}

// Search returns up to limit candidate tracks for the query.
func (s *YoutubeSearcher) Search(ctx context.Context, query string, limit int) ([]ports.SearchResult, error) {
	res, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("youtube search failed: %w", err)
	}

	results := make([]ports.SearchResult, 0, limit)
	for _, video := range res.Results {
		if video.VideoID == "" {
			continue
		}
		results = append(results, ports.SearchResult{
			Title:    video.Title,
			URL:      "https://www.youtube.com/watch?v=" + video.VideoID,
			Duration: parseClockDuration(video.Duration),
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// parseClockDuration converts a "m:ss" or "h:mm:ss" video length into
// seconds. Returns 0 for anything unparseable (live streams report no
// duration).
func parseClockDuration(clock string) int {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
