package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// SearchResult is a single candidate returned by a text search.
type SearchResult struct {
	Title    string
	Author   string
	URL      string
	Duration int // seconds; 0 when unknown
}

// TrackSearcher performs a text search against a platform and returns
// candidate tracks. Used for plain-text play queries and for re-deriving
// candidate URLs when direct extraction fails.
type TrackSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// TrackLoader materializes a user query (URL or search text) into Track
// values with normalized metadata. Every extractor result is converted to a
// Track at this boundary; nothing downstream deals with raw library shapes.
type TrackLoader interface {
	Load(ctx context.Context, query string, requestedBy snowflake.ID) ([]*domain.Track, error)
}

// Suggester produces one autoplay suggestion similar to the last played
// track, or ErrNoSuggestion when nothing suitable is found.
type Suggester interface {
	Suggest(ctx context.Context, last *domain.Track) (*domain.Track, error)
}
