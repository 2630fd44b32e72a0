package domain

import "strings"

// SearchQuery represents a query for locating tracks.
type SearchQuery struct {
	Query string // the search term or URL
	IsURL bool   // whether the query is a direct URL
}

// NewSearchQuery creates a SearchQuery from user input.
func NewSearchQuery(input string) *SearchQuery {
	input = strings.TrimSpace(input)
	return &SearchQuery{
		Query: input,
		IsURL: IsURL(input),
	}
}

// IsValid returns true if the query is not empty.
func (q *SearchQuery) IsValid() bool {
	return q.Query != ""
}

// FallbackQueries returns the successive search query variants used to
// re-derive candidate URLs when direct extraction of a track fails.
func FallbackQueries(track *Track) []string {
	title := strings.TrimSpace(track.Title)
	author := strings.TrimSpace(track.Author)

	variants := make([]string, 0, 4)
	if author != "" {
		variants = append(variants, title+" "+author)
	}
	variants = append(variants, title, title+" audio")
	if author != "" {
		variants = append(variants, author+" "+title)
	}
	return variants
}
