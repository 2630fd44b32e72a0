package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
	"github.com/sglre6355/groovebox/internal/retry"
)

type scriptedExtractor struct {
	name    string
	kinds   map[domain.SourceKind]bool
	streams map[string]string // source URL -> stream URL
	err     error
	calls   []string
}

func (e *scriptedExtractor) Name() string { return e.name }

func (e *scriptedExtractor) Supports(kind domain.SourceKind) bool {
	return e.kinds[kind]
}

func (e *scriptedExtractor) Extract(_ context.Context, sourceURL string) (*ports.StreamHandle, error) {
	e.calls = append(e.calls, sourceURL)
	if streamURL, ok := e.streams[sourceURL]; ok {
		return &ports.StreamHandle{URL: streamURL, Extractor: e.name}, nil
	}
	if e.err != nil {
		return nil, e.err
	}
	return nil, ErrNoUsableStream
}

type scriptedSearcher struct {
	results map[string][]ports.SearchResult
	queries []string
}

func (s *scriptedSearcher) Search(_ context.Context, query string, _ int) ([]ports.SearchResult, error) {
	s.queries = append(s.queries, query)
	return s.results[query], nil
}

func youtubeKinds() map[domain.SourceKind]bool {
	return map[domain.SourceKind]bool{domain.SourceYouTube: true}
}

// fastResolver builds a ChainResolver with no retry backoff so failing
// extractors do not slow the tests down.
func fastResolver(extractors []ports.Extractor, searcher ports.TrackSearcher) *ChainResolver {
	r := NewChainResolver(extractors, searcher)
	r.policy = retry.Policy{MaxAttempts: 1}
	return r
}

func resolverTrack() *domain.Track {
	return domain.NewTrack("song", "artist", 0, "", "https://youtube.com/watch?v=x", domain.SourceYouTube, 1)
}

// metadataTrack has no directly extractable URL, so resolution must go
// through the search fallback.
func metadataTrack() *domain.Track {
	return domain.NewTrack("song", "artist", 0, "", "https://open.spotify.com/track/x", domain.SourceSpotify, 1)
}

func TestResolvePrimaryExtractor(t *testing.T) {
	primary := &scriptedExtractor{
		name:    "primary",
		kinds:   youtubeKinds(),
		streams: map[string]string{"https://youtube.com/watch?v=x": "https://cdn/stream"},
	}
	secondary := &scriptedExtractor{name: "secondary", kinds: youtubeKinds()}
	resolver := fastResolver([]ports.Extractor{primary, secondary}, &scriptedSearcher{})

	stream, err := resolver.Resolve(context.Background(), resolverTrack())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if stream.URL != "https://cdn/stream" || stream.Extractor != "primary" {
		t.Errorf("unexpected stream: %+v", stream)
	}
	if len(secondary.calls) != 0 {
		t.Error("secondary extractor must not run when the primary succeeds")
	}
}

func TestResolveFallsToSecondaryExtractor(t *testing.T) {
	primary := &scriptedExtractor{
		name:  "primary",
		kinds: youtubeKinds(),
		err:   errors.New("HTTP 403 forbidden"),
	}
	secondary := &scriptedExtractor{
		name:    "secondary",
		kinds:   youtubeKinds(),
		streams: map[string]string{"https://youtube.com/watch?v=x": "https://cdn/alt"},
	}
	resolver := fastResolver([]ports.Extractor{primary, secondary}, &scriptedSearcher{})

	stream, err := resolver.Resolve(context.Background(), resolverTrack())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if stream.Extractor != "secondary" {
		t.Errorf("expected secondary extractor, got %q", stream.Extractor)
	}
}

func TestResolveSkipsUnsupportedExtractors(t *testing.T) {
	soundcloudOnly := &scriptedExtractor{
		name:  "sc",
		kinds: map[domain.SourceKind]bool{domain.SourceSoundCloud: true},
	}
	resolver := fastResolver([]ports.Extractor{soundcloudOnly}, &scriptedSearcher{})

	_, err := resolver.Resolve(context.Background(), resolverTrack())
	var resErr *ports.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if len(soundcloudOnly.calls) != 0 {
		t.Error("unsupported extractor must not be called")
	}
}

func TestResolveSearchFallback(t *testing.T) {
	extractor := &scriptedExtractor{
		name:    "primary",
		kinds:   youtubeKinds(),
		streams: map[string]string{"https://youtube.com/watch?v=alt": "https://cdn/fallback"},
		err:     errors.New("unplayable"),
	}
	searcher := &scriptedSearcher{
		results: map[string][]ports.SearchResult{
			"song artist": {
				{Title: "short teaser", URL: "https://youtube.com/watch?v=teaser", Duration: 15},
				{Title: "full song", URL: "https://youtube.com/watch?v=alt", Duration: 200},
			},
		},
	}
	resolver := fastResolver([]ports.Extractor{extractor}, searcher)

	stream, err := resolver.Resolve(context.Background(), metadataTrack())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if stream.URL != "https://cdn/fallback" {
		t.Errorf("unexpected stream: %+v", stream)
	}

	// The sub-30s teaser must have been filtered out before extraction.
	for _, call := range extractor.calls {
		if call == "https://youtube.com/watch?v=teaser" {
			t.Error("short result must be skipped")
		}
	}
	if searcher.queries[0] != "song artist" {
		t.Errorf("expected title+author query first, got %q", searcher.queries[0])
	}
}

func TestResolveTriesAllQueryVariants(t *testing.T) {
	extractor := &scriptedExtractor{name: "primary", kinds: youtubeKinds(), err: errors.New("nope")}
	searcher := &scriptedSearcher{results: map[string][]ports.SearchResult{}}
	resolver := fastResolver([]ports.Extractor{extractor}, searcher)

	_, err := resolver.Resolve(context.Background(), metadataTrack())
	var resErr *ports.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}

	want := []string{"song artist", "song", "song audio", "artist song"}
	if len(searcher.queries) != len(want) {
		t.Fatalf("expected %d query variants, got %d (%v)", len(want), len(searcher.queries), searcher.queries)
	}
	for i, query := range want {
		if searcher.queries[i] != query {
			t.Errorf("variant %d: expected %q, got %q", i, query, searcher.queries[i])
		}
	}
}

func TestResolveDirectYoutubeSkipsSearchFallback(t *testing.T) {
	extractor := &scriptedExtractor{
		name:  "primary",
		kinds: youtubeKinds(),
		err:   errors.New("not available in your country"),
	}
	searcher := &scriptedSearcher{
		results: map[string][]ports.SearchResult{
			"song artist": {
				{Title: "reupload", URL: "https://youtube.com/watch?v=other", Duration: 200},
			},
		},
	}
	resolver := fastResolver([]ports.Extractor{extractor}, searcher)

	_, err := resolver.Resolve(context.Background(), resolverTrack())
	var resErr *ports.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if len(searcher.queries) != 0 {
		t.Errorf("a pasted video link must not be substituted, got queries %v", searcher.queries)
	}
}

// flakyExtractor fails a fixed number of times before succeeding.
type flakyExtractor struct {
	failures int
	calls    int
}

func (e *flakyExtractor) Name() string { return "flaky" }

func (e *flakyExtractor) Supports(kind domain.SourceKind) bool {
	return kind == domain.SourceYouTube
}

func (e *flakyExtractor) Extract(_ context.Context, _ string) (*ports.StreamHandle, error) {
	e.calls++
	if e.calls <= e.failures {
		return nil, errors.New("throttled")
	}
	return &ports.StreamHandle{URL: "https://cdn/stream", Extractor: "flaky"}, nil
}

func TestResolveRetriesTransientFailures(t *testing.T) {
	extractor := &flakyExtractor{failures: 2}
	resolver := NewChainResolver([]ports.Extractor{extractor}, &scriptedSearcher{})
	resolver.policy = retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	stream, err := resolver.Resolve(context.Background(), resolverTrack())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if stream.URL != "https://cdn/stream" {
		t.Errorf("unexpected stream: %+v", stream)
	}
	if extractor.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", extractor.calls)
	}
}

func TestResolveClassifiesBlocked(t *testing.T) {
	extractor := &scriptedExtractor{
		name:  "primary",
		kinds: youtubeKinds(),
		err:   errors.New("HTTP 403: forbidden"),
	}
	resolver := fastResolver([]ports.Extractor{extractor}, &scriptedSearcher{})

	_, err := resolver.Resolve(context.Background(), resolverTrack())
	var resErr *ports.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if resErr.Reason != ports.ResolutionBlocked {
		t.Errorf("expected blocked classification, got %q", resErr.Reason)
	}
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ports.ResolutionFailure
	}{
		{"no usable stream sentinel", ErrNoUsableStream, ports.ResolutionNoStream},
		{"http 403", errors.New("HTTP 403"), ports.ResolutionBlocked},
		{"login required", errors.New("login required to view"), ports.ResolutionBlocked},
		{"age restriction", errors.New("age-restricted video"), ports.ResolutionBlocked},
		{"no formats", errors.New("no format matched"), ports.ResolutionNoStream},
		{"anything else", errors.New("connection reset"), ports.ResolutionGeneric},
		{"nil", nil, ports.ResolutionGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyFailure(tt.err); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
