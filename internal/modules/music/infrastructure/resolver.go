package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
	"github.com/sglre6355/groovebox/internal/retry"
)

const (
	// fallbackSearchLimit is how many search results each fallback query
	// variant is allowed to contribute.
	fallbackSearchLimit = 5

	// minFallbackDuration filters out shorts and teasers from fallback
	// search results.
	minFallbackDuration = 30 * time.Second
)

// ErrNoUsableStream is returned by extractors when a source exposes no
// audio-only format.
var ErrNoUsableStream = errors.New("no usable audio stream")

// Compile-time check that ChainResolver implements ports.TrackResolver.
var _ ports.TrackResolver = (*ChainResolver)(nil)

// ChainResolver resolves a track's stream by walking a chain of extractors,
// then re-deriving candidate URLs through text search when direct extraction
// fails. Requests are rate limited across all guilds to avoid hammering the
// upstream platforms.
type ChainResolver struct {
	extractors []ports.Extractor
	searcher   ports.TrackSearcher
	policy     retry.Policy
	limiter    *rate.Limiter
}

// NewChainResolver creates a resolver. Extractors are tried in order; the
// searcher drives the fallback query variants.
func NewChainResolver(extractors []ports.Extractor, searcher ports.TrackSearcher) *ChainResolver {
	return &ChainResolver{
		extractors: extractors,
		searcher:   searcher,
		policy:     retry.DefaultPolicy,
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 3),
	}
}

// Resolve turns a track into a playable stream handle.
// Returns a ports.ResolutionError when every strategy has been exhausted.
func (r *ChainResolver) Resolve(ctx context.Context, track *domain.Track) (*ports.StreamHandle, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error

	stream, err := r.extractDirect(ctx, track)
	if err == nil {
		return stream, nil
	}
	lastErr = err

	// The search fallback only applies to tracks whose URL was derived from
	// metadata (Spotify and friends). A user-pasted YouTube link must never
	// be substituted with a different video.
	if track.Source != domain.SourceYouTube {
		stream, err = r.extractViaSearch(ctx, track)
		if err == nil {
			return stream, nil
		}
		if !errors.Is(err, errNoCandidates) {
			lastErr = err
		}
	}

	return nil, &ports.ResolutionError{
		Reason: classifyFailure(lastErr),
		Err:    lastErr,
	}
}

// extractDirect runs the track URL through every extractor that supports
// its source kind.
func (r *ChainResolver) extractDirect(ctx context.Context, track *domain.Track) (*ports.StreamHandle, error) {
	var lastErr error
	for _, extractor := range r.extractors {
		if !extractor.Supports(track.Source) {
			continue
		}

		stream, err := r.extractWithRetry(ctx, extractor, track.SourceURL)
		if err == nil {
			return stream, nil
		}
		lastErr = err
		slog.Debug("extractor failed",
			"extractor", extractor.Name(),
			"track", track.Title,
			"error", err,
		)
	}
	if lastErr == nil {
		lastErr = ErrNoUsableStream
	}
	return nil, lastErr
}

var errNoCandidates = errors.New("no fallback candidates")

// extractViaSearch re-derives candidate URLs from the track's metadata and
// runs each through the extractor chain. Results shorter than
// minFallbackDuration are skipped.
func (r *ChainResolver) extractViaSearch(ctx context.Context, track *domain.Track) (*ports.StreamHandle, error) {
	if r.searcher == nil {
		return nil, errNoCandidates
	}

	lastErr := errNoCandidates
	for _, query := range domain.FallbackQueries(track) {
		results, err := r.searcher.Search(ctx, query, fallbackSearchLimit)
		if err != nil {
			slog.Debug("fallback search failed", "query", query, "error", err)
			continue
		}

		for _, result := range results {
			if result.Duration > 0 && time.Duration(result.Duration)*time.Second < minFallbackDuration {
				continue
			}
			if result.URL == track.SourceURL {
				continue
			}

			for _, extractor := range r.extractors {
				if !extractor.Supports(domain.SourceYouTube) {
					continue
				}
				stream, err := r.extractWithRetry(ctx, extractor, result.URL)
				if err == nil {
					slog.Info("resolved via search fallback",
						"track", track.Title,
						"query", query,
						"candidate", result.URL,
					)
					return stream, nil
				}
				lastErr = err
			}
		}
	}
	return nil, lastErr
}

func (r *ChainResolver) extractWithRetry(
	ctx context.Context,
	extractor ports.Extractor,
	sourceURL string,
) (*ports.StreamHandle, error) {
	var stream *ports.StreamHandle
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		s, err := extractor.Extract(ctx, sourceURL)
		if err != nil {
			return err
		}
		stream = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// classifyFailure maps an extraction error onto the user-facing failure
// categories.
func classifyFailure(err error) ports.ResolutionFailure {
	if err == nil {
		return ports.ResolutionGeneric
	}
	if errors.Is(err, ErrNoUsableStream) {
		return ports.ResolutionNoStream
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "403"),
		strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "login required"),
		strings.Contains(msg, "sign in"),
		strings.Contains(msg, "age"),
		strings.Contains(msg, "not available in your country"):
		return ports.ResolutionBlocked
	case strings.Contains(msg, "no stream"),
		strings.Contains(msg, "no format"),
		strings.Contains(msg, "no audio"):
		return ports.ResolutionNoStream
	default:
		return ports.ResolutionGeneric
	}
}
