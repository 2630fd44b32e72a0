package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/raitonoberu/ytmusic"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/application/usecases"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// Compile-time check that MusicSuggester implements ports.Suggester.
var _ ports.Suggester = (*MusicSuggester)(nil)

// MusicSuggester derives one autoplay suggestion from YouTube Music's track
// search, seeded with the last played track's metadata.
type MusicSuggester struct{}

// NewMusicSuggester creates a MusicSuggester.
func NewMusicSuggester() *MusicSuggester {
	return &MusicSuggester{}
}

// Suggest returns one track similar to the last played one. The last track
// itself is never suggested.
func (s *MusicSuggester) Suggest(_ context.Context, last *domain.Track) (*domain.Track, error) {
	query := last.Title
	if last.Author != "" {
		query = last.Author + " " + last.Title
	}

	search := ytmusic.TrackSearch(query)
	result, err := search.Next()
	if err != nil {
		return nil, fmt.Errorf("suggestion search failed: %w", err)
	}

	for _, track := range result.Tracks {
		if track.VideoID == "" {
			continue
		}
		url := "https://music.youtube.com/watch?v=" + track.VideoID
		candidate := domain.NewTrack(
			track.Title,
			artistName(track.Artists),
			time.Duration(track.Duration)*time.Second,
			"",
			url,
			domain.SourceYouTube,
			0,
		)
		if candidate.SameSource(last) || candidate.Title == last.Title {
			continue
		}
		return candidate, nil
	}
	return nil, usecases.ErrNoSuggestion
}

func artistName(artists []ytmusic.Artist) string {
	if len(artists) == 0 {
		return ""
	}
	return artists[0].Name
}
