package domain

import "strings"

// SourceKind represents the origin platform of a track.
type SourceKind string

const (
	SourceYouTube    SourceKind = "youtube"
	SourceSpotify    SourceKind = "spotify"
	SourceSoundCloud SourceKind = "soundcloud"
	SourceGeneric    SourceKind = "generic"
)

// ParseSourceKind converts a source name string to a SourceKind.
func ParseSourceKind(name string) SourceKind {
	switch name {
	case "youtube":
		return SourceYouTube
	case "spotify":
		return SourceSpotify
	case "soundcloud":
		return SourceSoundCloud
	default:
		return SourceGeneric
	}
}

// DetectSourceKind classifies a URL by its hosting platform.
// Non-URL input is treated as a YouTube search target.
func DetectSourceKind(input string) SourceKind {
	if !IsURL(input) {
		return SourceYouTube
	}

	lower := strings.ToLower(input)
	switch {
	case strings.Contains(lower, "youtube.com"), strings.Contains(lower, "youtu.be"),
		strings.Contains(lower, "music.youtube.com"):
		return SourceYouTube
	case strings.Contains(lower, "spotify.com"), strings.HasPrefix(lower, "spotify:"):
		return SourceSpotify
	case strings.Contains(lower, "soundcloud.com"):
		return SourceSoundCloud
	default:
		return SourceGeneric
	}
}

// IsURL checks if the input looks like a URL.
func IsURL(input string) bool {
	return strings.HasPrefix(input, "http://") ||
		strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "www.")
}
