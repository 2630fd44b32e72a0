package usecases

import "errors"

// Domain errors for the music module.
var (
	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrNotConnected is returned when an operation requires the bot to be
	// in a voice channel.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrNotPlaying is returned when no track is currently playing.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrAlreadyPaused is returned when trying to pause while already paused.
	ErrAlreadyPaused = errors.New("playback is already paused")

	// ErrNotPaused is returned when trying to resume while not paused.
	ErrNotPaused = errors.New("playback is not paused")

	// ErrNoResults is returned when a search yields no results.
	ErrNoResults = errors.New("no results found")

	// ErrNoSuggestion is returned when no autoplay suggestion is available.
	ErrNoSuggestion = errors.New("no suggestion available")

	// ErrQueueEmpty is returned when the queue has no pending tracks.
	ErrQueueEmpty = errors.New("the queue is empty")

	// ErrNoHistory is returned when there is no previously played track.
	ErrNoHistory = errors.New("no previously played track")

	// ErrInvalidPosition is returned when an invalid queue position is given.
	ErrInvalidPosition = errors.New("invalid queue position")

	// ErrInvalidVolume is returned for volume values outside 0-100.
	ErrInvalidVolume = errors.New("volume must be between 0 and 100")

	// ErrPrefixTooLong is returned for prefixes longer than five characters.
	ErrPrefixTooLong = errors.New("prefix must be five characters or fewer")

	// ErrJoinFailed is returned when the voice gateway could not be joined.
	ErrJoinFailed = errors.New("failed to join the voice channel")
)
