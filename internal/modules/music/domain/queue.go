package domain

import (
	"errors"
	"math/rand"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

const (
	// DefaultMaxPending is the maximum number of tracks a queue accepts.
	DefaultMaxPending = 500

	// HistorySize is the maximum number of played tracks kept for recall.
	HistorySize = 20

	// DefaultVolume is the volume assigned to new queues.
	DefaultVolume = 50
)

// ErrQueueFull is returned when an enqueue is attempted at capacity.
// The queue is left unchanged.
var ErrQueueFull = errors.New("the queue is full")

// GuildQueue holds the per-guild playback state: the pending track list,
// the currently playing track, a bounded history of played tracks, and
// the guild's playback toggles.
//
// A GuildQueue is not safe for concurrent use; the owning session
// serializes access to it.
type GuildQueue struct {
	pending    []*Track
	nowPlaying *Track
	history    []*Track // newest first
	maxPending int

	volume     int
	loopTrack  bool
	autoplay   bool
	skipVotes  map[snowflake.ID]struct{}
	lastActive time.Time
}

// NewGuildQueue creates an empty GuildQueue with default capacity and volume.
func NewGuildQueue() *GuildQueue {
	return &GuildQueue{
		pending:    make([]*Track, 0),
		history:    make([]*Track, 0, HistorySize),
		maxPending: DefaultMaxPending,
		volume:     DefaultVolume,
		skipVotes:  make(map[snowflake.ID]struct{}),
		lastActive: time.Now(),
	}
}

// Enqueue appends a track to the pending list.
// Returns ErrQueueFull if the queue is at capacity; the queue is unchanged.
func (q *GuildQueue) Enqueue(track *Track) error {
	q.Touch()
	if len(q.pending) >= q.maxPending {
		return ErrQueueFull
	}
	q.pending = append(q.pending, track)
	return nil
}

// Advance is the continuation primitive. If loop is enabled and a track is
// playing, it returns that track unchanged (replay). Otherwise the current
// track is pushed to the front of the history and the head of the pending
// list is popped and returned, or nil if the pending list is empty.
//
// The caller is responsible for assigning the returned track via SetNowPlaying.
func (q *GuildQueue) Advance() *Track {
	q.Touch()

	if q.loopTrack && q.nowPlaying != nil {
		return q.nowPlaying
	}

	if q.nowPlaying != nil {
		q.pushHistory(q.nowPlaying)
	}

	if len(q.pending) == 0 {
		return nil
	}

	next := q.pending[0]
	q.pending = q.pending[1:]
	return next
}

// RecallPrevious pops the most recent history entry. The current track, if
// any, is pushed back onto the front of the pending list. Returns nil if
// there is no history.
func (q *GuildQueue) RecallPrevious() *Track {
	q.Touch()
	if len(q.history) == 0 {
		return nil
	}

	recalled := q.history[0]
	q.history = q.history[1:]

	if q.nowPlaying != nil {
		q.pending = append([]*Track{q.nowPlaying}, q.pending...)
	}

	return recalled
}

// Clear empties the pending list, clears the current track and skip votes.
// Loop, autoplay and volume settings are preserved.
func (q *GuildQueue) Clear() {
	q.Touch()
	q.pending = make([]*Track, 0)
	q.nowPlaying = nil
	q.skipVotes = make(map[snowflake.ID]struct{})
}

// Shuffle performs an in-place uniform random permutation of the pending list.
func (q *GuildQueue) Shuffle() {
	q.Touch()
	rand.Shuffle(len(q.pending), func(i, j int) {
		q.pending[i], q.pending[j] = q.pending[j], q.pending[i]
	})
}

// IsEmpty returns true if the pending list is empty.
// The currently playing track is not considered.
func (q *GuildQueue) IsEmpty() bool {
	return len(q.pending) == 0
}

// Len returns the number of pending tracks.
func (q *GuildQueue) Len() int {
	return len(q.pending)
}

// Pending returns a copy of the pending track list in play order.
func (q *GuildQueue) Pending() []*Track {
	result := make([]*Track, len(q.pending))
	copy(result, q.pending)
	return result
}

// RemoveAt removes and returns the pending track at the given index.
// Returns nil if the index is out of bounds.
func (q *GuildQueue) RemoveAt(index int) *Track {
	q.Touch()
	if index < 0 || index >= len(q.pending) {
		return nil
	}
	track := q.pending[index]
	q.pending = append(q.pending[:index], q.pending[index+1:]...)
	return track
}

// History returns a copy of the played-track history, newest first.
func (q *GuildQueue) History() []*Track {
	result := make([]*Track, len(q.history))
	copy(result, q.history)
	return result
}

// NowPlaying returns the currently playing track, or nil when idle.
func (q *GuildQueue) NowPlaying() *Track {
	return q.nowPlaying
}

// SetNowPlaying assigns the currently playing track and clears skip votes.
// Pass nil when playback stops.
func (q *GuildQueue) SetNowPlaying(track *Track) {
	q.Touch()
	q.nowPlaying = track
	q.skipVotes = make(map[snowflake.ID]struct{})
}

// Volume returns the guild volume (0-100).
func (q *GuildQueue) Volume() int {
	return q.volume
}

// SetVolume sets the guild volume. Values outside 0-100 are ignored.
func (q *GuildQueue) SetVolume(volume int) {
	if volume < 0 || volume > 100 {
		return
	}
	q.Touch()
	q.volume = volume
}

// LoopTrack returns true if the current track is looped.
func (q *GuildQueue) LoopTrack() bool {
	return q.loopTrack
}

// SetLoopTrack enables or disables looping of the current track.
func (q *GuildQueue) SetLoopTrack(loop bool) {
	q.Touch()
	q.loopTrack = loop
}

// Autoplay returns true if autoplay suggestions are enabled.
func (q *GuildQueue) Autoplay() bool {
	return q.autoplay
}

// SetAutoplay enables or disables autoplay suggestions.
func (q *GuildQueue) SetAutoplay(enabled bool) {
	q.Touch()
	q.autoplay = enabled
}

// RegisterSkipVote adds the user's skip vote and returns the new vote count.
// Voting twice is a no-op.
func (q *GuildQueue) RegisterSkipVote(userID snowflake.ID) int {
	q.Touch()
	q.skipVotes[userID] = struct{}{}
	return len(q.skipVotes)
}

// RequiredSkipVotes returns the majority-rules skip threshold for a voice
// channel with the given human occupancy: ceil(size/2).
func RequiredSkipVotes(voiceChannelSize int) int {
	if voiceChannelSize <= 0 {
		return 1
	}
	return (voiceChannelSize + 1) / 2
}

// LastActive returns the time of the most recent queue access.
func (q *GuildQueue) LastActive() time.Time {
	return q.lastActive
}

// Touch updates the activity timestamp. Every mutating operation calls it;
// the idle reaper uses the timestamp to garbage-collect inactive queues.
func (q *GuildQueue) Touch() {
	q.lastActive = time.Now()
}

func (q *GuildQueue) pushHistory(track *Track) {
	q.history = append([]*Track{track}, q.history...)
	if len(q.history) > HistorySize {
		q.history = q.history[:HistorySize]
	}
}
