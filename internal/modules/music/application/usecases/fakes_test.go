package usecases

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

// fakeRegistry is an in-memory SessionRegistry for tests.
type fakeRegistry struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]*domain.Session
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{sessions: make(map[snowflake.ID]*domain.Session)}
}

func (r *fakeRegistry) GetOrCreate(guildID snowflake.ID) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[guildID]; ok {
		return s
	}
	s := domain.NewSession(guildID)
	r.sessions[guildID] = s
	return s
}

func (r *fakeRegistry) Get(guildID snowflake.ID) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[guildID]
}

func (r *fakeRegistry) Delete(guildID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, guildID)
}

func (r *fakeRegistry) All() []*domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// fakeLoader returns preconfigured tracks for any query.
type fakeLoader struct {
	tracks []*domain.Track
	err    error
}

func (l *fakeLoader) Load(_ context.Context, _ string, _ snowflake.ID) ([]*domain.Track, error) {
	return l.tracks, l.err
}

// fakeResolver resolves streams, failing for URLs listed in failures.
type fakeResolver struct {
	mu       sync.Mutex
	failures map[string]*ports.ResolutionError
	resolved []string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{failures: make(map[string]*ports.ResolutionError)}
}

func (r *fakeResolver) failFor(url string, reason ports.ResolutionFailure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[url] = &ports.ResolutionError{Reason: reason}
}

func (r *fakeResolver) Resolve(_ context.Context, track *domain.Track) (*ports.StreamHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, track.SourceURL)
	if err, ok := r.failures[track.SourceURL]; ok {
		return nil, err
	}
	return &ports.StreamHandle{URL: track.SourceURL, Extractor: "fake"}, nil
}

// fakeSuggester returns a fixed suggestion once, then nothing.
type fakeSuggester struct {
	mu         sync.Mutex
	suggestion *domain.Track
	calls      int
}

func (s *fakeSuggester) Suggest(_ context.Context, _ *domain.Track) (*domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.suggestion == nil {
		return nil, ErrNoSuggestion
	}
	out := s.suggestion
	s.suggestion = nil
	return out, nil
}

// fakePlayer records playback operations.
type fakePlayer struct {
	mu      sync.Mutex
	played  []string
	stops   int
	pauses  int
	resumes int
	playing bool
	playErr error
}

func (p *fakePlayer) Play(_ context.Context, _ snowflake.ID, stream *ports.StreamHandle, _ int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playErr != nil {
		return p.playErr
	}
	p.played = append(p.played, stream.URL)
	p.playing = true
	return nil
}

func (p *fakePlayer) Stop(_ context.Context, _ snowflake.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.playing = false
	return nil
}

func (p *fakePlayer) Pause(_ context.Context, _ snowflake.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauses++
	return nil
}

func (p *fakePlayer) Resume(_ context.Context, _ snowflake.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resumes++
	return nil
}

func (p *fakePlayer) IsPlaying(_ snowflake.ID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// fakeVoice records join/leave calls.
type fakeVoice struct {
	mu     sync.Mutex
	joins  int
	leaves int
}

func (v *fakeVoice) Join(_ context.Context, _, _ snowflake.ID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.joins++
	return nil
}

func (v *fakeVoice) Leave(_ context.Context, _ snowflake.ID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.leaves++
	return nil
}

func (v *fakeVoice) leaveCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.leaves
}

// fakeVoiceState reports a fixed user channel and occupancy.
type fakeVoiceState struct {
	channel   snowflake.ID
	inChannel bool
	occupancy int
}

func (v *fakeVoiceState) UserVoiceChannel(_, _ snowflake.ID) (*snowflake.ID, error) {
	if !v.inChannel {
		return nil, nil
	}
	ch := v.channel
	return &ch, nil
}

func (v *fakeVoiceState) HumanOccupancy(_, _ snowflake.ID) (int, error) {
	if v.occupancy == 0 {
		return 1, nil
	}
	return v.occupancy, nil
}

// fakeSettings is an in-memory SettingsStore.
type fakeSettings struct {
	mu       sync.Mutex
	settings map[snowflake.ID]*ports.GuildSettings
	usage    []string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{settings: make(map[snowflake.ID]*ports.GuildSettings)}
}

func (s *fakeSettings) GetSettings(_ context.Context, guildID snowflake.ID) (*ports.GuildSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.settings[guildID]; ok {
		return row, nil
	}
	row := &ports.GuildSettings{GuildID: guildID, Prefix: "!", Volume: domain.DefaultVolume}
	s.settings[guildID] = row
	return row, nil
}

func (s *fakeSettings) UpdatePrefix(_ context.Context, guildID snowflake.ID, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.settings[guildID]; ok {
		row.Prefix = prefix
	}
	return nil
}

func (s *fakeSettings) UpdateVolume(_ context.Context, guildID snowflake.ID, volume int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.settings[guildID]; ok {
		row.Volume = volume
	}
	return nil
}

func (s *fakeSettings) UpdateAutoplay(_ context.Context, guildID snowflake.ID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.settings[guildID]; ok {
		row.Autoplay = enabled
	}
	return nil
}

func (s *fakeSettings) UpdateLoopMode(_ context.Context, guildID snowflake.ID, loopTrack bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.settings[guildID]; ok {
		row.LoopTrack = loopTrack
	}
	return nil
}

func (s *fakeSettings) LogCommandUsage(_ context.Context, _, _ snowflake.ID, command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = append(s.usage, command)
	return nil
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu       sync.Mutex
	enqueued []domain.TrackEnqueuedEvent
	ended    []domain.TrackEndedEvent
	started  []domain.PlaybackStartedEvent
	failed   []domain.PlaybackFailedEvent
	cleared  []domain.QueueClearedEvent
}

func (p *recordingPublisher) PublishTrackEnqueued(event domain.TrackEnqueuedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enqueued = append(p.enqueued, event)
}

func (p *recordingPublisher) PublishTrackEnded(event domain.TrackEndedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended = append(p.ended, event)
}

func (p *recordingPublisher) PublishPlaybackStarted(event domain.PlaybackStartedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, event)
}

func (p *recordingPublisher) PublishPlaybackFailed(event domain.PlaybackFailedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, event)
}

func (p *recordingPublisher) PublishQueueCleared(event domain.QueueClearedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleared = append(p.cleared, event)
}

func (p *recordingPublisher) failedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.failed)
}

// playbackFixture bundles a PlaybackService with all its fakes.
type playbackFixture struct {
	service    *PlaybackService
	registry   *fakeRegistry
	loader     *fakeLoader
	resolver   *fakeResolver
	suggester  *fakeSuggester
	player     *fakePlayer
	voice      *fakeVoice
	voiceState *fakeVoiceState
	settings   *fakeSettings
	publisher  *recordingPublisher
}

func newPlaybackFixture() *playbackFixture {
	f := &playbackFixture{
		registry:   newFakeRegistry(),
		loader:     &fakeLoader{},
		resolver:   newFakeResolver(),
		suggester:  &fakeSuggester{},
		player:     &fakePlayer{},
		voice:      &fakeVoice{},
		voiceState: &fakeVoiceState{channel: 200, inChannel: true},
		settings:   newFakeSettings(),
		publisher:  &recordingPublisher{},
	}
	f.service = NewPlaybackService(
		f.registry,
		f.loader,
		f.resolver,
		f.suggester,
		f.player,
		f.voice,
		f.voiceState,
		f.settings,
		f.publisher,
	)
	return f
}

func testTrack(title, url string) *domain.Track {
	return domain.NewTrack(title, "artist", 180_000_000_000, "", url, domain.SourceYouTube, 1)
}
