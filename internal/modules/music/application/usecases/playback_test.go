package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/sglre6355/groovebox/internal/modules/music/application/ports"
	"github.com/sglre6355/groovebox/internal/modules/music/domain"
)

const testGuildID = 100

func TestPlayStartsFirstTrackWhenIdle(t *testing.T) {
	f := newPlaybackFixture()
	f.loader.tracks = []*domain.Track{
		testTrack("first", "https://youtube.com/watch?v=a"),
		testTrack("second", "https://youtube.com/watch?v=b"),
	}

	out, err := f.service.Play(context.Background(), PlayInput{
		GuildID: testGuildID, UserID: 1, TextChannelID: 300, Query: "something",
	})
	if err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if !out.Started {
		t.Error("expected playback to start")
	}

	session := f.registry.Get(testGuildID)
	if session == nil {
		t.Fatal("expected a session to exist")
	}
	if got := session.Queue.NowPlaying(); got == nil || got.Title != "first" {
		t.Errorf("expected first track playing, got %+v", got)
	}
	if got := session.Queue.Len(); got != 1 {
		t.Errorf("expected 1 pending track, got %d", got)
	}
	if len(f.player.played) != 1 {
		t.Errorf("expected 1 play call, got %d", len(f.player.played))
	}
	if len(f.publisher.started) != 1 {
		t.Errorf("expected 1 PlaybackStarted event, got %d", len(f.publisher.started))
	}
}

func TestPlayRequiresVoiceChannel(t *testing.T) {
	f := newPlaybackFixture()
	f.voiceState.inChannel = false

	_, err := f.service.Play(context.Background(), PlayInput{GuildID: testGuildID, UserID: 1, Query: "x"})
	if !errors.Is(err, ErrUserNotInVoice) {
		t.Errorf("expected ErrUserNotInVoice, got %v", err)
	}
}

func TestPlayNoResults(t *testing.T) {
	f := newPlaybackFixture()
	f.loader.tracks = nil

	_, err := f.service.Play(context.Background(), PlayInput{GuildID: testGuildID, UserID: 1, Query: "x"})
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

func TestPlayFailedFirstTrackFallsForward(t *testing.T) {
	f := newPlaybackFixture()
	f.loader.tracks = []*domain.Track{
		testTrack("broken", "https://youtube.com/watch?v=bad"),
		testTrack("good", "https://youtube.com/watch?v=good"),
	}
	f.resolver.failFor("https://youtube.com/watch?v=bad", ports.ResolutionBlocked)

	out, err := f.service.Play(context.Background(), PlayInput{
		GuildID: testGuildID, UserID: 1, TextChannelID: 300, Query: "x",
	})
	if err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if out.Started {
		t.Error("expected Started=false when the first track fails to resolve")
	}

	// The continuation policy skips past the broken track to the good one.
	session := f.registry.Get(testGuildID)
	if got := session.Queue.NowPlaying(); got == nil || got.Title != "good" {
		t.Errorf("expected good track playing, got %+v", got)
	}
	if got := f.publisher.failedCount(); got != 1 {
		t.Errorf("expected exactly 1 PlaybackFailed event, got %d", got)
	}
	if f.publisher.failed[0].Reason != string(ports.ResolutionBlocked) {
		t.Errorf("expected blocked reason, got %q", f.publisher.failed[0].Reason)
	}
}

func TestPlayClearsNowPlayingWhenPlayerFails(t *testing.T) {
	f := newPlaybackFixture()
	f.loader.tracks = []*domain.Track{
		testTrack("first", "https://youtube.com/watch?v=a"),
	}
	f.player.playErr = errors.New("encoder start failed")

	_, err := f.service.Play(context.Background(), PlayInput{
		GuildID: testGuildID, UserID: 1, TextChannelID: 300, Query: "x",
	})
	if err == nil {
		t.Fatal("expected the player error to surface")
	}

	// A failed start must not leave a current track behind, or the next
	// play would only enqueue behind a track that never sounds.
	session := f.registry.Get(testGuildID)
	if got := session.Queue.NowPlaying(); got != nil {
		t.Fatalf("expected no current track after a failed start, got %+v", got)
	}

	f.player.playErr = nil
	f.loader.tracks = []*domain.Track{
		testTrack("second", "https://youtube.com/watch?v=b"),
	}
	out, err := f.service.Play(context.Background(), PlayInput{
		GuildID: testGuildID, UserID: 1, TextChannelID: 300, Query: "y",
	})
	if err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if !out.Started {
		t.Error("expected the retry to start playback")
	}
	if got := session.Queue.NowPlaying(); got == nil || got.Title != "second" {
		t.Errorf("expected second track playing, got %+v", got)
	}
}

func TestContinueAdvancesToNextTrack(t *testing.T) {
	f := newPlaybackFixture()
	session := f.registry.GetOrCreate(testGuildID)
	session.TextChannelID = 300
	session.Queue.SetNowPlaying(testTrack("a", "url-a"))
	if err := session.Queue.Enqueue(testTrack("b", "url-b")); err != nil {
		t.Fatal(err)
	}

	f.service.ContinueAfterTrackEnd(context.Background(), testGuildID, domain.TrackEndFinished)

	if got := session.Queue.NowPlaying(); got == nil || got.Title != "b" {
		t.Errorf("expected track b playing, got %+v", got)
	}
	history := session.Queue.History()
	if len(history) != 1 || history[0].Title != "a" {
		t.Errorf("expected track a in history, got %+v", history)
	}
}

func TestContinueLoopReplaysCurrentTrack(t *testing.T) {
	f := newPlaybackFixture()
	session := f.registry.GetOrCreate(testGuildID)
	session.Queue.SetNowPlaying(testTrack("looped", "url-loop"))
	if err := session.Queue.Enqueue(testTrack("pending", "url-pending")); err != nil {
		t.Fatal(err)
	}
	session.Queue.SetLoopTrack(true)

	f.service.ContinueAfterTrackEnd(context.Background(), testGuildID, domain.TrackEndFinished)

	if got := session.Queue.NowPlaying(); got == nil || got.Title != "looped" {
		t.Errorf("expected looped track replaying, got %+v", got)
	}
	if got := session.Queue.Len(); got != 1 {
		t.Errorf("expected pending track untouched, got %d pending", got)
	}
	if len(session.Queue.History()) != 0 {
		t.Error("loop replay must not record history")
	}
}

func TestContinueSkipBypassesLoop(t *testing.T) {
	f := newPlaybackFixture()
	session := f.registry.GetOrCreate(testGuildID)
	session.Queue.SetNowPlaying(testTrack("looped", "url-loop"))
	if err := session.Queue.Enqueue(testTrack("next", "url-next")); err != nil {
		t.Fatal(err)
	}
	session.Queue.SetLoopTrack(true)

	f.service.ContinueAfterTrackEnd(context.Background(), testGuildID, domain.TrackEndSkipped)

	if got := session.Queue.NowPlaying(); got == nil || got.Title != "next" {
		t.Errorf("expected skip to advance past loop, got %+v", got)
	}
	if !session.Queue.LoopTrack() {
		t.Error("loop setting must survive the skip")
	}
}

func TestContinueFailureCascadeNotifiesOncePerTrack(t *testing.T) {
	f := newPlaybackFixture()
	session := f.registry.GetOrCreate(testGuildID)
	session.TextChannelID = 300
	session.Queue.SetNowPlaying(testTrack("done", "url-done"))
	for _, url := range []string{"url-f1", "url-f2", "url-f3"} {
		if err := session.Queue.Enqueue(testTrack(url, url)); err != nil {
			t.Fatal(err)
		}
		f.resolver.failFor(url, ports.ResolutionNoStream)
	}
	if err := session.Queue.Enqueue(testTrack("works", "url-works")); err != nil {
		t.Fatal(err)
	}

	f.service.ContinueAfterTrackEnd(context.Background(), testGuildID, domain.TrackEndFinished)

	if got := session.Queue.NowPlaying(); got == nil || got.Title != "works" {
		t.Errorf("expected playable track after cascade, got %+v", got)
	}
	if got := f.publisher.failedCount(); got != 3 {
		t.Errorf("expected 3 PlaybackFailed events, got %d", got)
	}
}

func TestContinueAllFailingGoesIdle(t *testing.T) {
	f := newPlaybackFixture()
	session := f.registry.GetOrCreate(testGuildID)
	session.Queue.SetNowPlaying(testTrack("done", "url-done"))
	for _, url := range []string{"url-f1", "url-f2"} {
		if err := session.Queue.Enqueue(testTrack(url, url)); err != nil {
			t.Fatal(err)
		}
		f.resolver.failFor(url, ports.ResolutionGeneric)
	}

	f.service.ContinueAfterTrackEnd(context.Background(), testGuildID, domain.TrackEndFinished)

	if got := session.Queue.NowPlaying(); got != nil {
		t.Errorf("expected idle queue, got %+v", got)
	}
	if f.voice.leaveCount() != 1 {
		t.Errorf("expected voice released once, got %d", f.voice.leaveCount())
	}
	if got := f.publisher.failedCount(); got != 2 {
		t.Errorf("expected 2 PlaybackFailed events, got %d", got)
	}
}

func TestContinueEmptyQueueWithAutoplaySuggestsOnce(t *testing.T) {
	f := newPlaybackFixture()
	f.suggester.suggestion = testTrack("suggested", "url-suggested")

	session := f.registry.GetOrCreate(testGuildID)
	session.Queue.SetNowPlaying(testTrack("seed", "url-seed"))
	session.Queue.SetAutoplay(true)

	f.service.ContinueAfterTrackEnd(context.Background(), testGuildID, domain.TrackEndFinished)

	if got := session.Queue.NowPlaying(); got == nil || got.Title != "suggested" {
		t.Errorf("expected suggestion playing, got %+v", got)
	}
	history := session.Queue.History()
	if len(history) != 1 || history[0].Title != "seed" {
		t.Errorf("expected seed track in history, got %+v", history)
	}
	if f.suggester.calls != 1 {
		t.Errorf("expected exactly one suggestion request, got %d", f.suggester.calls)
	}
}

func TestContinueEmptyQueueWithoutAutoplayGoesIdle(t *testing.T) {
	f := newPlaybackFixture()
	session := f.registry.GetOrCreate(testGuildID)
	session.TextChannelID = 300
	session.Queue.SetNowPlaying(testTrack("last", "url-last"))

	f.service.ContinueAfterTrackEnd(context.Background(), testGuildID, domain.TrackEndFinished)

	if session.Queue.NowPlaying() != nil {
		t.Error("expected idle queue")
	}
	if f.voice.leaveCount() != 1 {
		t.Errorf("expected voice released once, got %d", f.voice.leaveCount())
	}
	if len(f.publisher.cleared) != 1 {
		t.Errorf("expected 1 QueueCleared event, got %d", len(f.publisher.cleared))
	}
	if f.suggester.calls != 0 {
		t.Errorf("expected no suggestion request, got %d", f.suggester.calls)
	}
}

func TestContinueStoppedDoesNothing(t *testing.T) {
	f := newPlaybackFixture()
	session := f.registry.GetOrCreate(testGuildID)
	session.Queue.SetNowPlaying(testTrack("a", "url-a"))
	if err := session.Queue.Enqueue(testTrack("b", "url-b")); err != nil {
		t.Fatal(err)
	}

	f.service.ContinueAfterTrackEnd(context.Background(), testGuildID, domain.TrackEndStopped)

	if got := session.Queue.NowPlaying(); got == nil || got.Title != "a" {
		t.Errorf("expected state untouched, got %+v", got)
	}
	if got := session.Queue.Len(); got != 1 {
		t.Errorf("expected pending untouched, got %d", got)
	}
}

func TestSkipForceAdvancesImmediately(t *testing.T) {
	f := newPlaybackFixture()
	session := f.registry.GetOrCreate(testGuildID)
	session.Queue.SetNowPlaying(testTrack("current", "url-current"))
	if err := session.Queue.Enqueue(testTrack("next", "url-next")); err != nil {
		t.Fatal(err)
	}

	out, err := f.service.Skip(context.Background(), SkipInput{GuildID: testGuildID, UserID: 1, Force: true})
	if err != nil {
		t.Fatalf("Skip returned error: %v", err)
	}
	if !out.Skipped {
		t.Error("expected forced skip to proceed")
	}
	if out.NextTrack == nil || out.NextTrack.Title != "next" {
		t.Errorf("expected next track, got %+v", out.NextTrack)
	}
}

func TestSkipVotingBelowThreshold(t *testing.T) {
	f := newPlaybackFixture()
	f.voiceState.occupancy = 4 // requires 2 votes

	session := f.registry.GetOrCreate(testGuildID)
	session.Queue.SetNowPlaying(testTrack("current", "url-current"))

	out, err := f.service.Skip(context.Background(), SkipInput{GuildID: testGuildID, UserID: 1})
	if err != nil {
		t.Fatalf("Skip returned error: %v", err)
	}
	if out.Skipped {
		t.Error("expected vote to be pending, not skipped")
	}
	if out.VotesReceived != 1 || out.VotesRequired != 2 {
		t.Errorf("expected 1/2 votes, got %d/%d", out.VotesReceived, out.VotesRequired)
	}

	// Same user voting again must not push the count over the threshold.
	out, err = f.service.Skip(context.Background(), SkipInput{GuildID: testGuildID, UserID: 1})
	if err != nil {
		t.Fatalf("Skip returned error: %v", err)
	}
	if out.Skipped {
		t.Error("duplicate vote must not trigger the skip")
	}

	// A second voter reaches the majority.
	out, err = f.service.Skip(context.Background(), SkipInput{GuildID: testGuildID, UserID: 2})
	if err != nil {
		t.Fatalf("Skip returned error: %v", err)
	}
	if !out.Skipped {
		t.Error("expected majority vote to trigger the skip")
	}
}

func TestSkipNothingPlaying(t *testing.T) {
	f := newPlaybackFixture()

	_, err := f.service.Skip(context.Background(), SkipInput{GuildID: testGuildID, UserID: 1, Force: true})
	if !errors.Is(err, ErrNotPlaying) {
		t.Errorf("expected ErrNotPlaying, got %v", err)
	}
}

func TestStopClearsAndDisconnects(t *testing.T) {
	f := newPlaybackFixture()
	session := f.registry.GetOrCreate(testGuildID)
	session.TextChannelID = 300
	session.Queue.SetNowPlaying(testTrack("a", "url-a"))
	if err := session.Queue.Enqueue(testTrack("b", "url-b")); err != nil {
		t.Fatal(err)
	}

	if err := f.service.Stop(context.Background(), testGuildID); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if f.registry.Get(testGuildID) != nil {
		t.Error("expected session removed")
	}
	if f.voice.leaveCount() != 1 {
		t.Errorf("expected 1 voice leave, got %d", f.voice.leaveCount())
	}
	if len(f.publisher.cleared) != 1 {
		t.Errorf("expected 1 QueueCleared event, got %d", len(f.publisher.cleared))
	}
}

func TestPauseResumeCycle(t *testing.T) {
	f := newPlaybackFixture()
	session := f.registry.GetOrCreate(testGuildID)
	session.Queue.SetNowPlaying(testTrack("a", "url-a"))

	if err := f.service.Resume(context.Background(), testGuildID); !errors.Is(err, ErrNotPaused) {
		t.Errorf("expected ErrNotPaused, got %v", err)
	}
	if err := f.service.Pause(context.Background(), testGuildID); err != nil {
		t.Fatalf("Pause returned error: %v", err)
	}
	if err := f.service.Pause(context.Background(), testGuildID); !errors.Is(err, ErrAlreadyPaused) {
		t.Errorf("expected ErrAlreadyPaused, got %v", err)
	}
	if err := f.service.Resume(context.Background(), testGuildID); err != nil {
		t.Fatalf("Resume returned error: %v", err)
	}
	if f.player.pauses != 1 || f.player.resumes != 1 {
		t.Errorf("expected 1 pause and 1 resume, got %d/%d", f.player.pauses, f.player.resumes)
	}
}

func TestPreviousReplaysHistory(t *testing.T) {
	f := newPlaybackFixture()
	session := f.registry.GetOrCreate(testGuildID)
	session.Queue.SetNowPlaying(testTrack("old", "url-old"))
	session.Queue.SetLoopTrack(false)
	// Simulate a finished track to populate history.
	next := session.Queue.Advance()
	if next != nil {
		t.Fatal("expected empty pending")
	}
	session.Queue.SetNowPlaying(testTrack("current", "url-current"))

	recalled, err := f.service.Previous(context.Background(), testGuildID)
	if err != nil {
		t.Fatalf("Previous returned error: %v", err)
	}
	if recalled.Title != "old" {
		t.Errorf("expected old track recalled, got %q", recalled.Title)
	}
	pending := session.Queue.Pending()
	if len(pending) != 1 || pending[0].Title != "current" {
		t.Errorf("expected interrupted track requeued first, got %+v", pending)
	}
}

func TestPreviousWithoutHistory(t *testing.T) {
	f := newPlaybackFixture()
	f.registry.GetOrCreate(testGuildID)

	_, err := f.service.Previous(context.Background(), testGuildID)
	if !errors.Is(err, ErrNoHistory) {
		t.Errorf("expected ErrNoHistory, got %v", err)
	}
}

func TestSetVolumeValidatesAndPersists(t *testing.T) {
	f := newPlaybackFixture()

	if err := f.service.SetVolume(context.Background(), testGuildID, 101); !errors.Is(err, ErrInvalidVolume) {
		t.Errorf("expected ErrInvalidVolume, got %v", err)
	}
	if err := f.service.SetVolume(context.Background(), testGuildID, 75); err != nil {
		t.Fatalf("SetVolume returned error: %v", err)
	}

	session := f.registry.Get(testGuildID)
	if got := session.Queue.Volume(); got != 75 {
		t.Errorf("expected volume 75, got %d", got)
	}
	row, _ := f.settings.GetSettings(context.Background(), testGuildID)
	if row.Volume != 75 {
		t.Errorf("expected persisted volume 75, got %d", row.Volume)
	}
}

func TestToggleAutoplayFlipsAndPersists(t *testing.T) {
	f := newPlaybackFixture()

	enabled, err := f.service.ToggleAutoplay(context.Background(), testGuildID)
	if err != nil {
		t.Fatalf("ToggleAutoplay returned error: %v", err)
	}
	if !enabled {
		t.Error("expected autoplay enabled after first toggle")
	}

	enabled, err = f.service.ToggleAutoplay(context.Background(), testGuildID)
	if err != nil {
		t.Fatalf("ToggleAutoplay returned error: %v", err)
	}
	if enabled {
		t.Error("expected autoplay disabled after second toggle")
	}
}

func TestNowPlayingReportsState(t *testing.T) {
	f := newPlaybackFixture()

	if _, err := f.service.NowPlaying(testGuildID); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("expected ErrNotPlaying, got %v", err)
	}

	session := f.registry.GetOrCreate(testGuildID)
	session.Queue.SetNowPlaying(testTrack("a", "url-a"))
	session.Queue.SetVolume(30)
	session.Queue.SetLoopTrack(true)

	out, err := f.service.NowPlaying(testGuildID)
	if err != nil {
		t.Fatalf("NowPlaying returned error: %v", err)
	}
	if out.Track.Title != "a" || out.Volume != 30 || !out.LoopTrack {
		t.Errorf("unexpected state: %+v", out)
	}
}
