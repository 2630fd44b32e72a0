package usecases

import (
	"context"
	"errors"
	"testing"
)

func newVoiceFixture() (*VoiceService, *playbackFixture) {
	f := newPlaybackFixture()
	return NewVoiceService(f.registry, f.voice, f.voiceState, f.player), f
}

func TestJoinUsesUserChannel(t *testing.T) {
	service, f := newVoiceFixture()
	f.voiceState.channel = 555

	channelID, err := service.Join(context.Background(), JoinInput{
		GuildID: testGuildID, UserID: 1, TextChannelID: 300,
	})
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if channelID != 555 {
		t.Errorf("expected channel 555, got %d", channelID)
	}

	session := f.registry.Get(testGuildID)
	if session == nil {
		t.Fatal("expected session created")
	}
	if session.VoiceChannelID != 555 || session.TextChannelID != 300 {
		t.Errorf("unexpected session channels: %d/%d", session.VoiceChannelID, session.TextChannelID)
	}
}

func TestJoinExplicitChannel(t *testing.T) {
	service, _ := newVoiceFixture()

	channelID, err := service.Join(context.Background(), JoinInput{
		GuildID: testGuildID, UserID: 1, VoiceChannelID: 777,
	})
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if channelID != 777 {
		t.Errorf("expected channel 777, got %d", channelID)
	}
}

func TestJoinUserNotInVoice(t *testing.T) {
	service, f := newVoiceFixture()
	f.voiceState.inChannel = false

	_, err := service.Join(context.Background(), JoinInput{GuildID: testGuildID, UserID: 1})
	if !errors.Is(err, ErrUserNotInVoice) {
		t.Errorf("expected ErrUserNotInVoice, got %v", err)
	}
}

func TestLeaveRemovesSession(t *testing.T) {
	service, f := newVoiceFixture()
	f.registry.GetOrCreate(testGuildID)

	if err := service.Leave(context.Background(), testGuildID); err != nil {
		t.Fatalf("Leave returned error: %v", err)
	}
	if f.registry.Get(testGuildID) != nil {
		t.Error("expected session removed")
	}
	if f.voice.leaveCount() != 1 {
		t.Errorf("expected 1 voice leave, got %d", f.voice.leaveCount())
	}
	if f.player.stops != 1 {
		t.Errorf("expected player stopped, got %d stops", f.player.stops)
	}
}

func TestLeaveNotConnected(t *testing.T) {
	service, _ := newVoiceFixture()

	if err := service.Leave(context.Background(), testGuildID); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}
