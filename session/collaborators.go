package session

import (
	"context"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/nansu0425/RandomPitchPlayer/history"
	"github.com/nansu0425/RandomPitchPlayer/pitch"
)

// Display shows the current pitch label and the remaining session time.
type Display interface {
	// Render shows text in color and returns when the render was issued.
	Render(text string, color colorful.Color) time.Time

	// CurrentText is the label the user can currently see.
	CurrentText() string
	// Frames counts the frames that have reached the screen.
	Frames() uint64

	ShowRemainingTime(seconds float64)
	ClearRemainingTime()
}

// Speech announces pitches. Playback must not block the caller.
type Speech interface {
	Speak(p pitch.Pitch)
	Stop()
	Available() bool
	Close() error
}

// Power keeps the machine awake while a session runs. Both calls are idempotent.
type Power interface {
	BeginKeepAwake() error
	EndKeepAwake() error
	Available() bool
}

// Mirror receives every pitch that is rendered, for output beyond the screen.
type Mirror interface {
	Show(p pitch.Pitch, color colorful.Color)
	Close() error
}

// HistoryStore persists session summaries.
type HistoryStore interface {
	Record(ctx context.Context, s history.Session) error
}

type noSpeech struct{}

func (noSpeech) Speak(pitch.Pitch) {}
func (noSpeech) Stop()             {}
func (noSpeech) Available() bool   { return false }
func (noSpeech) Close() error      { return nil }

type noPower struct{}

func (noPower) BeginKeepAwake() error { return nil }
func (noPower) EndKeepAwake() error   { return nil }
func (noPower) Available() bool       { return false }
