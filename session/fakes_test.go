package session

import (
	"context"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"k8s.io/utils/clock"

	"github.com/nansu0425/RandomPitchPlayer/history"
	"github.com/nansu0425/RandomPitchPlayer/pitch"
)

type fakeDisplay struct {
	clock clock.PassiveClock

	// lag keeps CurrentText on the previous label until flush is called
	lag     bool
	shown   string
	latest  string
	renders []string
	colors  []colorful.Color
	frames  uint64

	remaining []float64
	cleared   int
}

func (d *fakeDisplay) Render(text string, color colorful.Color) time.Time {
	d.renders = append(d.renders, text)
	d.colors = append(d.colors, color)
	d.latest = text
	if !d.lag {
		d.shown = text
		d.frames++
	}
	return d.clock.Now()
}

// flush draws a frame with the latest label.
func (d *fakeDisplay) flush() {
	d.shown = d.latest
	d.frames++
}

func (d *fakeDisplay) Frames() uint64 {
	return d.frames
}

func (d *fakeDisplay) CurrentText() string {
	return d.shown
}

func (d *fakeDisplay) ShowRemainingTime(seconds float64) {
	d.remaining = append(d.remaining, seconds)
}

func (d *fakeDisplay) ClearRemainingTime() {
	d.cleared++
}

func (d *fakeDisplay) last() string {
	if len(d.renders) == 0 {
		return ""
	}
	return d.renders[len(d.renders)-1]
}

type fakeSpeech struct {
	available bool
	spoken    []pitch.Pitch
	stops     int
	closed    bool
}

func (s *fakeSpeech) Speak(p pitch.Pitch) { s.spoken = append(s.spoken, p) }
func (s *fakeSpeech) Stop()               { s.stops++ }
func (s *fakeSpeech) Available() bool     { return s.available }
func (s *fakeSpeech) Close() error {
	s.closed = true
	return nil
}

type fakePower struct {
	begins, ends int
}

func (p *fakePower) BeginKeepAwake() error {
	p.begins++
	return nil
}

func (p *fakePower) EndKeepAwake() error {
	p.ends++
	return nil
}

func (p *fakePower) Available() bool { return true }

type fakeMirror struct {
	shown  []pitch.Pitch
	closed bool
}

func (m *fakeMirror) Show(p pitch.Pitch, _ colorful.Color) { m.shown = append(m.shown, p) }
func (m *fakeMirror) Close() error {
	m.closed = true
	return nil
}

type fakeHistory struct {
	sessions []history.Session
}

func (h *fakeHistory) Record(_ context.Context, s history.Session) error {
	h.sessions = append(h.sessions, s)
	return nil
}
