package engine

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/nansu0425/RandomPitchPlayer/pitch"
)

// UpdateRequest asks the UI to show a pitch. It is created by the scheduler
// for each fire and consumed exactly once.
type UpdateRequest struct {
	Pitch pitch.Pitch
	Color colorful.Color

	// TargetTime is the instant the fire was scheduled for, not when it ran.
	TargetTime time.Time

	// Sequence starts at 1 for every session and has no gaps.
	Sequence uint64
}

// NewUpdateRequest builds a request, deriving the color from the pitch.
func NewUpdateRequest(p pitch.Pitch, target time.Time, seq uint64) UpdateRequest {
	return UpdateRequest{
		Pitch:      p,
		Color:      p.Color(),
		TargetTime: target,
		Sequence:   seq,
	}
}
