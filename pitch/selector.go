package pitch

import (
	"math/rand"
	"time"
)

// Selector draws random pitches, never returning the same pitch twice in a row.
//
// A Selector is not safe for concurrent use; the scheduler owns it.
type Selector struct {
	rnd     *rand.Rand
	last    Pitch
	hasLast bool
}

// NewSelector creates a Selector seeded from the current time.
func NewSelector() *Selector {
	return NewSelectorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSelectorWithSource creates a Selector backed by src.
func NewSelectorWithSource(src rand.Source) *Selector {
	return &Selector{rnd: rand.New(src)}
}

// Next returns a uniformly random pitch. After the first call the previous
// result is excluded, leaving Count-1 equally likely outcomes.
func (s *Selector) Next() Pitch {
	var next Pitch
	if !s.hasLast {
		next = All[s.rnd.Intn(Count)]
	} else {
		// pick among the other six and shift past the previous pitch
		next = Pitch(s.rnd.Intn(Count - 1))
		if next >= s.last {
			next++
		}
	}

	s.last = next
	s.hasLast = true
	return next
}

// Last returns the most recent pitch, if any.
func (s *Selector) Last() (Pitch, bool) {
	return s.last, s.hasLast
}

// Reset forgets the previous pitch so the next draw uses the full alphabet.
func (s *Selector) Reset() {
	s.hasLast = false
}
