package fixture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slices"
	"k8s.io/utils/clock"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/logger"
)

// DMXState holds the DMX512 values for each channel
type DMXState struct {
	universes map[int][]byte
	lock      sync.Mutex
}

type dmxOperation struct {
	universe, channel, value int
}

// NewDMXState returns an empty state.
func NewDMXState() *DMXState {
	return &DMXState{universes: make(map[int][]byte)}
}

// GetValue returns the value of a 1-based channel.
func (s *DMXState) GetValue(universe, channel int) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	values, ok := s.universes[universe]
	if !ok || channel < 1 || channel > len(values) {
		return 0
	}
	return int(values[channel-1])
}

func (s *DMXState) set(ops ...dmxOperation) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, op := range ops {
		if op.channel < 1 || op.channel > config.DMXUniverseSize {
			return fmt.Errorf("dmx channel (%d) not in range, op=%v", op.channel, op)
		}

		s.initializeUniverse(op.universe)
		s.universes[op.universe][op.channel-1] = byte(op.value)
	}

	return nil
}

func (s *DMXState) initializeUniverse(universe int) {
	if s.universes[universe] == nil {
		s.universes[universe] = make([]byte, config.DMXUniverseSize)
	}
}

// Universes returns the known universe ids in order.
func (s *DMXState) Universes() []int {
	s.lock.Lock()
	defer s.lock.Unlock()
	ids := make([]int, 0, len(s.universes))
	for id := range s.universes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Values returns a copy of one universe.
func (s *DMXState) Values(universe int) []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	values := make([]byte, config.DMXUniverseSize)
	copy(values, s.universes[universe])
	return values
}

// OLAClient is the interface for communicating with OLA
type OLAClient interface {
	SendDmx(universe int, values []byte) (status bool, err error)
	Close()
}

// Source produces the DMX state to send at a given time.
type Source interface {
	DMXState(now time.Time) *DMXState
}

// SendDMXWorker sends OLA the current dmxState across all universes on every
// tick. A final frame is sent when ctx is cancelled.
func SendDMXWorker(ctx context.Context, client OLAClient, tick time.Duration, c clock.Clock, source Source, wg *sync.WaitGroup) error {
	defer wg.Done()
	defer client.Close()

	log := logger.GetProjectLogger()

	t := c.NewTimer(tick)
	defer t.Stop()
	log.Debugf("dmx worker started at %v", c.Now())

	failing := false
	send := func() {
		state := source.DMXState(c.Now())
		for _, universe := range state.Universes() {
			_, err := client.SendDmx(universe, state.Values(universe))
			switch {
			case err != nil && !failing:
				failing = true
				log.WithError(err).WithField("universe", universe).Warn("dmx send failed")
			case err == nil && failing:
				failing = false
				log.WithField("universe", universe).Info("dmx send recovered")
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			send()
			log.Debug("dmx worker shutdown")
			return ctx.Err()
		case <-t.C():
			send()
			t.Reset(tick)
		}
	}
}
