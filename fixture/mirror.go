package fixture

import (
	"context"
	"sync"
	"time"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/nickysemenza/gola"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/effect"
	"github.com/nansu0425/RandomPitchPlayer/logger"
	"github.com/nansu0425/RandomPitchPlayer/pitch"
	"github.com/nansu0425/RandomPitchPlayer/profile"
)

// FlashFloor is the level the fixtures rest at between pitches.
const FlashFloor = 0.35

// Mirror shows every rendered pitch color on a group of DMX fixtures, flashing
// them on each change.
type Mirror struct {
	group  *Group
	state  *DMXState
	flash  *effect.Flash
	clock  clock.Clock
	logger *logrus.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMirror creates a mirror over group. Nothing is sent until Start.
func NewMirror(group *Group, flash *effect.Flash, c clock.Clock) *Mirror {
	return &Mirror{
		group:  group,
		state:  NewDMXState(),
		flash:  flash,
		clock:  c,
		logger: logger.GetProjectLogger(),
		cancel: func() {},
	}
}

// Open patches the configured fixtures and connects to OLA.
func Open(cfg config.DMXConfig, profiles map[string]profile.Profile, c clock.Clock) (*Mirror, error) {
	group, err := NewGroupFromPatch(cfg.Fixtures, profiles)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	client, err := gola.New(cfg.OLAAddress)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	m := NewMirror(group, effect.NewFlash(cfg.Flash, FlashFloor), c)
	m.Start(context.Background(), client, cfg.Tick)

	m.logger.WithFields(logrus.Fields{
		"ola":      cfg.OLAAddress,
		"fixtures": group.Names(),
	}).Info("dmx mirror connected")

	return m, nil
}

// Start launches the worker that streams the state to client.
func (m *Mirror) Start(ctx context.Context, client OLAClient, tick time.Duration) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go SendDMXWorker(ctx, client, tick, m.clock, m, &m.wg)
}

// Show sets every fixture to color and restarts the flash.
func (m *Mirror) Show(_ pitch.Pitch, color colorful.Color) {
	for _, fix := range m.group.Fixtures {
		fix.SetColor(color)
	}
	m.flash.Trigger(m.clock.Now())
}

// DMXState applies the flash level at now and returns the updated state.
func (m *Mirror) DMXState(now time.Time) *DMXState {
	level := m.flash.Level(now)
	for _, fix := range m.group.Fixtures {
		fix.SetIntensity(level)
		if !fix.NeedsUpdate() {
			continue
		}
		if err := m.state.set(fix.dmxOperations()...); err != nil {
			m.logger.WithError(err).WithField("fixture", fix.Name).Error("bad dmx patch")
		}
		fix.HasUpdated()
	}
	return m.state
}

// Close blacks out the fixtures, sends a final frame and stops the worker.
func (m *Mirror) Close() error {
	m.closeOnce.Do(func() {
		for _, fix := range m.group.Fixtures {
			fix.SetColor(colorful.Color{})
		}
		m.cancel()
		m.wg.Wait()
	})
	return nil
}
