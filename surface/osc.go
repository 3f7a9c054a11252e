package surface

import (
	"github.com/hypebeast/go-osc/osc"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/logger"
	"github.com/nansu0425/RandomPitchPlayer/pitch"
)

// OSCMirror broadcasts each rendered pitch as an OSC message carrying the
// note name, its index in the scale and the display color.
type OSCMirror struct {
	client  *osc.Client
	address string
	logger  *logrus.Logger
	failing bool
}

// NewOSCMirror creates a mirror sending to the configured target.
func NewOSCMirror(cfg config.OSCConfig) *OSCMirror {
	return &OSCMirror{
		client:  osc.NewClient(cfg.Host, cfg.Port),
		address: cfg.Address,
		logger:  logger.GetProjectLogger(),
	}
}

// Message builds the OSC message for p.
func (m *OSCMirror) Message(p pitch.Pitch, color colorful.Color) *osc.Message {
	return osc.NewMessage(m.address, p.String(), int32(p), color.Hex())
}

func (m *OSCMirror) Show(p pitch.Pitch, color colorful.Color) {
	err := m.client.Send(m.Message(p, color))
	switch {
	case err != nil && !m.failing:
		m.failing = true
		m.logger.WithError(err).Warn("OSC send failed")
	case err == nil && m.failing:
		m.failing = false
		m.logger.Info("OSC send recovered")
	}
}

func (m *OSCMirror) Close() error {
	return nil
}
