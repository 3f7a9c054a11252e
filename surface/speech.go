package surface

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"

	"github.com/nansu0425/RandomPitchPlayer/logger"
	"github.com/nansu0425/RandomPitchPlayer/pitch"
)

const (
	// MaxOutstanding is how many announcements may queue in the mixer before
	// new ones are skipped.
	MaxOutstanding = 5

	// ToneDuration is the length of the fallback pitch tone.
	ToneDuration = 180 * time.Millisecond

	toneVolume = 0.3
)

// Format is the mixer format every clip is resampled to.
var Format = beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}

// Speech announces pitches through the speaker. Each pitch plays its voice
// clip when one was loaded, otherwise a short tone at the pitch frequency.
type Speech struct {
	clips       map[pitch.Pitch]*beep.Buffer
	available   bool
	outstanding atomic.Int32
	logger      *logrus.Logger

	// play hands a streamer to the mixer.
	play func(beep.Streamer)

	closeOnce sync.Once
}

// NewSpeech loads voice clips from voiceDir and opens the speaker. When the
// speaker cannot be opened the speech is unavailable and every call is a
// no-op.
func NewSpeech(voiceDir string) *Speech {
	s := newSpeech(speaker.Play)

	if voiceDir != "" {
		clips, err := LoadVoice(voiceDir, Format)
		if err != nil {
			s.logger.WithError(err).WithField("dir", voiceDir).Warn("Voice clips unavailable, using tones")
		}
		s.clips = clips
	}

	if err := speaker.Init(Format.SampleRate, Format.SampleRate.N(time.Second/10)); err != nil {
		s.logger.WithError(err).Warn("Speaker unavailable, speech disabled")
		return s
	}
	s.available = true
	s.logger.WithField("clips", len(s.clips)).Debug("Speech ready")
	return s
}

func newSpeech(play func(beep.Streamer)) *Speech {
	return &Speech{
		clips:  map[pitch.Pitch]*beep.Buffer{},
		logger: logger.GetProjectLogger(),
		play:   play,
	}
}

// VoiceFile is the clip path for p under dir.
func VoiceFile(dir string, p pitch.Pitch) string {
	return filepath.Join(dir, "pitch_"+p.String()+".wav")
}

// LoadVoice decodes the per-pitch WAV clips found in dir into buffers in
// format. Missing clips are skipped; the first decode error is returned along
// with whatever loaded.
func LoadVoice(dir string, format beep.Format) (map[pitch.Pitch]*beep.Buffer, error) {
	clips := make(map[pitch.Pitch]*beep.Buffer, pitch.Count)
	var firstErr error

	for _, p := range pitch.All {
		path := VoiceFile(dir, p)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		buf, err := loadClip(path, format)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		clips[p] = buf
	}

	return clips, firstErr
}

func loadClip(path string, format beep.Format) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	streamer, clipFormat, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, errors.WithStackTrace(err)
	}
	defer streamer.Close()

	var source beep.Streamer = streamer
	if clipFormat.SampleRate != format.SampleRate {
		source = beep.Resample(4, clipFormat.SampleRate, format.SampleRate, streamer)
	}

	buf := beep.NewBuffer(format)
	buf.Append(source)
	return buf, nil
}

// Tone returns a decaying sine at freq lasting d.
func Tone(sr beep.SampleRate, freq float64, d time.Duration) beep.Streamer {
	total := sr.N(d)
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		if pos >= total {
			return 0, false
		}
		for i := range samples {
			if pos >= total {
				break
			}
			env := 1 - float64(pos)/float64(total)
			v := toneVolume * env * math.Sin(2*math.Pi*freq*float64(pos)/float64(sr))
			samples[i][0], samples[i][1] = v, v
			pos++
			n++
		}
		return n, true
	})
}

func (s *Speech) Speak(p pitch.Pitch) {
	if !s.available || !p.Valid() {
		return
	}
	if s.outstanding.Load() >= MaxOutstanding {
		s.logger.WithField("pitch", p).Debug("Speech backlog full, skipping")
		return
	}

	var streamer beep.Streamer
	if clip, ok := s.clips[p]; ok {
		streamer = clip.Streamer(0, clip.Len())
	} else {
		streamer = Tone(Format.SampleRate, p.Frequency(), ToneDuration)
	}

	s.outstanding.Add(1)
	s.play(beep.Seq(streamer, beep.Callback(func() {
		s.outstanding.Add(-1)
	})))
}

// Stop drops every queued announcement.
func (s *Speech) Stop() {
	if !s.available {
		return
	}
	speaker.Clear()
	s.outstanding.Store(0)
}

func (s *Speech) Available() bool {
	return s.available
}

// Outstanding is the number of announcements still in the mixer.
func (s *Speech) Outstanding() int {
	return int(s.outstanding.Load())
}

func (s *Speech) Close() error {
	s.closeOnce.Do(func() {
		if s.available {
			s.Stop()
			speaker.Close()
			s.available = false
		}
	})
	return nil
}
