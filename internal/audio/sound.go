package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// fanfare notes (C5, E5, G5, C6)
var fanfareNotes = []float64{523.25, 659.25, 783.99, 1046.50}

// SoundManager plays the wheel's tick and fanfare. Every Play is a no-op until Initialize succeeds.
type SoundManager struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	enabled     bool
}

func NewSoundManager(enabled bool) *SoundManager {
	return &SoundManager{
		mixer:   &beep.Mixer{},
		enabled: enabled,
	}
}

// Initialize opens the speaker. Failure leaves the manager silent.
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized || !sm.enabled {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}

	speaker.Play(sm.mixer)
	sm.initialized = true
	return nil
}

// Active reports whether sounds will be heard.
func (sm *SoundManager) Active() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.initialized
}

func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	speaker.Lock()
	sm.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	sm.initialized = false
}

// PlayTick plays the short click heard when a segment passes the pointer.
func (sm *SoundManager) PlayTick() {
	sm.play(beep.Take(sampleRate.N(30*time.Millisecond), NewToneGenerator(sampleRate, 1200, 60)))
}

// PlayFanfare plays a rising arpeggio for the result.
func (sm *SoundManager) PlayFanfare() {
	sm.play(Fanfare(sampleRate))
}

func (sm *SoundManager) play(s beep.Streamer) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	speaker.Lock()
	sm.mixer.Add(s)
	speaker.Unlock()
}

// Fanfare builds the result arpeggio.
func Fanfare(sr beep.SampleRate) beep.Streamer {
	notes := make([]beep.Streamer, 0, len(fanfareNotes))
	for i, freq := range fanfareNotes {
		length := 120 * time.Millisecond
		if i == len(fanfareNotes)-1 {
			length = 400 * time.Millisecond
		}
		notes = append(notes, beep.Take(sr.N(length), NewToneGenerator(sr, freq, 6)))
	}
	return beep.Seq(notes...)
}

// ToneGenerator is a sine tone with an exponential decay envelope.
type ToneGenerator struct {
	sr    beep.SampleRate
	freq  float64
	decay float64
	pos   int
}

func NewToneGenerator(sr beep.SampleRate, freq, decay float64) *ToneGenerator {
	return &ToneGenerator{sr: sr, freq: freq, decay: decay}
}

func (g *ToneGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		sample := 0.25 * math.Exp(-t*g.decay) * math.Sin(2*math.Pi*g.freq*t)
		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ToneGenerator) Err() error {
	return nil
}
