// Package device plays the audio mix on the system speaker.
package device

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Speaker is an audio.Output backed by the beep speaker.
type Speaker struct {
	// Latency is the speaker buffer length. Defaults to 1/30 s.
	Latency time.Duration
}

// Open initializes the speaker at rate and starts playing s.
func (sp *Speaker) Open(rate beep.SampleRate, s beep.Streamer) error {
	latency := sp.Latency
	if latency <= 0 {
		latency = time.Second / 30
	}
	if err := speaker.Init(rate, rate.N(latency)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(s)
	return nil
}

// Lock stops the speaker from pulling samples until Unlock.
func (sp *Speaker) Lock() {
	speaker.Lock()
}

// Unlock resumes the speaker.
func (sp *Speaker) Unlock() {
	speaker.Unlock()
}

// Close stops all playback.
func (sp *Speaker) Close() {
	speaker.Clear()
}
