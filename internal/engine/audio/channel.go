package audio

import (
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/Faultbox/qslib/pkg/bgm"
)

// Channel is a single playback voice feeding the manager's mixer. It is
// used both for the two BGM channels and for pooled SFX voices.
//
// The game loop drives a Channel while the output device pulls samples
// from it, so all state is guarded by mu.
type Channel struct {
	mu     sync.Mutex
	attach func(beep.Streamer)

	clip    *Clip
	stream  beep.StreamSeeker
	gain    *effects.Gain
	volume  float64
	playing bool

	// gen invalidates mixer streams left over from earlier Play calls.
	gen uint64
}

func newChannel(attach func(beep.Streamer)) *Channel {
	return &Channel{attach: attach, volume: 1}
}

// Play starts the clip from the beginning. Stop rewinds, so there is no
// resume.
func (c *Channel) Play() {
	c.mu.Lock()
	if c.clip == nil || c.playing {
		c.mu.Unlock()
		return
	}
	c.stream = c.clip.buffer.Streamer(0, c.clip.buffer.Len())
	c.gain = &effects.Gain{Streamer: c.stream, Gain: c.volume - 1}
	c.playing = true
	c.gen++
	s := &channelStream{ch: c, gen: c.gen}
	c.mu.Unlock()

	c.attach(s)
}

// Stop halts playback and rewinds to the start of the clip.
func (c *Channel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Channel) stopLocked() {
	c.playing = false
	c.stream = nil
	c.gain = nil
	c.gen++
}

// IsPlaying reports whether the channel is producing samples.
func (c *Channel) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// SetVolume sets the linear gain, clamped to [0,1].
func (c *Channel) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = clamp(v, 0, 1)
	if c.gain != nil {
		c.gain.Gain = c.volume - 1
	}
}

// Volume returns the linear gain.
func (c *Channel) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// SetClip stops the channel and loads clip. Clips not created by this
// package are treated as nil.
func (c *Channel) SetClip(clip bgm.Clip) {
	cl, _ := clip.(*Clip)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.clip = cl
}

// Clip returns the loaded clip, or nil.
func (c *Channel) Clip() bgm.Clip {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clip == nil {
		return nil
	}
	return c.clip
}

// Time returns the playback position in seconds. A clip that played to
// the end reports its full length until it is played or stopped again.
func (c *Channel) Time() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clip == nil || c.stream == nil {
		return 0
	}
	return c.clip.buffer.Format().SampleRate.D(c.stream.Position()).Seconds()
}

// channelStream is what the mixer pulls from. It stops producing samples
// as soon as its channel is stopped or replayed.
type channelStream struct {
	ch  *Channel
	gen uint64
}

func (s *channelStream) Stream(samples [][2]float64) (int, bool) {
	c := s.ch
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != s.gen || !c.playing {
		return 0, false
	}
	n, ok := c.gain.Stream(samples)
	if !ok {
		c.playing = false
	}
	return n, ok
}

func (s *channelStream) Err() error {
	c := s.ch
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != s.gen || c.stream == nil {
		return nil
	}
	return c.stream.Err()
}

var _ bgm.Channel = (*Channel)(nil)
