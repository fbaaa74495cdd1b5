// Package audio is the sound system: background music crossfaded by a
// bgm.Player over two channels, and sound effects played on a fixed pool
// of voices, all mixed into one stream for the output device.
package audio

import (
	"errors"
	"sync"

	"github.com/gopxl/beep/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/qslib/pkg/bgm"
	"github.com/Faultbox/qslib/pkg/notifier"
	"github.com/Faultbox/qslib/pkg/pool"
)

// DefaultSampleRate is the default sample rate for audio playback.
const DefaultSampleRate = beep.SampleRate(44100)

// DefaultSFXVoices is the default number of simultaneous sound effects.
const DefaultSFXVoices = 8

// Messages published on the manager's notifier.
const (
	MsgBgmPlay       = "SoundManager.OnBgmPlay"       // payload: bgm.Playlist
	MsgBgmStop       = "SoundManager.OnBgmStop"       // payload: nil
	MsgVolumeChanged = "SoundManager.OnVolumeChanged" // payload: float64 music volume
)

// ErrNilClip is returned when BGM is requested without a clip.
var ErrNilClip = errors.New("nil clip")

// Output is an audio device the mixed stream is played on.
type Output interface {
	Open(rate beep.SampleRate, s beep.Streamer) error
	Lock()
	Unlock()
	Close()
}

// Options configures a Manager.
type Options struct {
	SampleRate int
	SFXVoices  int // 0 means DefaultSFXVoices, negative disables SFX
	Events     *notifier.Notifier
	Logger     *zap.Logger
}

// Manager handles audio playback for the game.
//
// All methods, volume setters included, must be called from the game loop:
// events are published synchronously on the caller's goroutine. The mutex
// only guards state shared with the device callback.
type Manager struct {
	mu sync.RWMutex

	// State
	initialized bool
	output      Output
	sampleRate  beep.SampleRate
	mixer       *beep.Mixer

	// Volume settings (0.0 to 1.0)
	masterVolume float64
	bgmVolLevel  float64
	sfxVolLevel  float64
	muted        bool

	// BGM
	music  [2]*Channel
	player *bgm.Player

	// SFX
	voices *pool.Pool[*Channel]
	active []*Channel

	events *notifier.Notifier
	log    *zap.Logger
}

// New creates a new audio manager. It mixes silently until Init attaches
// an output device.
func New(opts Options) *Manager {
	m := &Manager{
		sampleRate:   DefaultSampleRate,
		mixer:        &beep.Mixer{},
		masterVolume: 1.0,
		bgmVolLevel:  0.7,
		sfxVolLevel:  1.0,
		events:       opts.Events,
		log:          opts.Logger,
	}
	if opts.SampleRate > 0 {
		m.sampleRate = beep.SampleRate(opts.SampleRate)
	}
	if m.events == nil {
		m.events = notifier.New()
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}

	m.music[0] = newChannel(m.attach)
	m.music[1] = newChannel(m.attach)
	m.player = bgm.NewPlayer(m.music[0], m.music[1], m, bgm.WithLogger(m.log))

	voices := opts.SFXVoices
	switch {
	case voices == 0:
		voices = DefaultSFXVoices
	case voices < 0:
		voices = 0
	}
	m.voices = pool.NewWith(voices,
		func() *Channel { return newChannel(m.attach) },
		func(c *Channel) { c.SetClip(nil) },
	)
	return m
}

// Init starts playing the mix on out.
func (m *Manager) Init(out Output) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if err := out.Open(m.sampleRate, m.mixer); err != nil {
		return err
	}
	m.output = out
	m.initialized = true
	m.log.Info("audio output opened", zap.Int("sample_rate", int(m.sampleRate)))
	return nil
}

// Close stops all playback, tears down the SFX voices and releases the
// output device.
func (m *Manager) Close() {
	m.StopBGM()
	m.StopAllSFX()

	var voices []*Channel
	m.voices.Each(func(c *Channel, _ pool.Status) { voices = append(voices, c) })
	for _, c := range voices {
		m.voices.DestroyObject(c)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.output != nil {
		m.output.Close()
		m.output = nil
	}
	m.initialized = false
}

// IsInitialized returns whether an output device is attached.
func (m *Manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SampleRate returns the mixing sample rate.
func (m *Manager) SampleRate() beep.SampleRate {
	return m.sampleRate
}

// Output returns the mixed stream. Without an output device it can be
// pulled directly, e.g. for offline rendering.
func (m *Manager) Output() beep.Streamer {
	return m.mixer
}

// Events returns the notifier the manager publishes on.
func (m *Manager) Events() *notifier.Notifier {
	return m.events
}

// attach adds s to the mixer, holding the device lock while a device is
// pulling from it.
func (m *Manager) attach(s beep.Streamer) {
	m.mu.RLock()
	out := m.output
	m.mu.RUnlock()

	if out != nil {
		out.Lock()
		defer out.Unlock()
	}
	m.mixer.Add(s)
}

// SetMasterVolume sets the master volume (0.0 to 1.0).
func (m *Manager) SetMasterVolume(vol float64) {
	m.mu.Lock()
	m.masterVolume = clamp(vol, 0, 1)
	m.mu.Unlock()
	m.volumeChanged()
}

// SetBGMVolume sets the BGM volume (0.0 to 1.0).
func (m *Manager) SetBGMVolume(vol float64) {
	m.mu.Lock()
	m.bgmVolLevel = clamp(vol, 0, 1)
	m.mu.Unlock()
	m.volumeChanged()
}

// SetSFXVolume sets the SFX volume (0.0 to 1.0).
func (m *Manager) SetSFXVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sfxVolLevel = clamp(vol, 0, 1)
}

// SetMuted silences all output without touching the volume levels.
func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	m.muted = muted
	m.mu.Unlock()
	m.volumeChanged()
}

// IsMuted reports whether output is muted.
func (m *Manager) IsMuted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.muted
}

// GetMasterVolume returns the master volume.
func (m *Manager) GetMasterVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.masterVolume
}

// GetBGMVolume returns the BGM volume.
func (m *Manager) GetBGMVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bgmVolLevel
}

// GetSFXVolume returns the SFX volume.
func (m *Manager) GetSFXVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sfxVolLevel
}

// MusicVolume returns the effective BGM volume. It implements
// bgm.VolumeSource.
func (m *Manager) MusicVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.muted {
		return 0
	}
	return m.masterVolume * m.bgmVolLevel
}

func (m *Manager) effectsVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.muted {
		return 0
	}
	return m.masterVolume * m.sfxVolLevel
}

func (m *Manager) volumeChanged() {
	m.events.NotifySubscribers(MsgVolumeChanged, m.MusicVolume())
}

// Player returns the BGM crossfade player.
func (m *Manager) Player() *bgm.Player {
	return m.player
}

// PlayBGM crossfades into clip over crossfade seconds.
func (m *Manager) PlayBGM(clip *Clip, loop bool, crossfade float64) error {
	if clip == nil {
		return ErrNilClip
	}
	m.PlayPlaylist(bgm.Playlist{{Clip: clip, Crossfade: crossfade}}, loop)
	return nil
}

// PlayPlaylist replaces the BGM playlist.
func (m *Manager) PlayPlaylist(pl bgm.Playlist, loop bool) {
	m.player.PlayPlaylist(pl, loop)
	m.log.Info("bgm playlist started", zap.Int("tracks", len(pl)), zap.Bool("loop", loop))
	m.events.NotifySubscribers(MsgBgmPlay, m.player.Playlist())
}

// StopBGM stops the background music.
func (m *Manager) StopBGM() {
	m.player.Stop()
	m.events.NotifySubscribers(MsgBgmStop, nil)
}

// StopBGMClip stops clip if it is playing on either BGM channel.
func (m *Manager) StopBGMClip(clip *Clip) {
	if clip == nil {
		return
	}
	m.player.StopClip(clip)
	if m.player.IsStopped() {
		m.events.NotifySubscribers(MsgBgmStop, nil)
	}
}

// IsBGMPlaying returns whether clip is playing as BGM.
func (m *Manager) IsBGMPlaying(clip *Clip) bool {
	if clip == nil {
		return false
	}
	return m.player.IsBgmPlaying(clip)
}

// IsPlaylistPlaying returns whether pl is the loaded playlist and one of
// its clips is playing.
func (m *Manager) IsPlaylistPlaying(pl bgm.Playlist) bool {
	return m.player.IsPlaylistPlaying(pl)
}

// PlaySFX plays clip on a free voice. It returns false when every voice is
// busy.
func (m *Manager) PlaySFX(clip *Clip) bool {
	if clip == nil {
		return false
	}
	voice, ok := m.voices.GetReadyObject()
	if !ok {
		m.log.Warn("no free sfx voice", zap.String("clip", clip.Name()), zap.Int("voices", m.voices.Size()))
		return false
	}
	voice.SetClip(clip)
	voice.SetVolume(m.effectsVolume())
	voice.Play()
	m.active = append(m.active, voice)
	return true
}

// StopAllSFX stops every playing sound effect.
func (m *Manager) StopAllSFX() {
	for _, voice := range m.active {
		voice.SetClip(nil)
		m.voices.ReturnObject(voice)
	}
	m.active = m.active[:0]
}

// ActiveSFX returns the number of voices in use.
func (m *Manager) ActiveSFX() int {
	return len(m.active)
}

// Update advances the BGM crossfade and returns finished SFX voices to the
// pool. Call it once per tick.
func (m *Manager) Update(dt float64) {
	m.player.Update(dt)

	kept := m.active[:0]
	for _, voice := range m.active {
		if voice.IsPlaying() {
			kept = append(kept, voice)
			continue
		}
		voice.SetClip(nil)
		m.voices.ReturnObject(voice)
	}
	clear(m.active[len(kept):])
	m.active = kept
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
