package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/qslib/pkg/bgm"
	"github.com/Faultbox/qslib/pkg/notifier"
)

const testRate = 1000

var testFormat = beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}

func tone(v float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{v, v}
		}
		return len(samples), true
	})
}

// testClip returns a clip of n samples at testRate, every sample set to v.
func testClip(name string, n int, v float64) *Clip {
	buf := beep.NewBuffer(testFormat)
	buf.Append(beep.Take(n, tone(v)))
	return NewClip(name, buf)
}

// pull streams n samples out of the mix and returns them.
func pull(m *Manager, n int) [][2]float64 {
	samples := make([][2]float64, n)
	m.Output().Stream(samples)
	return samples
}

type fakeOutput struct {
	rate   beep.SampleRate
	stream beep.Streamer
	locks  int
	closed bool
}

func (o *fakeOutput) Open(rate beep.SampleRate, s beep.Streamer) error {
	o.rate, o.stream = rate, s
	return nil
}
func (o *fakeOutput) Lock()   { o.locks++ }
func (o *fakeOutput) Unlock() {}
func (o *fakeOutput) Close()  { o.closed = true }

func TestClamp(t *testing.T) {
	tests := []struct {
		v, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0, 0, 1, 0},
		{1, 0, 1, 1},
	}

	for _, tt := range tests {
		got := clamp(tt.v, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%f, %f, %f) = %f, want %f", tt.v, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestNewManager(t *testing.T) {
	m := New(Options{})
	if m == nil {
		t.Fatal("New() returned nil")
	}

	// Check default volumes
	if m.GetMasterVolume() != 1.0 {
		t.Errorf("default master volume = %f, want 1.0", m.GetMasterVolume())
	}
	if m.GetBGMVolume() != 0.7 {
		t.Errorf("default BGM volume = %f, want 0.7", m.GetBGMVolume())
	}
	if m.GetSFXVolume() != 1.0 {
		t.Errorf("default SFX volume = %f, want 1.0", m.GetSFXVolume())
	}
	if m.SampleRate() != DefaultSampleRate {
		t.Errorf("default sample rate = %d, want %d", m.SampleRate(), DefaultSampleRate)
	}
	if m.voices.Size() != DefaultSFXVoices {
		t.Errorf("default voices = %d, want %d", m.voices.Size(), DefaultSFXVoices)
	}
	if !m.Player().IsStopped() {
		t.Error("player should start stopped")
	}
}

func TestSetVolume(t *testing.T) {
	m := New(Options{})

	m.SetMasterVolume(0.5)
	if m.GetMasterVolume() != 0.5 {
		t.Errorf("master volume = %f, want 0.5", m.GetMasterVolume())
	}

	// Test clamping
	m.SetMasterVolume(2.0)
	if m.GetMasterVolume() != 1.0 {
		t.Errorf("master volume = %f, want 1.0 (clamped)", m.GetMasterVolume())
	}

	m.SetMasterVolume(-1.0)
	if m.GetMasterVolume() != 0.0 {
		t.Errorf("master volume = %f, want 0.0 (clamped)", m.GetMasterVolume())
	}

	m.SetBGMVolume(0.3)
	if m.GetBGMVolume() != 0.3 {
		t.Errorf("BGM volume = %f, want 0.3", m.GetBGMVolume())
	}

	m.SetSFXVolume(0.8)
	if m.GetSFXVolume() != 0.8 {
		t.Errorf("SFX volume = %f, want 0.8", m.GetSFXVolume())
	}
}

func TestMusicVolume(t *testing.T) {
	m := New(Options{})
	m.SetMasterVolume(0.5)
	assert.InDelta(t, 0.35, m.MusicVolume(), 1e-9)

	m.SetMuted(true)
	assert.True(t, m.IsMuted())
	assert.Zero(t, m.MusicVolume())
	assert.Equal(t, 0.5, m.GetMasterVolume(), "mute keeps levels")

	m.SetMuted(false)
	assert.InDelta(t, 0.35, m.MusicVolume(), 1e-9)
}

func TestInitAndClose(t *testing.T) {
	m := New(Options{SampleRate: testRate})
	out := &fakeOutput{}

	require.NoError(t, m.Init(out))
	assert.True(t, m.IsInitialized())
	assert.Equal(t, beep.SampleRate(testRate), out.rate)
	assert.Same(t, m.mixer, out.stream)

	require.NoError(t, m.PlayBGM(testClip("a", 100, 0.5), false, 0))
	m.Update(0)
	assert.Positive(t, out.locks, "attaching to a live mixer takes the device lock")

	m.Close()
	assert.False(t, m.IsInitialized())
	assert.True(t, out.closed)
	assert.True(t, m.Player().IsStopped())
	assert.Equal(t, m.voices.Size(), m.voices.NullCount())
}

func TestPlayBGMNilClip(t *testing.T) {
	m := New(Options{})
	assert.ErrorIs(t, m.PlayBGM(nil, true, 1), ErrNilClip)
	assert.True(t, m.Player().IsStopped())
}

func TestBGMThroughMixer(t *testing.T) {
	m := New(Options{SampleRate: testRate})
	clip := testClip("theme", 100, 0.5)

	require.NoError(t, m.PlayBGM(clip, true, 0))
	m.Update(0)
	assert.True(t, m.IsBGMPlaying(clip))
	assert.True(t, m.IsPlaylistPlaying(bgm.Playlist{{Clip: clip, Crossfade: 0}}))
	assert.InDelta(t, 0.7, m.Player().Current().Volume(), 1e-9)

	samples := pull(m, 10)
	assert.InDelta(t, 0.35, samples[0][0], 1e-3)
	assert.InDelta(t, 0.35, samples[9][1], 1e-3)

	m.SetBGMVolume(1)
	m.Update(0)
	samples = pull(m, 10)
	assert.InDelta(t, 0.5, samples[0][0], 1e-3)

	m.StopBGM()
	assert.False(t, m.IsBGMPlaying(clip))
	samples = pull(m, 10)
	assert.Zero(t, samples[0][0])
}

func TestBGMCrossfadeThroughMixer(t *testing.T) {
	m := New(Options{SampleRate: testRate})
	m.SetBGMVolume(1)
	a := testClip("a", 1000, 0.5)
	b := testClip("b", 2000, 0.25)

	require.NoError(t, m.PlayBGM(a, true, 0))
	m.Update(0)
	require.NoError(t, m.PlayBGM(b, true, 1))

	m.Update(0.5)
	assert.InDelta(t, 0.5, m.Player().Position(), 1e-9)
	samples := pull(m, 1)
	assert.InDelta(t, 0.5*0.5+0.25*0.5, samples[0][0], 1e-3)

	m.Update(0.5)
	assert.False(t, m.Player().ChangeRequested())
	assert.False(t, m.IsBGMPlaying(a))
	assert.True(t, m.IsBGMPlaying(b))
	samples = pull(m, 1)
	assert.InDelta(t, 0.25, samples[0][0], 1e-3)
}

func TestStopBGMClip(t *testing.T) {
	m := New(Options{SampleRate: testRate})
	clip := testClip("theme", 100, 0.5)

	m.StopBGMClip(nil)
	require.NoError(t, m.PlayBGM(clip, true, 0))
	m.Update(0)

	m.StopBGMClip(testClip("other", 10, 0.1))
	assert.True(t, m.IsBGMPlaying(clip))

	m.StopBGMClip(clip)
	assert.False(t, m.IsBGMPlaying(clip))
	assert.True(t, m.Player().IsStopped())
}

func TestSFXVoices(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := New(Options{SampleRate: testRate, SFXVoices: 2, Logger: zap.New(core)})
	hit := testClip("hit", 100, 0.5)

	assert.False(t, m.PlaySFX(nil))
	assert.True(t, m.PlaySFX(hit))
	assert.True(t, m.PlaySFX(hit))
	assert.False(t, m.PlaySFX(hit), "pool exhausted")
	assert.Equal(t, 2, m.ActiveSFX())
	assert.Equal(t, 1, logs.FilterMessage("no free sfx voice").Len())

	samples := pull(m, 50)
	assert.InDelta(t, 1.0, samples[0][0], 1e-3, "two voices sum")

	m.Update(0)
	assert.Equal(t, 2, m.ActiveSFX(), "voices still playing")

	pull(m, 50)
	pull(m, 50)
	m.Update(0)
	assert.Zero(t, m.ActiveSFX())
	assert.Equal(t, 2, m.voices.ReadyCount())

	assert.True(t, m.PlaySFX(hit), "reclaimed voice is reused")
}

func TestSFXVolume(t *testing.T) {
	m := New(Options{SampleRate: testRate, SFXVoices: 1})
	m.SetSFXVolume(0.5)
	require.True(t, m.PlaySFX(testClip("hit", 100, 0.5)))

	samples := pull(m, 1)
	assert.InDelta(t, 0.25, samples[0][0], 1e-3)
}

func TestStopAllSFX(t *testing.T) {
	m := New(Options{SampleRate: testRate, SFXVoices: 3})
	hit := testClip("hit", 100, 0.5)
	for range 3 {
		require.True(t, m.PlaySFX(hit))
	}

	m.StopAllSFX()
	assert.Zero(t, m.ActiveSFX())
	assert.Equal(t, 3, m.voices.ReadyCount())

	samples := pull(m, 10)
	assert.Zero(t, samples[0][0])
}

func TestNoSFXVoices(t *testing.T) {
	m := New(Options{SFXVoices: -1})
	assert.Zero(t, m.voices.Size())
	assert.False(t, m.PlaySFX(testClip("hit", 10, 0.5)))
}

func TestEvents(t *testing.T) {
	events := notifier.New()
	var got []string
	var payloads []any
	events.AddSubscriber(notifier.Func(func(msg string, payload any) {
		got = append(got, msg)
		payloads = append(payloads, payload)
	}))

	m := New(Options{SampleRate: testRate, Events: events})
	assert.Same(t, events, m.Events())

	m.SetMasterVolume(0.5)
	clip := testClip("theme", 100, 0.5)
	require.NoError(t, m.PlayBGM(clip, false, 2))
	m.StopBGM()

	assert.Equal(t, []string{MsgVolumeChanged, MsgBgmPlay, MsgBgmStop}, got)
	assert.InDelta(t, 0.35, payloads[0], 1e-9)
	assert.Equal(t, bgm.Playlist{{Clip: clip, Crossfade: 2}}, payloads[1])
	assert.Nil(t, payloads[2])
}

func TestVolumeEventsPublishedSynchronously(t *testing.T) {
	m := New(Options{})
	var seen []float64
	m.Events().AddSubscriber(notifier.Func(func(msg string, payload any) {
		if msg == MsgVolumeChanged {
			// The setter has released the lock by the time subscribers run.
			seen = append(seen, m.GetMasterVolume())
		}
	}))

	m.SetMasterVolume(0.4)
	m.SetMuted(true)
	assert.Equal(t, []float64{0.4, 0.4}, seen, "published before the setter returns")
}

func TestChannel(t *testing.T) {
	m := New(Options{SampleRate: testRate})
	ch := newChannel(m.attach)
	clip := testClip("c", 100, 0.5)

	ch.Play()
	assert.False(t, ch.IsPlaying(), "no clip")

	ch.SetClip(clip)
	assert.Equal(t, bgm.Clip(clip), ch.Clip())
	ch.Play()
	assert.True(t, ch.IsPlaying())

	pull(m, 50)
	assert.InDelta(t, 0.05, ch.Time(), 1e-9)

	ch.Stop()
	assert.False(t, ch.IsPlaying())
	assert.Zero(t, ch.Time(), "stop rewinds")

	ch.Play()
	pull(m, 30)
	assert.InDelta(t, 0.03, ch.Time(), 1e-9, "play after stop starts over")
	pull(m, 100)
	pull(m, 10)
	assert.False(t, ch.IsPlaying(), "clip ended")
	assert.InDelta(t, clip.Length(), ch.Time(), 1e-9)

	ch.Play()
	assert.True(t, ch.IsPlaying())
	assert.Zero(t, ch.Time(), "an ended clip replays from the start")

	ch.SetVolume(3)
	assert.Equal(t, 1.0, ch.Volume())
	ch.SetVolume(-1)
	assert.Zero(t, ch.Volume())

	ch.SetClip(nil)
	assert.Nil(t, ch.Clip())
}

func TestChannelReplayDropsOldStream(t *testing.T) {
	m := New(Options{SampleRate: testRate})
	ch := newChannel(m.attach)
	ch.SetClip(testClip("c", 100, 0.5))

	ch.Play()
	ch.Stop()
	ch.Play()

	samples := pull(m, 1)
	assert.InDelta(t, 0.5, samples[0][0], 1e-3, "only the live stream plays")
	assert.Equal(t, 1, m.mixer.Len())
}

func TestLoadClipFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ping.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, wav.Encode(f, beep.Take(500, tone(0.25)), testFormat))
	require.NoError(t, f.Close())

	m := New(Options{SampleRate: testRate})
	clip, err := m.LoadClipFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ping.wav", clip.Name())
	assert.InDelta(t, 0.5, clip.Length(), 1e-9)
	assert.Equal(t, beep.SampleRate(testRate), clip.Format().SampleRate)

	resampled := New(Options{SampleRate: 2 * testRate})
	clip, err = resampled.LoadClipFile(path)
	require.NoError(t, err)
	assert.Equal(t, beep.SampleRate(2*testRate), clip.Format().SampleRate)
	assert.InDelta(t, 0.5, clip.Length(), 0.01)
}

func TestLoadClipErrors(t *testing.T) {
	m := New(Options{})

	_, err := m.LoadClipFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "junk.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file"), 0o644))
	_, err = m.LoadClipFile(path)
	assert.ErrorContains(t, err, "decode wav junk.wav")
}
