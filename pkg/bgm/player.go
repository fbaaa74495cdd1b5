// Package bgm schedules background music over two playback channels.
//
// One channel holds the current track and the other the incoming one. A
// single crossfade position in [0,1] splits the music volume between them:
// at 0 only the current channel is audible, at 1 only the incoming one.
// When the position reaches 1 the channels swap roles and the position
// returns to 0.
//
// The player is driven by Update from the game loop and is not safe for
// concurrent use.
package bgm

import (
	"slices"

	"go.uber.org/zap"
)

// positionSnap absorbs accumulated float error so a fade made of whole
// ticks swaps on its last tick.
const positionSnap = 1e-9

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger for playlist warnings.
func WithLogger(log *zap.Logger) Option {
	return func(p *Player) {
		if log != nil {
			p.log = log
		}
	}
}

// Player crossfades between the tracks of a playlist.
type Player struct {
	channels [2]Channel
	cur      int
	// started marks channels the player set playing, so a channel that
	// stops by itself can be told apart from one that was never started.
	started [2]bool

	volume VolumeSource

	playlist Playlist
	index    int
	loop     bool
	stopped  bool

	changeRequested bool
	fade            float64
	position        float64
	aboutToEnd      bool

	log *zap.Logger
}

// NewPlayer creates a stopped player. current and incoming are the
// channels' initial roles. A nil volume source plays at full volume.
func NewPlayer(current, incoming Channel, volume VolumeSource, opts ...Option) *Player {
	p := &Player{
		channels: [2]Channel{current, incoming},
		volume:   volume,
		index:    -1,
		stopped:  true,
		log:      zap.NewNop(),
	}
	if p.volume == nil {
		p.volume = VolumeFunc(func() float64 { return 1 })
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play replaces the playlist with clip alone.
func (p *Player) Play(clip Clip, loop bool, crossfade float64) {
	p.PlayPlaylist(Playlist{{Clip: clip, Crossfade: crossfade}}, loop)
}

// PlayPlaylist replaces the playlist and starts fading into its first
// track. The player keeps its own copy of tracks.
func (p *Player) PlayPlaylist(tracks Playlist, loop bool) {
	p.playlist = slices.Clone(tracks)
	p.index = -1
	p.loop = loop
	p.stopped = false
	p.aboutToEnd = false

	if len(p.playlist) == 0 {
		p.log.Warn("bgm playlist is empty")
		return
	}
	p.PlayNextTrack()
}

// PlayNextTrack arms a crossfade into the next playlist track. At the end
// of the playlist it wraps around when looping and does nothing otherwise.
func (p *Player) PlayNextTrack() {
	if len(p.playlist) == 0 {
		return
	}
	next := p.index + 1
	if next >= len(p.playlist) {
		if !p.loop {
			return
		}
		next = 0
	}
	p.index = next
	p.aboutToEnd = false
	track := p.playlist[next]

	in := 1 - p.cur
	p.channels[in].Stop()
	p.channels[in].SetClip(track.Clip)
	p.channels[in].SetVolume(0)
	p.started[in] = false

	p.changeRequested = true
	p.fade = track.Crossfade

	if track.Clip == nil {
		p.log.Warn("bgm track has no clip", zap.Int("index", next))
		return
	}
	p.log.Debug("bgm crossfade armed",
		zap.Int("index", next),
		zap.String("clip", clipName(track.Clip)),
		zap.Float64("crossfade", track.Crossfade),
	)
}

// Update advances the crossfade by dt seconds, drives both channels and
// moves on to the next track when the current one is about to end.
func (p *Player) Update(dt float64) {
	if p.stopped {
		return
	}

	if p.changeRequested {
		if p.fade <= 0 {
			p.position = 1
		} else {
			p.position += dt / p.fade
		}
		if p.position >= 1-positionSnap {
			p.position = 1
		}
		if p.position < 0 {
			p.position = 0
		}
	}

	master := clamp01(p.volume.MusicVolume())
	if !p.drive(p.cur, (1-p.position)*master) {
		return
	}
	p.drive(1-p.cur, p.position*master)

	if p.changeRequested && p.position >= 1 {
		p.cur = 1 - p.cur
		p.position = 0
		p.changeRequested = false
	}

	p.checkTrackEnd()
}

// drive applies vol to channel i and starts or stops it to match. It
// returns false if the playlist finished and the player stopped.
func (p *Player) drive(i int, vol float64) bool {
	ch := p.channels[i]
	if ch.Clip() == nil {
		ch.SetVolume(0)
		if ch.IsPlaying() {
			ch.Stop()
		}
		p.started[i] = false
		return true
	}

	ch.SetVolume(vol)
	if vol == 0 {
		if ch.IsPlaying() {
			ch.Stop()
		}
		p.started[i] = false
		return true
	}

	if !ch.IsPlaying() {
		if p.started[i] && p.lastTrackEnded(i) {
			p.finish()
			return false
		}
		ch.Play()
		p.started[i] = true
	}
	return true
}

// lastTrackEnded reports whether channel i carried the final track of a
// non-looping playlist.
func (p *Player) lastTrackEnded(i int) bool {
	return i == p.cur && !p.changeRequested && !p.loop && p.index >= len(p.playlist)-1
}

func (p *Player) finish() {
	p.log.Debug("bgm playlist finished")
	for i, ch := range p.channels {
		ch.Stop()
		ch.SetVolume(0)
		p.started[i] = false
	}
	p.stopped = true
}

// checkTrackEnd advances the playlist on the rising edge of the current
// track's remaining time dropping to the next track's crossfade time. The
// edge is tracked per armed track and only once its fade-in has finished,
// so a track shorter than the next crossfade still hands over.
func (p *Player) checkTrackEnd() {
	if len(p.playlist) == 0 || p.index < 0 {
		p.aboutToEnd = false
		return
	}
	if p.playlist[p.index].Clip == nil {
		p.aboutToEnd = false
		p.PlayNextTrack()
		return
	}
	if p.changeRequested {
		return
	}

	about := p.trackAboutToEnd()
	rising := about && !p.aboutToEnd
	p.aboutToEnd = about
	if rising {
		p.PlayNextTrack()
	}
}

func (p *Player) trackAboutToEnd() bool {
	next := p.index + 1
	if next >= len(p.playlist) {
		if !p.loop {
			return false
		}
		next = 0
	}

	ch := p.channels[p.cur]
	clip := ch.Clip()
	if clip == nil {
		return true
	}
	remaining := clip.Length() - ch.Time()
	return remaining <= p.playlist[next].Crossfade
}

// Stop halts both channels and stops the player.
func (p *Player) Stop() {
	p.release(0)
	p.release(1)
	p.stopped = true
	p.changeRequested = false
	p.position = 0
	p.aboutToEnd = false
}

// StopClip unloads clip from whichever channels hold it.
//
// Stopping the incoming clip cancels the crossfade and leaves the current
// track playing. Once no crossfade is pending, the silent incoming channel
// is cleared as well, and the player stops if the current channel is left
// empty.
func (p *Player) StopClip(clip Clip) {
	if clip == nil {
		return
	}
	for i, ch := range p.channels {
		if ch.Clip() == clip {
			p.release(i)
		}
	}

	in := 1 - p.cur
	if p.changeRequested && p.channels[in].Clip() == nil {
		p.changeRequested = false
		p.position = 0
	}
	if p.changeRequested {
		return
	}
	if !p.channels[in].IsPlaying() {
		p.release(in)
	}
	if p.channels[p.cur].Clip() == nil {
		p.Stop()
	}
}

// release stops channel i and unloads its clip.
func (p *Player) release(i int) {
	ch := p.channels[i]
	ch.Stop()
	ch.SetClip(nil)
	ch.SetVolume(0)
	p.started[i] = false
}

// IsBgmPlaying reports whether either channel is playing clip.
func (p *Player) IsBgmPlaying(clip Clip) bool {
	if clip == nil {
		return false
	}
	for _, ch := range p.channels {
		if ch.IsPlaying() && ch.Clip() == clip {
			return true
		}
	}
	return false
}

// IsPlaylistPlaying reports whether pl equals the loaded playlist and one
// of its clips is playing.
func (p *Player) IsPlaylistPlaying(pl Playlist) bool {
	if !p.playlist.Equal(pl) {
		return false
	}
	for _, t := range pl {
		if p.IsBgmPlaying(t.Clip) {
			return true
		}
	}
	return false
}

// Position returns the crossfade position in [0,1].
func (p *Player) Position() float64 {
	return p.position
}

// TrackIndex returns the index of the most recently armed track, or -1.
func (p *Player) TrackIndex() int {
	return p.index
}

// Playlist returns a copy of the loaded playlist.
func (p *Player) Playlist() Playlist {
	return slices.Clone(p.playlist)
}

// Looping reports whether the playlist wraps around.
func (p *Player) Looping() bool {
	return p.loop
}

// IsStopped reports whether Update is a no-op.
func (p *Player) IsStopped() bool {
	return p.stopped
}

// ChangeRequested reports whether a crossfade is in progress.
func (p *Player) ChangeRequested() bool {
	return p.changeRequested
}

// Current returns the channel in the current role.
func (p *Player) Current() Channel {
	return p.channels[p.cur]
}

// Incoming returns the channel in the incoming role.
func (p *Player) Incoming() Channel {
	return p.channels[1-p.cur]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
