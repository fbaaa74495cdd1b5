package bgm

// Clip is a piece of audio a Channel can play.
// Clips are compared with ==, so implementations should be pointer types.
type Clip interface {
	Name() string

	// Length returns the clip duration in seconds.
	Length() float64
}

// Channel is a single playback voice owned by the sound system.
type Channel interface {
	Play()
	Stop()
	IsPlaying() bool

	SetVolume(v float64)
	Volume() float64

	// SetClip stops the channel and rewinds it to the start of c.
	SetClip(c Clip)
	Clip() Clip

	// Time returns the playback position in seconds.
	Time() float64
}

// VolumeSource supplies the music volume, in [0,1], the player scales both
// channels by.
type VolumeSource interface {
	MusicVolume() float64
}

// VolumeFunc adapts a function to VolumeSource.
type VolumeFunc func() float64

// MusicVolume returns f().
func (f VolumeFunc) MusicVolume() float64 {
	return f()
}

// Track is a playlist entry. Crossfade is the time, in seconds, taken to
// fade into this track from the one before it.
type Track struct {
	Clip      Clip
	Crossfade float64
}

// Playlist is an ordered list of tracks.
type Playlist []Track

// Equal reports whether p and o hold the same clips with the same
// crossfade times, in the same order.
func (p Playlist) Equal(o Playlist) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i].Clip != o[i].Clip || p[i].Crossfade != o[i].Crossfade {
			return false
		}
	}
	return true
}

func clipName(c Clip) string {
	if c == nil {
		return "<nil>"
	}
	return c.Name()
}
