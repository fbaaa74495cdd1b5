package states

import (
	"go.uber.org/zap"

	"github.com/Faultbox/qslib/pkg/bgm"
	"github.com/Faultbox/qslib/pkg/fsm"
)

// BootState loads the configured music and moves on to the title. Clips
// that fail to load are skipped.
type BootState struct {
	fsm.Base[Kind, *Context]
}

func (s *BootState) Kind() Kind { return Boot }

// OnEnter is called when entering this state.
func (s *BootState) OnEnter() {
	ctx := s.Parent()
	announce(ctx, Boot)

	failures := 0
	cfg := ctx.Config.Audio
	if cfg.Enabled {
		if cfg.TitleTrack != "" {
			clip, err := ctx.Audio.Load(cfg.TitleTrack)
			if err != nil {
				ctx.Log.Warn("failed to load title track", zap.String("path", cfg.TitleTrack), zap.Error(err))
				failures++
			} else {
				ctx.Data.Set(KeyTitleClip, clip)
			}
		}

		playlist := make(bgm.Playlist, 0, len(cfg.Playlist))
		for _, track := range cfg.Playlist {
			clip, err := ctx.Audio.Load(track.Path)
			if err != nil {
				ctx.Log.Warn("failed to load track", zap.String("path", track.Path), zap.Error(err))
				failures++
				continue
			}
			playlist = append(playlist, bgm.Track{Clip: clip, Crossfade: track.Crossfade.Seconds()})
		}
		ctx.Data.Set(KeyPlaylist, playlist)
	}
	ctx.Data.Set(KeyLoadFailures, failures)

	s.Machine().TransitionTo(Title)
}
