package states

import (
	"github.com/Faultbox/qslib/pkg/bgm"
	"github.com/Faultbox/qslib/pkg/datatable"
	"github.com/Faultbox/qslib/pkg/fsm"
)

// titleFadeIn is how long the title track takes to fade in, in seconds.
const titleFadeIn = 1.0

// TitleState loops the title track for the configured duration.
type TitleState struct {
	fsm.Base[Kind, *Context]

	elapsed float64
}

func (s *TitleState) Kind() Kind { return Title }

// OnEnter is called when entering this state.
func (s *TitleState) OnEnter() {
	ctx := s.Parent()
	announce(ctx, Title)
	s.elapsed = 0

	if clip, ok := datatable.Get[bgm.Clip](ctx.Data, KeyTitleClip); ok {
		ctx.Audio.PlayPlaylist(bgm.Playlist{{Clip: clip, Crossfade: titleFadeIn}}, true)
	}
}

// OnUpdate is called every tick.
func (s *TitleState) OnUpdate(dt float64) {
	s.elapsed += dt
	if s.elapsed >= s.Parent().Config.Game.TitleDuration.Seconds() {
		s.Machine().TransitionTo(Playing)
	}
}

// OnExit is called when leaving this state.
func (s *TitleState) OnExit() {
	s.Parent().Data.Set(KeyTitleTime, s.elapsed)
}
