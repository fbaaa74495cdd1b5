package states

import (
	"github.com/Faultbox/qslib/pkg/bgm"
	"github.com/Faultbox/qslib/pkg/datatable"
	"github.com/Faultbox/qslib/pkg/fsm"
)

// PlayingState runs the session playlist until the session length is up.
// A zero session length plays until the game is interrupted.
type PlayingState struct {
	fsm.Base[Kind, *Context]

	elapsed float64
}

func (s *PlayingState) Kind() Kind { return Playing }

// OnEnter is called when entering this state.
func (s *PlayingState) OnEnter() {
	ctx := s.Parent()
	announce(ctx, Playing)
	s.elapsed = 0

	pl := datatable.GetOr(ctx.Data, KeyPlaylist, bgm.Playlist(nil))
	if len(pl) > 0 {
		ctx.Audio.PlayPlaylist(pl, ctx.Config.Audio.LoopPlaylist)
	} else {
		ctx.Audio.StopBGM()
	}
}

// OnUpdate is called every tick.
func (s *PlayingState) OnUpdate(dt float64) {
	s.elapsed += dt
	limit := s.Parent().Config.Game.SessionLength
	if limit > 0 && s.elapsed >= limit.Seconds() {
		s.Machine().TransitionTo(Shutdown)
	}
}

// OnExit is called when leaving this state.
func (s *PlayingState) OnExit() {
	s.Parent().Data.Set(KeyPlayTime, s.elapsed)
}
