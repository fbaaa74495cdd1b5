package states

import "github.com/Faultbox/qslib/pkg/fsm"

// ShutdownState stops the music, publishes the session data and ends the
// game loop.
type ShutdownState struct {
	fsm.Base[Kind, *Context]
}

func (s *ShutdownState) Kind() Kind { return Shutdown }

// OnEnter is called when entering this state.
func (s *ShutdownState) OnEnter() {
	ctx := s.Parent()
	announce(ctx, Shutdown)

	ctx.Audio.StopBGM()
	ctx.Events.NotifySubscribers(MsgSessionEnd, ctx.Data)
	ctx.Quit()
}
