// Package states implements the qsdemo game states on top of fsm.Machine.
//
// The flow is Boot -> Title -> Playing -> Shutdown. Every state announces
// itself on the shared notifier when entered.
package states

import (
	"go.uber.org/zap"

	"github.com/Faultbox/qslib/internal/config"
	"github.com/Faultbox/qslib/pkg/bgm"
	"github.com/Faultbox/qslib/pkg/datatable"
	"github.com/Faultbox/qslib/pkg/fsm"
	"github.com/Faultbox/qslib/pkg/notifier"
)

// Kind identifies a game state.
type Kind int

const (
	Boot Kind = iota
	Title
	Playing
	Shutdown
)

func (k Kind) String() string {
	switch k {
	case Boot:
		return "Boot"
	case Title:
		return "Title"
	case Playing:
		return "Playing"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// Messages published on Context.Events.
const (
	MsgStateEnter = "Game.OnStateEnter" // payload: Kind
	MsgSessionEnd = "Game.OnSessionEnd" // payload: *datatable.Table
)

// Session data keys.
const (
	KeyTitleClip    = "audio.title"     // bgm.Clip
	KeyPlaylist     = "audio.playlist"  // bgm.Playlist
	KeyLoadFailures = "boot.failures"   // int
	KeyTitleTime    = "title.seconds"   // float64
	KeyPlayTime     = "session.seconds" // float64
)

// Audio is the part of the sound system the states drive.
type Audio interface {
	Load(path string) (bgm.Clip, error)
	PlayPlaylist(pl bgm.Playlist, loop bool)
	StopBGM()
	IsPlaylistPlaying(pl bgm.Playlist) bool
}

// Context is shared by all states.
type Context struct {
	Audio  Audio
	Events *notifier.Notifier
	Data   *datatable.Table
	Config *config.Config
	Log    *zap.Logger

	quit bool
}

// Quit asks the game loop to stop.
func (c *Context) Quit() {
	c.quit = true
}

// Done reports whether Quit was called.
func (c *Context) Done() bool {
	return c.quit
}

// Machine is the game state machine.
type Machine = fsm.Machine[Kind, *Context]

// NewMachine registers every game state and requests the move to Boot,
// which happens on the first Update.
func NewMachine(ctx *Context) *Machine {
	if ctx.Log == nil {
		ctx.Log = zap.NewNop()
	}
	if ctx.Data == nil {
		ctx.Data = datatable.New()
	}
	if ctx.Events == nil {
		ctx.Events = notifier.New()
	}

	m := fsm.New[Kind](ctx, fsm.WithLogger(ctx.Log))
	m.AddState(&BootState{})
	m.AddState(&TitleState{})
	m.AddState(&PlayingState{})
	m.AddState(&ShutdownState{})
	m.TransitionTo(Boot)
	return m
}

func announce(ctx *Context, kind Kind) {
	ctx.Log.Info("entering state", zap.Stringer("state", kind))
	ctx.Events.NotifySubscribers(MsgStateEnter, kind)
}
