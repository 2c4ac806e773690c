// Package autonomous is the component that runs scripts while the robot is
// in autonomous mode.
//
// It has two flows. The receiving flow (Serve) handles messages on the
// autonomous channel and feeds every reply into the execution controller's
// reply session. The script flow is a goroutine started per run that feeds
// script lines into the interpreter, which blocks in the coordinator until
// the receiving flow has counted the replies it waits for.
package autonomous

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jcweaver997/Kiwi/internal/pkg/metrics"
	"github.com/jcweaver997/Kiwi/internal/robot/component"
	"github.com/jcweaver997/Kiwi/internal/robot/coordinator"
	"github.com/jcweaver997/Kiwi/internal/robot/execstate"
	"github.com/jcweaver997/Kiwi/internal/robot/message"
	"github.com/jcweaver997/Kiwi/internal/robot/script"
	"github.com/jcweaver997/Kiwi/internal/robot/scripts"
	"github.com/jcweaver997/Kiwi/pkg/log"
)

// Name is the component name used in the channel map.
const Name = "autonomous"

// ErrRunInProgress is returned when a run is requested while one is active.
var ErrRunInProgress = errors.New("autonomous run already in progress")

// ScriptLoader opens a script by name.
type ScriptLoader interface {
	Open(name string) (*scripts.Source, error)
}

// Dashboard is where the component and its interpreter publish status.
type Dashboard interface {
	script.Dashboard
}

// Config configures the component.
type Config struct {
	// Script is the script run when autonomous starts.
	Script      string
	Coordinator coordinator.Config
	Granularity time.Duration
	// Checklist are the channels sent COMPONENT_TEST by a checklist run.
	Checklist []message.ChannelID
}

// RunStatus describes the current or most recent run.
type RunStatus struct {
	ID       string        `json:"id"`
	Kind     string        `json:"kind"`
	Running  bool          `json:"running"`
	Script   string        `json:"script,omitempty"`
	Last     string        `json:"last,omitempty"`
	Error    string        `json:"error,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

type Autonomous struct {
	cfg    Config
	lib    ScriptLoader
	state  *execstate.Controller
	dash   Dashboard
	logger log.Logger

	// Set in Setup.
	base   context.Context
	sender component.Sender
	coord  *coordinator.Coordinator
	interp *script.Interpreter

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	status RunStatus
}

var _ component.Component = (*Autonomous)(nil)

func New(lib ScriptLoader, state *execstate.Controller, dash Dashboard, cfg Config) *Autonomous {
	cfg.Coordinator.Self = message.AutonomousChannel
	if cfg.Coordinator.Status == nil {
		cfg.Coordinator.Status = dash
	}
	return &Autonomous{
		cfg:    cfg,
		lib:    lib,
		state:  state,
		dash:   dash,
		logger: log.WithName(Name),
	}
}

func (a *Autonomous) Name() string               { return Name }
func (a *Autonomous) Channel() message.ChannelID { return message.AutonomousChannel }

// Setup keeps ctx as the parent of every run.
func (a *Autonomous) Setup(ctx context.Context, sender component.Sender) error {
	a.base = ctx
	a.sender = sender
	a.coord = coordinator.New(sender, a.state, a.cfg.Coordinator)
	a.interp = script.New(a.coord, a.state, a.dash, script.Config{
		Drivetrain:  message.DrivetrainChannel,
		Granularity: a.cfg.Granularity,
	})
	return nil
}

func (a *Autonomous) Routes() map[message.CommandTag]component.HandlerFunc {
	routes := map[message.CommandTag]component.HandlerFunc{
		message.CommandAutonomousRun:      a.handleRun,
		message.CommandAutonomousComplete: a.handleStop,
		message.CommandChecklistRun:       a.handleChecklist,
		message.CommandComponentTest:      a.handleTest,
	}
	for _, tag := range message.ReplyTags() {
		routes[tag] = a.handleReply
	}
	for _, tag := range []message.CommandTag{
		message.CommandRobotStateDisabled,
		message.CommandRobotStateAutonomous,
		message.CommandRobotStateTeleoperated,
		message.CommandRobotStateTest,
		message.CommandRobotStateUnknown,
	} {
		routes[tag] = a.handleStateChange
	}
	return routes
}

// handleReply hands a reply to the waiting coordinator, if any.
func (a *Autonomous) handleReply(_ context.Context, msg message.Message) error {
	metrics.RepliesReceived.WithLabelValues(msg.Command.String()).Inc()
	if !a.state.Deliver(msg.Command) {
		a.logger.Debug("Dropped stale or unsolicited reply", "command", msg.Command)
		return nil
	}
	if a.state.Debug() {
		a.logger.Info("Response received", "command", msg.Command, "elapsed", a.state.Elapsed())
	}
	return nil
}

func (a *Autonomous) handleStateChange(_ context.Context, msg message.Message) error {
	if msg.Command == message.CommandRobotStateAutonomous {
		return a.StartScript(a.cfg.Script)
	}
	a.Stop()
	return nil
}

func (a *Autonomous) handleRun(_ context.Context, _ message.Message) error {
	return a.StartScript(a.cfg.Script)
}

func (a *Autonomous) handleStop(_ context.Context, _ message.Message) error {
	a.Stop()
	return nil
}

func (a *Autonomous) handleChecklist(_ context.Context, _ message.Message) error {
	return a.StartChecklist()
}

func (a *Autonomous) handleTest(ctx context.Context, msg message.Message) error {
	if !msg.ExpectsReply() {
		return nil
	}
	// Replying to ourselves would be counted as a reply to our own command.
	if msg.ReplyTo == a.Channel() {
		return nil
	}
	return component.Reply(ctx, a.sender, msg, message.CommandAutonomousResponseOK)
}
