package robot

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/jcweaver997/Kiwi/internal/pkg/metrics"
	fsmutil "github.com/jcweaver997/Kiwi/internal/pkg/util/fsm"
	"github.com/jcweaver997/Kiwi/internal/robot/component"
	"github.com/jcweaver997/Kiwi/internal/robot/message"
	"github.com/jcweaver997/Kiwi/internal/robot/server"
)

// Robot modes.
const (
	ModeDisabled     = "disabled"
	ModeAutonomous   = "autonomous"
	ModeTeleoperated = "teleoperated"
	ModeTest         = "test"
	ModeUnknown      = "unknown"
)

// ModeKey is the dashboard key holding the current mode.
const ModeKey = "Robot State"

var modes = []string{ModeDisabled, ModeAutonomous, ModeTeleoperated, ModeTest, ModeUnknown}

// modeCommands is the broadcast announcing each mode.
var modeCommands = map[string]message.CommandTag{
	ModeDisabled:     message.CommandRobotStateDisabled,
	ModeAutonomous:   message.CommandRobotStateAutonomous,
	ModeTeleoperated: message.CommandRobotStateTeleoperated,
	ModeTest:         message.CommandRobotStateTest,
	ModeUnknown:      message.CommandRobotStateUnknown,
}

func eventFor(mode string) string { return "event_" + mode }

type lifecycle struct {
	*fsm.FSM
	r *Robot
}

// newLifecycle starts in unknown. Any mode can be entered from any other.
func newLifecycle(r *Robot) *lifecycle {
	l := &lifecycle{r: r}

	events := fsm.Events{}
	callbacks := fsm.Callbacks{}
	for _, mode := range modes {
		// Src includes mode itself so re-entering it is a NoTransitionError.
		events = append(events, fsm.EventDesc{Name: eventFor(mode), Src: modes, Dst: mode})
		callbacks["enter_"+mode] = fsmutil.WrapEvent(l.actionEnterMode)
	}

	l.FSM = fsm.NewFSM(ModeUnknown, events, callbacks)
	return l
}

// actionEnterMode announces the new mode to every component.
func (l *lifecycle) actionEnterMode(ctx context.Context, e *fsm.Event) error {
	for _, mode := range modes {
		v := 0.0
		if mode == e.Dst {
			v = 1
		}
		metrics.RobotState.WithLabelValues(mode).Set(v)
	}
	l.r.dash.PutString(ModeKey, e.Dst)
	l.r.logger.Info("Robot mode changed", "from", e.Src, "to", e.Dst)

	msg := message.New(modeCommands[e.Dst])
	if err := component.Broadcast(ctx, l.r.transport, l.r.components, msg); err != nil {
		return fmt.Errorf("announce mode %s: %w", e.Dst, err)
	}
	return nil
}

func validMode(mode string) error {
	if _, ok := modeCommands[mode]; !ok {
		return fmt.Errorf("%w: %q", server.ErrInvalidMode, mode)
	}
	return nil
}
