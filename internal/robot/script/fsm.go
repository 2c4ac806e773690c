package script

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/jcweaver997/Kiwi/internal/pkg/metrics"
	fsmutil "github.com/jcweaver997/Kiwi/internal/pkg/util/fsm"
)

const (
	StateRunning = "running"
	StateHalted  = "halted"
)

const (
	// EventHalt stops the script. Args: Result.
	EventHalt = "event_halt"
	// EventRestart returns a halted interpreter to Running for a new script.
	EventRestart = "event_restart"
)

type stateMachine struct {
	*fsm.FSM
	in *Interpreter
}

func newStateMachine(in *Interpreter) *stateMachine {
	m := &stateMachine{in: in}

	events := fsm.Events{
		{Name: EventHalt, Src: []string{StateRunning}, Dst: StateHalted},
		{Name: EventRestart, Src: []string{StateHalted}, Dst: StateRunning},
	}

	callbacks := fsm.Callbacks{
		"enter_" + StateHalted:  fsmutil.WrapEvent(m.actionEnterHalted),
		"enter_" + StateRunning: fsmutil.WrapEvent(m.actionEnterRunning),
	}

	m.FSM = fsm.NewFSM(StateRunning, events, callbacks)
	return m
}

// actionEnterHalted echoes the halting statement and records why it stopped.
func (m *stateMachine) actionEnterHalted(_ context.Context, e *fsm.Event) error {
	res, _ := e.Args[0].(Result)
	line, _ := e.Args[1].(string)

	reason := string(res.Status)
	if reason == "" {
		reason = "unknown"
	}
	metrics.ScriptHalts.WithLabelValues(reason).Inc()
	m.in.dash.PutBoolean(HaltKey, true)
	m.in.logger.Info("Script halted", "line", m.in.state.Line(), "elapsed", m.in.state.Elapsed(),
		"statement", line, "status", res.Status, "error", res.Err)
	return nil
}

func (m *stateMachine) actionEnterRunning(_ context.Context, _ *fsm.Event) error {
	m.in.dash.PutBoolean(HaltKey, false)
	return nil
}
