package script

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jcweaver997/Kiwi/internal/robot/execstate"
	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

type handler func(in *Interpreter, ctx context.Context, args string) Result

type token struct {
	name string
	run  handler
}

// tokenTable is scanned in order and the first entry that is a prefix of the
// statement's leading token wins, so "ENDING" runs END. New entries go at the
// end so existing scripts keep their meaning. Every entry here has a handler;
// the "unknown token" result is only reached by a table built with a nil
// handler, such as a name reserved before its statement exists.
var tokenTable = []token{
	{"START", (*Interpreter).startAuto},
	{"FINISH", (*Interpreter).finishAuto},
	{"MODE", (*Interpreter).mode},
	{"DEBUG", (*Interpreter).debug},
	{"MESSAGE", (*Interpreter).message},
	{"BEGIN", (*Interpreter).begin},
	{"END", (*Interpreter).end},
	{"DELAY", (*Interpreter).delay},
	{"DRIVE", (*Interpreter).drive},
	{"STOP", (*Interpreter).stop},
	{"NOP", (*Interpreter).nop},
}

// Tokens lists the recognized leading tokens in match order.
func Tokens() []string {
	names := make([]string, len(tokenTable))
	for i, t := range tokenTable {
		names[i] = t.name
	}
	return names
}

// Match returns the entry a leading token resolves to.
func Match(tok string) (string, bool) {
	t, ok := lookup(tokenTable, tok)
	return t.name, ok
}

func lookup(table []token, tok string) (token, bool) {
	for _, t := range table {
		if strings.HasPrefix(tok, t.name) {
			return t, true
		}
	}
	return token{}, false
}

func missingParameter(format string, a ...any) Result {
	return Result{Status: StatusMissingParameter, Err: fmt.Errorf("%w: "+format, append([]any{ErrParameterMissing}, a...)...)}
}

// START and FINISH are reserved for announcing autonomous to every component.
func (in *Interpreter) startAuto(context.Context, string) Result {
	return Result{Status: StatusStartingAuto}
}

func (in *Interpreter) finishAuto(context.Context, string) Result {
	return Result{Status: StatusFinishingAuto}
}

// MODE n selects the mode block.
func (in *Interpreter) mode(_ context.Context, args string) Result {
	f := Fields(args)
	if len(f) == 0 {
		return missingParameter("MODE needs a block number")
	}
	n, err := strconv.ParseUint(f[0], 10, 32)
	if err != nil {
		return missingParameter("MODE block %q: %v", f[0], err)
	}
	in.state.SetMode(uint32(n))
	return Result{Status: StatusMode}
}

// DEBUG n turns debug echo on for any non-zero n.
func (in *Interpreter) debug(_ context.Context, args string) Result {
	f := Fields(args)
	if len(f) == 0 {
		return missingParameter("DEBUG needs 0 or 1")
	}
	n, err := strconv.Atoi(f[0])
	if err != nil {
		return missingParameter("DEBUG value %q: %v", f[0], err)
	}
	in.state.SetDebug(n != 0)
	return Result{Status: StatusDebug}
}

func (in *Interpreter) message(_ context.Context, args string) Result {
	in.logger.Info(strings.TrimSpace(args), "line", in.state.Line(), "elapsed", in.state.Elapsed())
	return Result{Status: StatusMessage}
}

func (in *Interpreter) begin(ctx context.Context, _ string) Result {
	msg := message.New(message.CommandAutonomousRun)
	msg.Params.Autonomous.Mode = in.state.Mode()
	if err := in.commander.CommandNoResponse(ctx, in.cfg.Drivetrain, msg); err != nil {
		return Result{Status: StatusBegin, Err: err}
	}
	return Result{Status: StatusBegin}
}

// END closes the script. The drive base is told even if the send fails.
func (in *Interpreter) end(ctx context.Context, _ string) Result {
	msg := message.New(message.CommandAutonomousComplete)
	msg.Params.Autonomous.Mode = in.state.Mode()
	err := in.commander.CommandNoResponse(ctx, in.cfg.Drivetrain, msg)
	return Result{Status: StatusDone, Halt: true, Err: err}
}

// DELAY seconds
func (in *Interpreter) delay(ctx context.Context, args string) Result {
	f := Fields(args)
	if len(f) == 0 {
		return missingParameter("DELAY needs seconds")
	}
	secs, err := strconv.ParseFloat(f[0], 64)
	if err != nil {
		return missingParameter("DELAY seconds %q: %v", f[0], err)
	}
	if err := Delay(ctx, seconds(secs), in.cfg.Granularity, in.state); err != nil {
		return Result{Status: StatusCanceled, Halt: true, Err: err}
	}
	return Result{Status: StatusWait}
}

// DRIVE x y r sends a kiwi drive command and waits for the drive base to
// acknowledge it. Any failure halts the script.
func (in *Interpreter) drive(ctx context.Context, args string) Result {
	f := Fields(args)
	if len(f) < 3 {
		return missingParameter("DRIVE needs x y r, got %d values", len(f))
	}
	var v [3]float64
	for i := range v {
		x, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return missingParameter("DRIVE value %q: %v", f[i], err)
		}
		v[i] = x
	}

	msg := message.New(message.CommandDrivetrainDriveKiwi)
	msg.Params.KiwiDrive = message.KiwiDriveParams{X: v[0], Y: v[1], R: v[2]}
	if err := in.commander.CommandResponse(ctx, in.cfg.Drivetrain, msg); err != nil {
		return Result{Status: StatusDriveFailed, Halt: true, Err: err}
	}

	target := in.state.Target()
	in.state.SetTarget(execstate.DriveTarget{Rotation: v[2], Step: target.Step + 1})
	return Result{Status: StatusDrive}
}

func (in *Interpreter) stop(ctx context.Context, _ string) Result {
	err := in.commander.CommandNoResponse(ctx, in.cfg.Drivetrain, message.New(message.CommandDrivetrainStop))
	return Result{Status: StatusStop, Err: err}
}

func (in *Interpreter) nop(context.Context, string) Result {
	return Result{Status: StatusNop}
}
