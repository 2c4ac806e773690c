// Package script evaluates autonomous scripts one statement at a time.
//
// A statement is a leading token and its arguments separated by spaces,
// tabs, commas, brackets or parentheses. Lines starting with '#' are
// comments. Statements are not stored: each line is tokenized, run and
// discarded, and the only state carried between lines lives in the
// execution controller.
package script

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jcweaver997/Kiwi/internal/pkg/metrics"
	"github.com/jcweaver997/Kiwi/internal/robot/coordinator"
	"github.com/jcweaver997/Kiwi/internal/robot/execstate"
	"github.com/jcweaver997/Kiwi/internal/robot/message"
	"github.com/jcweaver997/Kiwi/pkg/log"
)

// Dashboard keys written by the interpreter.
const (
	HaltKey = "Auto Halted"
	LineKey = "Auto Line"
)

// StatusTokenMissing is published under coordinator.StatusKey when a
// statement has no token.
const StatusTokenMissing = "DEATH BY PARAMS!"

// Commander is the part of the coordinator the interpreter drives.
type Commander interface {
	CommandResponse(ctx context.Context, target message.ChannelID, msg message.Message, opts ...coordinator.CallOption) error
	CommandNoResponse(ctx context.Context, target message.ChannelID, msg message.Message) error
}

// Dashboard receives per-statement status.
type Dashboard interface {
	PutString(key, value string)
	PutBoolean(key string, value bool)
	PutNumber(key string, value float64)
}

type nopDashboard struct{}

func (nopDashboard) PutString(string, string)  {}
func (nopDashboard) PutBoolean(string, bool)   {}
func (nopDashboard) PutNumber(string, float64) {}

// Config configures an Interpreter.
type Config struct {
	// Drivetrain is the drive base's channel.
	Drivetrain  message.ChannelID
	Granularity time.Duration
}

// Interpreter is not safe for concurrent Evaluate calls; one script flow owns it.
type Interpreter struct {
	cfg       Config
	commander Commander
	state     *execstate.Controller
	dash      Dashboard
	logger    log.Logger

	tokens []token
	fsm    *stateMachine
}

// New returns an interpreter in the Running state.
func New(commander Commander, state *execstate.Controller, dash Dashboard, cfg Config) *Interpreter {
	if cfg.Drivetrain == "" {
		cfg.Drivetrain = message.DrivetrainChannel
	}
	if cfg.Granularity <= 0 {
		cfg.Granularity = DefaultGranularity
	}
	if dash == nil {
		dash = nopDashboard{}
	}
	in := &Interpreter{
		cfg:       cfg,
		commander: commander,
		state:     state,
		dash:      dash,
		logger:    log.WithName("script"),
		tokens:    tokenTable,
	}
	in.fsm = newStateMachine(in)
	return in
}

// Halted reports whether the script has stopped.
func (in *Interpreter) Halted() bool {
	return in.fsm.Is(StateHalted)
}

// State is the interpreter's state name.
func (in *Interpreter) State() string {
	return in.fsm.Current()
}

// Restart returns a halted interpreter to Running and resets per-run state.
func (in *Interpreter) Restart(ctx context.Context) error {
	in.state.Begin()
	if in.fsm.Is(StateRunning) {
		return nil
	}
	return in.fsm.Event(context.WithoutCancel(ctx), EventRestart)
}

// Evaluate runs one statement. Blank and comment lines return immediately
// with ErrEmptyStatement and never halt.
func (in *Interpreter) Evaluate(ctx context.Context, line string) Result {
	if in.Halted() {
		return Result{Status: StatusHalted, Halt: true, Err: ErrHalted}
	}

	lineNo := in.state.NextLine()
	in.dash.PutNumber(LineKey, float64(lineNo))

	if IsBlank(line) {
		return Result{Status: StatusEmpty, Err: ErrEmptyStatement}
	}

	res := in.evaluate(ctx, line)
	metrics.StatementsEvaluated.WithLabelValues(statusLabel(res.Status)).Inc()
	if res.Err != nil && !res.Halt {
		in.logger.Warn("Statement failed", "line", lineNo, "statement", line, "status", res.Status, "error", res.Err)
	}
	if res.Halt {
		// The halt is recorded even when ctx is what stopped the statement.
		if err := in.fsm.Event(context.WithoutCancel(ctx), EventHalt, res, line); err != nil {
			in.logger.Error(err, "Failed to halt script", "line", lineNo)
		}
	}
	return res
}

func (in *Interpreter) evaluate(ctx context.Context, line string) Result {
	tok, args, ok := Tokenize(line)
	if !ok {
		in.dash.PutString(coordinator.StatusKey, StatusTokenMissing)
		return Result{Status: StatusMissingToken, Halt: true, Err: ErrTokenMissing}
	}

	t, ok := lookup(in.tokens, tok)
	if !ok {
		return Result{Status: StatusNoTokens, Halt: true, Err: fmt.Errorf("%w: %q", ErrTokenUnrecognized, tok)}
	}
	in.state.CountStatement()

	// A pause holds the script here, before anything is dispatched.
	if err := in.state.WaitIfPaused(ctx); err != nil {
		return Result{Status: StatusCanceled, Halt: true, Err: err}
	}

	if in.state.Debug() {
		in.logger.Info("Evaluating", "token", tok, "args", args, "elapsed", in.state.Elapsed())
	}

	if t.run == nil {
		return Result{Status: StatusUnknownToken, Err: ErrUnknownToken}
	}
	return t.run(in, ctx, args)
}

func statusLabel(s Status) string {
	if s == StatusEmpty {
		return "empty"
	}
	return string(s)
}

// seconds converts script seconds to a duration, treating negatives and NaN as zero.
func seconds(s float64) time.Duration {
	if math.IsNaN(s) || s <= 0 {
		return 0
	}
	if s > math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(s * float64(time.Second))
}
