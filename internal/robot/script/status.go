package script

import "errors"

// Status is the human-readable outcome of one statement.
type Status string

const (
	StatusEmpty            Status = ""
	StatusMissingToken     Status = "missing token"
	StatusNoTokens         Status = "no tokens - check script spelling"
	StatusBegin            Status = "begin"
	StatusDone             Status = "done"
	StatusWait             Status = "wait"
	StatusUnknownToken     Status = "unknown token"
	StatusMissingParameter Status = "missing parameter"
	StatusStartingAuto     Status = "starting auto"
	StatusFinishingAuto    Status = "finishing auto"
	StatusMode             Status = "mode"
	StatusDebug            Status = "debug"
	StatusMessage          Status = "message"
	StatusDrive            Status = "drive"
	StatusDriveFailed      Status = "drive failed"
	StatusStop             Status = "stop"
	StatusNop              Status = "nop"
	StatusHalted           Status = "halted"
	StatusCanceled         Status = "canceled"
)

var (
	ErrEmptyStatement    = errors.New("empty statement")
	ErrTokenMissing      = errors.New("missing token")
	ErrTokenUnrecognized = errors.New("unrecognized token")
	ErrParameterMissing  = errors.New("missing parameter")
	ErrUnknownToken      = errors.New("unknown token")
	// ErrHalted is returned for statements evaluated after the script halted.
	ErrHalted = errors.New("script halted")
)

// Result is the outcome of evaluating one statement. Halt tells the caller
// to stop feeding lines.
type Result struct {
	Status Status
	Halt   bool
	Err    error
}

func (r Result) String() string {
	if r.Err != nil {
		return string(r.Status) + ": " + r.Err.Error()
	}
	return string(r.Status)
}
