// Package execstate owns the mutable state shared between the script
// execution flow and the autonomous component's receiving flow.
package execstate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPausePoll is how often a paused flow re-checks the pause flag.
const DefaultPausePoll = 20 * time.Millisecond

// DriveTarget is the rotation/step bookkeeping kept for the drive base.
type DriveTarget struct {
	Rotation float64
	Step     uint32
}

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	Debug      bool          `json:"debug"`
	Paused     bool          `json:"paused"`
	Mode       uint32        `json:"mode"`
	Line       uint64        `json:"line"`
	Statements uint64        `json:"statements"`
	Elapsed    time.Duration `json:"elapsed"`
	ReplyArmed bool          `json:"replyArmed"`
	ReplyCount int           `json:"replyCount"`
	ReplyWant  int           `json:"replyWant"`
	Stale      int           `json:"staleReplies"`
	Target     DriveTarget   `json:"target"`
}

// Controller is safe for concurrent use. All fields are reached through
// accessors; nothing outside the package touches them directly.
type Controller struct {
	pausePoll time.Duration

	debug      atomic.Bool
	paused     atomic.Bool
	mode       atomic.Uint32
	line       atomic.Uint64
	statements atomic.Uint64
	startedAt  atomic.Int64

	targetMu sync.Mutex
	target   DriveTarget

	replyMu     sync.Mutex
	session     *session
	stale       []time.Time
	staleWindow time.Duration
}

// New returns a controller whose pause gate polls every pausePoll.
func New(pausePoll time.Duration) *Controller {
	if pausePoll <= 0 {
		pausePoll = DefaultPausePoll
	}
	c := &Controller{pausePoll: pausePoll}
	c.startedAt.Store(time.Now().UnixNano())
	return c
}

// Begin resets per-run state for a new script. Debug mode and pause survive.
func (c *Controller) Begin() {
	c.line.Store(0)
	c.statements.Store(0)
	c.mode.Store(0)
	c.SetTarget(DriveTarget{})
	c.startedAt.Store(time.Now().UnixNano())
}

func (c *Controller) SetDebug(on bool) { c.debug.Store(on) }
func (c *Controller) Debug() bool      { return c.debug.Load() }

func (c *Controller) SetMode(mode uint32) { c.mode.Store(mode) }
func (c *Controller) Mode() uint32       { return c.mode.Load() }

// NextLine advances the diagnostic line counter and returns the new value.
func (c *Controller) NextLine() uint64 { return c.line.Add(1) }
func (c *Controller) Line() uint64     { return c.line.Load() }

// CountStatement records one evaluated (non-empty) statement.
func (c *Controller) CountStatement() uint64 { return c.statements.Add(1) }

// Elapsed is the time since the current run began.
func (c *Controller) Elapsed() time.Duration {
	return time.Since(time.Unix(0, c.startedAt.Load()))
}

func (c *Controller) SetTarget(t DriveTarget) {
	c.targetMu.Lock()
	c.target = t
	c.targetMu.Unlock()
}

func (c *Controller) Target() DriveTarget {
	c.targetMu.Lock()
	defer c.targetMu.Unlock()
	return c.target
}

// Pause raises the pause flag. Flows notice it at their next check.
func (c *Controller) Pause()       { c.paused.Store(true) }
func (c *Controller) Resume()      { c.paused.Store(false) }
func (c *Controller) Paused() bool { return c.paused.Load() }

// WaitIfPaused returns immediately when not paused; otherwise it polls the
// flag until it clears or ctx is done.
func (c *Controller) WaitIfPaused(ctx context.Context) error {
	if !c.paused.Load() {
		return ctx.Err()
	}

	ticker := time.NewTicker(c.pausePoll)
	defer ticker.Stop()
	for c.paused.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	armed, count, want := c.replyStatus()
	return Snapshot{
		Debug:      c.Debug(),
		Paused:     c.Paused(),
		Mode:       c.Mode(),
		Line:       c.Line(),
		Statements: c.statements.Load(),
		Elapsed:    c.Elapsed(),
		ReplyArmed: armed,
		ReplyCount: count,
		ReplyWant:  want,
		Stale:      c.StaleReplies(),
		Target:     c.Target(),
	}
}
