package execstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

var (
	// ErrReplyPending is returned when a reply session is armed while another is outstanding.
	ErrReplyPending = errors.New("reply already pending")
	// ErrNotArmed is returned by Wait when no session is armed.
	ErrNotArmed = errors.New("no reply armed")
	// ErrWaitTimeout is returned when the expected replies do not all arrive in time.
	ErrWaitTimeout = errors.New("timed out waiting for replies")
	// ErrDisarmed is returned to a waiter whose session was cancelled from the outside.
	ErrDisarmed = errors.New("reply session disarmed")
)

// DefaultStaleReplyWindow is how long a reply still owed by an abandoned
// session is expected before the debt is forgotten.
const DefaultStaleReplyWindow = 10 * time.Second

// session counts replies for one in-flight dispatch. Replies are correlated
// by count, not by sender.
type session struct {
	want     int
	tags     []message.CommandTag
	done     chan struct{}
	disarmed bool
}

// Arm opens a reply session expecting n replies. It must be called before
// the commands are sent so a fast reply cannot be missed.
func (c *Controller) Arm(n int) error {
	if n <= 0 {
		return fmt.Errorf("arm: expected reply count must be positive, got %d", n)
	}

	c.replyMu.Lock()
	defer c.replyMu.Unlock()

	if c.session != nil {
		return ErrReplyPending
	}
	c.session = &session{
		want: n,
		tags: make([]message.CommandTag, 0, n),
		done: make(chan struct{}),
	}
	return nil
}

// Deliver records a reply from the receiving flow. It reports false when no
// session is armed, the session already has every reply it wanted, or the
// reply is a late answer to a session that timed out or was disarmed; such
// replies are dropped.
func (c *Controller) Deliver(tag message.CommandTag) bool {
	c.replyMu.Lock()
	defer c.replyMu.Unlock()

	if c.takeStaleLocked() {
		return false
	}
	s := c.session
	if s == nil || len(s.tags) >= s.want {
		return false
	}
	s.tags = append(s.tags, tag)
	if len(s.tags) == s.want {
		close(s.done)
	}
	return true
}

// SetStaleReplyWindow bounds how long late replies of an abandoned session
// are waited for. Past it, a silent peer no longer costs the next command
// its reply.
func (c *Controller) SetStaleReplyWindow(d time.Duration) {
	c.replyMu.Lock()
	defer c.replyMu.Unlock()
	c.staleWindow = d
}

// StaleReplies is the number of late replies still expected from abandoned sessions.
func (c *Controller) StaleReplies() int {
	c.replyMu.Lock()
	defer c.replyMu.Unlock()
	c.pruneStaleLocked(time.Now())
	return len(c.stale)
}

// oweLocked records n replies that peers still owe an abandoned session.
func (c *Controller) oweLocked(n int) {
	window := c.staleWindow
	if window <= 0 {
		window = DefaultStaleReplyWindow
	}
	until := time.Now().Add(window)
	for range n {
		c.stale = append(c.stale, until)
	}
}

func (c *Controller) pruneStaleLocked(now time.Time) {
	i := 0
	for i < len(c.stale) && !now.Before(c.stale[i]) {
		i++
	}
	c.stale = c.stale[i:]
}

// takeStaleLocked consumes one owed reply, if any is still expected.
func (c *Controller) takeStaleLocked() bool {
	c.pruneStaleLocked(time.Now())
	if len(c.stale) == 0 {
		return false
	}
	c.stale = c.stale[1:]
	return true
}

// Wait blocks until the armed session is complete, timeout elapses or ctx is
// done. The session is cleared on every path, so the next Arm starts from a
// zero count. On timeout the replies received so far are returned with
// ErrWaitTimeout. A timeout of zero or less waits without a bound.
func (c *Controller) Wait(ctx context.Context, timeout time.Duration) ([]message.CommandTag, error) {
	c.replyMu.Lock()
	s := c.session
	c.replyMu.Unlock()
	if s == nil {
		return nil, ErrNotArmed
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-s.done:
		tags, disarmed := c.release(s)
		if disarmed {
			return tags, ErrDisarmed
		}
		return tags, nil
	case <-expired:
		tags, _ := c.release(s)
		return tags, ErrWaitTimeout
	case <-ctx.Done():
		tags, _ := c.release(s)
		return tags, ctx.Err()
	}
}

// Disarm cancels the outstanding session, waking its waiter with ErrDisarmed.
// Replies it was still waiting for are dropped when they arrive.
func (c *Controller) Disarm() {
	c.replyMu.Lock()
	defer c.replyMu.Unlock()

	if s := c.session; s != nil {
		c.abortLocked(s, s.want)
	}
}

// Abort cancels the outstanding session after only the first sent of its
// commands went out. Replies to those are dropped when they arrive.
func (c *Controller) Abort(sent int) {
	c.replyMu.Lock()
	defer c.replyMu.Unlock()

	if s := c.session; s != nil {
		c.abortLocked(s, min(sent, s.want))
	}
}

func (c *Controller) abortLocked(s *session, sent int) {
	c.session = nil
	if n := sent - len(s.tags); n > 0 {
		c.oweLocked(n)
	}
	if len(s.tags) < s.want {
		s.disarmed = true
		close(s.done)
	}
}

// ReplyArmed reports whether a reply session is outstanding.
func (c *Controller) ReplyArmed() bool {
	armed, _, _ := c.replyStatus()
	return armed
}

// ReplyCount is the number of replies counted by the outstanding session.
func (c *Controller) ReplyCount() int {
	_, n, _ := c.replyStatus()
	return n
}

func (c *Controller) replyStatus() (armed bool, count, want int) {
	c.replyMu.Lock()
	defer c.replyMu.Unlock()
	if c.session == nil {
		return false, 0, 0
	}
	return true, len(c.session.tags), c.session.want
}

// release clears s if it is still current and returns a copy of its tags.
// Replies s gave up on are remembered so they are not counted by the next
// session.
func (c *Controller) release(s *session) ([]message.CommandTag, bool) {
	c.replyMu.Lock()
	defer c.replyMu.Unlock()
	if c.session == s {
		c.session = nil
		if n := s.want - len(s.tags); n > 0 {
			c.oweLocked(n)
		}
	}
	return append([]message.CommandTag(nil), s.tags...), s.disarmed
}
