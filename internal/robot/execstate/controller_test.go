package execstate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

func TestReplySessionCountsAnyOrder(t *testing.T) {
	c := New(0)
	require.NoError(t, c.Arm(3))
	assert.True(t, c.ReplyArmed())
	assert.ErrorIs(t, c.Arm(1), ErrReplyPending)

	tags := []message.CommandTag{
		message.CommandAutonomousResponseError,
		message.CommandAutonomousResponseOK,
		message.CommandAutonomousResponseOK,
	}
	var wg sync.WaitGroup
	for _, tag := range tags {
		wg.Add(1)
		go func(tag message.CommandTag) {
			defer wg.Done()
			c.Deliver(tag)
		}(tag)
	}

	got, err := c.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.ElementsMatch(t, tags, got)
	wg.Wait()

	assert.False(t, c.ReplyArmed())
	assert.Zero(t, c.ReplyCount())
	assert.False(t, c.Deliver(message.CommandAutonomousResponseOK), "unarmed replies are dropped")
}

func TestReplySessionExtraRepliesDropped(t *testing.T) {
	c := New(0)
	require.NoError(t, c.Arm(1))
	assert.True(t, c.Deliver(message.CommandAutonomousResponseOK))
	assert.False(t, c.Deliver(message.CommandAutonomousResponseError))

	got, err := c.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []message.CommandTag{message.CommandAutonomousResponseOK}, got)
}

func TestReplySessionTimeout(t *testing.T) {
	c := New(0)
	require.NoError(t, c.Arm(2))
	c.Deliver(message.CommandAutonomousResponseOK)

	start := time.Now()
	got, err := c.Wait(context.Background(), 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Len(t, got, 1)

	// The next session starts clean.
	require.NoError(t, c.Arm(1))
	assert.Zero(t, c.ReplyCount())
	c.Disarm()
}

func TestReplySessionCancel(t *testing.T) {
	c := New(0)
	require.NoError(t, c.Arm(1))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := c.Wait(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, c.ReplyArmed())
}

func TestReplySessionDisarm(t *testing.T) {
	c := New(0)
	_, err := c.Wait(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrNotArmed)
	assert.Error(t, c.Arm(0))

	require.NoError(t, c.Arm(2))
	go func() {
		time.Sleep(10 * time.Millisecond)
		c.Disarm()
	}()
	_, err = c.Wait(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrDisarmed)
	require.NoError(t, c.Arm(1))
}

func TestReplySessionOwedRepliesDropped(t *testing.T) {
	c := New(0)
	require.NoError(t, c.Arm(2))
	c.Deliver(message.CommandAutonomousResponseOK)
	_, err := c.Wait(context.Background(), 10*time.Millisecond)
	require.ErrorIs(t, err, ErrWaitTimeout)
	assert.Equal(t, 1, c.StaleReplies())

	require.NoError(t, c.Arm(1))
	assert.False(t, c.Deliver(message.CommandAutonomousResponseError), "late reply must not count")
	assert.Zero(t, c.ReplyCount())
	assert.True(t, c.Deliver(message.CommandAutonomousResponseOK))

	got, err := c.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, []message.CommandTag{message.CommandAutonomousResponseOK}, got)
	assert.Equal(t, 0, c.Snapshot().Stale)
}

func TestReplySessionAbortOwesSentOnly(t *testing.T) {
	c := New(0)
	require.NoError(t, c.Arm(3))
	c.Abort(1)
	assert.False(t, c.ReplyArmed())
	assert.Equal(t, 1, c.StaleReplies())

	require.NoError(t, c.Arm(2))
	c.Disarm()
	assert.Equal(t, 3, c.StaleReplies())
}

func TestReplySessionOwedRepliesExpire(t *testing.T) {
	c := New(0)
	c.SetStaleReplyWindow(20 * time.Millisecond)
	require.NoError(t, c.Arm(1))
	c.Disarm()
	assert.Equal(t, 1, c.StaleReplies())

	require.Eventually(t, func() bool { return c.StaleReplies() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Arm(1))
	assert.True(t, c.Deliver(message.CommandAutonomousResponseOK))
	_, err := c.Wait(context.Background(), time.Second)
	assert.NoError(t, err)
}

func TestWaitIfPaused(t *testing.T) {
	c := New(5 * time.Millisecond)
	require.NoError(t, c.WaitIfPaused(context.Background()))

	c.Pause()
	assert.True(t, c.Paused())
	go func() {
		time.Sleep(25 * time.Millisecond)
		c.Resume()
	}()
	start := time.Now()
	require.NoError(t, c.WaitIfPaused(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	c.Pause()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.WaitIfPaused(ctx), context.DeadlineExceeded)
}

func TestBeginResetsRunState(t *testing.T) {
	c := New(0)
	c.SetDebug(true)
	c.SetMode(3)
	c.NextLine()
	c.CountStatement()
	c.SetTarget(DriveTarget{Rotation: 90, Step: 2})

	c.Begin()
	s := c.Snapshot()
	assert.True(t, s.Debug)
	assert.Zero(t, s.Mode)
	assert.Zero(t, s.Line)
	assert.Zero(t, s.Statements)
	assert.Equal(t, DriveTarget{}, s.Target)
	assert.Less(t, s.Elapsed, time.Second)
}
