// Package coordinator sends commands to components and blocks until their
// replies arrive. Replies are correlated by count: the caller's receiving
// flow feeds every reply-tagged message into the reply session and the
// coordinator waits for as many as it dispatched.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jcweaver997/Kiwi/internal/pkg/metrics"
	"github.com/jcweaver997/Kiwi/internal/robot/execstate"
	"github.com/jcweaver997/Kiwi/internal/robot/message"
	"github.com/jcweaver997/Kiwi/pkg/log"
)

var (
	// ErrDispatchMismatch means the target and command lists differ in length. Nothing is sent.
	ErrDispatchMismatch = errors.New("dispatch list length mismatch")
	// ErrCommandTimeout means not every expected reply arrived in time.
	ErrCommandTimeout = errors.New("command timed out")
)

// DefaultTimeout bounds a reply wait when Config.Timeout is unset.
const DefaultTimeout = 5 * time.Second

// NoTimeout disables the reply wait bound. Only ctx ends the wait.
const NoTimeout time.Duration = -1

// Sender delivers a message to a channel.
type Sender interface {
	Send(ctx context.Context, id message.ChannelID, msg message.Message) error
}

// ReplySession is the reply-counting side of the execution controller.
type ReplySession interface {
	Arm(n int) error
	Wait(ctx context.Context, timeout time.Duration) ([]message.CommandTag, error)
	Abort(sent int)
}

var _ ReplySession = (*execstate.Controller)(nil)

// StatusSink receives the human-readable verdict of each call.
type StatusSink interface {
	PutString(key, value string)
}

// StatusKey is the dashboard key the verdict is published under.
const StatusKey = "Auto Status"

// Verdict strings published to the StatusSink.
const (
	StatusOK            = "auto ok"
	StatusPeerFailure   = "EARLY DEATH!"
	StatusMultiMismatch = "MULTICOMMAND error!"
)

type nopSink struct{}

func (nopSink) PutString(string, string) {}

// Config configures a Coordinator.
type Config struct {
	// Self is the caller's inbound channel. Replies are addressed to it.
	Self       message.ChannelID
	Timeout    time.Duration
	FanIn      FanInPolicy
	Classifier Classifier
	// Status is optional.
	Status StatusSink
}

// Coordinator is used by a single script flow at a time. A second
// concurrent reply wait fails with execstate.ErrReplyPending.
type Coordinator struct {
	cfg     Config
	sender  Sender
	replies ReplySession
	logger  log.Logger
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

type callOptions struct {
	timeout time.Duration
}

// WithTimeout overrides the configured reply timeout for one call.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) { o.timeout = d }
}

// New returns a coordinator sending through sender and counting replies in replies.
func New(sender Sender, replies ReplySession, cfg Config) *Coordinator {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.FanIn == "" {
		cfg.FanIn = FanInAggregate
	}
	if cfg.Classifier.OK == nil && cfg.Classifier.Error == nil {
		cfg.Classifier = DefaultClassifier
	}
	if cfg.Status == nil {
		cfg.Status = nopSink{}
	}
	return &Coordinator{
		cfg:     cfg,
		sender:  sender,
		replies: replies,
		logger:  log.WithName("coordinator"),
	}
}

// CommandResponse sends msg to target with the coordinator's channel as reply
// address and waits for exactly one reply.
func (c *Coordinator) CommandResponse(ctx context.Context, target message.ChannelID, msg message.Message, opts ...CallOption) error {
	start := time.Now()
	msg.ReplyTo = c.cfg.Self

	tags, err := c.dispatch(ctx, []message.ChannelID{target}, []message.Message{msg}, opts)
	if err == nil {
		err = c.cfg.Classifier.Classify(tags[0])
	}
	c.observe("single", start, err)
	if err != nil {
		c.logger.Warn("Command failed", "target", target, "command", msg.Command, "error", err)
	}
	return err
}

// MultiCommandResponse sends commands[i] to targets[i] in list order, then
// waits until len(targets) replies have been counted, in any arrival order.
// The verdict follows the configured fan-in policy.
func (c *Coordinator) MultiCommandResponse(ctx context.Context, targets []message.ChannelID, commands []message.CommandTag, opts ...CallOption) error {
	if len(targets) != len(commands) || len(targets) == 0 {
		err := fmt.Errorf("%w: %d channels, %d commands", ErrDispatchMismatch, len(targets), len(commands))
		metrics.CommandsDispatched.WithLabelValues("multi", "mismatch").Inc()
		c.cfg.Status.PutString(StatusKey, StatusMultiMismatch)
		return err
	}

	start := time.Now()
	msgs := make([]message.Message, len(commands))
	for i, cmd := range commands {
		msgs[i] = message.New(cmd)
		msgs[i].ReplyTo = c.cfg.Self
	}

	tags, err := c.dispatch(ctx, targets, msgs, opts)
	if err == nil {
		err = c.cfg.FanIn.verdict(c.cfg.Classifier, tags)
	}
	c.observe("multi", start, err)
	if err != nil {
		c.logger.Warn("Multi-command failed", "targets", targets, "policy", c.cfg.FanIn, "error", err)
	}
	return err
}

// CommandNoResponse sends msg to target without a reply address. It
// succeeds as soon as the transport accepts the message.
func (c *Coordinator) CommandNoResponse(ctx context.Context, target message.ChannelID, msg message.Message) error {
	msg.ReplyTo = ""
	err := c.sender.Send(ctx, target, msg)
	result := "ok"
	if err != nil {
		result = "send_error"
		c.logger.Warn("Fire-and-forget send failed", "target", target, "command", msg.Command, "error", err)
	}
	metrics.CommandsDispatched.WithLabelValues("oneway", result).Inc()
	return err
}

// dispatch arms the reply session, sends every message and waits for the replies.
func (c *Coordinator) dispatch(ctx context.Context, targets []message.ChannelID, msgs []message.Message, opts []CallOption) ([]message.CommandTag, error) {
	o := callOptions{timeout: c.cfg.Timeout}
	for _, opt := range opts {
		opt(&o)
	}

	if err := c.replies.Arm(len(msgs)); err != nil {
		return nil, err
	}
	for i, msg := range msgs {
		if err := c.sender.Send(ctx, targets[i], msg); err != nil {
			// Replies to the messages already out are still on their way.
			c.replies.Abort(i)
			return nil, err
		}
		c.logger.Debug("Sent command", "target", targets[i], "command", msg.Command)
	}

	tags, err := c.replies.Wait(ctx, o.timeout)
	switch {
	case err == nil:
		return tags, nil
	case errors.Is(err, execstate.ErrWaitTimeout):
		metrics.CommandTimeouts.Inc()
		return tags, fmt.Errorf("%w after %s: %d of %d replies", ErrCommandTimeout, o.timeout, len(tags), len(msgs))
	default:
		return tags, fmt.Errorf("waiting for replies: %w", err)
	}
}

func (c *Coordinator) observe(mode string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrCommandTimeout):
		result = "timeout"
	case errors.Is(err, ErrPeerResponse):
		result = "peer_error"
	case errors.Is(err, ErrUnexpectedReply):
		result = "unexpected"
	default:
		result = "error"
	}
	if err == nil {
		c.cfg.Status.PutString(StatusKey, StatusOK)
	} else {
		c.cfg.Status.PutString(StatusKey, StatusPeerFailure)
	}
	metrics.CommandsDispatched.WithLabelValues(mode, result).Inc()
	metrics.CommandLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
