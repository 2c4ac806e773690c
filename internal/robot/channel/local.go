package channel

import (
	"context"
	"sync"

	"github.com/jcweaver997/Kiwi/internal/pkg/metrics"
	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

// DefaultMailboxSize is the per-channel buffer used when none is given.
const DefaultMailboxSize = 64

type mailbox struct {
	ch   chan message.Message
	done chan struct{}
}

// Local is an in-process Transport. Each open channel is a buffered mailbox.
type Local struct {
	size int

	mu        sync.RWMutex
	mailboxes map[message.ChannelID]*mailbox
	closed    bool
}

var _ Transport = (*Local)(nil)

// NewLocal returns a Local transport whose mailboxes buffer size messages.
func NewLocal(size int) *Local {
	if size <= 0 {
		size = DefaultMailboxSize
	}
	return &Local{
		size:      size,
		mailboxes: make(map[message.ChannelID]*mailbox),
	}
}

func (l *Local) Open(_ context.Context, id message.ChannelID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrTransportClosed
	}
	if _, ok := l.mailboxes[id]; ok {
		return nil
	}
	l.mailboxes[id] = &mailbox{
		ch:   make(chan message.Message, l.size),
		done: make(chan struct{}),
	}
	return nil
}

func (l *Local) Close(id message.ChannelID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	mb, ok := l.mailboxes[id]
	if !ok {
		return nil
	}
	close(mb.done)
	delete(l.mailboxes, id)
	return nil
}

// Shutdown closes every channel.
func (l *Local) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, mb := range l.mailboxes {
		close(mb.done)
		delete(l.mailboxes, id)
	}
	l.closed = true
}

func (l *Local) Send(ctx context.Context, id message.ChannelID, msg message.Message) error {
	if err := ctx.Err(); err != nil {
		return &SendError{Channel: id, Command: msg.Command, Err: err}
	}
	if err := l.deliver(id, msg); err != nil {
		return &SendError{Channel: id, Command: msg.Command, Err: err}
	}
	metrics.MessagesSent.WithLabelValues(string(id), msg.Command.String()).Inc()
	return nil
}

// deliver hands msg to the mailbox without blocking.
func (l *Local) deliver(id message.ChannelID, msg message.Message) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return ErrTransportClosed
	}
	mb, ok := l.mailboxes[id]
	if !ok {
		return ErrChannelNotFound
	}

	select {
	case mb.ch <- msg:
		return nil
	default:
		return ErrChannelFull
	}
}

func (l *Local) Receive(ctx context.Context, id message.ChannelID) (message.Message, error) {
	l.mu.RLock()
	mb, ok := l.mailboxes[id]
	closed := l.closed
	l.mu.RUnlock()

	if closed {
		return message.Message{}, ErrTransportClosed
	}
	if !ok {
		return message.Message{}, ErrChannelNotFound
	}

	// Drain in arrival order before honoring close or cancellation.
	select {
	case msg := <-mb.ch:
		return msg, nil
	default:
	}

	select {
	case msg := <-mb.ch:
		return msg, nil
	case <-mb.done:
		return message.Message{}, ErrTransportClosed
	case <-ctx.Done():
		return message.Message{}, ctx.Err()
	}
}
