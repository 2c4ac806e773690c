// Package channel delivers messages to component inbound channels.
//
// A channel is a named, FIFO, at-most-once endpoint. Sending never blocks:
// a message addressed to a channel nobody has opened, or whose buffer is
// full, is not delivered and Send reports a *SendError.
package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

var (
	// ErrChannelNotFound means no receiver has opened the channel.
	ErrChannelNotFound = errors.New("channel not open")
	// ErrChannelFull means the receiver is not keeping up.
	ErrChannelFull = errors.New("channel full")
	// ErrTransportClosed is returned once the transport or channel is shut down.
	ErrTransportClosed = errors.New("transport closed")
)

// SendError reports a message that could not be handed to a channel.
type SendError struct {
	Channel message.ChannelID
	Command message.CommandTag
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %s to channel %q: %v", e.Command, e.Channel, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Transport is the addressing and delivery primitive shared by commands and
// replies.
type Transport interface {
	// Open starts listening on a channel. Messages sent before Open are lost.
	Open(ctx context.Context, id message.ChannelID) error

	// Close stops listening; pending receivers return ErrTransportClosed.
	Close(id message.ChannelID) error

	// Send copies msg into the channel without waiting for it to be consumed.
	Send(ctx context.Context, id message.ChannelID, msg message.Message) error

	// Receive blocks until a message is available, in arrival order.
	Receive(ctx context.Context, id message.ChannelID) (message.Message, error)
}
