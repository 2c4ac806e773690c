// Package component defines robot components and runs their receiving flow.
package component

import (
	"context"

	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

// HandlerFunc handles one inbound message.
type HandlerFunc func(ctx context.Context, msg message.Message) error

// Sender delivers messages to other components' channels.
type Sender interface {
	Send(ctx context.Context, id message.ChannelID, msg message.Message) error
}

// Component is an independently scheduled subsystem with its own inbound channel.
type Component interface {
	Name() string

	Channel() message.ChannelID

	Setup(ctx context.Context, sender Sender) error

	// Routes maps command tags to handlers. Robot state changes are routed
	// like any other tag.
	Routes() map[message.CommandTag]HandlerFunc
}

// Reply answers msg with tag when msg carries a reply address.
func Reply(ctx context.Context, sender Sender, msg message.Message, tag message.CommandTag) error {
	if !msg.ExpectsReply() {
		return nil
	}
	return sender.Send(ctx, msg.ReplyTo, msg.Reply(tag))
}
