package component

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcweaver997/Kiwi/internal/robot/channel"
	"github.com/jcweaver997/Kiwi/internal/robot/message"
	"github.com/jcweaver997/Kiwi/pkg/log"
)

// Open sets c up and opens its inbound channel. It must complete for every
// component before any of them sends, or early messages are lost.
func Open(ctx context.Context, transport channel.Transport, c Component) error {
	if err := transport.Open(ctx, c.Channel()); err != nil {
		return fmt.Errorf("component %s: open channel %q: %w", c.Name(), c.Channel(), err)
	}
	if err := c.Setup(ctx, transport); err != nil {
		return fmt.Errorf("component %s: setup: %w", c.Name(), err)
	}
	return nil
}

// Serve is the component's receiving flow. Messages are handled one at a
// time in arrival order until ctx is done or the channel closes. Handler
// errors are logged and do not stop the loop. Tags without a route are
// dropped.
func Serve(ctx context.Context, transport channel.Transport, c Component) error {
	logger := log.WithName(c.Name())
	routes := c.Routes()

	logger.Info("Component started", "channel", c.Channel())
	defer logger.Info("Component stopped")

	for {
		msg, err := transport.Receive(ctx, c.Channel())
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, channel.ErrTransportClosed) {
				return nil
			}
			return fmt.Errorf("component %s: receive: %w", c.Name(), err)
		}

		handler, ok := routes[msg.Command]
		if !ok {
			logger.Debug("No route for command", "command", msg.Command)
			continue
		}
		if err := handler(ctx, msg); err != nil {
			logger.Error(err, "Handler execution failed", "command", msg.Command)
		}
	}
}

// Run opens c and serves it.
func Run(ctx context.Context, transport channel.Transport, c Component) error {
	if err := Open(ctx, transport, c); err != nil {
		return err
	}
	return Serve(ctx, transport, c)
}

// Broadcast sends msg to every component's channel. It keeps going past
// failures and returns them joined.
func Broadcast(ctx context.Context, sender Sender, components []Component, msg message.Message) error {
	var errs []error
	for _, c := range components {
		if err := sender.Send(ctx, c.Channel(), msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
