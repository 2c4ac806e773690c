package channel

import (
	"context"
	"fmt"

	"github.com/jcweaver997/Kiwi/internal/pkg/metrics"
	"github.com/jcweaver997/Kiwi/internal/robot/message"
	"github.com/jcweaver997/Kiwi/pkg/log"
	"github.com/jcweaver997/Kiwi/pkg/mqtt"
	"github.com/jcweaver997/Kiwi/pkg/mqtt/topic"
)

// MQTT binds channels to broker topics so components can live in separate
// processes. Inbound messages land in a local mailbox, which keeps Receive
// semantics identical to the in-process transport.
type MQTT struct {
	client mqtt.Client
	topics *topic.Builder
	qos    int

	inbox *Local
}

var _ Transport = (*MQTT)(nil)

// NewMQTT wraps a started client.
func NewMQTT(client mqtt.Client, topics *topic.Builder, qos int, mailboxSize int) *MQTT {
	return &MQTT{
		client: client,
		topics: topics,
		qos:    qos,
		inbox:  NewLocal(mailboxSize),
	}
}

func (t *MQTT) Open(ctx context.Context, id message.ChannelID) error {
	if err := t.inbox.Open(ctx, id); err != nil {
		return err
	}

	subject := t.topics.Channel(string(id))
	err := t.client.Subscribe(ctx, subject, t.qos, func(_ context.Context, _ string, payload []byte) {
		t.onPayload(id, payload)
	})
	if err != nil {
		_ = t.inbox.Close(id)
		return fmt.Errorf("open channel %q: %w", id, err)
	}
	return nil
}

func (t *MQTT) onPayload(id message.ChannelID, payload []byte) {
	msg, err := Decode(payload)
	if err != nil {
		log.Error(err, "Dropping undecodable message", "channel", id)
		metrics.MessagesDropped.WithLabelValues(string(id), "decode").Inc()
		return
	}
	if err := t.inbox.deliver(id, msg); err != nil {
		log.Warn("Dropping inbound message", "channel", id, "command", msg.Command, "reason", err)
		metrics.MessagesDropped.WithLabelValues(string(id), "mailbox").Inc()
	}
}

func (t *MQTT) Close(id message.ChannelID) error {
	err := t.client.Unsubscribe(context.Background(), t.topics.Channel(string(id)))
	if cerr := t.inbox.Close(id); err == nil {
		err = cerr
	}
	return err
}

func (t *MQTT) Send(ctx context.Context, id message.ChannelID, msg message.Message) error {
	payload, err := Encode(msg)
	if err != nil {
		return &SendError{Channel: id, Command: msg.Command, Err: err}
	}
	if err := t.client.Publish(ctx, t.topics.Channel(string(id)), t.qos, false, payload); err != nil {
		return &SendError{Channel: id, Command: msg.Command, Err: err}
	}
	metrics.MessagesSent.WithLabelValues(string(id), msg.Command.String()).Inc()
	return nil
}

func (t *MQTT) Receive(ctx context.Context, id message.ChannelID) (message.Message, error) {
	return t.inbox.Receive(ctx, id)
}

// Shutdown closes every inbound mailbox.
func (t *MQTT) Shutdown() {
	t.inbox.Shutdown()
}
