package mqtt_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jcweaver997/Kiwi/pkg/log"
	"github.com/jcweaver997/Kiwi/pkg/mqtt"
	"github.com/jcweaver997/Kiwi/pkg/mqtt/topic"
)

// ExampleClient shows how a component process binds its inbound channel to a
// topic and sends a message to another component's channel.
func ExampleClient() {
	cfg := &mqtt.ClientConfig{
		BrokerURL:      "tcp://localhost:1883",
		ClientID:       "kiwibot-drive",
		KeepAlive:      60,
		ConnectTimeout: 5 * time.Second,
		CleanStart:     true,
	}

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "Failed to create MQTT client")
		return
	}

	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		log.Error(err, "Failed to start MQTT client")
		return
	}
	defer client.Disconnect(ctx)

	topics := topic.NewBuilder("kiwi/v1")

	inbound := topics.Channel("drive")
	if err := client.Subscribe(ctx, inbound, 1, func(ctx context.Context, t string, payload []byte) {
		fmt.Printf("drive received %d bytes on %s\n", len(payload), t)
	}); err != nil {
		log.Error(err, "Failed to subscribe", "topic", inbound)
	}

	if err := client.AwaitConnection(ctx); err != nil {
		log.Error(err, "Connection failed")
		return
	}

	if err := client.Publish(ctx, topics.Channel("auto"), 1, false, []byte(`{"command":"AUTONOMOUS_RESPONSE_OK"}`)); err != nil {
		log.Error(err, "Failed to publish reply")
	}
}
