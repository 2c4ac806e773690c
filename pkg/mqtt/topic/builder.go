package topic

import (
	"fmt"
	"strings"
)

// Topic segments. They are the contract between robot components that talk
// across process boundaries; changing them breaks mixed-version deployments.
const (
	// SuffixChannel carries messages addressed to a component's inbound channel.
	// Structure: {root}/channel/{channelID}
	SuffixChannel = "channel"

	// SuffixStatus carries retained online/offline status per component process.
	// Structure: {root}/status/{clientID}
	SuffixStatus = "status"
)

// Builder encapsulates the logic for constructing MQTT topic strings.
type Builder struct {
	// root is the base namespace for all topics (e.g., "kiwi/v1").
	root string
}

// NewBuilder creates a new Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.TrimSuffix(root, "/")}
}

// Root returns the namespace prefix.
func (b *Builder) Root() string {
	return b.root
}

// Channel returns the topic a component's inbound channel is bound to.
func (b *Builder) Channel(channelID string) string {
	return b.build(SuffixChannel, channelID)
}

// ChannelWildcard matches every channel under the root.
// Result: {root}/channel/+
func (b *Builder) ChannelWildcard() string {
	return b.build(SuffixChannel, Wildcard)
}

// Status returns the retained status topic for a client.
func (b *Builder) Status(clientID string) string {
	return b.build(SuffixStatus, clientID)
}

// ChannelFromTopic extracts the channel id from a channel topic.
func (b *Builder) ChannelFromTopic(topic string) (string, bool) {
	prefix := b.root + "/" + SuffixChannel + "/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(topic, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// build constructs {root}/{suffix}/{identifier}. Slashes inside the
// identifier are replaced so it always occupies exactly one topic level.
func (b *Builder) build(suffix, id string) string {
	id = strings.Trim(id, "/")
	id = strings.ReplaceAll(id, "/", "_")
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
