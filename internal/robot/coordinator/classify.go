package coordinator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

var (
	// ErrPeerResponse means the peer replied with a failure tag.
	ErrPeerResponse = errors.New("peer responded with error")
	// ErrUnexpectedReply means the reply tag is neither a success nor a failure tag.
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// Classifier enumerates the reply tags treated as success and as failure.
// Any other tag is ErrUnexpectedReply.
type Classifier struct {
	OK    []message.CommandTag
	Error []message.CommandTag
}

// DefaultClassifier accepts the autonomous response pair and the generic system pair.
var DefaultClassifier = Classifier{
	OK:    message.OKReplies,
	Error: message.ErrorReplies,
}

// Classify returns nil for a success tag.
func (c Classifier) Classify(tag message.CommandTag) error {
	switch {
	case slices.Contains(c.OK, tag):
		return nil
	case slices.Contains(c.Error, tag):
		return fmt.Errorf("%w: %s", ErrPeerResponse, tag)
	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedReply, tag)
	}
}
