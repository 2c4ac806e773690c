package coordinator

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

// FanInPolicy decides the verdict of a multi-command dispatch from its replies.
type FanInPolicy string

const (
	// FanInAggregate fails if any reply fails.
	FanInAggregate FanInPolicy = "aggregate"
	// FanInLastReply takes the verdict of the last reply to arrive. A late
	// success hides an earlier failure.
	FanInLastReply FanInPolicy = "last-reply"
)

// ParseFanInPolicy validates a policy name.
func ParseFanInPolicy(s string) (FanInPolicy, error) {
	switch p := FanInPolicy(s); p {
	case FanInAggregate, FanInLastReply:
		return p, nil
	case "":
		return FanInAggregate, nil
	default:
		return "", fmt.Errorf("unknown fan-in policy %q", s)
	}
}

// verdict applies the policy to replies in arrival order.
func (p FanInPolicy) verdict(c Classifier, tags []message.CommandTag) error {
	if len(tags) == 0 {
		return nil
	}
	if p == FanInLastReply {
		return c.Classify(tags[len(tags)-1])
	}

	var errs []error
	for _, tag := range tags {
		if err := c.Classify(tag); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}
