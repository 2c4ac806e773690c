// Package message defines the envelope components exchange over channels.
package message

import "fmt"

// ChannelID identifies a component's inbound channel.
type ChannelID string

// Well-known channels, one per component.
const (
	ComponentChannel  ChannelID = "comp"
	DrivetrainChannel ChannelID = "drive"
	AutonomousChannel ChannelID = "auto"
	ParserChannel     ChannelID = "parse"
)

// Channels maps component names to their inbound channel. It is the static
// configuration channel ids are resolved from.
var Channels = map[string]ChannelID{
	"component":  ComponentChannel,
	"drivetrain": DrivetrainChannel,
	"autonomous": AutonomousChannel,
	"parser":     ParserChannel,
}

// Resolve looks up the channel of a named component.
func Resolve(component string) (ChannelID, error) {
	id, ok := Channels[component]
	if !ok {
		return "", fmt.Errorf("no channel configured for component %q", component)
	}
	return id, nil
}

// KiwiDriveParams carries joystick-style drive input for the kiwi drive base.
type KiwiDriveParams struct {
	X float64
	Y float64
	R float64
}

// AutonomousParams carries values autonomous hands to other components.
type AutonomousParams struct {
	Mode  uint32
	Delay uint32
	// Timeout is how long a function may run, in seconds.
	Timeout float64
	// TimeIn is how long until a function performs, in seconds.
	TimeIn float64

	DriveSpeed    float64
	DriveDistance float64
	TurnAngle     float64
	DriveTime     float64
}

// Params is the payload union. Which field is meaningful depends on the
// command tag, see ParamKindOf.
type Params struct {
	KiwiDrive  KiwiDriveParams
	Autonomous AutonomousParams
}

// ParamKind names the active member of Params.
type ParamKind int

const (
	ParamNone ParamKind = iota
	ParamKiwiDrive
	ParamAutonomous
)

// ParamKindOf returns the Params member selected by a command tag.
func ParamKindOf(c CommandTag) ParamKind {
	switch c {
	case CommandDrivetrainDriveKiwi:
		return ParamKiwiDrive
	case CommandAutonomousRun, CommandAutonomousComplete, CommandChecklistRun:
		return ParamAutonomous
	default:
		return ParamNone
	}
}

// Message is the fixed-shape envelope. It is a plain value; sending copies it.
type Message struct {
	Command CommandTag
	// ReplyTo is where replies go; empty when no reply is expected.
	ReplyTo ChannelID
	Params  Params
}

// New builds a message with no reply address.
func New(cmd CommandTag) Message {
	return Message{Command: cmd}
}

// Reply builds the reply to m with the given tag. The reply carries no reply address.
func (m Message) Reply(tag CommandTag) Message {
	return Message{Command: tag}
}

// ExpectsReply reports whether the sender asked for a reply.
func (m Message) ExpectsReply() bool {
	return m.ReplyTo != ""
}

func (m Message) String() string {
	switch ParamKindOf(m.Command) {
	case ParamKiwiDrive:
		p := m.Params.KiwiDrive
		return fmt.Sprintf("%s{x=%.3f y=%.3f r=%.3f reply=%q}", m.Command, p.X, p.Y, p.R, m.ReplyTo)
	default:
		return fmt.Sprintf("%s{reply=%q}", m.Command, m.ReplyTo)
	}
}
