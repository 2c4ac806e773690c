package message

import (
	"fmt"
	"slices"
	"strings"
)

// CommandTag selects the action a message asks for and which Params field is
// meaningful. The set is closed; numeric values are stable on the wire.
type CommandTag int

const (
	CommandUnknown CommandTag = iota
	CommandSystemMsgTimeout
	CommandSystemOK
	CommandSystemError

	// Robot lifecycle, broadcast to every component.
	CommandRobotStateDisabled
	CommandRobotStateAutonomous
	CommandRobotStateTeleoperated
	CommandRobotStateTest
	CommandRobotStateUnknown

	// Autonomous lifecycle.
	CommandAutonomousRun
	CommandAutonomousComplete
	CommandAutonomousResponseOK
	CommandAutonomousResponseError
	CommandChecklistRun

	// Drive base.
	CommandDrivetrainStop
	CommandDrivetrainDriveKiwi

	CommandComponentTest

	commandLast
)

var commandNames = [...]string{
	CommandUnknown:                 "UNKNOWN",
	CommandSystemMsgTimeout:        "SYSTEM_MSGTIMEOUT",
	CommandSystemOK:                "SYSTEM_OK",
	CommandSystemError:             "SYSTEM_ERROR",
	CommandRobotStateDisabled:      "ROBOT_STATE_DISABLED",
	CommandRobotStateAutonomous:    "ROBOT_STATE_AUTONOMOUS",
	CommandRobotStateTeleoperated:  "ROBOT_STATE_TELEOPERATED",
	CommandRobotStateTest:          "ROBOT_STATE_TEST",
	CommandRobotStateUnknown:       "ROBOT_STATE_UNKNOWN",
	CommandAutonomousRun:           "AUTONOMOUS_RUN",
	CommandAutonomousComplete:      "AUTONOMOUS_COMPLETE",
	CommandAutonomousResponseOK:    "AUTONOMOUS_RESPONSE_OK",
	CommandAutonomousResponseError: "AUTONOMOUS_RESPONSE_ERROR",
	CommandChecklistRun:            "CHECKLIST_RUN",
	CommandDrivetrainStop:          "DRIVETRAIN_STOP",
	CommandDrivetrainDriveKiwi:     "DRIVETRAIN_DRIVE_KIWI",
	CommandComponentTest:           "COMPONENT_TEST",
}

func (c CommandTag) String() string {
	if c.Valid() {
		return commandNames[c]
	}
	return fmt.Sprintf("CommandTag(%d)", int(c))
}

// Valid reports whether c is a member of the closed tag set.
func (c CommandTag) Valid() bool {
	return c >= CommandUnknown && c < commandLast
}

// IsRobotState reports whether c is one of the lifecycle broadcasts.
func (c CommandTag) IsRobotState() bool {
	return c >= CommandRobotStateDisabled && c <= CommandRobotStateUnknown
}

// Reply tags a peer answers a command/response with.
var (
	OKReplies    = []CommandTag{CommandAutonomousResponseOK, CommandSystemOK}
	ErrorReplies = []CommandTag{CommandAutonomousResponseError, CommandSystemError}
)

// ReplyTags lists every reply tag, successes first.
func ReplyTags() []CommandTag {
	return slices.Concat(OKReplies, ErrorReplies)
}

// IsReply reports whether c is a command/response reply tag.
func (c CommandTag) IsReply() bool {
	return slices.Contains(OKReplies, c) || slices.Contains(ErrorReplies, c)
}

// ParseCommandTag resolves a symbolic name, with or without the COMMAND_ prefix.
func ParseCommandTag(s string) (CommandTag, error) {
	name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "COMMAND_")
	for i, n := range commandNames {
		if n == name {
			return CommandTag(i), nil
		}
	}
	return CommandUnknown, fmt.Errorf("unknown command tag %q", s)
}
