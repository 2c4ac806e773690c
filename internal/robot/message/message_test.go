package message

import "testing"

func TestCommandTagString(t *testing.T) {
	tests := []struct {
		tag  CommandTag
		want string
	}{
		{CommandUnknown, "UNKNOWN"},
		{CommandAutonomousResponseOK, "AUTONOMOUS_RESPONSE_OK"},
		{CommandDrivetrainDriveKiwi, "DRIVETRAIN_DRIVE_KIWI"},
		{CommandComponentTest, "COMPONENT_TEST"},
		{CommandTag(99), "CommandTag(99)"},
		{CommandTag(-1), "CommandTag(-1)"},
	}

	for _, tt := range tests {
		if got := tt.tag.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestEveryTagHasAName(t *testing.T) {
	for c := CommandUnknown; c < commandLast; c++ {
		if commandNames[c] == "" {
			t.Errorf("tag %d has no name", int(c))
		}
		parsed, err := ParseCommandTag("COMMAND_" + c.String())
		if err != nil || parsed != c {
			t.Errorf("ParseCommandTag(%q) = %v, %v", c.String(), parsed, err)
		}
	}
}

func TestParseCommandTagRejectsUnknown(t *testing.T) {
	if _, err := ParseCommandTag("DRIVETRAIN_STRAIGHT"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTagClassification(t *testing.T) {
	if !CommandRobotStateTest.IsRobotState() || CommandAutonomousRun.IsRobotState() {
		t.Error("IsRobotState misclassifies")
	}
	for _, c := range ReplyTags() {
		if !c.IsReply() {
			t.Errorf("%s should be a reply", c)
		}
	}
	if CommandSystemMsgTimeout.IsReply() || CommandAutonomousRun.IsReply() {
		t.Error("IsReply misclassifies")
	}
}

func TestParamKindOf(t *testing.T) {
	if ParamKindOf(CommandDrivetrainDriveKiwi) != ParamKiwiDrive {
		t.Error("drive kiwi should select kiwi params")
	}
	if ParamKindOf(CommandAutonomousRun) != ParamAutonomous {
		t.Error("autonomous run should select autonomous params")
	}
	if ParamKindOf(CommandDrivetrainStop) != ParamNone {
		t.Error("stop carries no params")
	}
}

func TestMessageIsCopiedByValue(t *testing.T) {
	m := Message{Command: CommandDrivetrainDriveKiwi, ReplyTo: AutonomousChannel}
	m.Params.KiwiDrive.X = 0.5

	sent := m
	m.Params.KiwiDrive.X = 1

	if sent.Params.KiwiDrive.X != 0.5 {
		t.Fatal("copy shares params with original")
	}
	if !sent.ExpectsReply() || sent.Reply(CommandAutonomousResponseOK).ExpectsReply() {
		t.Fatal("reply addressing wrong")
	}
}

func TestResolve(t *testing.T) {
	id, err := Resolve("drivetrain")
	if err != nil || id != DrivetrainChannel {
		t.Fatalf("Resolve(drivetrain) = %q, %v", id, err)
	}
	if _, err := Resolve("conveyor"); err == nil {
		t.Fatal("expected error for unconfigured component")
	}
}
