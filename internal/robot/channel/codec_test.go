package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

func TestCodecCarriesActiveParams(t *testing.T) {
	drive := message.New(message.CommandDrivetrainDriveKiwi)
	drive.ReplyTo = message.AutonomousChannel
	drive.Params.KiwiDrive = message.KiwiDriveParams{X: 0.5, Y: -1, R: 0.25}
	// Inactive member is not carried.
	drive.Params.Autonomous.Mode = 7

	payload, err := Encode(drive)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "DRIVETRAIN_DRIVE_KIWI")

	got, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, message.CommandDrivetrainDriveKiwi, got.Command)
	assert.Equal(t, message.AutonomousChannel, got.ReplyTo)
	assert.Equal(t, drive.Params.KiwiDrive, got.Params.KiwiDrive)
	assert.Zero(t, got.Params.Autonomous)

	run := message.New(message.CommandAutonomousRun)
	run.Params.Autonomous = message.AutonomousParams{Mode: 2, Delay: 3, DriveSpeed: 0.8}
	payload, err = Encode(run)
	require.NoError(t, err)
	got, err = Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, run.Params.Autonomous, got.Params.Autonomous)
	assert.False(t, got.ExpectsReply())
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	tests := map[string]string{
		"not json":      `{`,
		"no command":    `{"replyTo":"auto"}`,
		"unknown name":  `{"command":"DRIVETRAIN_STRAIGHT"}`,
		"out of range":  `{"commandId":999}`,
		"fractional id": `{"commandId":2.5}`,
		"name mismatch": `{"command":"SYSTEM_OK","commandId":3}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload))
			assert.Error(t, err)
		})
	}
}

func TestDecodeByName(t *testing.T) {
	got, err := Decode([]byte(`{"command":"command_drivetrain_drive_kiwi","replyTo":"auto","params":{"x":0.25}}`))
	require.NoError(t, err)
	assert.Equal(t, message.CommandDrivetrainDriveKiwi, got.Command)
	assert.Equal(t, message.AutonomousChannel, got.ReplyTo)
	assert.Equal(t, 0.25, got.Params.KiwiDrive.X)
}

func TestEncodeRejectsInvalidTag(t *testing.T) {
	_, err := Encode(message.Message{Command: message.CommandTag(-1)})
	assert.Error(t, err)
}
