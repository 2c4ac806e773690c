package channel

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

// Wire field names. The numeric command id is authoritative when present; the
// name is carried for humans reading broker traffic.
const (
	fieldCommand   = "command"
	fieldCommandID = "commandId"
	fieldReplyTo   = "replyTo"
	fieldParams    = "params"
)

// Encode renders a message as protojson. Only the params member selected by
// the command tag is written.
func Encode(msg message.Message) ([]byte, error) {
	if !msg.Command.Valid() {
		return nil, fmt.Errorf("encode: invalid command tag %d", int(msg.Command))
	}

	fields := map[string]any{
		fieldCommand:   msg.Command.String(),
		fieldCommandID: float64(msg.Command),
	}
	if msg.ReplyTo != "" {
		fields[fieldReplyTo] = string(msg.ReplyTo)
	}

	switch message.ParamKindOf(msg.Command) {
	case message.ParamKiwiDrive:
		p := msg.Params.KiwiDrive
		fields[fieldParams] = map[string]any{"x": p.X, "y": p.Y, "r": p.R}
	case message.ParamAutonomous:
		p := msg.Params.Autonomous
		fields[fieldParams] = map[string]any{
			"mode":          float64(p.Mode),
			"delay":         float64(p.Delay),
			"timeout":       p.Timeout,
			"timeIn":        p.TimeIn,
			"driveSpeed":    p.DriveSpeed,
			"driveDistance": p.DriveDistance,
			"turnAngle":     p.TurnAngle,
			"driveTime":     p.DriveTime,
		}
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Command, err)
	}
	return protojson.Marshal(s)
}

// commandOf reads the tag from its numeric id. Hand-written payloads may
// carry only the symbolic name.
func commandOf(fields map[string]any) (message.CommandTag, error) {
	name, hasName := fields[fieldCommand].(string)
	id, ok := fields[fieldCommandID].(float64)
	if !ok {
		if !hasName {
			return message.CommandUnknown, fmt.Errorf("decode: missing %s", fieldCommandID)
		}
		cmd, err := message.ParseCommandTag(name)
		if err != nil {
			return message.CommandUnknown, fmt.Errorf("decode: %w", err)
		}
		return cmd, nil
	}

	cmd := message.CommandTag(int(id))
	if !cmd.Valid() || float64(int(id)) != id {
		return message.CommandUnknown, fmt.Errorf("decode: invalid command id %v", id)
	}
	if hasName && name != cmd.String() {
		return message.CommandUnknown, fmt.Errorf("decode: command name %q does not match id %d", name, int(id))
	}
	return cmd, nil
}

// Decode parses a payload produced by Encode.
func Decode(payload []byte) (message.Message, error) {
	var s structpb.Struct
	unmarshaler := protojson.UnmarshalOptions{DiscardUnknown: true}
	if err := unmarshaler.Unmarshal(payload, &s); err != nil {
		return message.Message{}, fmt.Errorf("decode: %w", err)
	}
	fields := s.AsMap()

	cmd, err := commandOf(fields)
	if err != nil {
		return message.Message{}, err
	}

	msg := message.Message{Command: cmd}
	if reply, ok := fields[fieldReplyTo].(string); ok {
		msg.ReplyTo = message.ChannelID(reply)
	}

	params, _ := fields[fieldParams].(map[string]any)
	switch message.ParamKindOf(cmd) {
	case message.ParamKiwiDrive:
		msg.Params.KiwiDrive = message.KiwiDriveParams{
			X: number(params, "x"),
			Y: number(params, "y"),
			R: number(params, "r"),
		}
	case message.ParamAutonomous:
		msg.Params.Autonomous = message.AutonomousParams{
			Mode:          uint32(number(params, "mode")),
			Delay:         uint32(number(params, "delay")),
			Timeout:       number(params, "timeout"),
			TimeIn:        number(params, "timeIn"),
			DriveSpeed:    number(params, "driveSpeed"),
			DriveDistance: number(params, "driveDistance"),
			TurnAngle:     number(params, "turnAngle"),
			DriveTime:     number(params, "driveTime"),
		}
	}

	return msg, nil
}

func number(m map[string]any, key string) float64 {
	v, _ := m[key].(float64)
	return v
}
