package messages

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownChannel = errors.New("unknown channel")

// Frame is the JSON shape exchanged with out-of-process surfaces.
type Frame struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode serializes a message into a frame.
func Encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", msg.Type(), err)
	}
	return json.Marshal(Frame{Channel: msg.Type(), Payload: payload})
}

// Decode parses a frame sent by a surface. A frame on the reset channel is an acknowledgement.
func Decode(data []byte) (Message, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	var msg Message
	switch f.Channel {
	case ChannelReady:
		return Ready{}, nil
	case ChannelReset:
		return ResetAck{}, nil
	case ChannelCancel:
		return Cancel{}, nil
	case ChannelOk:
		m := Ok{}
		if err := unmarshalPayload(f, &m); err != nil {
			return nil, err
		}
		msg = m
	case ChannelSave:
		m := Save{}
		if err := unmarshalPayload(f, &m); err != nil {
			return nil, err
		}
		msg = m
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, f.Channel)
	}
	return msg, nil
}

func unmarshalPayload(f Frame, v any) error {
	if len(f.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", f.Channel, err)
	}
	return nil
}
