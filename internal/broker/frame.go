package broker

import "encoding/json"

// Hub event names. Invokes are client-to-hub, Receive* are hub-to-client.
const (
	EventJoinRoom                   = "JoinRoom"
	EventJoinedRoom                 = "JoinedRoom"
	EventJoinRejected               = "JoinRejected"
	EventSendGroupMessage           = "SendGroupMessage"
	EventReceiveGroupMessage        = "ReceiveGroupMessage"
	EventSendGroupMessageDeleted    = "SendGroupMessageDeleted"
	EventReceiveGroupMessageDeleted = "ReceiveGroupMessageDeleted"
)

// Frame is one named hub event with positional string arguments, sent as a
// JSON text message.
type Frame struct {
	Event string   `json:"event"`
	Args  []string `json:"args,omitempty"`
}

// Encode marshals the frame for the wire.
func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// DecodeFrame parses a wire frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}
