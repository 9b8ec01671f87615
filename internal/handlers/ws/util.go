package ws

import "encoding/json"

// Serialize wraps an outbound frame in the type/payload envelope.
func Serialize(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(SerializedMessage{Type: msg.GetType(), Payload: payload})
}

// Deserialize decodes an inbound envelope into its registered frame type.
// Frames without a body, like ping, may omit the payload entirely.
func Deserialize(data []byte) (Message, error) {
	var wrapper SerializedMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	msg, err := newRegisteredMessage(wrapper.Type)
	if err != nil {
		return nil, err
	}
	if len(wrapper.Payload) > 0 {
		if err := json.Unmarshal(wrapper.Payload, msg); err != nil {
			return nil, err
		}
	}
	return msg, nil
}
