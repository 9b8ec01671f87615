package ws

import (
	"fmt"
	"reflect"
)

var typeRegistry = map[string]reflect.Type{}

func init() {
	// Register all inbound frame types
	RegisterType(&MessageTypingOn{})
	RegisterType(&MessageTypingOff{})
	RegisterType(&MessageMarkSeen{})
	RegisterType(&MessagePing{})
	RegisterType(&MessagePong{})
}

func RegisterType(msg Message) {
	typeRegistry[msg.GetType()] = reflect.TypeOf(msg).Elem()
}

// newRegisteredMessage instantiates a fresh frame of the registered type.
func newRegisteredMessage(msgType string) (Message, error) {
	t, ok := typeRegistry[msgType]
	if !ok {
		return nil, fmt.Errorf("unknown message type: %s", msgType)
	}
	return reflect.New(t).Interface().(Message), nil
}
