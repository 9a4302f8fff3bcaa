package native

import (
	"encoding/json"
	"fmt"
)

type MessageType string

const (
	MessageRequest      MessageType = "request"
	MessageResponse     MessageType = "response"
	MessageRequestError MessageType = "requestError"
)

// Message is the unit exchanged over a Transport. Requests carry
// RequestType and Args; responses carry Value or Error for the request
// with the same ID.
type Message struct {
	Type        MessageType       `json:"type"`
	ID          string            `json:"id"`
	RequestType string            `json:"requestType,omitempty"`
	Args        []json.RawMessage `json:"args,omitempty"`
	Value       json.RawMessage   `json:"value,omitempty"`
	Error       *RemoteError      `json:"error,omitempty"`
}

// RemoteError is an error raised by the other side of a Dispatcher.
type RemoteError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %s", e.Name, e.Message)
}
