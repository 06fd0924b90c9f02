package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event names carried by DocumentChangedMessage.
const (
	EventDocumentSaved = "document.saved"
	EventDocumentReset = "document.reset"
)

// DocumentChangedMessage announces that the persisted document was rewritten.
// It carries no document data; consumers reload the document from the store.
type DocumentChangedMessage struct {
	ID           string    `json:"id"`
	Event        string    `json:"event"`
	Key          string    `json:"key"`
	Revision     int64     `json:"revision"`
	Command      string    `json:"command"`
	Transactions int       `json:"transactions"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewDocumentChangedMessage(event, key string, revision int64, command string, transactions int) *DocumentChangedMessage {
	return &DocumentChangedMessage{
		ID:           uuid.NewString(),
		Event:        event,
		Key:          key,
		Revision:     revision,
		Command:      command,
		Transactions: transactions,
		Timestamp:    time.Now().UTC(),
	}
}

func (m *DocumentChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DocumentChangedMessageFromJSON parses a message, rejecting ones without an
// event name.
func DocumentChangedMessageFromJSON(data []byte) (*DocumentChangedMessage, error) {
	var msg DocumentChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Event == "" {
		return nil, errors.New("message has no event")
	}
	return &msg, nil
}
