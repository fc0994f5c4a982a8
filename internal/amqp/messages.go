package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ImportRequestMessage asks the import worker to load the registrations table
// found at Source into the flat-table store. ID becomes the import batch ID.
type ImportRequestMessage struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewImportRequestMessage creates a request for source with a fresh ULID.
func NewImportRequestMessage(source string) *ImportRequestMessage {
	return &ImportRequestMessage{
		ID:        ulid.Make().String(),
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks the fields the worker relies on.
func (m *ImportRequestMessage) Validate() error {
	if m.ID == "" {
		return errors.New("import request without id")
	}
	if _, err := ulid.ParseStrict(m.ID); err != nil {
		return errors.New("import request id is not a ULID")
	}
	if m.Source == "" {
		return errors.New("import request without source")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ImportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportRequestMessageFromJSON decodes and validates a message.
func ImportRequestMessageFromJSON(data []byte) (*ImportRequestMessage, error) {
	var msg ImportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
