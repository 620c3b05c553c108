package amqp

import (
	"encoding/json"
	"time"
)

// ImportCompletedMessage announces that one uploaded file was accepted by
// the backend. Consumers react by reloading the transaction feed.
type ImportCompletedMessage struct {
	EntryID   string    `json:"entry_id"`
	FileName  string    `json:"file_name"`
	Timestamp time.Time `json:"timestamp"`
}

func NewImportCompletedMessage(entryID, fileName string) *ImportCompletedMessage {
	return &ImportCompletedMessage{
		EntryID:   entryID,
		FileName:  fileName,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ImportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportCompletedMessageFromJSON creates a message from JSON bytes
func ImportCompletedMessageFromJSON(data []byte) (*ImportCompletedMessage, error) {
	var msg ImportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
