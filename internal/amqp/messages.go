package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionRecordedMessage announces that a transaction was stored or
// updated. It carries only identity and version; consumers load the record.
type TransactionRecordedMessage struct {
	ID        uuid.UUID `json:"id"`
	BookID    uuid.UUID `json:"bookId"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(bookID, id uuid.UUID, version int64) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:        id,
		BookID:    bookID,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
