package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Actions carried by a SyncMessage.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// SyncMessage tells the mirror worker that a transaction changed. It carries
// only the id and the action; the worker fetches the full row from the store.
type SyncMessage struct {
	MessageID string    `json:"message_id"`
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncMessage(action string, id int64) *SyncMessage {
	return &SyncMessage{
		MessageID: uuid.NewString(),
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
