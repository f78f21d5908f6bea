package amqp

import (
	"encoding/json"
	"time"
)

// ScheduleChangedMessage notifies the export worker that a construction's
// positions changed. It carries ids only; the worker reloads the current
// state from the database before rendering.
type ScheduleChangedMessage struct {
	UserID         int64     `json:"user_id"`
	ConstructionID int64     `json:"construction_id"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewScheduleChangedMessage(userID, constructionID int64) *ScheduleChangedMessage {
	return &ScheduleChangedMessage{
		UserID:         userID,
		ConstructionID: constructionID,
		Timestamp:      time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ScheduleChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ScheduleChangedMessageFromJSON creates a message from JSON bytes.
func ScheduleChangedMessageFromJSON(data []byte) (*ScheduleChangedMessage, error) {
	var msg ScheduleChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
