package amqp

import "testing"

func TestScheduleChangedMessageRoundTrip(t *testing.T) {
	msg := NewScheduleChangedMessage(7, 42)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := ScheduleChangedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.UserID != 7 || got.ConstructionID != 42 {
		t.Fatalf("ids did not survive round trip: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatalf("timestamp missing")
	}
}

func TestScheduleChangedMessageBadPayload(t *testing.T) {
	if _, err := ScheduleChangedMessageFromJSON([]byte("not json")); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
}
