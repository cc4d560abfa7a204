package amqp

import "testing"

func TestSyncMessageRoundTrip(t *testing.T) {
	msg := NewSyncMessage(ActionUpsert, 42)
	if msg.MessageID == "" {
		t.Fatal("expected a message id")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := SyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("SyncMessageFromJSON: %v", err)
	}
	if got.ID != 42 || got.Action != ActionUpsert || got.MessageID != msg.MessageID {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSyncMessageUniqueIDs(t *testing.T) {
	a := NewSyncMessage(ActionDelete, 1)
	b := NewSyncMessage(ActionDelete, 1)
	if a.MessageID == b.MessageID {
		t.Error("expected distinct message ids")
	}
}

func TestSyncMessageFromJSONInvalid(t *testing.T) {
	if _, err := SyncMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
