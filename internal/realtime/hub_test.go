package realtime

import (
	"context"
	"encoding/json"
	"testing"
)

func TestMemoryBrokerRoundTrip(t *testing.T) {
	broker := NewMemoryBroker()
	received := make(chan []byte, 1)
	if err := broker.Subscribe(context.Background(), "test", func(payload []byte) {
		received <- payload
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := broker.Publish(context.Background(), "test", []byte(`{"hello":"there"}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case payload := <-received:
		if string(payload) != `{"hello":"there"}` {
			t.Fatalf("unexpected payload: %s", payload)
		}
	default:
		t.Fatal("payload not delivered")
	}
}

func TestBroadcastCrossesInstances(t *testing.T) {
	broker := NewMemoryBroker()
	first, err := NewHub(broker)
	if err != nil {
		t.Fatalf("first hub: %v", err)
	}
	// A second hub on the same broker receives the envelope with a foreign
	// origin and must handle it without members.
	if _, err := NewHub(broker); err != nil {
		t.Fatalf("second hub: %v", err)
	}

	seen := 0
	if err := broker.Subscribe(context.Background(), commandsChannel, func(payload []byte) {
		var envelope fanoutEnvelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		if envelope.Origin != first.origin {
			t.Fatalf("unexpected origin %q", envelope.Origin)
		}
		if envelope.EventID != "event-1" || envelope.Command.Action != ActionSetPhase {
			t.Fatalf("unexpected envelope: %+v", envelope)
		}
		seen++
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	first.Broadcast("event-1", Command{Action: ActionSetPhase, Data: map[string]any{"phase": "voting"}})
	if seen != 1 {
		t.Fatalf("expected one published envelope, got %d", seen)
	}
}

func TestHandleBrokerMessageSkipsOwnOrigin(t *testing.T) {
	hub, err := NewHub(nil)
	if err != nil {
		t.Fatalf("hub: %v", err)
	}
	// An envelope from this instance must not fan out twice. With no local
	// members, fanout would be invisible, so assert via a foreign envelope
	// never panicking and an own-origin one being dropped before unmarshal
	// side effects.
	own, _ := json.Marshal(fanoutEnvelope{Origin: hub.origin, EventID: "event-1", Command: Command{Action: ActionFinish}})
	hub.handleBrokerMessage(own)

	foreign, _ := json.Marshal(fanoutEnvelope{Origin: "someone-else", EventID: "event-1", Command: Command{Action: ActionFinish}})
	hub.handleBrokerMessage(foreign)
	hub.handleBrokerMessage([]byte("not json"))
}

func TestRosterEmptyEvent(t *testing.T) {
	hub, err := NewHub(nil)
	if err != nil {
		t.Fatalf("hub: %v", err)
	}
	roster := hub.Roster("nobody-home")
	if len(roster) != 0 {
		t.Fatalf("expected empty roster, got %v", roster)
	}
}
