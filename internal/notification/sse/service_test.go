package sse

import (
	"testing"

	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

func TestPublishReachesOnlyTheSession(t *testing.T) {
	svc := New(logger.Discard())
	mine, other := uuid.New(), uuid.New()

	a := &client{sessionID: mine, events: make(chan Event, 1)}
	b := &client{sessionID: other, events: make(chan Event, 1)}
	svc.addClient(a)
	svc.addClient(b)

	svc.Publish(mine, Event{Type: EventOpenTarget, LeadID: 7, Message: "https://instagram.com/x"})

	select {
	case evt := <-a.events:
		if evt.Type != EventOpenTarget || evt.LeadID != 7 {
			t.Fatalf("unexpected event %+v", evt)
		}
	default:
		t.Fatal("session stream did not receive the event")
	}
	select {
	case evt := <-b.events:
		t.Fatalf("other session received %+v", evt)
	default:
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	svc := New(logger.Discard())
	id := uuid.New()
	c := &client{sessionID: id, events: make(chan Event, 1)}
	svc.addClient(c)

	svc.Publish(id, Event{Type: EventRunProgress})
	svc.Publish(id, Event{Type: EventRunProgress})

	if len(c.events) != 1 {
		t.Fatalf("expected one buffered event, got %d", len(c.events))
	}
}

func TestDisconnectThenRemoveDoesNotDoubleClose(t *testing.T) {
	svc := New(logger.Discard())
	id := uuid.New()
	c := &client{sessionID: id, events: make(chan Event, 1)}
	svc.addClient(c)

	svc.Disconnect(id)
	svc.removeClient(c)

	if svc.Connected(id) != 0 {
		t.Fatal("expected no clients")
	}
	if _, ok := <-c.events; ok {
		t.Fatal("channel should be closed")
	}
}
