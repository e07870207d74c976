package broadcastsvc

import (
	"testing"
)

func TestInmemService_publishAndDispatch(t *testing.T) {
	svc := NewInmemServiceMock()

	var got []interface{}
	sub := svc.Subscribe("chan-a")
	sub.Bind("evt-1", func(payload interface{}) { got = append(got, payload) })

	svc.Publish("chan-a", "evt-1", "first")
	svc.Publish("chan-a", "evt-2", "wrong event")
	svc.Publish("chan-b", "evt-1", "wrong channel")

	if len(got) != 1 || got[0] != "first" {
		t.Errorf("handler received %v, want [first]", got)
	}
	if pub := svc.Published(); len(pub) != 3 {
		t.Errorf("Published() recorded %d events, want 3", len(pub))
	}
}

func TestInmemService_multipleHandlers(t *testing.T) {
	svc := NewInmemServiceMock()

	calls := 0
	sub := svc.Subscribe("chan-a")
	sub.Bind("evt-1", func(interface{}) { calls++ })
	sub.Bind("evt-1", func(interface{}) { calls++ })

	svc.Publish("chan-a", "evt-1", nil)

	if calls != 2 {
		t.Errorf("dispatched to %d handlers, want 2", calls)
	}
}

func TestInmemService_unbindAndUnsubscribe(t *testing.T) {
	svc := NewInmemServiceMock()

	calls := 0
	sub := svc.Subscribe("chan-a")
	sub.Bind("evt-1", func(interface{}) { calls++ })

	sub.UnbindAll()
	svc.Publish("chan-a", "evt-1", nil)
	if calls != 0 {
		t.Errorf("handler called %d times after UnbindAll(), want 0", calls)
	}

	sub.Bind("evt-1", func(interface{}) { calls++ })
	sub.Unsubscribe()
	svc.Publish("chan-a", "evt-1", nil)
	if calls != 0 {
		t.Errorf("handler called %d times after Unsubscribe(), want 0", calls)
	}
}
