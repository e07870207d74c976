package broadcastsvc

import (
	"log"
	"sync"

	"github.com/ozolsdev/examticket/core"
)

// InmemService is an in-process broadcast hub used in DEV mode and in tests.
// Unlike the Pusher service it also implements the subscriber side, so a test
// can observe the full publish/receive cycle.
type InmemService struct {
	mu            sync.RWMutex
	subs          map[string][]*inmemSubscription
	published     []PublishedEvent
	disableOutput bool
}

// PublishedEvent is a published event as recorded for inspection.
type PublishedEvent struct {
	Channel string
	Event   string
	Payload interface{}
}

var (
	_ core.Broadcaster = (*InmemService)(nil)
	_ core.Subscriber  = (*InmemService)(nil)
)

func NewInmemService() *InmemService {
	return &InmemService{subs: make(map[string][]*inmemSubscription)}
}

// NewInmemServiceMock is silent; for tests.
func NewInmemServiceMock() *InmemService {
	svc := NewInmemService()
	svc.disableOutput = true
	return svc
}

// Publish dispatches synchronously to bound handlers; fire-and-forget from
// the caller's point of view since handler errors cannot propagate.
func (svc *InmemService) Publish(channel, event string, payload interface{}) {
	svc.mu.Lock()
	svc.published = append(svc.published, PublishedEvent{Channel: channel, Event: event, Payload: payload})
	subs := append([]*inmemSubscription(nil), svc.subs[channel]...)
	svc.mu.Unlock()

	if !svc.disableOutput {
		log.Printf("broadcast %s/%s: %+v", channel, event, payload)
	}
	for _, sub := range subs {
		sub.dispatch(event, payload)
	}
}

func (svc *InmemService) Subscribe(channel string) core.Subscription {
	sub := &inmemSubscription{svc: svc, channel: channel, handlers: make(map[string][]func(interface{}))}
	svc.mu.Lock()
	svc.subs[channel] = append(svc.subs[channel], sub)
	svc.mu.Unlock()
	return sub
}

// Published returns a snapshot of everything published so far.
func (svc *InmemService) Published() []PublishedEvent {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return append([]PublishedEvent(nil), svc.published...)
}

type inmemSubscription struct {
	svc     *InmemService
	channel string

	mu       sync.Mutex
	handlers map[string][]func(interface{})
}

var _ core.Subscription = (*inmemSubscription)(nil)

func (sub *inmemSubscription) Bind(event string, handler func(payload interface{})) {
	sub.mu.Lock()
	sub.handlers[event] = append(sub.handlers[event], handler)
	sub.mu.Unlock()
}

func (sub *inmemSubscription) UnbindAll() {
	sub.mu.Lock()
	sub.handlers = make(map[string][]func(interface{}))
	sub.mu.Unlock()
}

func (sub *inmemSubscription) Unsubscribe() {
	sub.UnbindAll()
	sub.svc.mu.Lock()
	subs := sub.svc.subs[sub.channel]
	for i, s := range subs {
		if s == sub {
			sub.svc.subs[sub.channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	sub.svc.mu.Unlock()
}

func (sub *inmemSubscription) dispatch(event string, payload interface{}) {
	sub.mu.Lock()
	handlers := append([]func(interface{}){}, sub.handlers[event]...)
	sub.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
}
