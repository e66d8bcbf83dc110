package application

import (
	"context"
	"sync"
	"time"

	"codecraft/backend/internal/features/generation/domain"
	previewdomain "codecraft/backend/internal/features/preview/domain"
)

// EventType names what changed in a session.
type EventType string

const (
	EventStatus   EventType = "status"
	EventArtifact EventType = "artifact"
	EventError    EventType = "error"
	EventPreview  EventType = "preview"
	EventAutoFix  EventType = "auto_fix"
)

// Event is pushed to session subscribers.
type Event struct {
	Type     EventType             `json:"type"`
	Time     time.Time             `json:"time"`
	Status   domain.Status         `json:"status,omitempty"`
	Artifact *domain.Artifact      `json:"artifact,omitempty"`
	Message  string                `json:"message,omitempty"`
	Preview  *previewdomain.Result `json:"preview,omitempty"`
}

const subscriberBuffer = 64

// Broker fans events out to subscribers. A slow subscriber loses its oldest
// queued events rather than blocking publishers.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel that receives events until ctx is done or the
// broker is closed.
func (b *Broker) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}()
	return ch
}

// Publish delivers e to every subscriber without blocking.
func (b *Broker) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		push(ch, e)
	}
}

// Close ends every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func push(ch chan Event, e Event) {
	select {
	case ch <- e:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- e:
	default:
	}
}
