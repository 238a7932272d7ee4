package notifymock

import (
	"context"
	"sync"

	"approvalflow-backend/internal/domain/notify"
)

// Publisher records every event it receives so tests can assert on them.
type Publisher struct {
	mu     sync.Mutex
	events []notify.Event
}

var _ notify.Publisher = (*Publisher)(nil)

func (p *Publisher) Publish(ctx context.Context, ev notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

// Events returns a copy of everything published so far.
func (p *Publisher) Events() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notify.Event, len(p.events))
	copy(out, p.events)
	return out
}

// OfType filters recorded events by type.
func (p *Publisher) OfType(t string) []notify.Event {
	var out []notify.Event
	for _, ev := range p.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Reset drops all recorded events.
func (p *Publisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
