// Package notify delivers definition snapshots to the consumers of an editing session.
package notify

import (
	"sync"

	"github.com/dukex/operion-designer/pkg/models"
)

// ChangeFunc receives the full definition after a committed mutation.
type ChangeFunc func(definition models.WorkflowDefinition)

// Notifier fans a snapshot out to its subscribers, synchronously and in
// subscription order. Every subscriber receives its own copy.
type Notifier struct {
	mu          sync.RWMutex
	subscribers []ChangeFunc
}

// New creates a notifier with the given subscribers.
func New(subscribers ...ChangeFunc) *Notifier {
	n := &Notifier{}

	for _, fn := range subscribers {
		n.Subscribe(fn)
	}

	return n
}

// Subscribe appends fn to the delivery list. Nil functions are ignored.
func (n *Notifier) Subscribe(fn ChangeFunc) {
	if fn == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.subscribers = append(n.subscribers, fn)
}

// Len returns the number of subscribers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return len(n.subscribers)
}

// Publish hands a copy of definition to each subscriber before returning.
func (n *Notifier) Publish(definition models.WorkflowDefinition) {
	n.mu.RLock()
	subscribers := make([]ChangeFunc, len(n.subscribers))
	copy(subscribers, n.subscribers)
	n.mu.RUnlock()

	for _, fn := range subscribers {
		fn(definition.Clone())
	}
}
