package push

import (
	"encoding/json"
	"log"
	"sync"
)

// Event tags emitted by the backend socket. Subscribers only see the tags they
// registered for; everything else on the shared socket is ignored.
const (
	EventBulkProgress = "bulk_progress"
)

// Event is the tagged envelope every frame carries.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Dispatcher routes raw frames to handlers keyed by event tag. Malformed
// frames are logged and dropped; they never reach a handler.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]func(json.RawMessage)
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]func(json.RawMessage))}
}

func (d *Dispatcher) Handle(tag string, fn func(json.RawMessage)) {
	d.mu.Lock()
	d.handlers[tag] = append(d.handlers[tag], fn)
	d.mu.Unlock()
}

func (d *Dispatcher) Dispatch(raw []byte) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Printf("Dropping malformed push frame: %v", err)
		return
	}
	if event.Event == "" {
		log.Printf("Dropping push frame without event tag")
		return
	}

	d.mu.RLock()
	handlers := d.handlers[event.Event]
	d.mu.RUnlock()

	for _, fn := range handlers {
		fn(event.Data)
	}
}
