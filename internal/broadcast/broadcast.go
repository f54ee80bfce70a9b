package broadcast

import "sync"

// Broadcaster pushes typed messages to connected overlay clients.
type Broadcaster interface {
	BroadcastMessage(msgType string, data interface{})
}

// Func adapts a function to Broadcaster.
type Func func(msgType string, data interface{})

func (f Func) BroadcastMessage(msgType string, data interface{}) {
	f(msgType, data)
}

var (
	mu          sync.RWMutex
	broadcaster Broadcaster
)

// SetBroadcaster registers the process-wide broadcaster (the WebSocket hub).
func SetBroadcaster(b Broadcaster) {
	mu.Lock()
	defer mu.Unlock()
	broadcaster = b
}

// Send forwards to the registered broadcaster; a no-op until one is set.
func Send(msgType string, data interface{}) {
	mu.RLock()
	b := broadcaster
	mu.RUnlock()

	if b != nil {
		b.BroadcastMessage(msgType, data)
	}
}

// Global returns a Broadcaster that always forwards to the currently registered one.
func Global() Broadcaster {
	return Func(Send)
}
