package transport

import "sync"

// RouteDirect is the route value recorded when an origin answered a direct
// request. Any other value names the relay that last worked for the origin.
const RouteDirect = "direct"

// Memory remembers which transport path last succeeded per origin host.
// It is a process-lifetime hint, never persisted: a fresh process probes
// again. Safe for concurrent use by adapter goroutines.
type Memory struct {
	mu     sync.RWMutex
	routes map[string]string
}

// NewMemory creates an empty proxy memory.
func NewMemory() *Memory {
	return &Memory{routes: make(map[string]string)}
}

// Route returns the remembered route for host, if any.
func (m *Memory) Route(host string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[host]
	return route, ok
}

// Remember records the route that succeeded for host, replacing any earlier
// record. Last write wins under concurrency, which matches the best-effort
// contract of the transport.
func (m *Memory) Remember(host, route string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[host] = route
}

// Forget drops the remembered route for host.
func (m *Memory) Forget(host string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.routes, host)
}

// Reset clears all remembered routes.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = make(map[string]string)
}
