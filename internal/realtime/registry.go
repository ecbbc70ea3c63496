package realtime

import "sync"

const sessionBufferSize = 32

type session struct {
	userID string
	topics map[string]struct{}
	out    chan []byte
}

// Registry tracks live connections, their user bindings and their topic
// subscriptions. Purely in-memory: a restart loses everything and clients
// reconnect and re-subscribe.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
	}
}

// Register creates an anonymous session and returns its outbound channel.
// The channel is closed by Unregister.
func (r *Registry) Register(connectionID string) <-chan []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[connectionID]; ok {
		return existing.out
	}
	s := &session{
		topics: make(map[string]struct{}),
		out:    make(chan []byte, sessionBufferSize),
	}
	r.sessions[connectionID] = s
	return s.out
}

// BindUser associates a connection with an authenticated user. Idempotent;
// a later call overwrites the previous binding.
func (r *Registry) BindUser(connectionID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connectionID]; ok {
		s.userID = userID
	}
}

// Subscribe adds a topic to the connection's subscription set. A subscribe
// racing an unregister for the same connection no-ops.
func (r *Registry) Subscribe(connectionID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connectionID]; ok {
		s.topics[topic] = struct{}{}
	}
}

func (r *Registry) Unsubscribe(connectionID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connectionID]; ok {
		delete(s.topics, topic)
	}
}

// Unregister removes the connection and all its subscriptions. Safe to call
// repeatedly or for connections that were never registered.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connectionID]; ok {
		delete(r.sessions, connectionID)
		close(s.out)
	}
}

func (r *Registry) LookupUser(connectionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connectionID]
	if !ok || s.userID == "" {
		return "", false
	}
	return s.userID, true
}

func (r *Registry) ActiveSessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ActiveUserCount reports distinct bound users across live sessions.
func (r *Registry) ActiveUserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make(map[string]struct{}, len(r.sessions))
	for _, s := range r.sessions {
		if s.userID != "" {
			users[s.userID] = struct{}{}
		}
	}
	return len(users)
}

// SendTo queues a payload for one specific connection. Reports false when
// the connection is gone or its buffer is full.
func (r *Registry) SendTo(connectionID string, payload []byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return false
	}
	select {
	case s.out <- payload:
		return true
	default:
		return false
	}
}

// Deliver sends the payload to every session subscribed to the topic and
// returns how many sessions received it. Slow sessions drop the message
// rather than block the dispatch loop.
func (r *Registry) Deliver(topic string, payload []byte) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for _, s := range r.sessions {
		if _, ok := s.topics[topic]; !ok {
			continue
		}
		select {
		case s.out <- payload:
			delivered++
		default:
			// Drop for this session to avoid backpressure on the relay.
		}
	}
	return delivered
}
