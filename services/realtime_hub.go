package services

import (
	"encoding/json"
	"log"
	"sync"
)

const subscriberBuffer = 256

// UserTopic is the topic carrying a user's direct messages
func UserTopic(userID string) string { return "user:" + userID }

// GroupTopic is the topic carrying a group's messages
func GroupTopic(groupID string) string { return "group:" + groupID }

// Subscriber receives the payloads published to its topics until it is
// closed
type Subscriber struct {
	hub    *Hub
	topics []string
	send   chan []byte
	closed bool
	mu     sync.Mutex
}

// Messages returns the channel payloads arrive on. It is closed when the
// subscriber is.
func (s *Subscriber) Messages() <-chan []byte {
	return s.send
}

// Close leaves every topic. Safe to call more than once.
func (s *Subscriber) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.send)
	s.mu.Unlock()

	s.hub.remove(s)
}

// offer queues b without blocking and reports whether there was room
func (s *Subscriber) offer(b []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.send <- b:
		return true
	default:
		return false
	}
}

// Hub fans published events out to the subscribers of a topic
type Hub struct {
	rooms map[string]map[*Subscriber]bool
	mu    sync.RWMutex
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Subscriber]bool)}
}

var hubInstance = NewHub()

// GetHub returns the process-wide hub
func GetHub() *Hub {
	return hubInstance
}

// SetHub replaces the process-wide hub (primarily for testing)
func SetHub(h *Hub) {
	hubInstance = h
}

// Subscribe joins topics
func (h *Hub) Subscribe(topics ...string) *Subscriber {
	s := &Subscriber{hub: h, topics: topics, send: make(chan []byte, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range topics {
		if h.rooms[t] == nil {
			h.rooms[t] = make(map[*Subscriber]bool)
		}
		h.rooms[t][s] = true
	}
	return s
}

func (h *Hub) remove(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range s.topics {
		if m := h.rooms[t]; m != nil {
			delete(m, s)
			if len(m) == 0 {
				delete(h.rooms, t)
			}
		}
	}
}

// Publish sends payload to every subscriber of topic. A subscriber whose
// buffer is full is dropped rather than blocking the publisher.
func (h *Hub) Publish(topic string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode realtime payload for %s: %v", topic, err)
		return
	}

	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.rooms[topic]))
	for s := range h.rooms[topic] {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if !s.offer(b) {
			log.Printf("Dropping slow realtime subscriber on %s", topic)
			s.Close()
		}
	}
}

// Subscribers returns how many subscribers a topic has
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[topic])
}
