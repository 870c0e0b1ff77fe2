package web

import (
	"net/http"
	"sync"
)

// Flash is a one-shot notice queued by a handler and shown on the next
// rendered page, surviving the redirect in between.
type Flash struct {
	Message string
	Kind    string
}

type flashStore struct {
	mu    sync.Mutex
	byKey map[string][]Flash
}

func newFlashStore() *flashStore {
	return &flashStore{byKey: make(map[string][]Flash)}
}

func (s *flashStore) Add(key string, flash Flash) {
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey[key] = append(s.byKey[key], flash)
}

// Drain returns the queued flashes and clears the queue.
func (s *flashStore) Drain(key string) []Flash {
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	flashes := s.byKey[key]
	if len(flashes) == 0 {
		return nil
	}
	delete(s.byKey, key)
	out := make([]Flash, len(flashes))
	copy(out, flashes)
	return out
}

func flashKey(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return "session:" + cookie.Value
	}
	return ""
}

func (s *Server) addFlash(r *http.Request, kind, message string) {
	s.flashes.Add(flashKey(r), Flash{Message: message, Kind: kind})
}

// addFlashForSession queues against a just-issued session token, before the
// Set-Cookie round trip has happened.
func (s *Server) addFlashForSession(token, kind, message string) {
	if token == "" {
		return
	}
	s.flashes.Add("session:"+token, Flash{Message: message, Kind: kind})
}
