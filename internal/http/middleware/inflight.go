package middleware

import (
	"net/http"
	"sync"
)

// InFlight tracks which keys have a request being served.
type InFlight struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewInFlight creates an empty tracker.
func NewInFlight() *InFlight {
	return &InFlight{active: make(map[string]struct{})}
}

// Acquire marks key busy. It returns false when key is already busy.
func (f *InFlight) Acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.active[key]; busy {
		return false
	}
	f.active[key] = struct{}{}
	return true
}

// Release frees key.
func (f *InFlight) Release(key string) {
	f.mu.Lock()
	delete(f.active, key)
	f.mu.Unlock()
}

// Busy reports whether key has a request in flight.
func (f *InFlight) Busy(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.active[key]
	return busy
}

// SingleFlight rejects a request with 409 Conflict while another request
// with the same key is still being served. Requests whose key is empty
// are not limited.
func SingleFlight(tracker *InFlight, keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	if tracker == nil {
		tracker = NewInFlight()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !tracker.Acquire(key) {
				writeJSONError(w, http.StatusConflict, "a request for this session is already in progress")
				return
			}
			defer tracker.Release(key)
			next.ServeHTTP(w, r)
		})
	}
}
