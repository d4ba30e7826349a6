// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package honeypot

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// SessionID identifies one accepted connection for the lifetime of the
// process.
type SessionID = uuid.UUID

// ControlChannel is the channel id under which the transport registers the
// connection itself.
const ControlChannel uint32 = 0

// Key addresses one registry entry.
type Key struct {
	Session SessionID
	Channel uint32
}

// Handle is an opaque transport-level handle. The registry never calls it;
// Coordinator.Disconnect does, outside the lock.
type Handle interface {
	Close() error
}

// Registry is a concurrency-safe map from (session, channel) to a live
// handle. Every operation holds the lock for a single map access only.
type Registry struct {
	mu      sync.Mutex
	entries map[Key]Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Key]Handle)}
}

// Insert stores h under k, replacing any existing handle.
func (r *Registry) Insert(k Key, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[k] = h
}

// Remove deletes k and returns the handle that was stored there. Removing
// an absent key is a no-op.
func (r *Registry) Remove(k Key) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.entries[k]
	if ok {
		delete(r.entries, k)
	}
	return h, ok
}

// Lookup returns the handle stored under k.
func (r *Registry) Lookup(k Key) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.entries[k]
	return h, ok
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Keys returns the keys registered for id, ordered by channel.
func (r *Registry) Keys(id SessionID) []Key {
	r.mu.Lock()
	var keys []Key
	for k := range r.entries {
		if k.Session == id {
			keys = append(keys, k)
		}
	}
	r.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].Channel < keys[j].Channel })
	return keys
}
