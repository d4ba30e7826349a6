package honeypot

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestRegistry_Basic(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()
	k := Key{Session: id, Channel: 3}

	if _, ok := r.Lookup(k); ok {
		t.Fatalf("lookup on empty registry must be absent")
	}
	if _, ok := r.Remove(k); ok {
		t.Fatalf("remove of absent key must report false")
	}

	h1, h2 := &fakeHandle{}, &fakeHandle{}
	r.Insert(k, h1)
	r.Insert(k, h2)
	if r.Len() != 1 {
		t.Fatalf("replace must not duplicate, len=%d", r.Len())
	}
	got, ok := r.Lookup(k)
	if !ok || got != h2 {
		t.Fatalf("lookup = %v %v; want replaced handle", got, ok)
	}

	removed, ok := r.Remove(k)
	if !ok || removed != h2 {
		t.Fatalf("remove = %v %v", removed, ok)
	}
	if _, ok := r.Lookup(k); ok {
		t.Fatalf("lookup after remove must be absent")
	}
	if _, ok := r.Remove(k); ok {
		t.Fatalf("second remove must be a no-op")
	}
}

func TestRegistry_KeysSortedPerSession(t *testing.T) {
	r := NewRegistry()
	a, b := uuid.New(), uuid.New()
	for _, ch := range []uint32{5, 0, 2} {
		r.Insert(Key{Session: a, Channel: ch}, &fakeHandle{})
	}
	r.Insert(Key{Session: b, Channel: 1}, &fakeHandle{})

	keys := r.Keys(a)
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(keys))
	}
	for i, want := range []uint32{0, 2, 5} {
		if keys[i].Channel != want || keys[i].Session != a {
			t.Fatalf("keys[%d] = %+v", i, keys[i])
		}
	}
	if len(r.Keys(uuid.New())) != 0 {
		t.Fatalf("unknown session must have no keys")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	const workers, perWorker = 32, 200

	ids := make([]uuid.UUID, workers)
	for i := range ids {
		ids[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			for ch := uint32(0); ch < perWorker; ch++ {
				k := Key{Session: id, Channel: ch}
				h := &fakeHandle{}
				r.Insert(k, h)
				if got, ok := r.Lookup(k); !ok || got != h {
					t.Errorf("lookup after insert failed for %v", k)
					return
				}
				// Remove every odd channel.
				if ch%2 == 1 {
					r.Remove(k)
					if _, ok := r.Lookup(k); ok {
						t.Errorf("lookup after remove returned entry for %v", k)
						return
					}
					r.Remove(k)
				}
			}
		}(ids[w])
	}
	wg.Wait()

	if want := workers * perWorker / 2; r.Len() != want {
		t.Fatalf("len = %d; want %d", r.Len(), want)
	}
	for _, id := range ids {
		keys := r.Keys(id)
		if len(keys) != perWorker/2 {
			t.Fatalf("session %s has %d keys; want %d", id, len(keys), perWorker/2)
		}
		for _, k := range keys {
			if k.Channel%2 != 0 {
				t.Fatalf("removed channel still present: %s", fmt.Sprint(k))
			}
		}
	}
}
