package host

import "sync"

// pendingSet holds ICE candidates for connection identifiers whose offer has
// not finished negotiating. While a bucket is open for an identifier, every
// candidate for it is appended here instead of touching the transport, so
// that draining applies them in arrival order.
type pendingSet struct {
	mu      sync.Mutex
	buckets map[uint64][]string
}

func newPendingSet() *pendingSet {
	return &pendingSet{buckets: make(map[uint64][]string)}
}

// open ensures a bucket exists for id, creating an empty one if needed.
func (p *pendingSet) open(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.buckets[id]; !ok {
		p.buckets[id] = nil
	}
}

// has reports whether a bucket is open for id.
func (p *pendingSet) has(id uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.buckets[id]
	return ok
}

// add appends one candidate payload to the bucket for id, creating the
// bucket if absent.
func (p *pendingSet) add(id uint64, payload string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buckets[id] = append(p.buckets[id], payload)
}

// drain returns the accumulated candidates for id in arrival order and
// deletes the bucket. Called exactly once, when a transport becomes
// available for the identifier.
func (p *pendingSet) drain(id uint64) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	payloads := p.buckets[id]
	delete(p.buckets, id)
	return payloads
}

// remove deletes any residual bucket for id. Removing an absent key is a
// no-op.
func (p *pendingSet) remove(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.buckets, id)
}

// clear empties all buckets.
func (p *pendingSet) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buckets = make(map[uint64][]string)
}
