package signal

import (
	"context"
	"sync"
)

// Compile-time interface check.
var _ Channel = (*MemoryChannel)(nil)

// MemoryChannel is an in-process Channel for tests. Inbound signals are
// injected with Push; everything the host writes is recorded and can be
// inspected with Written. No network is involved.
type MemoryChannel struct {
	mu      sync.Mutex
	creds   *Credentials
	written []Signal

	// ConnectErr, when non-nil, is returned by Connect. It models an
	// unreachable or unauthenticated relay.
	ConnectErr error

	signals   chan Signal
	closeOnce sync.Once
}

// NewMemoryChannel creates an in-process channel with the given credentials.
// Pass nil to model a relay that has not provisioned ICE servers yet.
func NewMemoryChannel(creds *Credentials) *MemoryChannel {
	return &MemoryChannel{
		creds:   creds,
		signals: make(chan Signal, signalBufferSize),
	}
}

func (c *MemoryChannel) Connect(_ context.Context) error {
	return c.ConnectErr
}

func (c *MemoryChannel) Write(sig Signal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, sig)
	return nil
}

func (c *MemoryChannel) Signals() <-chan Signal {
	return c.signals
}

func (c *MemoryChannel) Credentials() *Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds
}

func (c *MemoryChannel) Close() error {
	c.closeOnce.Do(func() { close(c.signals) })
	return nil
}

// Push injects one inbound signal, as if the relay had delivered it.
func (c *MemoryChannel) Push(sig Signal) {
	c.signals <- sig
}

// SetCredentials replaces the ICE server list mid-test.
func (c *MemoryChannel) SetCredentials(creds *Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
}

// Written returns a snapshot of every signal written so far.
func (c *MemoryChannel) Written() []Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Signal, len(c.written))
	copy(out, c.written)
	return out
}
