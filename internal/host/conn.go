package host

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/soleret/peerbridge/internal/transport"
	"github.com/soleret/peerbridge/internal/util"
)

// Labels the remote peer uses when opening its two application data channels.
const (
	ReliableChannelLabel   = "ReliableDataChannel"
	UnreliableChannelLabel = "UnreliableDataChannel"
)

// Connection wraps one peer transport plus up to two application data
// channels. The host owns it while registered; once the transport reports a
// terminal state the host releases it and forgets the identifier.
type Connection struct {
	id        uint64
	networkID uint64
	t         transport.Transport

	mu         sync.Mutex
	reliable   transport.DataChannel
	unreliable transport.DataChannel

	// opened and notified guard the exactly-once open/close notifications
	// against transports that report a state more than once.
	opened      atomic.Bool
	notified    atomic.Bool
	releaseOnce sync.Once
}

func newConnection(id, networkID uint64, t transport.Transport) *Connection {
	return &Connection{id: id, networkID: networkID, t: t}
}

// ID returns the connection identifier chosen by the remote peer.
func (c *Connection) ID() uint64 { return c.id }

// NetworkID returns the remote peer's network identifier.
func (c *Connection) NetworkID() uint64 { return c.networkID }

// Send writes one payload on the reliable data channel.
func (c *Connection) Send(payload []byte) error {
	return c.send(c.channel(ReliableChannelLabel), payload)
}

// SendUnreliable writes one payload on the unreliable data channel.
func (c *Connection) SendUnreliable(payload []byte) error {
	return c.send(c.channel(UnreliableChannelLabel), payload)
}

func (c *Connection) send(ch transport.DataChannel, payload []byte) error {
	if ch == nil {
		return ErrNoChannel
	}
	if err := ch.Send(payload); err != nil {
		return err
	}
	util.Stats.AddSent(len(payload))
	return nil
}

// bind attaches an inbound data channel by label. Channels with any other
// label are reported as unbound and left alone.
func (c *Connection) bind(ch transport.DataChannel) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ch.Label() {
	case ReliableChannelLabel:
		c.reliable = ch
	case UnreliableChannelLabel:
		c.unreliable = ch
	default:
		return false
	}
	return true
}

func (c *Connection) channel(label string) transport.DataChannel {
	c.mu.Lock()
	defer c.mu.Unlock()
	if label == ReliableChannelLabel {
		return c.reliable
	}
	return c.unreliable
}

// release closes the data channels and the transport. Idempotent; errors
// from the individual closes are joined.
func (c *Connection) release() error {
	var err error
	c.releaseOnce.Do(func() {
		c.mu.Lock()
		reliable, unreliable := c.reliable, c.unreliable
		c.mu.Unlock()

		var errs []error
		if reliable != nil {
			errs = append(errs, reliable.Close())
		}
		if unreliable != nil {
			errs = append(errs, unreliable.Close())
		}
		errs = append(errs, c.t.Close())
		err = errors.Join(errs...)
	})
	return err
}
