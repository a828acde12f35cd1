// Package host implements the connection-establishment core of the bridge:
// it consumes signaling messages for many prospective peer connections,
// drives each through offer/answer negotiation, reconciles ICE candidates
// that race their offer, and hands established data-channel connections to
// the application.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/soleret/peerbridge/internal/signal"
	"github.com/soleret/peerbridge/internal/transport"
	"github.com/soleret/peerbridge/internal/util"
)

// Config carries everything needed to construct a Host. Channel is
// mandatory; zero identifiers are replaced with random ones and a nil
// NewTransport falls back to the pion-backed production factory.
type Config struct {
	// NetworkID identifies this host on the signaling network.
	NetworkID uint64

	// ConnectionID identifies the host's own endpoint, distinct from the
	// per-peer connection identifiers chosen by remote peers.
	ConnectionID uint64

	// Channel is the signaling transport.
	Channel signal.Channel

	// NewTransport creates one peer transport per negotiation.
	NewTransport transport.Factory

	// OnOpenConnection fires exactly once per connection, when its transport
	// first reports "connected".
	OnOpenConnection func(conn *Connection)

	// OnCloseConnection fires exactly once per connection, with the terminal
	// transport state as reason.
	OnCloseConnection func(connID uint64, reason transport.State)

	// OnEncapsulated receives every payload arriving on a connection's data
	// channels.
	OnEncapsulated func(payload []byte, connID uint64)
}

// Host accepts incoming peer connections signaled over a Channel. It owns
// the connection registry and the pending-candidate buffer for its lifetime.
type Host struct {
	networkID    uint64
	connectionID uint64
	channel      signal.Channel
	newTransport transport.Factory

	onOpen         func(conn *Connection)
	onClose        func(connID uint64, reason transport.State)
	onEncapsulated func(payload []byte, connID uint64)

	// mu serializes offer handling, candidate routing, and teardown so the
	// bucket-versus-registry routing decision stays ordered per identifier.
	mu      sync.Mutex
	conns   *registry
	pending *pendingSet

	closed    chan struct{}
	closeOnce sync.Once
}

// NewHost creates a host. It does not touch the network until Listen.
func NewHost(cfg Config) *Host {
	if cfg.NetworkID == 0 {
		cfg.NetworkID = util.RandomID()
	}
	if cfg.ConnectionID == 0 {
		cfg.ConnectionID = util.RandomID()
	}
	if cfg.NewTransport == nil {
		cfg.NewTransport = transport.NewPeer
	}
	return &Host{
		networkID:      cfg.NetworkID,
		connectionID:   cfg.ConnectionID,
		channel:        cfg.Channel,
		newTransport:   cfg.NewTransport,
		onOpen:         cfg.OnOpenConnection,
		onClose:        cfg.OnCloseConnection,
		onEncapsulated: cfg.OnEncapsulated,
		conns:          newRegistry(),
		pending:        newPendingSet(),
		closed:         make(chan struct{}),
	}
}

// NetworkID returns this host's identity on the signaling network.
func (h *Host) NetworkID() uint64 { return h.networkID }

// ConnectionID returns the identifier of the host's own endpoint.
func (h *Host) ConnectionID() uint64 { return h.connectionID }

// Listen establishes the signaling channel and starts consuming its signal
// stream. A channel that cannot be established is reported to the caller and
// no signals are processed.
func (h *Host) Listen(ctx context.Context) error {
	if err := h.channel.Connect(ctx); err != nil {
		return fmt.Errorf("failed to establish signaling channel: %w", err)
	}
	go h.dispatch(ctx)
	util.LogInfo("listening on signaling network as %016x", h.networkID)
	return nil
}

// dispatch consumes one signal at a time, in delivery order, until the
// stream ends, the context is cancelled, or the host is closed.
func (h *Host) dispatch(ctx context.Context) {
	for {
		select {
		case sig, ok := <-h.channel.Signals():
			if !ok {
				util.LogDebug("signal stream ended")
				return
			}
			h.handleSignal(sig)
		case <-ctx.Done():
			return
		case <-h.closed:
			return
		}
	}
}

// handleSignal demultiplexes one signal by its type tag. Errors local to one
// connection's negotiation are logged here; they never affect other
// connections.
func (h *Host) handleSignal(sig signal.Signal) {
	switch sig.Type {
	case signal.TypeConnectRequest:
		if err := h.handleOffer(sig); err != nil {
			util.LogError("answering offer: %v", err)
		}
	case signal.TypeCandidateAdd:
		h.handleCandidate(sig)
	default:
		util.LogWarning("dropping signal with unknown type %q for connection %016x", sig.Type, sig.ConnectionID)
	}
}

// Close shuts the host down: every registered connection is closed
// best-effort over a snapshot, then the registry and candidate buffer are
// cleared unconditionally, then the signaling channel is closed. Safe to
// call with no connections registered, and more than once.
func (h *Host) Close() error {
	h.closeOnce.Do(func() { close(h.closed) })

	var errs []error
	for _, conn := range h.conns.values() {
		if err := conn.release(); err != nil {
			errs = append(errs, fmt.Errorf("closing connection %016x: %w", conn.id, err))
		}
	}
	h.conns.clear()
	h.pending.clear()

	if err := h.channel.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
