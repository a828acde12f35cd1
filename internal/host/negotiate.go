package host

import (
	"fmt"

	"github.com/soleret/peerbridge/internal/signal"
	"github.com/soleret/peerbridge/internal/transport"
	"github.com/soleret/peerbridge/internal/util"
)

// candidateMediaLineIndex is the fixed media-line index every remote
// candidate is applied at. Data-channel-only sessions carry a single media
// section.
const candidateMediaLineIndex uint16 = 0

// handleOffer answers one ConnectRequest: it creates a transport with the
// current ICE credentials, registers the connection, feeds in the offer,
// sends back the answer, and finally drains any candidates that were
// buffered while negotiation was in flight.
//
// It runs under h.mu so candidate routing stays strictly ordered relative to
// the drain at the end: a candidate arriving mid-negotiation lands in the
// pending bucket; a candidate arriving afterwards finds a registered
// connection with no bucket and is applied directly.
func (h *Host) handleOffer(sig signal.Signal) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	creds := h.channel.Credentials()
	if creds == nil {
		return fmt.Errorf("%w: dropping offer for connection %016x", ErrNoCredentials, sig.ConnectionID)
	}

	t, err := h.newTransport(transport.Config{ICEServers: creds.ICEServers})
	if err != nil {
		return fmt.Errorf("failed to create transport for connection %016x: %w", sig.ConnectionID, err)
	}

	conn := newConnection(sig.ConnectionID, sig.NetworkID, t)

	// Register before negotiation completes: a CandidateAdd arriving
	// mid-negotiation must find a live transport, not a missing entry. The
	// bucket opened alongside it catches candidates that race the rest of
	// this procedure.
	h.conns.register(conn)
	h.pending.open(conn.id)

	t.OnCandidate(func(payload string) {
		err := h.channel.Write(signal.Signal{
			Type:         signal.TypeCandidateAdd,
			ConnectionID: conn.id,
			NetworkID:    conn.networkID,
			Payload:      payload,
		})
		if err != nil {
			util.LogWarning("[%016x] failed to forward local candidate: %v", conn.id, err)
		}
	})

	t.OnDataChannel(func(ch transport.DataChannel) {
		h.bindChannel(conn, ch)
	})

	t.OnStateChange(func(state transport.State) {
		h.handleConnectivity(conn, state)
	})

	if err := t.SetRemoteDescription("offer", sig.Payload); err != nil {
		return fmt.Errorf("failed to apply offer for connection %016x: %w", conn.id, err)
	}

	desc, ok := t.LocalDescription()
	if !ok || desc.Kind != "answer" || desc.SDP == "" {
		return fmt.Errorf("%w for connection %016x", ErrNoAnswer, conn.id)
	}

	err = h.channel.Write(signal.Signal{
		Type:         signal.TypeConnectResponse,
		ConnectionID: conn.id,
		NetworkID:    conn.networkID,
		Payload:      desc.SDP,
	})
	if err != nil {
		return fmt.Errorf("failed to send answer for connection %016x: %w", conn.id, err)
	}

	// Drain the bucket in arrival order. A candidate that fails to apply is
	// skipped; it must not abort its siblings or the negotiation. The bucket
	// itself is gone after drain regardless.
	for _, payload := range h.pending.drain(conn.id) {
		if err := t.AddRemoteCandidate(payload, candidateMediaLineIndex); err != nil {
			util.LogWarning("[%016x] skipping buffered candidate: %v", conn.id, err)
		}
	}

	util.LogDebug("[%016x] answered offer from network %016x", conn.id, conn.networkID)
	return nil
}

// handleCandidate routes one CandidateAdd. Bucket first: while an offer is
// negotiating (or has not arrived yet), the candidate is held so it is
// applied after the answer, in arrival order. Only identifiers with a
// registered connection and no bucket get the candidate applied directly;
// transport-level failures there are logged and swallowed.
func (h *Host) handleCandidate(sig signal.Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := sig.ConnectionID

	if h.pending.has(id) {
		h.pending.add(id, sig.Payload)
		return
	}

	if conn, ok := h.conns.lookup(id); ok {
		if err := conn.t.AddRemoteCandidate(sig.Payload, candidateMediaLineIndex); err != nil {
			util.LogWarning("[%016x] failed to apply candidate: %v", id, err)
		}
		return
	}

	// No negotiation in flight: hold the candidate for an offer that may
	// still be racing it through the signaling network.
	h.pending.add(id, sig.Payload)
	util.LogDebug("[%016x] buffered candidate for connection without an offer", id)
}

// bindChannel attaches an inbound data channel to its connection by label
// and wires its messages to the application callback.
func (h *Host) bindChannel(conn *Connection, ch transport.DataChannel) {
	if !conn.bind(ch) {
		util.LogDebug("[%016x] ignoring data channel with label %q", conn.id, ch.Label())
		return
	}
	ch.OnMessage(func(payload []byte) {
		util.Stats.AddRecv(len(payload))
		if h.onEncapsulated != nil {
			h.onEncapsulated(payload, conn.id)
		}
	})
}

// handleConnectivity drives the connection lifecycle off the transport's own
// state machine. "connected" opens the connection exactly once; any terminal
// state notifies the application exactly once, releases the connection, and
// forgets the identifier in both the registry and the candidate buffer.
func (h *Host) handleConnectivity(conn *Connection, state transport.State) {
	switch {
	case state == transport.StateConnected:
		if conn.opened.CompareAndSwap(false, true) {
			util.Stats.AddConn()
			util.LogInfo("[%016x] connection established", conn.id)
			if h.onOpen != nil {
				h.onOpen(conn)
			}
		}

	case state.Terminal():
		if !conn.notified.CompareAndSwap(false, true) {
			return // duplicate terminal report from the transport
		}
		util.LogInfo("[%016x] connection closed (%s)", conn.id, state)
		if h.onClose != nil {
			h.onClose(conn.id, state)
		}
		if err := conn.release(); err != nil {
			util.LogDebug("[%016x] release: %v", conn.id, err)
		}

		h.mu.Lock()
		h.conns.unregister(conn)
		h.pending.remove(conn.id)
		h.mu.Unlock()

		util.Stats.RemoveConn()
	}
}
