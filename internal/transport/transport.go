// Package transport abstracts the real-time peer transport engine. The host
// drives negotiation exclusively through the Transport interface; the
// production implementation wraps a pion PeerConnection.
package transport

import "github.com/soleret/peerbridge/internal/signal"

// State is a connectivity state reported by the underlying transport.
type State string

const (
	StateNew          State = "new"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateFailed       State = "failed"
	StateClosed       State = "closed"
)

// Terminal reports whether no further progress toward "connected" is
// possible from this state.
func (s State) Terminal() bool {
	switch s {
	case StateDisconnected, StateFailed, StateClosed:
		return true
	}
	return false
}

// Description is a session description read back from the transport.
type Description struct {
	Kind string // "offer" or "answer"
	SDP  string
}

// Config carries the parameters for creating a transport.
type Config struct {
	ICEServers []signal.ICEServer
}

// Factory creates one transport per negotiation. The host holds a Factory so
// tests can substitute in-process fakes; production uses NewPeer.
type Factory func(cfg Config) (Transport, error)

// Transport is one peer transport session. Callbacks are invoked on the
// engine's own goroutines and may interleave with method calls; all methods
// are synchronous and fast.
type Transport interface {
	// SetRemoteDescription applies a remote session description of the given
	// kind ("offer" or "answer"). Applying an offer also prepares the local
	// answer, readable via LocalDescription afterwards.
	SetRemoteDescription(kind, sdp string) error

	// LocalDescription returns the current local description, if any.
	LocalDescription() (Description, bool)

	// AddRemoteCandidate applies one remote ICE candidate payload at the
	// given media-line index. It fails if the session is already torn down.
	AddRemoteCandidate(payload string, mediaLineIndex uint16) error

	// OnCandidate registers a callback for locally discovered ICE
	// candidates, delivered as opaque payload strings.
	OnCandidate(fn func(payload string))

	// OnDataChannel registers a callback for data channels opened by the
	// remote peer.
	OnDataChannel(fn func(ch DataChannel))

	// OnStateChange registers a callback for connectivity state changes.
	OnStateChange(fn func(state State))

	// Close tears the session down. Idempotent.
	Close() error
}

// DataChannel is one application data channel on a transport.
type DataChannel interface {
	Label() string

	// Send writes one payload. Implementations may block briefly for
	// backpressure but never indefinitely once the channel is closed.
	Send(payload []byte) error

	OnMessage(fn func(payload []byte))
	OnOpen(fn func())
	OnClose(fn func())
	Close() error
}
