// Package signal defines the out-of-band signaling messages exchanged during
// connection negotiation and the Channel abstraction they travel over. All
// SDP and ICE payloads are carried as opaque strings; the host never parses
// them itself.
package signal

import "context"

// Type identifies the kind of signaling message.
type Type string

const (
	// TypeConnectRequest carries an SDP offer from a remote peer that wants
	// to establish a connection to this host.
	TypeConnectRequest Type = "ConnectRequest"

	// TypeConnectResponse carries the SDP answer the host produces in reply
	// to a ConnectRequest.
	TypeConnectResponse Type = "ConnectResponse"

	// TypeCandidateAdd carries one ICE candidate, in either direction.
	TypeCandidateAdd Type = "CandidateAdd"

	// TypeCredentials is a relay-to-endpoint control message carrying the
	// current ICE server list. Channel implementations consume it internally;
	// it never reaches the dispatcher.
	TypeCredentials Type = "Credentials"
)

// Signal is one immutable signaling message. ConnectionID scopes the message
// to a single negotiation; NetworkID is the sender's network identity on
// inbound signals and the destination's on outbound ones. The 64-bit fields
// are serialized as JSON strings so they survive JavaScript peers.
type Signal struct {
	Type         Type   `json:"type"`
	ConnectionID uint64 `json:"connectionId,string"`
	NetworkID    uint64 `json:"networkId,string"`
	Payload      string `json:"payload,omitempty"` // SDP text or JSON-encoded ICE candidate
}

// ICEServer describes one STUN/TURN server handed out by the signaling network.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// Credentials is the ICE server list required before any offer can be answered.
type Credentials struct {
	ICEServers []ICEServer `json:"iceServers"`
}

// Channel abstracts the signaling transport. The production implementation
// speaks JSON over a WebSocket to a relay; tests use MemoryChannel.
type Channel interface {
	// Connect establishes the channel. No signals are delivered before it
	// returns successfully.
	Connect(ctx context.Context) error

	// Write sends one signal. Implementations must be safe for concurrent use.
	Write(sig Signal) error

	// Signals returns the inbound signal stream. The channel is closed when
	// the underlying transport goes away.
	Signals() <-chan Signal

	// Credentials returns the current ICE server list, or nil if none has
	// been provisioned yet.
	Credentials() *Credentials

	// Close tears the channel down. Safe to call more than once.
	Close() error
}
