package host

import "errors"

var (
	// ErrNoCredentials is returned when an offer arrives before the
	// signaling network has provisioned ICE server credentials. The offer is
	// dropped; no per-connection state is created.
	ErrNoCredentials = errors.New("no signaling credentials available")

	// ErrNoAnswer is returned when the transport fails to produce a usable
	// answer for a received offer. The negotiation is abandoned.
	ErrNoAnswer = errors.New("failed to generate answer")

	// ErrNoChannel is returned by Connection send methods before the remote
	// peer has opened the corresponding data channel.
	ErrNoChannel = errors.New("data channel not established")
)
