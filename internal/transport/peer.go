package transport

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/soleret/peerbridge/internal/signal"
)

// Compile-time interface check.
var _ Transport = (*Peer)(nil)

// Fallback STUN servers used when the signaling network provisions no ICE
// servers of its own.
var defaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// Peer adapts a pion PeerConnection to the Transport interface.
type Peer struct {
	pc *webrtc.PeerConnection
}

// NewPeer creates a transport backed by a new PeerConnection configured with
// the given ICE servers. It is the production Factory.
func NewPeer(cfg Config) (Transport, error) {
	config := webrtc.Configuration{
		ICEServers: iceServers(cfg.ICEServers),
	}
	pc, err := webrtc.NewPeerConnection(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create PeerConnection: %w", err)
	}
	return &Peer{pc: pc}, nil
}

// iceServers converts the signaling-network ICE server list to pion's form,
// falling back to public STUN when the list is empty.
func iceServers(servers []signal.ICEServer) []webrtc.ICEServer {
	if len(servers) == 0 {
		return []webrtc.ICEServer{{URLs: defaultSTUNServers}}
	}
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		out = append(out, webrtc.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	return out
}

// SetRemoteDescription applies the remote SDP. For an offer it also creates
// the local answer and sets it, so that LocalDescription returns the answer
// while ICE candidates keep trickling in the background.
func (p *Peer) SetRemoteDescription(kind, sdp string) error {
	sdpType := webrtc.NewSDPType(kind)
	if sdpType == webrtc.SDPTypeUnknown {
		return fmt.Errorf("unknown description kind %q", kind)
	}

	if err := p.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: sdpType,
		SDP:  sdp,
	}); err != nil {
		return fmt.Errorf("SetRemoteDescription: %w", err)
	}

	if sdpType != webrtc.SDPTypeOffer {
		return nil
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("CreateAnswer: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("SetLocalDescription: %w", err)
	}
	return nil
}

// LocalDescription returns the current local description, if one exists.
func (p *Peer) LocalDescription() (Description, bool) {
	desc := p.pc.LocalDescription()
	if desc == nil {
		return Description{}, false
	}
	return Description{Kind: desc.Type.String(), SDP: desc.SDP}, true
}

// AddRemoteCandidate decodes a JSON-encoded ICECandidateInit payload and
// applies it at the given media-line index.
func (p *Peer) AddRemoteCandidate(payload string, mediaLineIndex uint16) error {
	var init webrtc.ICECandidateInit
	if err := json.Unmarshal([]byte(payload), &init); err != nil {
		return fmt.Errorf("malformed ICE candidate: %w", err)
	}
	init.SDPMLineIndex = &mediaLineIndex
	return p.pc.AddICECandidate(init)
}

// OnCandidate forwards locally gathered candidates as JSON-encoded
// ICECandidateInit strings. The nil end-of-gathering marker is dropped.
func (p *Peer) OnCandidate(fn func(payload string)) {
	p.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		data, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		fn(string(data))
	})
}

// OnDataChannel wraps inbound pion data channels.
func (p *Peer) OnDataChannel(fn func(ch DataChannel)) {
	p.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		fn(newPeerChannel(dc))
	})
}

// OnStateChange maps pion connection states onto the State enum.
func (p *Peer) OnStateChange(fn func(state State)) {
	p.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		fn(stateFromPion(s))
	})
}

// Close shuts the PeerConnection down, closing every data channel with it.
func (p *Peer) Close() error {
	return p.pc.Close()
}

func stateFromPion(s webrtc.PeerConnectionState) State {
	switch s {
	case webrtc.PeerConnectionStateNew:
		return StateNew
	case webrtc.PeerConnectionStateConnecting:
		return StateConnecting
	case webrtc.PeerConnectionStateConnected:
		return StateConnected
	case webrtc.PeerConnectionStateDisconnected:
		return StateDisconnected
	case webrtc.PeerConnectionStateFailed:
		return StateFailed
	case webrtc.PeerConnectionStateClosed:
		return StateClosed
	}
	return State(s.String())
}
