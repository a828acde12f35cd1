// Package relay implements the WebSocket signaling relay hosts and peers
// connect to. It routes signals between endpoints by network identifier and
// hands out the ICE server list on connect. The relay keeps no signal
// history; undeliverable signals are dropped.
package relay

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/soleret/peerbridge/internal/signal"
	"github.com/soleret/peerbridge/internal/util"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// endpoint is one connected signaling client, keyed by its network
// identifier. Writes are serialized per endpoint.
type endpoint struct {
	networkID uint64
	conn      *websocket.Conn
	writeMu   sync.Mutex
}

func (e *endpoint) write(sig signal.Signal) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.conn.WriteJSON(sig)
}

// Relay is the signaling relay server.
type Relay struct {
	creds    signal.Credentials
	listener net.Listener

	mu        sync.Mutex
	endpoints map[uint64]*endpoint
}

// New creates a relay that provisions the given ICE credentials to every
// endpoint on connect.
func New(creds signal.Credentials) *Relay {
	return &Relay{
		creds:     creds,
		endpoints: make(map[uint64]*endpoint),
	}
}

// Start begins listening on addr (":0" picks a random port). Returns the
// assigned port number.
func (r *Relay) Start(addr string) (int, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to start relay: %w", err)
	}
	r.listener = listener
	port := listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", r.handleWS)

	go func() {
		_ = http.Serve(listener, mux)
	}()

	return port, nil
}

// handleWS upgrades one signaling client. The client identifies itself with
// a non-zero decimal network identifier in the query string; a later client
// claiming the same identifier displaces the earlier one.
func (r *Relay) handleWS(w http.ResponseWriter, req *http.Request) {
	networkID, err := strconv.ParseUint(req.URL.Query().Get("network"), 10, 64)
	if err != nil || networkID == 0 {
		http.Error(w, "missing or invalid network identifier", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	ep := &endpoint{networkID: networkID, conn: conn}

	r.mu.Lock()
	if old, ok := r.endpoints[networkID]; ok {
		old.conn.Close()
	}
	r.endpoints[networkID] = ep
	r.mu.Unlock()

	util.LogInfo("[%016x] endpoint connected from %s", networkID, req.RemoteAddr)

	if err := r.sendCredentials(ep); err != nil {
		util.LogWarning("[%016x] failed to send credentials: %v", networkID, err)
	}

	go r.readLoop(ep)
}

// sendCredentials delivers the ICE server list as a Credentials signal.
func (r *Relay) sendCredentials(ep *endpoint) error {
	payload, err := json.Marshal(r.creds)
	if err != nil {
		return err
	}
	return ep.write(signal.Signal{
		Type:    signal.TypeCredentials,
		Payload: string(payload),
	})
}

// readLoop forwards each inbound signal to the endpoint it addresses. The
// NetworkID field is the destination on the way in and is rewritten to the
// sender's identity on the way out.
func (r *Relay) readLoop(ep *endpoint) {
	defer r.drop(ep)

	for {
		var sig signal.Signal
		if err := ep.conn.ReadJSON(&sig); err != nil {
			util.LogDebug("[%016x] endpoint read loop ended: %v", ep.networkID, err)
			return
		}

		r.mu.Lock()
		dest, ok := r.endpoints[sig.NetworkID]
		r.mu.Unlock()

		if !ok {
			util.LogDebug("[%016x] dropping %s for unknown network %016x",
				ep.networkID, sig.Type, sig.NetworkID)
			continue
		}

		sig.NetworkID = ep.networkID
		if err := dest.write(sig); err != nil {
			util.LogWarning("[%016x] forward to %016x failed: %v",
				ep.networkID, dest.networkID, err)
		}
	}
}

// drop unregisters an endpoint, unless its identifier was already reclaimed
// by a newer connection.
func (r *Relay) drop(ep *endpoint) {
	r.mu.Lock()
	if current, ok := r.endpoints[ep.networkID]; ok && current == ep {
		delete(r.endpoints, ep.networkID)
	}
	r.mu.Unlock()
	ep.conn.Close()
	util.LogInfo("[%016x] endpoint disconnected", ep.networkID)
}

// Close shuts down the listener and disconnects every endpoint.
func (r *Relay) Close() {
	if r.listener != nil {
		r.listener.Close()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ep := range r.endpoints {
		ep.conn.Close()
		delete(r.endpoints, id)
	}
}
