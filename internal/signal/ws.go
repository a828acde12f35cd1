package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/soleret/peerbridge/internal/util"
)

// Compile-time interface check.
var _ Channel = (*WebSocketChannel)(nil)

// signalBufferSize is the inbound signal channel capacity. The dispatcher
// consumes one signal at a time; a modest buffer absorbs relay bursts.
const signalBufferSize = 64

// WebSocketChannel is the production Channel: JSON signals over a single
// WebSocket connection to a relay. Writes are serialized by a mutex; reads
// run on one background goroutine started by Connect.
type WebSocketChannel struct {
	url       string
	networkID uint64

	writeMu sync.Mutex
	conn    *websocket.Conn

	credsMu sync.RWMutex
	creds   *Credentials

	signals   chan Signal
	closeOnce sync.Once
}

// NewWebSocketChannel creates a channel that will dial url and identify
// itself to the relay with networkID.
func NewWebSocketChannel(url string, networkID uint64) *WebSocketChannel {
	return &WebSocketChannel{
		url:       url,
		networkID: networkID,
		signals:   make(chan Signal, signalBufferSize),
	}
}

// Connect dials the relay and starts the read loop. The relay learns this
// endpoint's network identifier from the query string and replies with a
// Credentials signal before routing anything else.
func (c *WebSocketChannel) Connect(ctx context.Context) error {
	url := fmt.Sprintf("%s?network=%d", c.url, c.networkID)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to signaling relay: %w", err)
	}
	c.conn = conn

	go c.readLoop()
	return nil
}

// readLoop decodes inbound signals until the connection dies, then closes
// the signal stream. Credentials control messages are stored, not forwarded.
func (c *WebSocketChannel) readLoop() {
	defer close(c.signals)
	for {
		var sig Signal
		if err := c.conn.ReadJSON(&sig); err != nil {
			util.LogDebug("signaling read loop ended: %v", err)
			return
		}

		if sig.Type == TypeCredentials {
			var creds Credentials
			if err := json.Unmarshal([]byte(sig.Payload), &creds); err != nil {
				util.LogWarning("malformed credentials from relay: %v", err)
				continue
			}
			c.credsMu.Lock()
			c.creds = &creds
			c.credsMu.Unlock()
			util.LogDebug("ICE credentials received (%d servers)", len(creds.ICEServers))
			continue
		}

		c.signals <- sig
	}
}

// Write sends one signal to the relay, guarded by a mutex.
func (c *WebSocketChannel) Write(sig Signal) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(sig)
}

// Signals returns the inbound signal stream.
func (c *WebSocketChannel) Signals() <-chan Signal {
	return c.signals
}

// Credentials returns the most recent ICE server list from the relay, or nil.
func (c *WebSocketChannel) Credentials() *Credentials {
	c.credsMu.RLock()
	defer c.credsMu.RUnlock()
	return c.creds
}

// Close shuts the WebSocket down. The read loop exits on the resulting read
// error and closes the signal stream.
func (c *WebSocketChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}
