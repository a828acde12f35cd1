package transport

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
)

const (
	highWaterMark = 256 * 1024 // pause sending when bufferedAmount exceeds this
	lowWaterMark  = 64 * 1024  // resume sending when bufferedAmount drops below this
)

// ErrChannelClosed is returned by Send after the data channel has closed.
var ErrChannelClosed = errors.New("data channel closed")

// peerChannel wraps a pion DataChannel with watermark-based backpressure:
// Send blocks while bufferedAmount exceeds the high watermark and resumes
// once the SCTP layer drains below the low watermark.
type peerChannel struct {
	raw       *webrtc.DataChannel
	sendReady chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func newPeerChannel(raw *webrtc.DataChannel) *peerChannel {
	ch := &peerChannel{
		raw:       raw,
		sendReady: make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}

	// Release any Send blocked on backpressure when the channel dies,
	// even if the owner never registers its own OnClose handler.
	raw.OnClose(func() {
		ch.closeOnce.Do(func() { close(ch.closed) })
	})

	raw.SetBufferedAmountLowThreshold(uint64(lowWaterMark))
	raw.OnBufferedAmountLow(func() {
		select {
		case ch.sendReady <- struct{}{}:
		default:
		}
	})

	return ch
}

func (c *peerChannel) Label() string {
	return c.raw.Label()
}

// Send writes one payload, blocking for backpressure while the channel's
// buffered amount is above the high watermark.
func (c *peerChannel) Send(payload []byte) error {
	if c.raw.BufferedAmount() > uint64(highWaterMark) {
		select {
		case <-c.sendReady:
		case <-c.closed:
			return ErrChannelClosed
		}
	}
	return c.raw.Send(payload)
}

func (c *peerChannel) OnMessage(fn func(payload []byte)) {
	c.raw.OnMessage(func(msg webrtc.DataChannelMessage) {
		fn(msg.Data)
	})
}

func (c *peerChannel) OnOpen(fn func()) {
	c.raw.OnOpen(fn)
}

// OnClose chains the caller's handler after the internal close signal that
// releases any Send blocked on backpressure.
func (c *peerChannel) OnClose(fn func()) {
	c.raw.OnClose(func() {
		c.closeOnce.Do(func() { close(c.closed) })
		fn()
	})
}

func (c *peerChannel) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.raw.Close()
}
