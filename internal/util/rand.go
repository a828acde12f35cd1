package util

import (
	"crypto/rand"
	"encoding/binary"
)

// RandomID returns a uniformly distributed, non-zero 64-bit identifier.
// Callers use it for network and connection identities on the signaling
// network; zero is reserved as "unset". Collisions are not guarded against —
// with 64 bits of entropy their probability is negligible.
func RandomID() uint64 {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand never fails on supported platforms; treat a
			// failure as unrecoverable rather than degrade to a weak source.
			panic(err)
		}
		if id := binary.BigEndian.Uint64(buf[:]); id != 0 {
			return id
		}
	}
}
