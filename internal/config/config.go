// Package config holds the CLI configuration types.
package config

// Host stores the parameters for running a bridge host.
type Host struct {
	RelayURL  string // WebSocket URL of the signaling relay
	NetworkID uint64 // identity on the signaling network; 0 picks a random one
	Debug     bool
}

// Relay stores the parameters for running a signaling relay.
type Relay struct {
	Addr        string   // listen address, e.g. ":8192"
	STUNServers []string // ICE servers handed out to endpoints
	Debug       bool
}
