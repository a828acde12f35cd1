// Peerbridge — bridge host entry point.
//
// This daemon joins a signaling network through a relay and answers incoming
// peer connection requests, exposing the resulting WebRTC data channels.
// Connection open/close events and inbound payloads are logged; traffic stats
// are reported periodically.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/pterm/pterm"

	"github.com/soleret/peerbridge/internal/config"
	hostpkg "github.com/soleret/peerbridge/internal/host"
	signalpkg "github.com/soleret/peerbridge/internal/signal"
	"github.com/soleret/peerbridge/internal/transport"
	"github.com/soleret/peerbridge/internal/util"
)

var version = "dev"

func main() {
	// Root context — cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// CLI flags.
	relayURL := flag.String("relay", "", "WebSocket URL of the signaling relay (e.g. wss://relay.example/ws)")
	networkID := flag.Uint64("network", 0, "Network identifier on the signaling network (0 = random)")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Peerbridge — v%s", version))
	pterm.Println()

	if *relayURL == "" {
		util.LogError("missing -relay URL")
		os.Exit(1)
	}

	cfg := config.Host{
		RelayURL:  *relayURL,
		NetworkID: *networkID,
		Debug:     *debugMode,
	}

	if err := run(ctx, cfg); err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	util.LogInfo("host shut down cleanly")
}

// run wires the signaling channel to a host and blocks until shutdown.
func run(ctx context.Context, cfg config.Host) error {
	if cfg.NetworkID == 0 {
		cfg.NetworkID = util.RandomID()
	}

	channel := signalpkg.NewWebSocketChannel(cfg.RelayURL, cfg.NetworkID)

	host := hostpkg.NewHost(hostpkg.Config{
		NetworkID: cfg.NetworkID,
		Channel:   channel,
		OnOpenConnection: func(conn *hostpkg.Connection) {
			util.LogInfo("[%016x] peer %016x connected", conn.ID(), conn.NetworkID())
		},
		OnCloseConnection: func(connID uint64, reason transport.State) {
			util.LogInfo("[%016x] peer disconnected (%s)", connID, reason)
		},
		OnEncapsulated: func(payload []byte, connID uint64) {
			util.LogDebug("[%016x] received %d bytes", connID, len(payload))
		},
	})

	if err := host.Listen(ctx); err != nil {
		return fmt.Errorf("failed to start host: %w", err)
	}
	defer host.Close()

	util.StartStatsReporter(ctx)

	pterm.Println()
	pterm.Println("╔══════════════════════════════════════════╗")
	pterm.Println("║             Peerbridge Host              ║")
	pterm.Println("╠══════════════════════════════════════════╣")
	pterm.Println(fmt.Sprintf("║  Network : %-29x ║", host.NetworkID()))
	pterm.Println("╚══════════════════════════════════════════╝")
	pterm.Println()

	<-ctx.Done()
	return nil
}
