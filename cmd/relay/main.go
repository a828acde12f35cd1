// Relay — signaling relay entry point.
//
// The relay accepts WebSocket connections from bridge hosts and their peers,
// hands out the ICE server list, and forwards signaling messages between
// endpoints by network identifier.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"

	"github.com/soleret/peerbridge/internal/config"
	"github.com/soleret/peerbridge/internal/relay"
	signalpkg "github.com/soleret/peerbridge/internal/signal"
	"github.com/soleret/peerbridge/internal/util"
)

var version = "dev"

// defaultSTUNServers are handed out when no -stun flag is given.
var defaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

func main() {
	// Root context — cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	addr := flag.String("addr", ":8192", "Listen address")
	stun := flag.String("stun", "", "Comma-separated STUN/TURN URLs to hand out")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Peerbridge Relay — v%s", version))
	pterm.Println()

	cfg := config.Relay{
		Addr:        *addr,
		STUNServers: defaultSTUNServers,
		Debug:       *debugMode,
	}
	if *stun != "" {
		cfg.STUNServers = strings.Split(*stun, ",")
	}

	r := relay.New(signalpkg.Credentials{
		ICEServers: []signalpkg.ICEServer{{URLs: cfg.STUNServers}},
	})

	port, err := r.Start(cfg.Addr)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	defer r.Close()

	util.LogInfo("relay listening on port %d", port)

	<-ctx.Done()
	util.LogInfo("relay shut down cleanly")
}
