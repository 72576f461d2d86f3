// Command heartsd runs the trick-taking card game server: it accepts
// WebSocket connections, seats players into lobbies, and drives each
// filled lobby's game to completion.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"

	"github.com/blackwidow/heartsd/pkg/dispatch"
	"github.com/blackwidow/heartsd/pkg/logsetup"
	"github.com/blackwidow/heartsd/pkg/session"
	"github.com/blackwidow/heartsd/pkg/timeout"
	"github.com/blackwidow/heartsd/pkg/transport"
)

const defaultPort = 6379

func main() {
	var (
		host        string
		port        int
		logFile     string
		debugLevel  string
		seed        int64
		moveTimeout bool
	)
	flag.StringVar(&host, "host", "0.0.0.0", "host to listen on")
	flag.IntVar(&port, "port", 0, "port to listen on (0 uses PORT env or the default)")
	flag.StringVar(&logFile, "logfile", "", "rotating log file path (empty disables file logging)")
	flag.StringVar(&debugLevel, "debuglevel", "info", "logging level: trace, debug, info, warn, error")
	flag.Int64Var(&seed, "seed", 0, "deterministic RNG seed for dealing (0 = random)")
	flag.BoolVar(&moveTimeout, "movetimeout", false, "enable the optional per-move auto-play timeout")
	flag.Parse()

	if port == 0 {
		port = defaultPort
		if env := os.Getenv("PORT"); env != "" {
			if v, err := strconv.Atoi(env); err == nil {
				port = v
			}
		}
	}

	backend, err := logsetup.New(logsetup.Config{LogFile: logFile, DebugLevel: debugLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "heartsd: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	log := backend.Logger("SRVR")

	rng := rand.New(rand.NewSource(seed))
	if seed == 0 {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	registry := session.New(rng, backend.Logger("SESS"))
	dispatcher := dispatch.New(registry, backend.Logger("DISP"))
	scheduler := timeout.NewScheduler(registry, dispatcher, backend.Logger("TOUT"))
	if moveTimeout {
		scheduler.EnableMoveTimeout()
	}
	registry.Hooks = scheduler.Hooks()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", transport.Handler(registry, dispatcher, backend.Logger("XPRT")))

	addr := fmt.Sprintf("%s:%d", host, port)
	log.Infof("listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("server exited: %v", err)
		os.Exit(1)
	}
}
