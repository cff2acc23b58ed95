// Command bridgelet is a child execution unit hosting one home-automation
// extension on behalf of a parent orchestrator. The parent spawns one
// bridgelet per extension, drives it over a message channel, and watches
// its exit code.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dshills/bridgelet/internal/config"
	"github.com/dshills/bridgelet/internal/controller"
	"github.com/dshills/bridgelet/internal/host"
	"github.com/dshills/bridgelet/internal/ipc"
	"github.com/dshills/bridgelet/internal/logging"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.socket != "" {
		cfg.Channel.Socket = opts.socket
	}
	if opts.hub != "" {
		cfg.Channel.Hub = opts.hub
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if opts.debug {
		level = logging.LevelDebug
	}
	log := logging.New(logging.Options{Level: level, Output: os.Stderr})

	channel, err := dialChannel(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach parent: %v\n", err)
		return 1
	}
	defer channel.Close()

	ctrl := controller.New(controller.Options{
		Channel:            channel,
		Log:                log,
		DefaultStoragePath: cfg.StoragePath,
		SetProcessTitle:    host.SetProcessTitle,
		ConfigureLogging: func(debug, disableTimestamps, forceColor bool) {
			if debug {
				log.SetLevel(logging.LevelDebug)
			}
			log.SetTimestamps(!disableTimestamps)
			if forceColor {
				log.SetColor(true)
			}
		},
	})
	defer ctrl.Shutdown()

	signals := host.NewSignalHandler(log, ctrl.Shutdown)
	signals.Listen()
	defer signals.Stop()

	liveness := host.NewLivenessMonitor(log, channel.Connected)
	liveness.Start()
	defer liveness.Stop()

	channel.Start(ctrl.HandleEnvelope)
	ctrl.Ready()

	// The read loop owns the process lifetime: it returns when the
	// channel closes, after which the liveness monitor or a signal
	// decides the exit. Block until the channel goes away.
	select {}
}

func dialChannel(cfg config.Host, log *logging.Logger) (ipc.Channel, error) {
	ctx := context.Background()
	if cfg.Channel.Hub != "" {
		return ipc.DialWebsocket(ctx, cfg.Channel.Hub, log)
	}
	if cfg.Channel.Socket != "" {
		return ipc.DialSocket(ctx, cfg.Channel.Socket, log)
	}
	return nil, fmt.Errorf("no channel configured: set -socket or -hub")
}

type flagOptions struct {
	configPath string
	socket     string
	hub        string
	logLevel   string
	debug      bool
}

func parseFlags() flagOptions {
	var opts flagOptions
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to host configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to host configuration file (shorthand)")
	flag.StringVar(&opts.socket, "socket", "", "Unix socket path of the parent channel")
	flag.StringVar(&opts.hub, "hub", "", "Websocket URL of the parent hub (overrides -socket)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&opts.debug, "d", false, "Enable debug logging (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Bridgelet - child bridge execution unit\n\n")
		fmt.Fprintf(os.Stderr, "Usage: bridgelet [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("bridgelet %s\n", version)
		os.Exit(0)
	}

	return opts
}
