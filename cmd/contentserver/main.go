// Command contentserver runs a single content-serving overlay node,
// loading its configuration from a YAML file. Wiring real neighbor
// channels into the node is the supervisor's job and lives outside this
// module; this entrypoint demonstrates config-driven construction and
// exits once the node's context is canceled.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/routewise/contentserver/collab/config"
	"github.com/routewise/contentserver/device/control"
	"github.com/routewise/contentserver/device/node"
	"github.com/routewise/contentserver/netid"
	"github.com/routewise/contentserver/packet"
)

func main() {
	configPath := flag.String("config", "server.yaml", "path to the server's YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("content server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	serverType, err := parseServerType(cfg.ServerType)
	if err != nil {
		return err
	}

	dataIn := make(chan *packet.Packet, 64)
	controlIn := make(chan control.Command, 16)
	responses := make(chan node.Event, 64)

	n, err := node.New(context.Background(), node.Config{
		ServerID:        netid.NodeID(cfg.ServerID),
		Senders:         map[netid.NodeID]chan<- *packet.Packet{},
		DataReceiver:    dataIn,
		ControlReceiver: controlIn,
		ResponseSender:  responses,
		FileDirectory:   cfg.FileDirectory,
		MediaDirectory:  cfg.MediaDirectory,
		ServerType:      serverType,
		FloodCooldown:   time.Duration(cfg.FloodCooldownMS) * time.Millisecond,
		Debug:           cfg.Debug,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("construct node: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go logEvents(ctx, logger, responses)

	logger.Info("content server starting", "server_type", serverType)
	if err := n.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("node run: %w", err)
	}
	return nil
}

func logEvents(ctx context.Context, logger *slog.Logger, events <-chan node.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			logger.Debug("node event", "event", ev)
		}
	}
}

func parseServerType(s string) (node.ServerType, error) {
	switch s {
	case "text":
		return node.ServerTypeText, nil
	case "media":
		return node.ServerTypeMedia, nil
	case "chat":
		return node.ServerTypeChat, nil
	default:
		return 0, fmt.Errorf("unknown server_type %q", s)
	}
}
