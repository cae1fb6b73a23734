package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	transportboard "github.com/miaucl/swiss-transport-board"
	"github.com/miaucl/swiss-transport-board/config"
	"github.com/miaucl/swiss-transport-board/mqtt"
	"github.com/miaucl/swiss-transport-board/opendata"
)

func main() {
	mode := flag.String("mode", "serve", "serve|oneshot")
	configPath := flag.String("config", "", "path to config.yml")
	flag.Parse()

	transportboard.InitLogging()
	if err := config.LoadAppConfig(*configPath); err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	cfg := config.Config

	client := opendata.NewClient(cfg.Journey.Start, cfg.Journey.Destination, transportboard.MaxConnections)
	if cfg.Upstream.URL != "" {
		client.SetBaseURL(cfg.Upstream.URL)
	}
	if cfg.Upstream.TimeoutMS > 0 {
		client.SetTimeout(time.Duration(cfg.Upstream.TimeoutMS) * time.Millisecond)
	}

	coord := transportboard.NewCoordinator(client)

	switch *mode {
	case "oneshot":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := coord.RefreshOnce(ctx); err != nil {
			log.Fatalf("refresh failed: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(transportboard.BuildSensorPayloads(coord.Data()))

	case "serve":
		// Subscribing starts the 90s refresh loop.
		updates, unsubscribe := coord.Subscribe()
		defer unsubscribe()

		if cfg.MQTT.Enabled {
			pub, err := mqtt.NewPublisher(cfg.MQTT, cfg.Journey.Name)
			if err != nil {
				log.Fatalf("mqtt connect failed: %v", err)
			}
			defer pub.Close()
			go pub.Run(coord, updates)
		}

		transportboard.StartServer(coord)
		transportboard.HandleGracefulShutdown()

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
}
