package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/hajimehoshi/ebiten/v2"

	"fire-rescue/viewer/internal/session"
	"fire-rescue/viewer/internal/transport"
	"fire-rescue/viewer/internal/ui"
)

type config struct {
	ServerURL    string `env:"VIEWER_SERVER_URL" envDefault:"http://localhost:5000"`
	SimulationID string `env:"VIEWER_SIMULATION_ID"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse environment: %v", err)
	}
	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "simulation service base URL")
	flag.StringVar(&cfg.SimulationID, "id", cfg.SimulationID, "existing simulation id to display")
	flag.Parse()

	client := transport.NewClient(cfg.ServerURL)
	channel := transport.NewChannel(websocketURL(cfg.ServerURL), transport.ChannelConfig{})

	controller := session.NewController(session.Config{
		API:          client,
		Channel:      channel,
		SimulationID: cfg.SimulationID,
	})
	if err := controller.Start(context.Background()); err != nil {
		// The window opens regardless: every failure is retriable from the
		// controls (reset recreates, N reconnects).
		log.Printf("session start: %v", err)
	}

	ebiten.SetWindowTitle("Fire Rescue Viewer")
	ebiten.SetWindowSize(ui.WindowSize())
	if err := ebiten.RunGame(ui.New(controller, log.Default())); err != nil {
		log.Fatalf("viewer exited: %v", err)
	}
}

func websocketURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return strings.TrimRight(base, "/") + "/ws"
}
