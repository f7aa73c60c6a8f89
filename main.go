package main

import (
	"flag"

	"github.com/automoto/ballpit-mp/config"
	"github.com/automoto/ballpit-mp/lockstep"
	"github.com/automoto/ballpit-mp/peer"
	"github.com/automoto/ballpit-mp/scenes"
	"github.com/automoto/ballpit-mp/shared/logging"
	"github.com/automoto/ballpit-mp/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

type Game struct {
	scene scenes.Scene
}

// ChangeScene switches to a new scene
func (g *Game) ChangeScene(scene scenes.Scene) {
	g.scene = scene
}

func (g *Game) Update() error {
	g.scene.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
}

func (g *Game) Layout(width, height int) (int, int) {
	return config.Viewer.Width, config.Viewer.Height
}

func main() {
	configPath := flag.String("config", "", "TOML config file")
	relay := flag.String("relay", "", "Relay host:port or URL (default: last used)")
	offline := flag.Bool("offline", false, "Start without a relay")
	flag.Parse()

	if *configPath != "" {
		if err := config.Load(*configPath); err != nil {
			panic(err)
		}
	}

	log := logging.Must(config.Log)
	defer log.Sync()

	// Initialize persistence and load saved settings
	store, err := systems.OpenStore("ballpit")
	if err != nil {
		log.Warn("could not initialize persistence", zap.Error(err))
	}
	url := scenes.RelayURL(config.Net.Address)
	if saved, err := systems.LoadSettings(store); err != nil {
		log.Warn("could not load settings", zap.Error(err))
	} else if saved != nil && saved.LastRelay != "" {
		url = saved.LastRelay
		if saved.PlayerName != "" {
			config.Viewer.PlayerName = saved.PlayerName
		}
	}
	if *relay != "" {
		url = scenes.RelayURL(*relay)
	}

	g := &Game{}
	if *offline {
		g.scene = scenes.NewPitScene(g, peer.Offline(lockstep.DefaultConfig(), log), url, store, log)
	} else {
		g.scene = scenes.NewConnectScene(g, url, "", store, log)
	}

	ebiten.SetWindowSize(config.Viewer.Width, config.Viewer.Height)
	ebiten.SetWindowTitle("ballpit")

	if err := ebiten.RunGame(g); err != nil {
		log.Fatal("viewer stopped", zap.Error(err))
	}
}
