// Command headless runs a peer without a window. It can play a seeded script
// of actions so several instances exercise the relay identically.
package main

import (
	"context"
	"errors"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/automoto/ballpit-mp/config"
	"github.com/automoto/ballpit-mp/lockstep"
	"github.com/automoto/ballpit-mp/network"
	"github.com/automoto/ballpit-mp/peer"
	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/automoto/ballpit-mp/shared/logging"
	"github.com/automoto/ballpit-mp/shared/messages"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "TOML config file")
	relayURL := flag.String("relay", "", "Relay URL (default ws://<net.address><net.path>)")
	offline := flag.Bool("offline", false, "Simulate without a relay")
	seed := flag.Uint64("seed", 0, "Script seed (0 = no scripted actions)")
	every := flag.Duration("every", 500*time.Millisecond, "Delay between scripted actions")
	report := flag.Duration("report", 2*time.Second, "Checksum report interval")
	flag.Parse()

	if *configPath != "" {
		if err := config.Load(*configPath); err != nil {
			panic(err)
		}
	}

	log := logging.Must(config.Log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := lockstep.DefaultConfig()

	var session *peer.Session
	if *offline {
		session = peer.Offline(cfg, log)
	} else {
		url := *relayURL
		if url == "" {
			url = "ws://" + config.Net.Address + config.Net.Path
		}
		s, err := peer.Join(ctx, url, cfg, config.Net, log)
		if err != nil {
			log.Fatal("cannot join relay", zap.String("url", url), zap.Error(err))
		}
		session = s
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return session.Run(ctx) })
	g.Go(func() error { return reportLoop(ctx, session, *report, log) })
	if *seed != 0 {
		g.Go(func() error { return scriptLoop(ctx, session, *seed, *every) })
	}
	if events := session.Events(); events != nil {
		g.Go(func() error { return eventLoop(ctx, events, log) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("peer stopped", zap.Error(err))
	}
}

// reportLoop logs the latest snapshot so divergence between peers shows up
// as differing checksums at the same tick.
func reportLoop(ctx context.Context, s *peer.Session, interval time.Duration, log *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var latest lockstep.Snapshot
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case latest = <-s.Snapshots():
		case <-ticker.C:
			st := s.Stats()
			log.Info("state",
				zap.Uint64("tick", uint64(latest.Tick)),
				zap.Uint64("checksum", latest.Checksum),
				zap.Int("bodies", len(latest.Bodies)),
				zap.Uint64("resets", st.Resets),
				zap.Uint64("stale", st.StaleDropped),
				zap.Uint64("faults", st.Faults))
		}
	}
}

func scriptLoop(ctx context.Context, s *peer.Session, seed uint64, every time.Duration) error {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Submit(scriptedAction(rng))
		}
	}
}

func scriptedAction(rng *rand.Rand) messages.Action {
	pos := gamemath.Vec2(rng.Int64N(200)-100, rng.Int64N(200)-100)
	strength := gamemath.FromRatio(rng.Int64N(40)-20, 10)
	switch rng.IntN(3) {
	case 0:
		return messages.SpawnBall(pos)
	case 1:
		return messages.OutwardForce(pos, strength)
	default:
		return messages.CircularForce(pos, strength)
	}
}

func eventLoop(ctx context.Context, events <-chan network.Event, log *zap.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if e.Kind == network.EventMessage {
				log.Info("chat", zap.String("text", e.Packet.Chat))
			}
		}
	}
}
