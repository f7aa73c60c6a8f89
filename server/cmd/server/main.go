package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/automoto/ballpit-mp/config"
	"github.com/automoto/ballpit-mp/server/core"
	"github.com/automoto/ballpit-mp/shared/logging"
	"github.com/automoto/ballpit-mp/shared/messages"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "TOML config file")
	addr := flag.String("addr", "", "Listen address (overrides relay.bind_address)")
	name := flag.String("name", "", "Relay display name")
	master := flag.String("master", "", "Master directory URL (empty = do not register)")
	public := flag.String("public", "", "Address advertised to the master")
	flag.Parse()

	if *configPath != "" {
		if err := config.Load(*configPath); err != nil {
			panic(err)
		}
	}
	if *addr != "" {
		config.Relay.BindAddress = *addr
	}
	if *name != "" {
		config.Relay.Name = *name
	}
	if *master != "" {
		config.Relay.MasterURL = *master
	}
	if *public != "" {
		config.Relay.PublicAddr = *public
	}

	log := logging.Must(config.Log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay := core.NewRelay(config.Relay, log)
	resets := core.NewResetScheduler(relay, config.Sim.ResetPeriod, config.Sim.ResetBias, config.Relay.ResetEvery, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return relay.ListenAndServe(ctx) })
	g.Go(func() error { return resets.Run(ctx) })

	if config.Relay.MasterURL != "" {
		advertised := config.Relay.PublicAddr
		if advertised == "" {
			advertised = config.Relay.BindAddress
		}
		reg := core.NewRegistration(config.Relay.MasterURL, messages.RelayListing{
			Name:          config.Relay.Name,
			Address:       advertised,
			Version:       version,
			MaxPeers:      config.Relay.MaxPeers,
			TickMs:        config.Sim.TickInterval.Milliseconds(),
			ResetPeriodMs: config.Sim.ResetPeriod.Milliseconds(),
		}, config.Relay.Heartbeat, relay, log)
		g.Go(func() error { return reg.Run(ctx) })
	}

	log.Info("starting relay",
		zap.String("name", config.Relay.Name),
		zap.String("version", version),
		zap.Duration("reset_every", config.Relay.ResetEvery))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("relay error", zap.Error(err))
	}
	log.Info("relay shut down")
}
