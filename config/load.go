package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type file struct {
	Sim    SimConfig    `toml:"sim"`
	Net    NetConfig    `toml:"net"`
	Relay  RelayConfig  `toml:"relay"`
	Log    LogConfig    `toml:"log"`
	Viewer ViewerConfig `toml:"viewer"`
}

// Load overlays the TOML file at path onto the current settings. Keys absent
// from the file keep their defaults.
func Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse overlays TOML data onto the current settings.
func Parse(data []byte) error {
	f := file{Sim: Sim, Net: Net, Relay: Relay, Log: Log, Viewer: Viewer}
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := f.Sim.Validate(); err != nil {
		return err
	}
	Sim, Net, Relay, Log, Viewer = f.Sim, f.Net, f.Relay, f.Log, f.Viewer
	return nil
}

// Validate rejects settings the simulation cannot run with.
func (s SimConfig) Validate() error {
	var errs []error
	if s.TickInterval <= 0 {
		errs = append(errs, errors.New("sim.tick_interval must be positive"))
	}
	if s.ResetPeriod <= 0 {
		errs = append(errs, errors.New("sim.reset_period must be positive"))
	}
	if s.ResetBias < 0 || s.ResetBias >= 1 {
		errs = append(errs, errors.New("sim.reset_bias must be in [0, 1)"))
	}
	if s.MaxLead > 0 && s.InputDelay > s.MaxLead {
		errs = append(errs, errors.New("sim.input_delay must not exceed sim.max_lead"))
	}
	if s.WorldBound < 0 {
		errs = append(errs, errors.New("sim.world_bound must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
