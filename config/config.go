package config

import "time"

// SimConfig tunes the lockstep simulation. Every peer of a session must run
// with identical values or their worlds diverge.
type SimConfig struct {
	TickInterval time.Duration `toml:"tick_interval"` // wall-clock cadence, also the simulated dt
	MaxLead      uint64        `toml:"max_lead"`      // remote packets further ahead than this are dropped
	WorldBound   int64         `toml:"world_bound"`   // bodies beyond ±bound are despawned, 0 = never

	// Ticks added to locally originated actions. It has to cover the relay
	// round trip: with 0 a local action is stamped with the tick being
	// simulated, and every other peer has drained that tick by the time the
	// packet arrives and drops it as stale.
	InputDelay uint64 `toml:"input_delay"`

	// Reset alignment: resets land on ResetPeriod boundaries, pushed one period
	// further when inside the final ResetBias fraction of the current one.
	ResetPeriod time.Duration `toml:"reset_period"`
	ResetBias   float64       `toml:"reset_bias"`

	// Accepted disagreement between peer clocks. A reset instant received more
	// than this far in the past is logged as a skew warning.
	ClockSkewTolerance time.Duration `toml:"clock_skew_tolerance"`

	InputQueue    int `toml:"input_queue"`
	OutboundQueue int `toml:"outbound_queue"`
	RemoteQueue   int `toml:"remote_queue"`
}

// NetConfig holds peer-side connection settings.
type NetConfig struct {
	Address          string        `toml:"address"`    // relay host:port
	MasterURL        string        `toml:"master_url"` // relay directory, empty = none
	Path             string        `toml:"path"`
	HandshakeTimeout time.Duration `toml:"handshake_timeout"`
	WriteTimeout     time.Duration `toml:"write_timeout"`
	EventQueue       int           `toml:"event_queue"`
}

// RelayConfig holds relay server settings.
type RelayConfig struct {
	Name         string        `toml:"name"`
	BindAddress  string        `toml:"bind_address"`
	MaxPeers     int           `toml:"max_peers"`
	SendQueue    int           `toml:"send_queue"`
	ResetEvery   time.Duration `toml:"reset_every"` // 0 = only when a peer joins
	Greeting     string        `toml:"greeting"`
	MasterURL    string        `toml:"master_url"` // empty = do not register
	PublicAddr   string        `toml:"public_addr"`
	Heartbeat    time.Duration `toml:"heartbeat"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// ViewerConfig holds the desktop viewer's window and input tuning.
type ViewerConfig struct {
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
	PixelsPerUnit  int    `toml:"pixels_per_unit"`
	BallRadius     int    `toml:"ball_radius"`
	ForceStrength  int64  `toml:"force_strength"`
	PlayerName     string `toml:"player_name"`
	ResyncBannerMs int    `toml:"resync_banner_ms"`
}

var (
	Sim    SimConfig
	Net    NetConfig
	Relay  RelayConfig
	Log    LogConfig
	Viewer ViewerConfig
)

func init() {
	Sim = SimConfig{
		TickInterval:       30 * time.Millisecond,
		InputDelay:         4,
		MaxLead:            64,
		WorldBound:         0,
		ResetPeriod:        2 * time.Second,
		ResetBias:          0.25,
		ClockSkewTolerance: 50 * time.Millisecond,
		InputQueue:         64,
		OutboundQueue:      256,
		RemoteQueue:        1024,
	}

	Net = NetConfig{
		Address:          "localhost:7373",
		Path:             "/",
		HandshakeTimeout: 3 * time.Second,
		WriteTimeout:     2 * time.Second,
		EventQueue:       64,
	}

	Relay = RelayConfig{
		Name:         "Ballpit Relay",
		BindAddress:  ":7373",
		MaxPeers:     16,
		SendQueue:    256,
		ResetEvery:   10 * time.Second,
		Greeting:     "welcome to the ballpit",
		Heartbeat:    30 * time.Second,
		WriteTimeout: 2 * time.Second,
	}

	Log = LogConfig{
		Level:  "info",
		Format: "console",
	}

	Viewer = ViewerConfig{
		Width:          960,
		Height:         640,
		PixelsPerUnit:  4,
		BallRadius:     6,
		ForceStrength:  4,
		PlayerName:     "player",
		ResyncBannerMs: 600,
	}
}
