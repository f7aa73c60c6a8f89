package scenes

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"net/http"
	"strings"
	"sync"
	"time"

	cfg "github.com/automoto/ballpit-mp/config"
	"github.com/automoto/ballpit-mp/lockstep"
	"github.com/automoto/ballpit-mp/peer"
	"github.com/automoto/ballpit-mp/shared/messages"
	"github.com/automoto/ballpit-mp/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
)

// ConnectScene dials a relay and lists the ones the master directory knows.
type ConnectScene struct {
	sceneChanger SceneChanger
	log          *zap.Logger
	store        systems.ItemStore
	once         sync.Once

	url    string
	status string

	mu         sync.Mutex
	dialing    bool
	joined     *peer.Session
	dialErr    error
	relays     []messages.RelayListing
	fetchErr   error
	httpClient *http.Client
}

// NewConnectScene starts on url; status is shown until the first dial result.
func NewConnectScene(sc SceneChanger, url, status string, store systems.ItemStore, log *zap.Logger) *ConnectScene {
	return &ConnectScene{
		sceneChanger: sc,
		log:          log,
		store:        store,
		url:          url,
		status:       status,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
	}
}

// RelayURL turns a host:port into the websocket URL peers dial.
func RelayURL(address string) string {
	if strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://") {
		return address
	}
	return "ws://" + address + cfg.Net.Path
}

func (s *ConnectScene) configure() {
	if s.status == "" {
		s.dial(s.url)
	}
	if cfg.Net.MasterURL != "" {
		go s.fetchRelays()
	}
}

func (s *ConnectScene) Update() {
	s.once.Do(s.configure)

	// Apply dial results on the main goroutine
	s.mu.Lock()
	joined, dialErr := s.joined, s.dialErr
	s.joined, s.dialErr = nil, nil
	dialing := s.dialing
	relays := s.relays
	s.mu.Unlock()

	if dialErr != nil {
		s.status = dialErr.Error()
	}
	if joined != nil {
		s.remember(false)
		s.sceneChanger.ChangeScene(NewPitScene(s.sceneChanger, joined, s.url, s.store, s.log))
		return
	}
	if dialing {
		return
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		s.dial(s.url)
	case inpututil.IsKeyJustPressed(ebiten.KeyO):
		s.remember(true)
		s.sceneChanger.ChangeScene(NewPitScene(s.sceneChanger, peer.Offline(lockstep.DefaultConfig(), s.log), s.url, s.store, s.log))
	case inpututil.IsKeyJustPressed(ebiten.KeyF5) && cfg.Net.MasterURL != "":
		go s.fetchRelays()
	}

	for i := range min(len(relays), 9) {
		if inpututil.IsKeyJustPressed(ebiten.Key1 + ebiten.Key(i)) {
			if reason := unjoinable(relays[i]); reason != "" {
				s.status = relays[i].Name + ": " + reason
				return
			}
			s.url = RelayURL(relays[i].Address)
			s.dial(s.url)
			return
		}
	}
}

func (s *ConnectScene) dial(url string) {
	s.mu.Lock()
	s.dialing = true
	s.mu.Unlock()
	s.status = "connecting to " + url

	go func() {
		session, err := peer.Join(context.Background(), url, lockstep.DefaultConfig(), cfg.Net, s.log)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.dialing = false
		if err != nil {
			s.dialErr = err
			return
		}
		s.joined = session
	}()
}

func (s *ConnectScene) fetchRelays() {
	resp, err := s.httpClient.Get(cfg.Net.MasterURL + "/relays")
	var list struct {
		Relays []messages.RelayListing `json:"relays"`
	}
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("master returned %d", resp.StatusCode)
		} else {
			err = json.NewDecoder(resp.Body).Decode(&list)
		}
	}
	relays := list.Relays

	s.mu.Lock()
	s.relays, s.fetchErr = relays, err
	s.mu.Unlock()
	if err != nil {
		s.log.Warn("relay list unavailable", zap.Error(err))
	}
}

// unjoinable explains why a listed relay cannot be joined, empty if it can.
func unjoinable(r messages.RelayListing) string {
	switch {
	case r.Full():
		return "full"
	case !r.Compatible(cfg.Sim.TickInterval, cfg.Sim.ResetPeriod):
		return fmt.Sprintf("runs %dms ticks, %dms resets", r.TickMs, r.ResetPeriodMs)
	}
	return ""
}

func (s *ConnectScene) remember(offline bool) {
	err := systems.SaveSettings(s.store, systems.SavedSettings{
		LastRelay:  s.url,
		PlayerName: cfg.Viewer.PlayerName,
		Offline:    offline,
	})
	if err != nil {
		s.log.Warn("could not save settings", zap.Error(err))
	}
}

func (s *ConnectScene) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{16, 18, 24, 255})

	s.mu.Lock()
	relays, fetchErr, dialing := s.relays, s.fetchErr, s.dialing
	s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "BALLPIT\n\n%s\n\n", s.status)
	if !dialing {
		b.WriteString("ENTER retry   O play offline")
		if cfg.Net.MasterURL != "" {
			b.WriteString("   F5 refresh relays")
		}
		b.WriteString("\n\n")
	}
	if fetchErr != nil {
		fmt.Fprintf(&b, "relay list: %v\n", fetchErr)
	}
	for i, r := range relays {
		if i == 9 {
			break
		}
		fmt.Fprintf(&b, "%d  %-24s %-22s %d/%d  %s\n", i+1, r.Name, r.Address, r.Peers, r.MaxPeers, unjoinable(r))
	}
	ebitenutil.DebugPrintAt(screen, b.String(), 24, 24)
}
