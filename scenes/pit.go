package scenes

import (
	"context"
	"fmt"
	"image/color"

	cfg "github.com/automoto/ballpit-mp/config"
	"github.com/automoto/ballpit-mp/lockstep"
	"github.com/automoto/ballpit-mp/network"
	"github.com/automoto/ballpit-mp/peer"
	"github.com/automoto/ballpit-mp/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
)

const maxChatLines = 5

// PitScene runs a session and draws its latest snapshot.
type PitScene struct {
	sceneChanger SceneChanger
	log          *zap.Logger
	store        systems.ItemStore
	url          string

	session *peer.Session
	cancel  context.CancelFunc
	done    chan error

	view   systems.View
	banner *systems.Banner
	snap   lockstep.Snapshot
	seen   bool
	chat   []string
}

func NewPitScene(sc SceneChanger, session *peer.Session, url string, store systems.ItemStore, log *zap.Logger) *PitScene {
	ctx, cancel := context.WithCancel(context.Background())
	s := &PitScene{
		sceneChanger: sc,
		log:          log,
		store:        store,
		url:          url,
		session:      session,
		cancel:       cancel,
		done:         make(chan error, 1),
		view: systems.View{
			Width:         cfg.Viewer.Width,
			Height:        cfg.Viewer.Height,
			PixelsPerUnit: cfg.Viewer.PixelsPerUnit,
		},
		banner: systems.NewBanner("RESYNC", float32(cfg.Viewer.ResyncBannerMs)/1000),
	}
	go func() { s.done <- session.Run(ctx) }()
	return s
}

func (s *PitScene) Update() {
	select {
	case err := <-s.done:
		status := "disconnected"
		if err != nil {
			status = err.Error()
		}
		s.log.Info("session ended", zap.String("status", status))
		s.sceneChanger.ChangeScene(NewConnectScene(s.sceneChanger, s.url, status, s.store, s.log))
		return
	default:
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		s.cancel()
		return
	}

	s.handleInput()
	s.pullSnapshot()
	s.pullEvents()
	s.banner.Update(1 / float32(ebiten.TPS()))
}

func (s *PitScene) handleInput() {
	x, y := ebiten.CursorPosition()
	in := systems.PointerState{
		X:        x,
		Y:        y,
		Spawn:    inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		Push:     inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight),
		Swirl:    inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonMiddle) || inpututil.IsKeyJustPressed(ebiten.KeyC),
		Reversed: ebiten.IsKeyPressed(ebiten.KeyShift),
	}
	for _, a := range systems.MapPointer(in, s.view, cfg.Viewer.ForceStrength) {
		s.session.Submit(a)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		if err := s.session.Chat(cfg.Viewer.PlayerName + " waves"); err != nil {
			s.log.Warn("chat failed", zap.Error(err))
		}
	}
}

func (s *PitScene) pullSnapshot() {
	select {
	case snap := <-s.session.Snapshots():
		// The tick only runs backwards when the world was rebuilt.
		if s.seen && snap.Tick < s.snap.Tick {
			s.banner.Trigger()
		}
		s.snap, s.seen = snap, true
	default:
	}
}

func (s *PitScene) pullEvents() {
	events := s.session.Events()
	if events == nil {
		return
	}
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Kind == network.EventMessage {
				s.chat = append(s.chat, e.Packet.Chat)
				if len(s.chat) > maxChatLines {
					s.chat = s.chat[len(s.chat)-maxChatLines:]
				}
			}
		default:
			return
		}
	}
}

func (s *PitScene) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{16, 18, 24, 255})

	drawBodies(screen, s.snap, s.view, float32(cfg.Viewer.BallRadius))

	mode := "offline"
	if s.session.Online() {
		mode = s.url
	}
	st := s.session.Stats()
	hud := fmt.Sprintf("%s\ntick %d  bodies %d  checksum %016x\nresets %d  stale %d  faults %d\nLMB spawn  RMB push  MMB/C swirl  SHIFT reverse  H wave  ESC leave",
		mode, s.snap.Tick, len(s.snap.Bodies), s.snap.Checksum, st.Resets, st.StaleDropped, st.Faults)
	drawHUD(screen, hud, s.chat)
	drawBanner(screen, s.banner)
}
