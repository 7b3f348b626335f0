package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gliderlabs/ssh"

	"spritesync/internal/character"
	"spritesync/internal/game"
	"spritesync/internal/maps"
	"spritesync/internal/render"
	"spritesync/internal/scene"
)

const (
	emoteText  = "♪"
	waveSheet  = "emote"
	waveClip   = "wave"
	effectStep = 120 * time.Millisecond
	effectRows = 3
)

// Config holds the SSH server settings.
type Config struct {
	Addr       string
	HostKey    string
	SnapFactor float64
	Logger     *slog.Logger
}

// Loop is the part of the game loop a session talks to.
type Loop interface {
	AddPlayer(name string) (string, game.FrameChan)
	RemovePlayer(id string)
	InputChan() chan<- game.InputEvent
	Online() int
}

// MapSource looks up maps by name.
type MapSource interface {
	GetMap(name string) *maps.Map
}

// SSHServer wraps the SSH listener and game loop integration.
type SSHServer struct {
	cfg    Config
	loop   Loop
	maps   MapSource
	sheets character.Resolver
	log    *slog.Logger
	srv    *ssh.Server
}

// NewSSHServer creates a new SSH server bound to cfg.Addr.
func NewSSHServer(cfg Config, loop Loop, m MapSource, sheets character.Resolver) (*SSHServer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &SSHServer{cfg: cfg, loop: loop, maps: m, sheets: sheets, log: cfg.Logger}
	s.srv = &ssh.Server{
		Addr:    cfg.Addr,
		Handler: s.handleSession,
	}

	// Set host key
	if err := s.srv.SetOption(ssh.HostKeyFile(cfg.HostKey)); err != nil {
		return nil, fmt.Errorf("set host key: %w", err)
	}
	return s, nil
}

// ListenAndServe accepts connections until Shutdown is called.
func (s *SSHServer) ListenAndServe() error {
	s.log.Info("SSH server listening", "addr", s.cfg.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for sessions to end.
func (s *SSHServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// session is the client side of one connection: it mirrors the frames of
// the player's map into a scene and draws it.
type session struct {
	playerID string
	scene    *scene.Scene
	log      *slog.Logger
}

func (s *SSHServer) newSession(playerID string) *session {
	log := s.log.With("player", playerID)
	return &session{
		playerID: playerID,
		log:      log,
		scene: scene.New(playerID, scene.Options{
			Character: character.Options{
				Resolver:   s.sheets,
				Effects:    render.FloatingTextFactory(effectStep, effectRows),
				SnapFactor: s.cfg.SnapFactor,
			},
			Logger: log,
		}),
	}
}

// handleLocal runs a client-side action on the player's own character.
func (ss *session) handleLocal(a game.Action) {
	me, ok := ss.scene.Viewer()
	if !ok {
		return
	}
	switch a {
	case game.ActionEmote:
		me.AddEffect(emoteText)
	case game.ActionWave:
		h := me.ShowAnimation(waveSheet, waveClip)
		go func() {
			<-h.Done()
			if err := h.Err(); err != nil {
				ss.log.Debug("wave interrupted", "err", err)
			}
		}()
	}
}

func (s *SSHServer) handleSession(sess ssh.Session) {
	// Require PTY
	ptyReq, winCh, ok := sess.Pty()
	if !ok {
		fmt.Fprintln(sess, "Error: PTY required. Use: ssh -t ...")
		return
	}

	username := sess.User()
	if username == "" {
		username = "Anonymous"
	}

	// Register with game loop (username = identity)
	playerID, frameCh := s.loop.AddPlayer(username)
	ss := s.newSession(playerID)
	ss.log.Info("player connected", "user", username)
	defer func() {
		ss.scene.Close()
		s.loop.RemovePlayer(playerID)
		ss.log.Info("player disconnected", "user", username)
	}()

	// Terminal dimensions
	termW := ptyReq.Window.Width
	termH := ptyReq.Window.Height
	var termMu sync.Mutex

	engine := render.NewEngine(termW, termH)

	// Setup terminal
	io.WriteString(sess, render.EnableAltScreen())
	io.WriteString(sess, render.HideCursor())
	io.WriteString(sess, render.ClearScreen())
	defer func() {
		io.WriteString(sess, render.ShowCursor())
		io.WriteString(sess, render.DisableAltScreen())
	}()

	inputCh := s.loop.InputChan()
	localCh := make(chan game.Action, 8)
	quitCh := make(chan struct{})

	// Goroutine: read input
	go func() {
		defer close(quitCh)
		buf := make([]byte, 64)
		for {
			n, err := sess.Read(buf)
			if err != nil {
				return
			}
			for _, action := range parseInput(buf[:n]) {
				switch action {
				case game.ActionQuit:
					return
				case game.ActionEmote, game.ActionWave:
					select {
					case localCh <- action:
					default:
					}
				default:
					select {
					case inputCh <- game.InputEvent{PlayerID: playerID, Action: action}:
					default:
					}
				}
			}
		}
	}()

	// Goroutine: handle window resizes
	go func() {
		for win := range winCh {
			termMu.Lock()
			termW = win.Width
			termH = win.Height
			termMu.Unlock()
		}
	}()

	draw := func() {
		ss.scene.Flush()

		termMu.Lock()
		w, h := termW, termH
		termMu.Unlock()

		output := engine.Render(render.View{
			Map:    s.maps.GetMap(ss.scene.Map()),
			Scene:  ss.scene,
			Online: s.loop.Online(),
			Width:  w,
			Height: h,
		})
		if len(output) > 0 {
			io.WriteString(sess, output)
		}
	}

	// Main render loop: the scene is only touched from here
	for {
		select {
		case <-quitCh:
			return
		case <-sess.Context().Done():
			return
		case a := <-localCh:
			ss.handleLocal(a)
			draw()
		case f, ok := <-frameCh:
			if !ok {
				return
			}
			ss.scene.Apply(f)
			draw()
		}
	}
}

// parseInput converts raw bytes into player actions.
// Handles WASD, arrow key escape sequences, E, F, Q, and Ctrl-C.
func parseInput(data []byte) []game.Action {
	var actions []game.Action
	i := 0
	for i < len(data) {
		// Check for escape sequences (arrow keys)
		if i+2 < len(data) && data[i] == 0x1b && data[i+1] == '[' {
			switch data[i+2] {
			case 'A':
				actions = append(actions, game.ActionUp)
			case 'B':
				actions = append(actions, game.ActionDown)
			case 'C':
				actions = append(actions, game.ActionRight)
			case 'D':
				actions = append(actions, game.ActionLeft)
			}
			i += 3
			continue
		}

		// Single byte inputs
		r, size := utf8.DecodeRune(data[i:])
		switch r {
		case 'w', 'W':
			actions = append(actions, game.ActionUp)
		case 's', 'S':
			actions = append(actions, game.ActionDown)
		case 'a', 'A':
			actions = append(actions, game.ActionLeft)
		case 'd', 'D':
			actions = append(actions, game.ActionRight)
		case 'e', 'E':
			actions = append(actions, game.ActionEmote)
		case 'f', 'F':
			actions = append(actions, game.ActionWave)
		case 'q', 'Q':
			actions = append(actions, game.ActionQuit)
		case 3: // Ctrl-C
			actions = append(actions, game.ActionQuit)
		}
		i += size
	}
	return actions
}
