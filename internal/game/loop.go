package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"spritesync/internal/snapshot"
)

const InputChanSize = 256

// FrameChan is the per-session channel that receives the frame for the map
// its player is on.
type FrameChan chan snapshot.Frame

// Publisher receives every per-map frame the loop produces.
type Publisher interface {
	Publish(f snapshot.Frame) error
}

// LoopOptions configures a Loop. Zero values select defaults.
type LoopOptions struct {
	TickRate  int
	Publisher Publisher
	Logger    *slog.Logger
	Seed      uint64
}

// savedState holds persisted player data for reconnecting players.
type savedState struct {
	MapName string
	X, Y    int
	Dir     snapshot.Direction
	Color   int
}

// Loop is the authoritative simulation. It owns every player and NPC and
// turns them into snapshot frames once per tick.
type Loop struct {
	world     *World
	rate      int
	timing    timing
	publisher Publisher
	log       *slog.Logger
	rng       *rand.Rand
	inputCh   chan InputEvent
	tickCount uint64

	mu         sync.RWMutex
	players    map[string]*Player
	frameChans map[string]FrameChan
	saved      map[string]savedState // keyed by username
	nextColor  int

	npcs []*NPC
}

// NewLoop creates a loop over world and spawns the events of every map.
func NewLoop(world *World, opts LoopOptions) *Loop {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	l := &Loop{
		world:      world,
		rate:       opts.TickRate,
		timing:     newTiming(opts.TickRate),
		publisher:  opts.Publisher,
		log:        opts.Logger,
		rng:        rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		inputCh:    make(chan InputEvent, InputChanSize),
		players:    make(map[string]*Player),
		frameChans: make(map[string]FrameChan),
		saved:      make(map[string]savedState),
	}
	for _, name := range world.MapNames() {
		l.npcs = append(l.npcs, spawnNPCs(world.GetMap(name))...)
	}
	return l
}

// TickRate returns the number of ticks per second.
func (l *Loop) TickRate() int { return l.rate }

// InputChan returns the shared input channel for sessions to send events.
func (l *Loop) InputChan() chan<- InputEvent {
	return l.inputCh
}

// AddPlayer registers a player using their username as identity.
// If the username was seen before, position and color are restored.
// Returns the effective player ID and the frame channel.
func (l *Loop) AddPlayer(name string) (string, FrameChan) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// If this username is already online, add a suffix
	id := name
	if _, online := l.players[id]; online {
		id = fmt.Sprintf("%s_%04d", name, time.Now().UnixNano()%10000)
	}

	player := &Player{ID: id, Name: name}
	if ss, ok := l.saved[name]; ok && l.world.GetMap(ss.MapName) != nil {
		player.MapName, player.X, player.Y = ss.MapName, ss.X, ss.Y
		player.Dir, player.Color = ss.Dir, ss.Color
	} else {
		player.MapName, player.X, player.Y = l.world.SpawnPoint()
		player.Color = l.nextColor % numPlayerColors
		l.nextColor++
	}

	l.players[id] = player
	ch := make(FrameChan, 2)
	l.frameChans[id] = ch
	l.log.Info("player joined", "id", id, "map", player.MapName)
	return id, ch
}

// RemovePlayer saves the player's state and unregisters them.
func (l *Loop) RemovePlayer(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.players[id]; ok {
		l.saved[p.Name] = savedState{MapName: p.MapName, X: p.X, Y: p.Y, Dir: p.Dir, Color: p.Color}
		delete(l.players, id)
		l.log.Info("player left", "id", id)
	}
	if ch, ok := l.frameChans[id]; ok {
		close(ch)
		delete(l.frameChans, id)
	}
}

// Player returns a copy of the player's state.
func (l *Loop) Player(id string) (Player, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Online returns the number of connected players.
func (l *Loop) Online() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.players)
}

// Run ticks the loop until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(l.rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Step()
		}
	}
}

// Step advances the simulation by one tick and distributes the frames.
func (l *Loop) Step() {
	l.mu.Lock()
	// Drain all pending input events
	for drained := false; !drained; {
		select {
		case ev := <-l.inputCh:
			l.processInput(ev)
		default:
			drained = true
		}
	}
	for _, p := range l.players {
		if p.MoveCooldown > 0 {
			p.MoveCooldown--
		}
	}
	for _, n := range l.npcs {
		n.wander(l.rng, l.world, l.timing.npcStep)
	}
	l.tickCount++
	frames := l.buildFrames()

	// Non-blocking send to each frame channel
	for id, ch := range l.frameChans {
		f, ok := frames[l.players[id].MapName]
		if !ok {
			continue
		}
		select {
		case ch <- f:
		default:
			// Drop frame for slow client
		}
	}
	l.mu.Unlock()

	if l.publisher == nil {
		return
	}
	for _, name := range l.world.MapNames() {
		f, ok := frames[name]
		if !ok {
			continue
		}
		if err := l.publisher.Publish(f); err != nil {
			l.log.Warn("publish frame", "map", name, "err", err)
		}
	}
}

// buildFrames groups every entity by map. Maps without entities still get
// an empty frame so clients see departures.
func (l *Loop) buildFrames() map[string]snapshot.Frame {
	frames := make(map[string]snapshot.Frame, len(l.world.Maps))
	add := func(mapName string, s snapshot.Snapshot) {
		f := frames[mapName]
		f.Entities = append(f.Entities, s)
		frames[mapName] = f
	}
	for _, name := range l.world.MapNames() {
		frames[name] = snapshot.Frame{Tick: l.tickCount, Map: name, Entities: []snapshot.Snapshot{}}
	}
	for _, p := range l.players {
		add(p.MapName, p.Snapshot())
	}
	for _, n := range l.npcs {
		add(n.MapName, n.Snapshot())
	}
	for name, f := range frames {
		slices.SortFunc(f.Entities, func(a, b snapshot.Snapshot) int { return strings.Compare(a.ID, b.ID) })
		frames[name] = f
	}
	return frames
}

func (l *Loop) processInput(ev InputEvent) {
	player, ok := l.players[ev.PlayerID]
	if !ok {
		return
	}
	dx, dy, dir, ok := moveDelta(ev.Action)
	if !ok || player.MoveCooldown > 0 {
		return
	}
	player.Dir = dir
	newX, newY := player.X+dx, player.Y+dy
	if !l.world.CanMoveTo(player.MapName, newX, newY) {
		return
	}
	player.X, player.Y = newX, newY
	player.MoveCooldown = l.timing.moveRepeat

	if portal := l.world.PortalAt(player.MapName, newX, newY); portal != nil {
		l.log.Debug("portal", "player", player.ID, "from", player.MapName, "to", portal.TargetMap)
		player.MapName = portal.TargetMap
		player.X, player.Y = portal.TargetX, portal.TargetY
	}
}
