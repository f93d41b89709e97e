// Package gameserver ties the world store, the entity roster, and the
// connected player roster together: it owns the listener, the AI tick loop,
// and the player-number allocator, and is the worldstore.TileChangeSink that
// fans tile mutations out to every connected client.
// Grounded on original_source/src/server/mod.rs's SoaprunServer.
package gameserver

import (
	"container/heap"
	"context"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/entity"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/geometry"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/protocol"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/session"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/transport"
	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/worldstore"
)

// intHeap is a min-heap of available player numbers, handed out in
// ascending order so a long session sees small, stable numbers.
type intHeap []int

func (h intHeap) Len() int            { return len(h) }
func (h intHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Limits bounds connection lifecycle and movement validation; populated
// from internal/config.
type Limits struct {
	ConnectionTimeout time.Duration
	IdleTimeout       time.Duration
	Movement          session.MovementLimits
}

// Server is the live game: the world, the entity roster, every connected
// player, and the tick/accept loops driving them.
type Server struct {
	World    *worldstore.Store
	Entities []*entity.Entity
	Limits   Limits
	Log      *zap.Logger

	tickInterval      time.Duration
	rng               *rand.Rand
	rngMu             sync.Mutex
	playersWithShield atomic.Int64

	numbersMu sync.Mutex
	numbers   intHeap

	playersMu sync.RWMutex
	players   map[int]*session.Client

	listener net.Listener
}

// New builds a server with maxPlayers player-number slots (0..maxPlayers)
// and wires itself as world's tile-change sink.
func New(world *worldstore.Store, entities []*entity.Entity, limits Limits, tickInterval time.Duration, maxPlayers int, log *zap.Logger) *Server {
	nums := make(intHeap, maxPlayers)
	for i := range nums {
		nums[i] = i
	}
	heap.Init(&nums)

	s := &Server{
		World:        world,
		Entities:     entities,
		Limits:       limits,
		Log:          log,
		tickInterval: tickInterval,
		rng:          rand.New(rand.NewSource(1)),
		numbers:      nums,
		players:      make(map[int]*session.Client),
	}
	world.SetSink(s)
	return s
}

// BroadcastTileChange implements worldstore.TileChangeSink, pushing tile into
// every connected client's pending-delta cache.
func (s *Server) BroadcastTileChange(room geometry.RoomCoordinates, pos geometry.Position, tile byte) {
	s.playersMu.RLock()
	defer s.playersMu.RUnlock()
	for _, c := range s.players {
		c.CacheTileChange(room, pos, tile)
	}
}

func (s *Server) borrowPlayer() (*session.Client, bool) {
	s.numbersMu.Lock()
	if len(s.numbers) == 0 {
		s.numbersMu.Unlock()
		return nil, false
	}
	number := heap.Pop(&s.numbers).(int)
	s.numbersMu.Unlock()

	c := session.New(number, protocol.SoaprunnerColor(number%4))

	s.playersMu.Lock()
	s.players[number] = c
	s.playersMu.Unlock()
	return c, true
}

func (s *Server) returnPlayer(c *session.Client) {
	number, _ := c.Snapshot()

	s.playersMu.Lock()
	delete(s.players, number)
	s.playersMu.Unlock()

	s.numbersMu.Lock()
	heap.Push(&s.numbers, number)
	s.numbersMu.Unlock()
}

// entityLookup resolves a claimed item index back to its entity, or nil if
// out of range.
func (s *Server) entityLookup(index int) *entity.Entity {
	if index < 0 || index >= len(s.Entities) {
		return nil
	}
	return s.Entities[index]
}

// Listen binds the server's listener. Must be called before Run.
func (s *Server) Listen(address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Run drives the AI tick loop and the accept loop until ctx is cancelled,
// then stops accepting and returns once both loops have exited.
func (s *Server) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.tickLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.acceptLoop(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Server) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	tickMs := int(s.tickInterval / time.Millisecond)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshots := s.playerSnapshots()
			s.rngMu.Lock()
			entity.Tick(s.rng, s.World, s.Entities, snapshots, tickMs)
			s.rngMu.Unlock()
		}
	}
}

func (s *Server) playerSnapshots() []entity.PlayerSnapshot {
	s.playersMu.RLock()
	defer s.playersMu.RUnlock()
	out := make([]entity.PlayerSnapshot, 0, len(s.players))
	for _, c := range s.players {
		_, sp := c.Snapshot()
		out = append(out, entity.PlayerSnapshot{
			Position: sp.Position(),
			Sprite:   sp.Sprite,
			Items:    sp.Items,
		})
	}
	return out
}

func (s *Server) acceptLoop(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				s.Log.Error("accept failed", zap.Error(err))
				continue
			}
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetNoDelay(true)
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	stream, err := transport.ProbeStream(conn)
	if err != nil {
		s.Log.Debug("connection probe failed", zap.Error(err), zap.Stringer("remote", conn.RemoteAddr()))
		return
	}
	s.serve(stream)
}
