package controller

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rs/zerolog"

	"github.com/nullframe/trailsim/internal/command"
	"github.com/nullframe/trailsim/internal/protocol"
	"github.com/nullframe/trailsim/internal/session"
	"github.com/nullframe/trailsim/internal/tss"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

const snapshotDumpRingSize = 8

// Server drives the authoritative tss.TSS, accepting commands from joined
// peers, rebroadcasting them, and periodically publishing a hash check so
// clients can detect divergence. It holds one session.Session per connected
// peer rather than a single aggregate session: SPEC_FULL.md's Session is a
// single addressable peer, and a server fans work out across all of them
// concurrently (see broadcast).
type Server struct {
	tss     *tss.TSS
	cfg     Config
	pacer   *Pacer
	metrics *Metrics
	log     zerolog.Logger

	mu          sync.Mutex
	peers       map[int32]session.Session
	clientLoads map[int32]float64
	cancels     map[int32]context.CancelFunc

	aggregated chan peerEvent

	adjustedSpeed   float64
	lastHashedFrame int64

	dumps   map[int64][]byte
	dumpKey []int64
}

type peerEvent struct {
	player int32
	event  session.Event
}

// NewServer constructs a Server around an already-built TSS. metrics and log
// may be the zero value (nil metrics disables instrumentation; a zero
// zerolog.Logger discards everything).
func NewServer(t *tss.TSS, cfg Config, metrics *Metrics, log zerolog.Logger) *Server {
	return &Server{
		tss:           t,
		cfg:           cfg,
		pacer:         NewPacer(cfg, SystemClock{}),
		metrics:       metrics,
		log:           log,
		peers:         make(map[int32]session.Session),
		clientLoads:   make(map[int32]float64),
		cancels:       make(map[int32]context.CancelFunc),
		aggregated:    make(chan peerEvent, 256),
		adjustedSpeed: 1,
		dumps:         make(map[int64][]byte),
	}
}

// AddPeer joins sess under playerNumber and begins forwarding its events
// into this Server's event loop. The caller owns constructing sess (e.g. one
// session.Loopback per connecting client); AddPeer only wires it in.
func (s *Server) AddPeer(ctx context.Context, playerNumber int32, sess session.Session) error {
	if err := sess.Join(ctx, playerNumber); err != nil {
		return err
	}
	pctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.peers[playerNumber] = sess
	s.clientLoads[playerNumber] = 0
	s.cancels[playerNumber] = cancel
	s.mu.Unlock()

	go s.pumpPeerEvents(pctx, playerNumber, sess)
	return nil
}

func (s *Server) pumpPeerEvents(ctx context.Context, player int32, sess session.Session) {
	for {
		select {
		case ev, ok := <-sess.Events():
			if !ok {
				return
			}
			select {
			case s.aggregated <- peerEvent{player: player, event: ev}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// RemovePeer disconnects and forgets a peer (e.g. after a transport-level
// drop the Session interface itself can't report).
func (s *Server) RemovePeer(playerNumber int32) error {
	s.mu.Lock()
	sess, ok := s.peers[playerNumber]
	if ok {
		delete(s.peers, playerNumber)
		delete(s.clientLoads, playerNumber)
		if cancel, ok := s.cancels[playerNumber]; ok {
			cancel()
			delete(s.cancels, playerNumber)
		}
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	s.adjustSpeed()
	return sess.Leave()
}

// Update drains queued peer events, advances the simulation by deltaMS worth
// of ticks, recomputes the adjusted speed, and broadcasts a hash check if
// one is due.
func (s *Server) Update(deltaMS float64) error {
	if err := s.drainEvents(); err != nil {
		return err
	}

	if _, err := s.pacer.Advance(deltaMS, s.adjustedSpeed, s.tss.Update); err != nil {
		return err
	}
	s.adjustSpeed()
	s.metrics.setLoad(s.pacer.CurrentLoad(), s.pacer.SafeLoad())

	return s.maybeBroadcastHashCheck()
}

func (s *Server) drainEvents() error {
	for {
		select {
		case pe := <-s.aggregated:
			if err := s.handlePeerEvent(pe); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Server) handlePeerEvent(pe peerEvent) error {
	switch pe.event.Kind {
	case session.EventJoined:
		// Tracked already by AddPeer; a join event from the peer's own
		// hub just echoes other peers joining, nothing to do here.
		return nil
	case session.EventLeft:
		s.mu.Lock()
		delete(s.clientLoads, pe.event.PlayerNumber)
		s.mu.Unlock()
		s.adjustSpeed()
		return nil
	case session.EventData:
		return s.handleMessage(pe.player, pe.event.Data)
	default:
		return nil
	}
}

func (s *Server) handleMessage(sender int32, data []byte) error {
	buf := xbuf.NewFromBytes(data)
	msgType, err := protocol.ReadHeader(buf)
	if err != nil {
		s.log.Warn().Int32("player", sender).Err(err).Msg("dropping malformed message")
		return nil
	}

	switch msgType {
	case protocol.MessageCommand:
		return s.handleCommand(sender, buf)
	case protocol.MessageSynchronize:
		return s.handleSynchronize(sender, buf)
	case protocol.MessageGameStateRequest:
		return s.handleGameStateRequest(sender)
	default:
		// RemoveGameObject and HashCheck are server-originated; a client
		// sending one is either buggy or malicious, so it's dropped.
		s.log.Warn().Int32("player", sender).Str("type", msgType.String()).Msg("unexpected message from client")
		return nil
	}
}

func (s *Server) handleCommand(sender int32, buf *xbuf.Buffer) error {
	cmd, err := command.Depacketize(buf)
	if err != nil {
		s.log.Warn().Int32("player", sender).Err(err).Msg("dropping unparsable command")
		return nil
	}
	if cmd.PlayerNumber != sender {
		// A real transport would disconnect the sender outright; the
		// minimal Session interface here has no per-peer kick, so the
		// command is just dropped and logged.
		s.log.Error().Int32("player", sender).Int32("claimed_player", cmd.PlayerNumber).
			Msg("command player number does not match sender identity")
		return nil
	}
	cmd.IsAuthoritative = true

	if err := s.tss.PushCommand(cmd); err != nil {
		s.log.Warn().Int32("player", sender).Err(err).Msg("rejecting out-of-window command")
		return nil
	}

	out := xbuf.New()
	protocol.WriteHeader(out, protocol.MessageCommand)
	cmd.Packetize(out)
	return s.broadcast(out.Bytes(), sender)
}

func (s *Server) handleSynchronize(sender int32, buf *xbuf.Buffer) error {
	sync, err := protocol.ReadSynchronize(buf)
	if err != nil {
		s.log.Warn().Int32("player", sender).Err(err).Msg("dropping malformed synchronize")
		return nil
	}

	s.mu.Lock()
	s.clientLoads[sender] = float64(sync.LoadOrAdjustedSpeed)
	s.mu.Unlock()
	s.adjustSpeed()

	reply := protocol.Synchronize{
		Frame1:              sync.Frame1,
		Frame2:              s.tss.CurrentFrame(),
		LoadOrAdjustedSpeed: float32(s.adjustedSpeed),
	}
	out := xbuf.New()
	protocol.WriteHeader(out, protocol.MessageSynchronize)
	reply.Packetize(out)
	return s.sendTo(sender, out.Bytes())
}

func (s *Server) handleGameStateRequest(sender int32) error {
	out := xbuf.New()
	protocol.WriteHeader(out, protocol.MessageGameStateResponse)
	protocol.GameStateResponseHeader{Hash: int32(xhash.Of(s.tss.Hash))}.Packetize(out)
	s.tss.Packetize(out)
	return s.sendTo(sender, out.Bytes())
}

func (s *Server) maybeBroadcastHashCheck() error {
	trailing := s.tss.TrailingFrame()
	if s.cfg.HashIntervalFrames <= 0 || trailing%s.cfg.HashIntervalFrames != 0 || trailing <= s.lastHashedFrame {
		return nil
	}
	s.lastHashedFrame = trailing
	h := int32(xhash.Of(s.tss.Hash))

	s.recordDump(trailing)

	out := xbuf.New()
	protocol.WriteHeader(out, protocol.MessageHashCheck)
	protocol.HashCheck{Frame: trailing, Hash: h}.Packetize(out)
	return s.broadcast(out.Bytes(), -1)
}

// recordDump caches a snapshot of the trailing state at frame in a small
// fixed-size ring, for ops-side divergence diagnosis after a hash mismatch
// report comes back from a client.
func (s *Server) recordDump(frame int64) {
	out := xbuf.New()
	s.tss.Packetize(out)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dumps[frame] = out.Bytes()
	s.dumpKey = append(s.dumpKey, frame)
	if len(s.dumpKey) > snapshotDumpRingSize {
		oldest := s.dumpKey[0]
		s.dumpKey = s.dumpKey[1:]
		delete(s.dumps, oldest)
	}
}

func (s *Server) adjustSpeed() {
	s.mu.Lock()
	worst := s.pacer.SafeLoad()
	for _, l := range s.clientLoads {
		if l > worst {
			worst = l
		}
	}
	s.mu.Unlock()

	if worst < 1.0 {
		worst = 1.0
	}
	s.adjustedSpeed = 1.0 / worst
}

func (s *Server) sendTo(player int32, data []byte) error {
	s.mu.Lock()
	peer, ok := s.peers[player]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return peer.Send(data)
}

// broadcast fans data out to every joined peer except exceptPlayer (pass -1
// to exclude none), one goroutine per peer, joined before returning.
func (s *Server) broadcast(data []byte, exceptPlayer int32) error {
	s.mu.Lock()
	targets := make([]session.Session, 0, len(s.peers))
	for player, peer := range s.peers {
		if player == exceptPlayer {
			continue
		}
		targets = append(targets, peer)
	}
	s.mu.Unlock()

	g, _ := errgroup.WithContext(context.Background())
	for _, peer := range targets {
		peer := peer
		g.Go(func() error { return peer.Send(data) })
	}
	return g.Wait()
}
