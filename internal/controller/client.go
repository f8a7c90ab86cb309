package controller

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/nullframe/trailsim/internal/command"
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/protocol"
	"github.com/nullframe/trailsim/internal/session"
	"github.com/nullframe/trailsim/internal/tss"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

// Client drives a tss.TSS on behalf of one player against a single server
// Session, per SPEC_FULL.md §4.7: it paces local ticks, periodically
// exchanges Synchronize messages to track the server's clock, cross-checks
// hash reports, and requests a fresh snapshot whenever its TSS is
// invalidated by divergence.
type Client struct {
	tss     *tss.TSS
	cfg     Config
	pacer   *Pacer
	clock   Clock
	metrics *Metrics
	log     zerolog.Logger

	sess         session.Session
	playerNumber int32
	connected    bool

	adjustedSpeed      float64
	lastSyncSentMS     float64
	frameDiffs         *frameDiffRing
	waitingForSnapshot bool

	serverHashes map[int64]int32
	localHashes  map[int64]int32
}

// NewClient constructs a Client around an already-built TSS.
func NewClient(t *tss.TSS, cfg Config, metrics *Metrics, log zerolog.Logger) *Client {
	clock := Clock(SystemClock{})
	return &Client{
		tss:           t,
		cfg:           cfg,
		pacer:         NewPacer(cfg, clock),
		clock:         clock,
		metrics:       metrics,
		log:           log,
		adjustedSpeed: 1,
		frameDiffs:    newFrameDiffRing(cfg.MaxFrameDiffSamples),
		serverHashes:  make(map[int64]int32),
		localHashes:   make(map[int64]int32),
	}
}

// Connect joins sess under playerNumber and begins accepting server
// messages. The caller is responsible for constructing sess (e.g. a
// session.Loopback peer, or a real transport's Session implementation).
func (c *Client) Connect(ctx context.Context, playerNumber int32, sess session.Session) error {
	if err := sess.Join(ctx, playerNumber); err != nil {
		return err
	}
	c.sess = sess
	c.playerNumber = playerNumber
	c.connected = true
	c.lastSyncSentMS = c.clock.NowMS()
	return nil
}

// Disconnect leaves the session. The Client is inert afterward.
func (c *Client) Disconnect() error {
	if !c.connected {
		return nil
	}
	c.connected = false
	return c.sess.Leave()
}

// PushLocalCommand stamps a locally-originated command for the next leading
// frame, applies it to the local TSS immediately, and forwards it to the
// server for authoritative rebroadcast.
func (c *Client) PushLocalCommand(payload command.Payload) error {
	if !c.connected {
		return ErrNotConnected
	}
	cmd := command.Command{
		PlayerNumber:    c.playerNumber,
		Frame:           c.tss.CurrentFrame() + 1,
		IsAuthoritative: false,
		Payload:         payload,
	}
	if err := c.tss.PushCommand(cmd); err != nil {
		return err
	}

	out := xbuf.New()
	protocol.WriteHeader(out, protocol.MessageCommand)
	cmd.Packetize(out)
	return c.sess.Send(out.Bytes())
}

// Update drains queued server events, advances the local TSS by deltaMS
// worth of ticks (unless waiting on a fresh snapshot), maintains the
// clock-sync exchange, and cross-checks hash reports.
func (c *Client) Update(deltaMS float64) error {
	if !c.connected {
		return ErrNotConnected
	}
	if err := c.drainEvents(); err != nil {
		return err
	}

	if c.tss.WaitingForSync() {
		if !c.waitingForSnapshot {
			if err := c.requestGameState(); err != nil {
				return err
			}
		}
		return nil
	}
	c.waitingForSnapshot = false

	if _, err := c.pacer.Advance(deltaMS, c.adjustedSpeed, c.tss.Update); err != nil {
		return err
	}
	c.metrics.setLoad(c.pacer.CurrentLoad(), c.pacer.SafeLoad())

	c.checkHash()

	c.lastSyncSentMS += deltaMS
	if c.lastSyncSentMS >= c.cfg.SyncIntervalMS {
		c.lastSyncSentMS = 0
		if err := c.sendSynchronize(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) drainEvents() error {
	for {
		select {
		case ev, ok := <-c.sess.Events():
			if !ok {
				c.connected = false
				return nil
			}
			if err := c.handleEvent(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (c *Client) handleEvent(ev session.Event) error {
	switch ev.Kind {
	case session.EventData:
		return c.handleMessage(ev.Data)
	default:
		return nil
	}
}

func (c *Client) handleMessage(data []byte) error {
	buf := xbuf.NewFromBytes(data)
	msgType, err := protocol.ReadHeader(buf)
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping malformed server message")
		return nil
	}

	switch msgType {
	case protocol.MessageCommand:
		cmd, err := command.Depacketize(buf)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping unparsable command")
			return nil
		}
		if err := c.tss.PushCommand(cmd); err != nil {
			var ce *ecs.CoreError
			if errors.As(err, &ce) && ce.Code == ecs.ErrCodeCommandTooOld {
				c.log.Warn().Err(err).Msg("command behind trailing frame; invalidating")
				c.tss.Invalidate()
				return nil
			}
			return err
		}
		return nil
	case protocol.MessageSynchronize:
		sync, err := protocol.ReadSynchronize(buf)
		if err != nil {
			return nil
		}
		c.handleSynchronizeReply(sync)
		return nil
	case protocol.MessageHashCheck:
		hc, err := protocol.ReadHashCheck(buf)
		if err != nil {
			return nil
		}
		return c.handleHashCheck(hc)
	case protocol.MessageGameStateResponse:
		return c.handleGameStateResponse(buf)
	case protocol.MessageRemoveGameObject:
		// The message is parsed and otherwise ignored: the client removes
		// no entity on receipt.
		_, err := protocol.ReadRemoveGameObject(buf)
		return err
	default:
		return nil
	}
}

func (c *Client) sendSynchronize() error {
	out := xbuf.New()
	protocol.WriteHeader(out, protocol.MessageSynchronize)
	protocol.Synchronize{
		Frame1:              c.tss.CurrentFrame(),
		Frame2:              0,
		LoadOrAdjustedSpeed: float32(c.pacer.SafeLoad()),
	}.Packetize(out)
	return c.sess.Send(out.Bytes())
}

// handleSynchronizeReply estimates round-trip latency from the gap between
// sending and receiving, derives the server's current frame adjusted for
// half that latency, and nudges the local clock toward it only if the
// sample isn't a one-off outlier against recent samples.
func (c *Client) handleSynchronizeReply(sync protocol.Synchronize) {
	c.adjustedSpeed = float64(sync.LoadOrAdjustedSpeed)

	localNow := c.tss.CurrentFrame()
	latencyFrames := float64(localNow-sync.Frame1) / 2
	diff := float64(sync.Frame2) - float64(localNow) + latencyFrames/2

	if c.frameDiffs.isOutlier(diff) {
		c.frameDiffs.add(diff)
		return
	}
	c.frameDiffs.add(diff)
	c.metrics.setFramesBehind(diff)

	if diff > 1 && diff < c.frameDiffs.median()+c.frameDiffs.stddev() {
		c.catchUp(int(diff))
	}
	// diff < -1: the local clock is ahead of the server's. The TSS only
	// ever moves forward (there is no rewind primitive, SPEC_FULL.md §4.4),
	// so this side of the drift self-corrects by simply ticking at the
	// server-adjusted speed until the server catches up.
}

// catchUp advances the TSS by n extra frames outside the normal pacer
// cadence, absorbing a Synchronize-reported lag in one shot rather than
// over many subsequent ticks.
func (c *Client) catchUp(n int) {
	for i := 0; i < n; i++ {
		if err := c.tss.Update(); err != nil {
			c.log.Warn().Err(err).Msg("clock-sync catch-up tick failed")
			return
		}
	}
}

func (c *Client) checkHash() {
	trailing := c.tss.TrailingFrame()
	if c.cfg.HashIntervalFrames <= 0 || trailing%c.cfg.HashIntervalFrames != 0 {
		return
	}
	h := int32(xhash.Of(c.tss.Hash))
	c.localHashes[trailing] = h
	if serverHash, ok := c.serverHashes[trailing]; ok {
		c.compareHash(trailing, h, serverHash)
	}
}

func (c *Client) handleHashCheck(hc protocol.HashCheck) error {
	c.serverHashes[hc.Frame] = hc.Hash
	if localHash, ok := c.localHashes[hc.Frame]; ok {
		c.compareHash(hc.Frame, localHash, hc.Hash)
	}
	return nil
}

func (c *Client) compareHash(frame int64, local, remote int32) {
	if local == remote {
		return
	}
	c.metrics.incHashMismatch()
	c.log.Warn().Int64("frame", frame).Int32("local_hash", local).Int32("server_hash", remote).
		Msg("hash mismatch detected, invalidating trailing state")
	c.tss.Invalidate()
}

func (c *Client) requestGameState() error {
	c.waitingForSnapshot = true
	out := xbuf.New()
	protocol.WriteHeader(out, protocol.MessageGameStateRequest)
	return c.sess.Send(out.Bytes())
}

func (c *Client) handleGameStateResponse(buf *xbuf.Buffer) error {
	header, err := protocol.ReadGameStateResponseHeader(buf)
	if err != nil {
		return err
	}

	if err := c.tss.Depacketize(buf); err != nil {
		return err
	}
	if int32(xhash.Of(c.tss.Hash)) != header.Hash {
		// The decoded state is unsafe to run on: SPEC_FULL.md §7 mandates
		// self-termination here, not a retry — Depacketize already moved
		// the TSS back to StateReady, so the client must leave on its own
		// rather than keep ticking on state the server itself flagged as
		// divergent.
		if derr := c.Disconnect(); derr != nil {
			c.log.Warn().Err(derr).Msg("error leaving session after snapshot hash mismatch")
		}
		return ErrSnapshotHashMismatch
	}

	c.localHashes = make(map[int64]int32)
	c.serverHashes = make(map[int64]int32)
	c.waitingForSnapshot = false
	return nil
}
