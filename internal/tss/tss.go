// Package tss implements the Trailing State Synchronization engine
// (SPEC_FULL.md §4.4): a fixed-length array of staggered Simulation
// instances, the most-delayed of which is the authoritative reference for
// hashing, with late commands absorbed by re-deriving affected states from
// that reference rather than by storing per-frame history.
package tss

import (
	"fmt"
	"sort"

	"github.com/nullframe/trailsim/internal/command"
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/simulation"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

// State is the TSS lifecycle state machine from SPEC_FULL.md §4.4.
type State int

const (
	StateReady State = iota
	StateRollingForward
	StateWaitingForSync
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateRollingForward:
		return "RollingForward"
	case StateWaitingForSync:
		return "WaitingForSync"
	case StateDisposed:
		return "Disposed"
	default:
		return "Unknown"
	}
}

// Factory builds a fresh Simulation with the same registered systems and
// command handler every other state uses, so all states stay structurally
// identical (systems are never reconstructed from the wire; see
// ecs.Manager.Depacketize).
type Factory func() *simulation.Simulation

// TSS owns N+1 Simulation instances at delays 0 (leading), Δ1, …, Δn
// (trailing) behind the leading frame. states[0] is always leading;
// states[len-1] is always trailing and authoritative for Hash.
type TSS struct {
	states []*simulation.Simulation
	delays []int64 // ascending, delays[0] == 0
	dirty  []bool

	currentFrame int64
	commandLog   *command.Log
	state        State
}

// New constructs a TSS whose trailing delays (Δ1 … Δn, ascending, all > 0)
// are trailingDelays. An empty trailingDelays yields a single-player TSS
// with only a leading simulation, which is also, trivially, the trailing
// one (SPEC_FULL.md §6's server_tss_delays for single-player is `[]`).
func New(trailingDelays []int64, newSim Factory) (*TSS, error) {
	for i := 1; i < len(trailingDelays); i++ {
		if trailingDelays[i] <= trailingDelays[i-1] {
			return nil, fmt.Errorf("tss: trailing delays must be strictly ascending, got %v", trailingDelays)
		}
	}
	if len(trailingDelays) > 0 && trailingDelays[0] <= 0 {
		return nil, fmt.Errorf("tss: trailing delays must be positive, got %v", trailingDelays)
	}

	delays := append([]int64{0}, trailingDelays...)
	states := make([]*simulation.Simulation, len(delays))
	for i := range delays {
		states[i] = newSim()
	}

	return &TSS{
		states:     states,
		delays:     delays,
		dirty:      make([]bool, len(delays)),
		commandLog: command.NewLog(),
		state:      StateReady,
	}, nil
}

func (t *TSS) leading() *simulation.Simulation  { return t.states[0] }
func (t *TSS) trailing() *simulation.Simulation { return t.states[len(t.states)-1] }

// CurrentFrame returns the leading simulation's frame.
func (t *TSS) CurrentFrame() int64 { return t.currentFrame }

// TrailingFrame returns the authoritative (most-delayed) simulation's frame.
func (t *TSS) TrailingFrame() int64 { return t.trailing().CurrentFrame }

// State returns the current lifecycle state.
func (t *TSS) State() State { return t.state }

// WaitingForSync reports whether updates are currently suppressed pending a
// full snapshot (Depacketize).
func (t *TSS) WaitingForSync() bool { return t.state == StateWaitingForSync }

// errCommandTooOld builds the error PushCommand returns when a command targets
// a frame at or before the trailing frame — SPEC_FULL.md §4.4's "dropped" edge
// case. Whether this invalidates the TSS is a policy decision left to the
// caller: clients invalidate on this error, servers do not (§4.4).
func errCommandTooOld(frame, trailingFrame int64) error {
	return &ecs.CoreError{
		Code:     ecs.ErrCodeCommandTooOld,
		Severity: ecs.SeverityWarning,
		Message:  fmt.Sprintf("command frame %d at or before trailing frame %d", frame, trailingFrame),
	}
}

// errInvalidated builds the error PushCommand returns while the TSS is waiting for a
// full external resync (or has been disposed): no frame window applies in
// that state, so it is reported distinctly from errCommandTooOld's
// stale-frame rejection — a caller needs to tell "dropped as stale" apart
// from "rejected because resyncing" (SPEC_FULL.md §7).
func errInvalidated() error {
	return &ecs.CoreError{
		Code:     ecs.ErrCodeSimulationInvalid,
		Severity: ecs.SeverityWarning,
		Message:  "tss is waiting for a full resync",
	}
}

// PushCommand appends c to the retained command log and, for every state
// that has not yet advanced past c.Frame, schedules it directly; states
// that have already advanced past c.Frame are marked dirty so the next
// Update call re-derives them from the trailing (authoritative) state
// before they continue advancing.
func (t *TSS) PushCommand(c command.Command) error {
	if t.state == StateDisposed || t.state == StateWaitingForSync {
		return errInvalidated()
	}
	trailingFrame := t.TrailingFrame()
	if c.Frame <= trailingFrame {
		return errCommandTooOld(c.Frame, trailingFrame)
	}

	dirty := make([]bool, len(t.states))
	for i, s := range t.states {
		if c.Frame > s.CurrentFrame {
			if err := s.PushCommand(c); err != nil {
				return err
			}
			continue
		}
		dirty[i] = true
	}

	// Only retained once every state above has accepted or deferred the
	// command: a per-state rejection (e.g. a simulation's own future-lead
	// bound) must leave no trace in the TSS-level log, or the rejected
	// command would still be replayed into predicted states by the dirty
	// resim in Update and shipped in the snapshot delta by Packetize.
	t.commandLog.Push(c)
	for i, d := range dirty {
		if d {
			t.dirty[i] = true
			t.state = StateRollingForward
		}
	}
	return nil
}

// Update advances every state by exactly one delay-adjusted frame. Dirty
// states are first re-derived from the trailing simulation by copying it
// and replaying the retained delta commands up to the dirty state's own
// target frame, then fast-forwarded the rest of the way; clean states
// simply advance. States are processed trailing-to-leading so a leading
// state's resync always has an already-correct trailing reference to copy
// from.
func (t *TSS) Update() error {
	if t.state == StateWaitingForSync || t.state == StateDisposed {
		return nil
	}

	t.currentFrame++
	last := len(t.states) - 1

	for i := last; i >= 0; i-- {
		target := t.currentFrame - t.delays[i]
		if t.dirty[i] && i != last {
			trailingFrame := t.states[last].CurrentFrame
			if err := t.states[last].CopyInto(t.states[i]); err != nil {
				return err
			}
			for _, cmd := range t.commandLog.CommandsInRange(trailingFrame, target) {
				if err := t.states[i].PushCommand(cmd); err != nil {
					return err
				}
			}
		}
		for t.states[i].CurrentFrame < target {
			if err := t.states[i].Update(); err != nil {
				return err
			}
		}
		t.dirty[i] = false
	}

	t.commandLog.Trim(t.TrailingFrame())
	t.state = StateReady
	return nil
}

// Invalidate marks the TSS as requiring a full external resync. Further
// Update and PushCommand calls are no-ops (PushCommand reports
// simulation-invalidated) until Depacketize re-seeds state from a snapshot.
func (t *TSS) Invalidate() {
	if t.state != StateDisposed {
		t.state = StateWaitingForSync
	}
}

// Dispose permanently retires the TSS.
func (t *TSS) Dispose() { t.state = StateDisposed }

// Hash delegates to the trailing (authoritative) simulation.
func (t *TSS) Hash(h xhash.Hasher) { t.trailing().Hash(h) }

// Packetize writes the SPEC_FULL.md §6 snapshot layout: current_frame,
// trailing_frame, the delay set, the trailing simulation's full state, and
// the retained delta commands needed to replay forward to the leading frame.
func (t *TSS) Packetize(b *xbuf.Buffer) {
	b.WriteI64(t.currentFrame)
	b.WriteI64(t.TrailingFrame())
	b.WriteU32(uint32(len(t.delays)))
	for _, d := range t.delays {
		b.WriteU32(uint32(d))
	}
	t.trailing().Packetize(b)

	delta := t.commandLog.CommandsInRange(t.TrailingFrame(), t.currentFrame)
	b.WriteU32(uint32(len(delta)))
	for _, c := range delta {
		c.Packetize(b)
	}
}

// Depacketize reseeds the entire TSS from a snapshot written by Packetize:
// it reloads the trailing simulation directly, then reconstructs every
// other state by copying the trailing simulation and replaying the
// snapshot's delta commands forward to each state's own target frame.
// On success the TSS returns to StateReady.
func (t *TSS) Depacketize(b *xbuf.Buffer) error {
	currentFrame, err := b.ReadI64()
	if err != nil {
		return err
	}
	trailingFrame, err := b.ReadI64()
	if err != nil {
		return err
	}
	delaysCount, err := b.ReadU32()
	if err != nil {
		return err
	}
	if int(delaysCount) != len(t.delays) {
		return fmt.Errorf("tss: snapshot has %d delays, expected %d", delaysCount, len(t.delays))
	}
	delays := make([]int64, delaysCount)
	for i := range delays {
		d, err := b.ReadU32()
		if err != nil {
			return err
		}
		delays[i] = int64(d)
	}
	if !sort.SliceIsSorted(delays, func(i, j int) bool { return delays[i] < delays[j] }) {
		return fmt.Errorf("tss: snapshot delays %v are not ascending", delays)
	}

	last := len(t.states) - 1
	if err := t.states[last].Depacketize(b); err != nil {
		return err
	}
	if t.states[last].CurrentFrame != trailingFrame {
		return fmt.Errorf("tss: snapshot trailing frame %d does not match decoded simulation frame %d",
			trailingFrame, t.states[last].CurrentFrame)
	}

	deltaCount, err := b.ReadU32()
	if err != nil {
		return err
	}
	t.commandLog.Clear()
	delta := make([]command.Command, deltaCount)
	for i := range delta {
		c, err := command.Depacketize(b)
		if err != nil {
			return err
		}
		delta[i] = c
		t.commandLog.Push(c)
	}

	for i := 0; i < last; i++ {
		if err := t.states[last].CopyInto(t.states[i]); err != nil {
			return err
		}
		target := currentFrame - delays[i]
		for _, c := range delta {
			if c.Frame <= t.states[i].CurrentFrame || c.Frame > target {
				continue
			}
			if err := t.states[i].PushCommand(c); err != nil {
				return err
			}
		}
		for t.states[i].CurrentFrame < target {
			if err := t.states[i].Update(); err != nil {
				return err
			}
		}
		t.dirty[i] = false
	}

	t.currentFrame = currentFrame
	t.delays = delays
	t.dirty[last] = false
	t.state = StateReady
	return nil
}
