// Package simulation provides the thin façade SPEC_FULL.md §4.3 describes:
// an ecs.Manager plus a current-frame counter plus a per-frame command log,
// exposing the four cross-cutting operations (packetize/depacketize/hash/
// copy_into) every layer above it — TSS, controller — composes with.
package simulation

import (
	"fmt"

	"github.com/nullframe/trailsim/internal/command"
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

// CommandHandler applies one command's effect to the manager. Gameplay
// layers built on this core register a handler to turn commands into
// entity/component mutations; the core itself stays gameplay-agnostic and,
// with a nil handler, simply retains commands in the log without effect.
type CommandHandler interface {
	HandleCommand(m *ecs.Manager, frame int64, cmd command.Command) error
}

// Config bounds how far a pushed command may lag behind or lead ahead of
// the current frame, the MAX_PAST_DELAY / MAX_FUTURE_LEAD window from
// SPEC_FULL.md §4.3.
type Config struct {
	MaxPastDelay  int64
	MaxFutureLead int64
}

// DefaultConfig matches SPEC_FULL.md §6's max_command_lead_frames default;
// MaxPastDelay has no configuration-table equivalent for the bare
// Simulation (TSS supplies the real past-window bound via its trailing
// delay), so it defaults permissive.
func DefaultConfig() Config {
	return Config{MaxPastDelay: 1 << 30, MaxFutureLead: 50}
}

// Simulation is Manager + CurrentFrame + Log, matching SPEC_FULL.md §4.3
// field-for-field.
type Simulation struct {
	Manager      *ecs.Manager
	CurrentFrame int64
	Log          *command.Log

	config  Config
	handler CommandHandler
}

// New constructs a Simulation at frame 0 around m, which must already have
// every system it will ever run registered (systems are never reconstructed
// from the wire; see ecs.Manager.Depacketize).
func New(m *ecs.Manager, cfg Config, handler CommandHandler) *Simulation {
	return &Simulation{
		Manager: m,
		Log:     command.NewLog(),
		config:  cfg,
		handler: handler,
	}
}

// PushCommand inserts cmd into the per-frame log, rejecting it if its frame
// falls outside the (CurrentFrame-MaxPastDelay, CurrentFrame+MaxFutureLead]
// window.
func (s *Simulation) PushCommand(cmd command.Command) error {
	if cmd.Frame <= s.CurrentFrame-s.config.MaxPastDelay {
		return &ecs.CoreError{
			Code:     ecs.ErrCodeCommandTooOld,
			Severity: ecs.SeverityWarning,
			Message:  fmt.Sprintf("command frame %d is too old (current %d)", cmd.Frame, s.CurrentFrame),
		}
	}
	if cmd.Frame > s.CurrentFrame+s.config.MaxFutureLead {
		return &ecs.CoreError{
			Code:     ecs.ErrCodeCommandTooFuture,
			Severity: ecs.SeverityWarning,
			Message:  fmt.Sprintf("command frame %d is too far ahead (current %d)", cmd.Frame, s.CurrentFrame),
		}
	}
	s.Log.Push(cmd)
	return nil
}

// Update advances the simulation by exactly one frame: increments
// CurrentFrame, dispatches any commands scheduled for the new frame through
// the CommandHandler, then runs every system in declared order.
func (s *Simulation) Update() error {
	s.CurrentFrame++
	if s.handler != nil {
		for _, cmd := range s.Log.ForFrame(s.CurrentFrame) {
			if err := s.handler.HandleCommand(s.Manager, s.CurrentFrame, cmd); err != nil {
				return err
			}
		}
	}
	return s.Manager.Update(s.CurrentFrame)
}

// Packetize writes CurrentFrame, the manager's state, and the command log,
// matching SPEC_FULL.md §6's simulation-state wire layout.
func (s *Simulation) Packetize(b *xbuf.Buffer) {
	b.WriteI64(s.CurrentFrame)
	s.Manager.Packetize(b)
	s.Log.Packetize(b)
}

// Depacketize is the mirror of Packetize.
func (s *Simulation) Depacketize(b *xbuf.Buffer) error {
	frame, err := b.ReadI64()
	if err != nil {
		return err
	}
	if err := s.Manager.Depacketize(b); err != nil {
		return err
	}
	if err := s.Log.Depacketize(b); err != nil {
		return err
	}
	s.CurrentFrame = frame
	return nil
}

// Hash feeds CurrentFrame and the manager's hash contribution into h. The
// command log is deliberately excluded: two simulations reached by
// different command histories but equal state must hash equal, per
// SPEC_FULL.md §4.2's determinism invariant ("hash... is a pure function of
// logical state").
func (s *Simulation) Hash(h xhash.Hasher) {
	h.WriteInt64(s.CurrentFrame)
	s.Manager.Hash(h)
}

// CopyInto deep-copies this simulation's state into dst, whose Manager must
// already carry the same registered systems as s.Manager.
func (s *Simulation) CopyInto(dst *Simulation) error {
	if err := s.Manager.CopyInto(dst.Manager); err != nil {
		return err
	}
	if err := s.Log.CopyInto(dst.Log); err != nil {
		return err
	}
	dst.CurrentFrame = s.CurrentFrame
	dst.config = s.config
	dst.handler = s.handler
	return nil
}
