// Package controller drives a tss.TSS at a fixed logical tick rate over a
// session.Session, implementing the pacing, clock-sync, and hash-check
// exchanges of SPEC_FULL.md §4.5-4.8. It is the outermost layer of the core:
// everything below it is deterministic and transport-free, everything it
// touches (wall-clock time, network delivery) is not.
package controller

import "math"

// Config holds the tunables of the pacing and synchronization algorithms.
// A host application builds one from internal/config and shares it between
// its Server and Client controllers (the Client/Server TSS delay sets
// differ, everything else is common).
type Config struct {
	// TargetTPS is the nominal simulation tick rate.
	TargetTPS int
	// TargetElapsedMS is 1000/TargetTPS, cached to avoid recomputing it
	// on every Pacer.Advance call.
	TargetElapsedMS float64
	// SyncIntervalMS is how often a Client sends a Synchronize message.
	SyncIntervalMS float64
	// HashIntervalFrames is how often (in trailing frames) a hash check
	// is computed and broadcast.
	HashIntervalFrames int64
	// LoadBufferFactor inflates a measured load into a "safe" load so a
	// speed reduction happens before a peer is actually starved.
	LoadBufferFactor float64
	// MaxFrameskipPerUpdateMS bounds how much banked catch-up time the
	// pacer drains in a single Advance call.
	MaxFrameskipPerUpdateMS float64
	// MaxCommandLeadFrames records how far into the future a command may
	// target. No code reads it; the bound PushCommand applies is
	// simulation.Config.MaxFutureLead.
	MaxCommandLeadFrames int64
	// MaxFrameDiffSamples bounds the client's clock-sync outlier filter
	// window.
	MaxFrameDiffSamples int
	// LoadSampleWindow bounds the pacer's rolling load estimate window.
	LoadSampleWindow int

	// ClientTSSDelays are the trailing delays (in frames) a Client's TSS
	// is constructed with, beyond the implicit delay-0 leading state.
	ClientTSSDelays []int64
	// ServerTSSDelaysMultiplayer are the trailing delays for a Server
	// hosting more than one player.
	ServerTSSDelaysMultiplayer []int64
	// ServerTSSDelaysSinglePlayer are the trailing delays for a Server
	// with exactly one connected player (no rollback needed: a single
	// player's own commands are never "late").
	ServerTSSDelaysSinglePlayer []int64
}

// DefaultConfig returns the tunables SPEC_FULL.md §6 names, derived from a
// 60Hz tick rate.
func DefaultConfig() Config {
	const targetTPS = 60
	targetElapsedMS := 1000.0 / float64(targetTPS)
	framesFor := func(ms float64) int64 {
		return int64(math.Ceil(ms / targetElapsedMS))
	}
	return Config{
		TargetTPS:                   targetTPS,
		TargetElapsedMS:             targetElapsedMS,
		SyncIntervalMS:              500,
		HashIntervalFrames:          framesFor(10000),
		LoadBufferFactor:            1.8,
		MaxFrameskipPerUpdateMS:     targetElapsedMS / 10,
		MaxCommandLeadFrames:        50,
		MaxFrameDiffSamples:         5,
		LoadSampleWindow:            30,
		ClientTSSDelays:             []int64{framesFor(50), framesFor(500)},
		ServerTSSDelaysMultiplayer:  []int64{framesFor(50), framesFor(250)},
		ServerTSSDelaysSinglePlayer: []int64{},
	}
}
