// Package config loads the tunables of spec.md §6's Configuration table from
// the process environment via github.com/caarlos0/env/v11, grounded on
// louisbranch-fracturing.space's use of the same library for struct-tag-
// driven configuration. Every field carries the numeric default spec.md §6
// names, so an unset environment variable never changes observed behavior.
package config

import (
	"math"

	"github.com/caarlos0/env/v11"

	"github.com/nullframe/trailsim/internal/controller"
)

// Config mirrors spec.md §6's Configuration table, one field per recognized
// option. The two delay lists are expressed in milliseconds, exactly as
// spec.md states them ("ceil(50/target_elapsed_ms)"); ToControllerConfig
// converts them to frame counts.
type Config struct {
	TargetTPS                int     `env:"TRAILSIM_TARGET_TPS" envDefault:"60"`
	SyncIntervalMS           float64 `env:"TRAILSIM_SYNC_INTERVAL_MS" envDefault:"500"`
	HashIntervalMS           float64 `env:"TRAILSIM_HASH_INTERVAL_MS" envDefault:"10000"`
	LoadBufferFactor         float64 `env:"TRAILSIM_LOAD_BUFFER_FACTOR" envDefault:"1.8"`
	MaxCommandLeadFrames     int64   `env:"TRAILSIM_MAX_COMMAND_LEAD_FRAMES" envDefault:"50"`
	MaxFrameDiffSamples      int     `env:"TRAILSIM_MAX_FRAME_DIFF_SAMPLES" envDefault:"5"`
	LoadSampleWindow         int     `env:"TRAILSIM_LOAD_SAMPLE_WINDOW" envDefault:"30"`
	ClientDelayMS            []int64 `env:"TRAILSIM_CLIENT_DELAY_MS" envDefault:"50;500" envSeparator:";"`
	ServerMultiplayerDelayMS []int64 `env:"TRAILSIM_SERVER_MULTIPLAYER_DELAY_MS" envDefault:"50;250" envSeparator:";"`
}

// Default returns spec.md §6's defaults without touching the process
// environment. Tests and the scripting DSL construct their Config this way
// so scenario behavior never depends on the environment it happens to run in.
func Default() Config {
	return Config{
		TargetTPS:                60,
		SyncIntervalMS:           500,
		HashIntervalMS:           10000,
		LoadBufferFactor:         1.8,
		MaxCommandLeadFrames:     50,
		MaxFrameDiffSamples:      5,
		LoadSampleWindow:         30,
		ClientDelayMS:            []int64{50, 500},
		ServerMultiplayerDelayMS: []int64{50, 250},
	}
}

// Load reads Config from the process environment, starting from Default()
// so any variable left unset keeps spec.md's default rather than Go's zero
// value.
func Load() (Config, error) {
	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ToControllerConfig derives controller.Config's computed fields — target
// elapsed milliseconds, the hash-check interval in frames, the frameskip
// bound, and the TSS delay sets in frames — from c, using the exact
// formulas spec.md §6 specifies.
func (c Config) ToControllerConfig() controller.Config {
	targetElapsedMS := 1000.0 / float64(c.TargetTPS)
	framesFor := func(ms float64) int64 { return int64(math.Ceil(ms / targetElapsedMS)) }

	toFrames := func(ms []int64) []int64 {
		out := make([]int64, len(ms))
		for i, v := range ms {
			out[i] = framesFor(float64(v))
		}
		return out
	}

	return controller.Config{
		TargetTPS:                   c.TargetTPS,
		TargetElapsedMS:             targetElapsedMS,
		SyncIntervalMS:              c.SyncIntervalMS,
		HashIntervalFrames:          framesFor(c.HashIntervalMS),
		LoadBufferFactor:            c.LoadBufferFactor,
		MaxFrameskipPerUpdateMS:     targetElapsedMS / 10,
		MaxCommandLeadFrames:        c.MaxCommandLeadFrames,
		MaxFrameDiffSamples:         c.MaxFrameDiffSamples,
		LoadSampleWindow:            c.LoadSampleWindow,
		ClientTSSDelays:             toFrames(c.ClientDelayMS),
		ServerTSSDelaysMultiplayer:  toFrames(c.ServerMultiplayerDelayMS),
		ServerTSSDelaysSinglePlayer: []int64{},
	}
}
