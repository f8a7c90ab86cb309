// Command lockstepd is a local demonstration of the TSS/ECS core: one
// authoritative Server plus a handful of Clients, linked over in-memory
// session.Pipe connections, ticking a shared deterministic simulation and
// converging on identical trailing-state hashes. It stands in for the two
// separate daemon binaries a deployed system would have (server process,
// client process talking over a real transport) — that transport is
// explicitly out of this core's scope, so the demo links both sides
// in-process instead.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/nullframe/trailsim/internal/config"
	"github.com/nullframe/trailsim/internal/controller"
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/ecs/components"
	"github.com/nullframe/trailsim/internal/ecs/systems"
	"github.com/nullframe/trailsim/internal/scripting"
	"github.com/nullframe/trailsim/internal/session"
	"github.com/nullframe/trailsim/internal/simulation"
	"github.com/nullframe/trailsim/internal/tss"
	"github.com/nullframe/trailsim/internal/xhash"
)

const demoPlayerCount = 2

// newSim builds a fresh Simulation seeded with one entity per demo player,
// each moving at a distinct fixed velocity. Every TSS trailing slot and
// every connected Client calls this same factory, so all of them start from
// byte-identical state per SPEC_FULL.md §4.2's determinism invariant.
func newSim() *simulation.Simulation {
	m := ecs.NewManager()
	m.AddSystem(systems.NewTranslationSystem())
	for p := int32(1); p <= demoPlayerCount; p++ {
		e := m.AddEntity()
		if _, err := m.AddComponent(e, components.NewPosition(0, 0)); err != nil {
			panic(err)
		}
		if _, err := m.AddComponent(e, components.NewVelocity(int64(p), 0)); err != nil {
			panic(err)
		}
	}
	return simulation.New(m, simulation.DefaultConfig(), scripting.NudgeHandler{})
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	ctrlCfg := cfg.ToControllerConfig()

	reg := prometheus.NewRegistry()

	serverTSS, err := tss.New(ctrlCfg.ServerTSSDelaysMultiplayer, newSim)
	if err != nil {
		log.Fatal().Err(err).Msg("build server TSS")
	}
	server := controller.NewServer(serverTSS, ctrlCfg, controller.NewMetrics(reg, "server"),
		log.With().Str("role", "server").Logger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	clients := make([]*controller.Client, 0, demoPlayerCount)
	for p := int32(1); p <= demoPlayerCount; p++ {
		clientTSS, err := tss.New(ctrlCfg.ClientTSSDelays, newSim)
		if err != nil {
			log.Fatal().Err(err).Msg("build client TSS")
		}
		metrics := controller.NewMetrics(reg, fmt.Sprintf("client%d", p))
		clientLog := log.With().Str("role", "client").Int32("player", p).Logger()
		client := controller.NewClient(clientTSS, ctrlCfg, metrics, clientLog)

		serverSide, clientSide := session.NewPipe()
		if err := server.AddPeer(ctx, p, serverSide); err != nil {
			log.Fatal().Err(err).Msg("add peer")
		}
		if err := client.Connect(ctx, p, clientSide); err != nil {
			log.Fatal().Err(err).Msg("client connect")
		}
		clients = append(clients, client)
	}

	run(ctx, log, ctrlCfg, server, serverTSS, clients)
}

// run drives the fixed-tick loop: one Server.Update and every Client.Update
// per tick, a single mid-run command to exercise the late-command/rollback
// path, and a periodic trailing-hash log line so convergence is visible
// without attaching a debugger.
func run(ctx context.Context, log zerolog.Logger, cfg controller.Config, server *controller.Server, serverTSS *tss.TSS, clients []*controller.Client) {
	ticker := time.NewTicker(time.Duration(cfg.TargetElapsedMS * float64(time.Millisecond)))
	defer ticker.Stop()

	const nudgeAtFrame = 120
	var frame int64

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return
		case <-ticker.C:
			frame++
			if err := server.Update(cfg.TargetElapsedMS); err != nil {
				log.Error().Err(err).Msg("server update")
			}
			for i, c := range clients {
				if err := c.Update(cfg.TargetElapsedMS); err != nil {
					log.Error().Err(err).Msg("client update")
				}
				if frame == nudgeAtFrame && i == 0 {
					if err := c.PushLocalCommand(scripting.NewNudgeCommand(1, 25, 0)); err != nil {
						log.Warn().Err(err).Msg("push demo command")
					}
				}
			}
			if cfg.HashIntervalFrames > 0 && frame%cfg.HashIntervalFrames == 0 {
				log.Info().Int64("frame", frame).Uint64("server_hash", xhash.Of(serverTSS.Hash)).
					Msg("trailing state hash")
			}
		}
	}
}
