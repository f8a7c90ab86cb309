package controller

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nullframe/trailsim/internal/protocol"
)

// Covers SPEC_FULL.md §8's E2E-F: after a Synchronize round-trip reports the
// client trailing the server, the client's current frame ends up within one
// frame of the server's, without waiting for many subsequent ticks.

func TestClientCatchUpAdvancesLocalFrame(t *testing.T) {
	clientTSS := buildControllerTSS(t, []int64{5})
	client := NewClient(clientTSS, DefaultConfig(), nil, zerolog.Nop())

	start := clientTSS.CurrentFrame()
	client.catchUp(7)
	require.Equal(t, start+7, clientTSS.CurrentFrame())
}

func TestClientSynchronizeReplyClosesFrameGapWhenNotOutlier(t *testing.T) {
	cfg := newControllerTestConfig()
	clientTSS := buildControllerTSS(t, []int64{5})
	client := NewClient(clientTSS, cfg, nil, zerolog.Nop())

	// Warm the outlier filter with a noisy history so a real sample isn't
	// rejected outright for lack of any stddev to compare against.
	client.frameDiffs.add(4)
	client.frameDiffs.add(6)

	serverFrame := clientTSS.CurrentFrame() + 5
	sync := protocol.Synchronize{
		Frame1:              clientTSS.CurrentFrame(),
		Frame2:              serverFrame,
		LoadOrAdjustedSpeed: 1,
	}

	client.handleSynchronizeReply(sync)

	require.InDelta(t, float64(serverFrame), float64(clientTSS.CurrentFrame()), 1,
		"a single non-outlier Synchronize reply must close most of the reported frame gap")
}

func TestClientSynchronizeReplyIgnoresOutlierSample(t *testing.T) {
	cfg := newControllerTestConfig()
	clientTSS := buildControllerTSS(t, []int64{5})
	client := NewClient(clientTSS, cfg, nil, zerolog.Nop())

	// A tight recent history (diffs of 1) makes a sudden 500-frame jump
	// read as a one-off outlier rather than genuine drift.
	client.frameDiffs.add(1)
	client.frameDiffs.add(1)
	client.frameDiffs.add(1)

	start := clientTSS.CurrentFrame()
	sync := protocol.Synchronize{
		Frame1:              clientTSS.CurrentFrame(),
		Frame2:              clientTSS.CurrentFrame() + 500,
		LoadOrAdjustedSpeed: 1,
	}
	client.handleSynchronizeReply(sync)

	require.Equal(t, start, clientTSS.CurrentFrame(), "an outlier sample must not move the local clock")
}
