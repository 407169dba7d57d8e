package harvest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplers(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("samplers take a while")
	}

	for _, sampler := range []Sampler{
		&TickSampler{Interval: 100 * time.Microsecond},
		&RaceSampler{Interval: 100 * time.Microsecond},
	} {
		chunk := make([]byte, ChunkSize)
		require.NoError(t, sampler.Sample(context.Background(), chunk))
	}
}

func TestSamplersCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, sampler := range []Sampler{NewTickSampler(), NewRaceSampler()} {
		err := sampler.Sample(ctx, make([]byte, ChunkSize))
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestShared(t *testing.T) { //nolint:paralleltest // Shared instances are global.
	if testing.Short() {
		t.Skip("harvesters take a while")
	}

	tick := Shared(KindTick)
	assert.Same(t, tick, Shared(KindTick))
	race := Shared(KindRace)
	assert.NotSame(t, tick, race)

	h := NewRaceHarvester(0)
	buf := make([]byte, 8)
	_, err := h.Read(buf)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	require.NoError(t, CloseShared())
	_, err = tick.Read(buf)
	assert.ErrorIs(t, err, ErrClosed)

	// recreated after close
	fresh := Shared(KindTick)
	assert.NotSame(t, tick, fresh)
	require.NoError(t, CloseShared())
}
