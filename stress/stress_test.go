// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

package stress

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/control"
	"github.com/momentics/hioload-ring/fake"
	"github.com/momentics/hioload-ring/ring"
)

func testConfig(sizes ...uint64) Config {
	cfg := DefaultConfig()
	cfg.Sizes = sizes
	cfg.Messages = 5000
	cfg.Seed = 1234
	cfg.Timeout = time.Minute
	return cfg
}

func TestRun_DeliversEveryFrame(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	mr := control.NewMetricsRegistry()

	reports, err := Run(context.Background(), testConfig(2, 7, 64, 1024), zap.New(core), WithMetrics(mr))
	require.NoError(t, err)
	require.Len(t, reports, 4)

	for i, want := range []int{2, 8, 64, 1024} {
		rep := reports[i]
		assert.Equal(t, want, rep.Capacity)
		assert.Equal(t, 5000, rep.Messages)
		assert.Equal(t, rep.Write.Bytes, rep.Read.Bytes)
		assert.Positive(t, rep.Read.Bytes)
		assert.LessOrEqual(t, rep.Write.Sizes.Max, int64(want))
		assert.LessOrEqual(t, rep.Read.Sizes.Max, int64(want))
		assert.Zero(t, rep.Write.Dropped)
		assert.Zero(t, rep.Read.Dropped)

		v, ok := mr.Get("stress." + strconv.Itoa(want) + ".bytes")
		require.True(t, ok)
		assert.Equal(t, rep.Read.Bytes, v)
		assert.Contains(t, rep.String(), "5,000 messages")
	}

	runs, ok := mr.Get("stress.runs")
	require.True(t, ok)
	assert.Equal(t, int64(4), runs)
	seed, _ := mr.Get("stress.seed")
	assert.Equal(t, uint32(1234), seed)
	_, ok = mr.Get("stress.failures")
	assert.False(t, ok)

	assert.Equal(t, 4, logs.FilterMessage("stress run started").Len())
	assert.Equal(t, 4, logs.FilterMessage("stress run finished").Len())
	assert.Equal(t, "stress", logs.All()[0].LoggerName)
}

func TestRun_ShortTransfers(t *testing.T) {
	cfg := testConfig(16)
	cfg.Backoff = BackoffConfig{Spins: 1, Yields: 1, MinSleep: time.Microsecond, MaxSleep: 10 * time.Microsecond}

	var seed int64
	factory := func(capacity uint64) (api.ByteRing, error) {
		rb, err := ring.New(capacity)
		if err != nil {
			return nil, err
		}
		return fake.NewShortRing(rb, 3, 0.2, atomic.AddInt64(&seed, 1)), nil
	}
	reports, err := Run(context.Background(), cfg, nil, WithRingFactory(factory))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.LessOrEqual(t, reports[0].Write.Sizes.Max, int64(3))
	assert.Positive(t, reports[0].Write.Blocked)
	assert.Positive(t, reports[0].Read.Blocked)
}

func TestRun_PinnedThreads(t *testing.T) {
	cfg := testConfig(256)
	cfg.Pin = true
	reports, err := Run(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, reports[0].Pinned)
}

func TestRunOne_ProbeLifetime(t *testing.T) {
	dp := control.NewDebugProbes()
	var seen atomic.Bool

	factory := func(capacity uint64) (api.ByteRing, error) {
		rb, err := ring.New(capacity)
		if err != nil {
			return nil, err
		}
		return &probingRing{ByteRing: rb, onWrite: func() {
			if st, ok := dp.DumpState()["ring.32"]; ok {
				_, isStats := st.(ring.Stats)
				seen.Store(isStats)
			}
		}, inner: rb}, nil
	}
	r, err := NewRunner(testConfig(32), nil, WithProbes(dp), WithRingFactory(factory))
	require.NoError(t, err)

	_, err = r.RunOne(context.Background(), 32, 100)
	require.NoError(t, err)
	assert.True(t, seen.Load())
	assert.Empty(t, dp.DumpState())
}

// probingRing calls onWrite before every write and exposes the inner
// ring's counters.
type probingRing struct {
	api.ByteRing
	inner   *ring.Buffer
	onWrite func()
}

func (p *probingRing) Write(b []byte) (int, error) {
	p.onWrite()
	return p.ByteRing.Write(b)
}

func (p *probingRing) Snapshot() ring.Stats { return p.inner.Snapshot() }

// corruptingRing flips one bit of the n-th written byte.
type corruptingRing struct {
	api.ByteRing
	at      int64
	written int64
}

func (c *corruptingRing) Write(p []byte) (int, error) {
	buf := append([]byte(nil), p...)
	if c.written <= c.at && c.at < c.written+int64(len(buf)) {
		buf[c.at-c.written] ^= 0x10
	}
	n, err := c.ByteRing.Write(buf)
	c.written += int64(n)
	return n, err
}

func TestRun_DetectsCorruption(t *testing.T) {
	for _, at := range []int64{0, 1, 500, 4099} {
		factory := func(capacity uint64) (api.ByteRing, error) {
			rb, err := ring.New(capacity)
			if err != nil {
				return nil, err
			}
			return &corruptingRing{ByteRing: rb, at: at}, nil
		}
		_, err := Run(context.Background(), testConfig(64), nil, WithRingFactory(factory))
		require.Error(t, err, "corruption at byte %d", at)
		msg := err.Error()
		assert.True(t,
			strings.Contains(msg, ErrChecksum.Error()) ||
				strings.Contains(msg, ErrMismatch.Error()) ||
				strings.Contains(msg, ErrNoProgress.Error()) ||
				strings.Contains(msg, "trailing bytes"),
			"unexpected error: %v", err)
	}
}

func TestRun_Canceled(t *testing.T) {
	cfg := testConfig(8)
	cfg.Messages = 1 << 30

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Run(ctx, cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, api.ErrOperationTimeout)
}

func TestRun_StalledConsumerTimesOut(t *testing.T) {
	cfg := testConfig(8)
	cfg.Timeout = 20 * time.Millisecond
	factory := func(capacity uint64) (api.ByteRing, error) {
		rb, err := ring.New(capacity)
		if err != nil {
			return nil, err
		}
		return stalledReader{rb}, nil
	}
	mr := control.NewMetricsRegistry()
	_, err := Run(context.Background(), cfg, nil, WithRingFactory(factory), WithMetrics(mr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, api.ErrOperationTimeout)

	failures, _ := mr.Get("stress.failures")
	assert.Equal(t, int64(1), failures)
	assert.Equal(t, []string{"stress.failures", "stress.runs", "stress.seed"}, mr.Keys("stress."))
}

type stalledReader struct{ api.ByteRing }

func (stalledReader) Read([]byte) (int, error) { return 0, api.ErrWouldBlock }

func TestNewRunner_InvalidConfig(t *testing.T) {
	_, err := NewRunner(Config{}, nil)
	assert.ErrorIs(t, err, ErrSizesMissing)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = Run(context.Background(), Config{}, nil)
	assert.Error(t, err)
}

func TestNewRunner_PicksSeed(t *testing.T) {
	cfg := testConfig(8)
	cfg.Seed = 0
	r, err := NewRunner(cfg, nil)
	require.NoError(t, err)
	rep, err := r.RunOne(context.Background(), 8, 50)
	require.NoError(t, err)
	assert.Equal(t, r.Seed(), rep.Seed)
}

func TestReport(t *testing.T) {
	rep := Report{Capacity: 1024, Messages: 3, Duration: 2 * time.Second, Read: Side{Bytes: 4096}}
	assert.InDelta(t, 2048.0, rep.Throughput(), 0.001)
	assert.Equal(t, int64(4096), rep.Metrics()["bytes"])
	assert.Contains(t, rep.String(), "ring 1.0 KiB")
	assert.Zero(t, Report{}.Throughput())
}

func TestRecordSize_CountsOutOfRange(t *testing.T) {
	h := newSizeHistogram()
	var dropped int64
	recordSize(h, 1, &dropped)
	recordSize(h, MaxMessageLen, &dropped)
	recordSize(h, 1<<20, &dropped)

	assert.Equal(t, int64(1), dropped)
	assert.Equal(t, int64(2), h.TotalCount())
}
