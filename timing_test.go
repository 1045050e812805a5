package pocketkit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfine/pocketkit"
)

var errBoom = errors.New("boom")

func compute(a, b int) int {
	return a + b
}

func failing(n int) (int, error) {
	return 0, errBoom
}

func asyncCompute(ctx context.Context, a, b int) (int, error) {
	select {
	case <-time.After(20 * time.Millisecond):
		return a + b, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := pocketkit.Logger()
	buf := &bytes.Buffer{}
	pocketkit.SetLogger(zerolog.New(buf))
	t.Cleanup(func() { pocketkit.SetLogger(prev) })
	return buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestTimed2_PreservesResultAndLogsOnce(t *testing.T) {
	buf := captureLogs(t)

	timed := pocketkit.Timed2(compute)
	assert.Equal(t, 3, timed(1, 2))

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0]["func"], "compute")
	assert.GreaterOrEqual(t, lines[0]["elapsed"].(float64), 0.0)
	assert.Contains(t, lines[0]["message"], "executed in")
}

func TestTimed2_OneLinePerCall(t *testing.T) {
	buf := captureLogs(t)

	timed := pocketkit.Timed2(compute)
	timed(1, 2)
	timed(3, 4)

	assert.Len(t, logLines(t, buf), 2)
}

func TestTimedE_PropagatesError(t *testing.T) {
	buf := captureLogs(t)

	timed := pocketkit.TimedE(failing)
	_, err := timed(7)
	assert.ErrorIs(t, err, errBoom)

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["level"])
	assert.NotContains(t, lines[0], "elapsed")
}

func TestTimedCtx2_MeasuresSuspendedTime(t *testing.T) {
	captureLogs(t)

	var observed time.Duration
	timed := pocketkit.TimedCtx2(asyncCompute, func(d time.Duration) { observed = d })

	result, err := timed(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, result)
	assert.GreaterOrEqual(t, observed, 20*time.Millisecond)
}

func TestTimedCtx2_CancellationPropagates(t *testing.T) {
	captureLogs(t)

	recorded := false
	timed := pocketkit.TimedCtx2(asyncCompute, func(time.Duration) { recorded = true })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := timed(ctx, 1, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, recorded)
}

func TestTimed_RecorderSeesDuration(t *testing.T) {
	captureLogs(t)

	var durations []time.Duration
	double := pocketkit.Timed(func(n int) int { return n * 2 }, func(d time.Duration) {
		durations = append(durations, d)
	})

	assert.Equal(t, 8, double(4))
	require.Len(t, durations, 1)
	assert.GreaterOrEqual(t, durations[0], time.Duration(0))
}

func TestTimer_StopLogsElapsed(t *testing.T) {
	buf := captureLogs(t)

	timer := pocketkit.StartTimer("work")
	time.Sleep(5 * time.Millisecond)
	elapsed := timer.Stop()

	assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "work", lines[0]["func"])
}
