package renewip_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Travis-Britz/renewip"
)

const baseline = renewip.Address("1.2.3.4")

func newTestDetector(t *testing.T, oracle renewip.Oracle, maxAttempts int) (*renewip.Detector, clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	d := renewip.NewDetector(oracle)
	d.SetClock(fc)
	d.SetLogger(zaptest.NewLogger(t))
	d.MaxAttempts = maxAttempts
	d.Interval = 5 * time.Second
	return d, fc
}

// detect runs d in the background and advances the fake clock through exactly waits intervals.
// A detector that waits more or less often than expected makes the test hang or fail.
func detect(t *testing.T, d *renewip.Detector, fc clockwork.FakeClock, waits int) renewip.DetectionOutcome {
	t.Helper()
	type result struct {
		out renewip.DetectionOutcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := d.Detect(context.Background(), baseline)
		done <- result{out, err}
	}()
	for i := 0; i < waits; i++ {
		fc.BlockUntil(1)
		fc.Advance(d.Interval)
	}
	r := <-done
	require.NoError(t, r.err)
	return r.out
}

func TestDetectChangedAfterThreeCalls(t *testing.T) {
	oracle := newSequenceOracle("1.2.3.4", "1.2.3.4", "5.6.7.8")
	d, fc := newTestDetector(t, oracle, 20)

	out := detect(t, d, fc, 2)

	assert.Equal(t, renewip.Changed, out.Kind)
	assert.Equal(t, renewip.Address("5.6.7.8"), out.Address)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 3, oracle.Calls())
	assert.Equal(t, 10*time.Second, out.Elapsed)
}

func TestDetectExhausted(t *testing.T) {
	oracle := newSequenceOracle(repeat(baseline, 21)...)
	d, fc := newTestDetector(t, oracle, 20)

	out := detect(t, d, fc, 20)

	assert.Equal(t, renewip.Exhausted, out.Kind)
	assert.Empty(t, out.Address)
	assert.False(t, out.OracleDown)
	assert.Equal(t, 21, out.Attempts)
	assert.Equal(t, 21, oracle.Calls())
	assert.Equal(t, 20*5*time.Second, out.Elapsed)
}

func TestDetectOracleAlwaysDown(t *testing.T) {
	oracle := newSequenceOracle(unreachable)
	d, fc := newTestDetector(t, oracle, 20)

	out := detect(t, d, fc, 20)

	assert.Equal(t, renewip.Exhausted, out.Kind)
	assert.False(t, out.OracleDown, "without a consecutive failure budget the whole attempt budget is used")
	assert.Equal(t, 21, oracle.Calls())
}

func TestDetectFirstDifferingAddressWins(t *testing.T) {
	for i := 0; i <= 5; i++ {
		seq := append(repeat(baseline, i), "10.0.0.1", "10.0.0.2")
		oracle := newSequenceOracle(seq...)
		d, fc := newTestDetector(t, oracle, 5)

		out := detect(t, d, fc, i)

		require.Equal(t, renewip.Changed, out.Kind, "change at index %d", i)
		assert.Equal(t, renewip.Address("10.0.0.1"), out.Address)
		assert.Equal(t, i+1, oracle.Calls(), "no more oracle calls than needed")
		assert.NotEqual(t, baseline, out.Address)
	}
}

func TestDetectChangeAfterBudgetIsMissed(t *testing.T) {
	seq := append(repeat(baseline, 4), "10.0.0.1")
	oracle := newSequenceOracle(seq...)
	d, fc := newTestDetector(t, oracle, 3)

	out := detect(t, d, fc, 3)

	assert.Equal(t, renewip.Exhausted, out.Kind)
	assert.Equal(t, 4, oracle.Calls())
}

func TestDetectUnreachableNeverEndsEarly(t *testing.T) {
	seq := []renewip.Address{baseline, unreachable, unreachable, baseline, unreachable, "5.6.7.8"}
	oracle := newSequenceOracle(seq...)
	d, fc := newTestDetector(t, oracle, 20)

	var attempts []renewip.PollAttempt
	d.OnAttempt = func(a renewip.PollAttempt) { attempts = append(attempts, a) }

	out := detect(t, d, fc, 5)

	assert.Equal(t, renewip.Changed, out.Kind)
	assert.Equal(t, renewip.Address("5.6.7.8"), out.Address)
	assert.Equal(t, 6, out.Attempts)
	require.Len(t, attempts, 6)
	for i, a := range attempts {
		assert.Equal(t, i, a.Index)
		assert.Equal(t, time.Duration(i)*5*time.Second, a.Elapsed)
	}
	assert.False(t, attempts[1].Observation.Reachable())
	assert.True(t, attempts[3].Observation.Reachable())
}

func TestDetectConsecutiveUnreachableBudget(t *testing.T) {
	seq := []renewip.Address{baseline, unreachable, baseline, unreachable, unreachable, unreachable}
	oracle := newSequenceOracle(seq...)
	d, fc := newTestDetector(t, oracle, 20)
	d.MaxConsecutiveUnreachable = 3

	out := detect(t, d, fc, 5)

	assert.Equal(t, renewip.Exhausted, out.Kind)
	assert.True(t, out.OracleDown)
	assert.Equal(t, 6, oracle.Calls(), "a reachable answer resets the consecutive failure count")
}

func TestDetectZeroAttempts(t *testing.T) {
	oracle := newSequenceOracle(baseline)
	d, fc := newTestDetector(t, oracle, 0)

	out := detect(t, d, fc, 0)

	assert.Equal(t, renewip.Exhausted, out.Kind)
	assert.Equal(t, 1, oracle.Calls())
}

func TestDetectCancelledWhileWaiting(t *testing.T) {
	oracle := newSequenceOracle(baseline)
	d, fc := newTestDetector(t, oracle, 20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := d.Detect(ctx, baseline)
		done <- err
	}()
	fc.BlockUntil(1)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1, oracle.Calls())
}
