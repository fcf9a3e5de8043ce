package renewip

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 20
	DefaultInterval    = 5 * time.Second
)

// Detector polls an Oracle until the observed address differs from a baseline.
//
// The zero value is not usable; construct it with NewDetector.
type Detector struct {
	oracle Oracle
	clock  clockwork.Clock
	logger *zap.Logger

	// MaxAttempts is the number of retries after the first observation.
	// Detection gives up after MaxAttempts+1 oracle calls.
	MaxAttempts int
	// Interval is the fixed wait between two observations. There is no backoff.
	Interval time.Duration
	// MaxConsecutiveUnreachable stops detection early once the oracle has failed this many times in a row.
	// Zero disables the check, so a permanently broken oracle uses up the whole attempt budget.
	MaxConsecutiveUnreachable int
	// OnAttempt, if set, is called after every observation.
	OnAttempt func(PollAttempt)
}

// NewDetector returns a Detector with the default budget of 20 retries spaced 5 seconds apart.
func NewDetector(oracle Oracle) *Detector {
	return &Detector{
		oracle:      oracle,
		clock:       clockwork.NewRealClock(),
		logger:      zap.NewNop(),
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
	}
}

// SetClock replaces the clock used for waiting between attempts.
func (d *Detector) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	d.clock = c
}

func (d *Detector) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	d.logger = l
}

// Detect blocks until the oracle reports an address other than baseline,
// or until the attempt budget is used up.
//
// An unreachable oracle counts as "unchanged": it advances the attempt counter and nothing else.
// The only error returned is ctx.Err(), when the caller cancels while detection is in progress.
func (d *Detector) Detect(ctx context.Context, baseline Address) (DetectionOutcome, error) {
	var (
		attempt     int
		elapsed     time.Duration
		unreachable int
	)
	for {
		obs := d.oracle.Observe(ctx)
		if err := ctx.Err(); err != nil {
			return DetectionOutcome{}, err
		}
		if d.OnAttempt != nil {
			d.OnAttempt(PollAttempt{Index: attempt, Observation: obs, Elapsed: elapsed})
		}

		if obs.Reachable() {
			unreachable = 0
			if obs.Address != baseline {
				d.logger.Info("public IP changed",
					zap.String("baseline", baseline.String()),
					zap.String("address", obs.Address.String()),
					zap.Int("attempts", attempt+1),
					zap.Duration("elapsed", elapsed))
				return DetectionOutcome{Kind: Changed, Address: obs.Address, Attempts: attempt + 1, Elapsed: elapsed}, nil
			}
		} else {
			unreachable++
			d.logger.Debug("observation failed, treating as unchanged",
				zap.Int("attempt", attempt), zap.Int("consecutive", unreachable), zap.Error(obs.Cause))
		}

		attempt++
		if attempt > d.MaxAttempts {
			d.logger.Info("attempt budget exhausted", zap.Int("attempts", attempt), zap.Duration("elapsed", elapsed))
			return DetectionOutcome{Kind: Exhausted, Attempts: attempt, Elapsed: elapsed}, nil
		}
		if d.MaxConsecutiveUnreachable > 0 && unreachable >= d.MaxConsecutiveUnreachable {
			d.logger.Warn("IP oracle looks permanently down, giving up", zap.Int("consecutive", unreachable))
			return DetectionOutcome{Kind: Exhausted, Attempts: attempt, Elapsed: elapsed, OracleDown: true}, nil
		}

		select {
		case <-ctx.Done():
			return DetectionOutcome{}, ctx.Err()
		case <-d.clock.After(d.Interval):
			elapsed += d.Interval
		}
	}
}
