package renewip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// New creates a Session around an oracle and a trigger.
//
// Options:
//   - WithLogger sets the structured logger, which is also handed to the oracle, trigger, and detector when they accept one.
//   - WithOutput sets where user-facing lines (the initial IP) are written. The default discards them.
//   - WithDetector replaces the default detector (20 retries, 5s apart).
//   - WithHistory records accepted addresses when the Configuration asks for it.
//   - WithPublisher publishes accepted addresses, e.g. UsingCloudflare.
//   - UsingHTTPClient sets the http.Client used by the built-in oracle, trigger, and publisher.
func New(oracle Oracle, trigger Trigger, options ...Option) (*Session, error) {
	if oracle == nil {
		return nil, errors.New("renewip.New: oracle cannot be nil")
	}
	if trigger == nil {
		return nil, errors.New("renewip.New: trigger cannot be nil")
	}
	s := &Session{
		oracle:  oracle,
		trigger: trigger,
		out:     io.Discard,
	}
	for i, opt := range options {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("renewip.New: option %d returned an error: %s", i, err)
		}
	}
	if s.detector == nil {
		s.detector = NewDetector(oracle)
	}
	// the detector must poll the same oracle that captured the baseline
	s.detector.oracle = oracle

	// this propagates the logger to dependencies registered after WithLogger was applied
	withLogger(s.logger)(s)
	return s, nil
}

// Option configures a Session.
type Option func(*Session) error

type setLogger interface {
	SetLogger(*zap.Logger)
}

type setHTTPClient interface {
	SetHTTPClient(*http.Client)
}

func withLogger(logger *zap.Logger) Option {
	return func(s *Session) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		s.logger = logger
		for _, dep := range []any{s.oracle, s.trigger, s.detector, s.publisher} {
			if l, ok := dep.(setLogger); ok {
				l.SetLogger(logger)
			}
		}
		return nil
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) error {
		s.logger = logger
		return nil
	}
}

func WithOutput(w io.Writer) Option {
	return func(s *Session) error {
		if w == nil {
			w = io.Discard
		}
		s.out = w
		return nil
	}
}

// WithDetector uses d's budget, clock, and hooks for the polling phase.
// New points d at the session's oracle, whatever oracle d was built with.
func WithDetector(d *Detector) Option {
	return func(s *Session) error {
		if d == nil {
			return errors.New("detector cannot be nil")
		}
		s.detector = d
		return nil
	}
}

func WithHistory(h History) Option {
	return func(s *Session) error {
		s.history = h
		return nil
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Session) error {
		s.publisher = p
		return nil
	}
}

func UsingHTTPClient(httpclient *http.Client) Option {
	return func(s *Session) error {
		if httpclient == nil {
			return errors.New("http client cannot be nil")
		}
		for _, dep := range []any{s.oracle, s.trigger, s.publisher} {
			if hc, ok := dep.(setHTTPClient); ok {
				hc.SetHTTPClient(httpclient)
			}
		}
		return nil
	}
}

// Session runs one renewal-and-wait cycle.
type Session struct {
	oracle    Oracle
	trigger   Trigger
	detector  *Detector
	history   History
	publisher Publisher
	logger    *zap.Logger
	out       io.Writer
}

// Detector returns the detector used for the polling phase, so callers can tune its budget or hook OnAttempt.
func (s *Session) Detector() *Detector { return s.detector }

// Run captures the current address, requests a new one, and waits for it to appear.
//
// The returned error is non-nil only when ctx was cancelled;
// every other terminal state, including failures, is described by the RunOutcome.
func (s *Session) Run(ctx context.Context, cfg Configuration) (RunOutcome, error) {
	baseline := s.oracle.Observe(ctx)
	if err := ctx.Err(); err != nil {
		return RunOutcome{}, err
	}
	if !baseline.Reachable() {
		s.logger.Error("unable to capture baseline address", zap.Error(baseline.Cause))
		return RunOutcome{
			Kind: BaselineUnavailable,
			Err:  fmt.Errorf("%w: %w", ErrBaselineUnavailable, baseline.Cause),
		}, nil
	}
	s.logger.Info("captured baseline address", zap.String("baseline", baseline.Address.String()))
	if cfg.PrintAddress {
		fmt.Fprintf(s.out, "Initial IP: %s\n", baseline.Address)
	}

	if err := s.trigger.Renew(ctx, cfg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return RunOutcome{}, ctxErr
		}
		s.logger.Error("renewal request failed", zap.Error(err))
		return RunOutcome{Kind: TriggerFailed, Baseline: baseline.Address, Err: err}, nil
	}
	s.logger.Info("renewal requested, waiting for a new address",
		zap.Int("max_attempts", s.detector.MaxAttempts),
		zap.Duration("interval", s.detector.Interval))

	detection, err := s.detector.Detect(ctx, baseline.Address)
	if err != nil {
		return RunOutcome{}, err
	}
	if detection.Kind != Changed {
		return RunOutcome{Kind: RunExhausted, Baseline: baseline.Address, Detection: &detection}, nil
	}

	outcome := RunOutcome{
		Kind:      Completed,
		Baseline:  baseline.Address,
		Address:   detection.Address,
		Detection: &detection,
	}
	if cfg.SaveAddress && s.history != nil {
		if err := s.history.Append(detection.Address); err != nil {
			s.logger.Error("unable to record accepted address", zap.Error(err))
			outcome.HistoryErr = err
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, detection.Address); err != nil {
			s.logger.Error("unable to publish accepted address", zap.Error(err))
			outcome.PublishErr = err
		}
	}
	return outcome, nil
}
