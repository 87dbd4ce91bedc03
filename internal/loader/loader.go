// Package loader drives a page's "load more" control until every review is
// present or the page stops producing new items.
package loader

import (
	"context"
	"time"

	"sjsage522/reviewworker/logger"
)

// Document is the live page the loader inspects between activations.
type Document interface {
	// CountItems returns the number of loaded items carrying a unique id
	CountItems(ctx context.Context) (int, error)

	// LocateMore finds the load-more control. ok is false when it is absent.
	LocateMore(ctx context.Context) (control Control, ok bool, err error)
}

// Control is the load-more element of a Document.
type Control interface {
	// Visible reports whether the control is displayed and attached
	Visible(ctx context.Context) (bool, error)

	// Activate triggers the control once
	Activate(ctx context.Context) error

	// ScrollIntoView brings the control to the center of the viewport
	ScrollIntoView(ctx context.Context) error
}

// Sleeper suspends the caller for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Mode tells how the loop is bounded.
type Mode string

const (
	// ModeCount runs until the loaded count reaches the target
	ModeCount Mode = "count"
	// ModeAttempts runs for at most AttemptCap activations
	ModeAttempts Mode = "attempts"
)

// Reason explains why the loop stopped. None of them is an error.
type Reason string

const (
	ReasonTargetReached     Reason = "target_reached"
	ReasonControlMissing    Reason = "control_missing"
	ReasonControlHidden     Reason = "control_hidden"
	ReasonStagnated         Reason = "stagnated"
	ReasonEscalationFailed  Reason = "escalation_failed"
	ReasonAttemptsExhausted Reason = "attempts_exhausted"
)

// State is the loop state threaded through every iteration.
type State struct {
	CurrentCount        int
	RetryCount          int
	ConsecutiveFailures int
	AttemptCount        int
}

// Result is returned once the loop exits.
type Result struct {
	State       State
	Target      int
	Mode        Mode
	Reason      Reason
	Escalations int
}

// Options tune the loop. Zero MaxConsecutiveFailures disables that branch.
type Options struct {
	MaxRetries             int
	MaxConsecutiveFailures int
	AttemptCap             int
	ClickDelay             time.Duration
	ScrollDelay            time.Duration
	EscalationDelay        time.Duration
	BackoffUnit            time.Duration
}

// DefaultOptions returns the timings the review page was tuned for.
func DefaultOptions() Options {
	return Options{
		MaxRetries:             5,
		MaxConsecutiveFailures: 3,
		AttemptCap:             100,
		ClickDelay:             2000 * time.Millisecond,
		ScrollDelay:            1000 * time.Millisecond,
		EscalationDelay:        3000 * time.Millisecond,
		BackoffUnit:            1000 * time.Millisecond,
	}
}

// Option configures a Loader
type Option func(*Loader)

// WithOptions replaces the loop tuning
func WithOptions(opts Options) Option {
	return func(l *Loader) { l.opts = opts }
}

// WithSleeper replaces the delay primitive
func WithSleeper(s Sleeper) Option {
	return func(l *Loader) { l.sleep = s }
}

// WithLogger sets the progress logger
func WithLogger(log *logger.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// Loader runs the bounded incremental-load loop against a Document.
type Loader struct {
	doc   Document
	opts  Options
	sleep Sleeper
	log   *logger.Logger
}

// New creates a loader with default options
func New(doc Document, opts ...Option) *Loader {
	l := &Loader{
		doc:   doc,
		opts:  DefaultOptions(),
		sleep: Sleep,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// step is the outcome of one iteration
type step int

const (
	stepContinue step = iota
	stepStop
)

// Load activates the load-more control until target items are loaded or a
// terminal condition holds. A target of zero switches to attempt-bounded
// mode. The returned Result is valid even when err is non-nil; err is only
// set for Document failures or context cancellation.
func (l *Loader) Load(ctx context.Context, target int) (Result, error) {
	res := Result{Target: target, Mode: ModeCount}
	if target <= 0 {
		res.Target = 0
		res.Mode = ModeAttempts
	}

	current, err := l.doc.CountItems(ctx)
	if err != nil {
		return res, err
	}
	res.State.CurrentCount = current

	l.log.Info().
		Int("current", current).
		Int("target", res.Target).
		Str("mode", string(res.Mode)).
		Msg("Loading all reviews")

	for l.shouldContinue(&res) {
		next, err := l.iterate(ctx, &res)
		if err != nil {
			return res, err
		}
		if next == stepStop {
			break
		}
	}

	if res.Reason == "" {
		if res.Mode == ModeCount {
			res.Reason = ReasonTargetReached
		} else {
			res.Reason = ReasonAttemptsExhausted
		}
	}

	l.log.Info().
		Int("loaded", res.State.CurrentCount).
		Int("attempts", res.State.AttemptCount).
		Str("reason", string(res.Reason)).
		Msg("Review loading finished")

	return res, nil
}

func (l *Loader) shouldContinue(res *Result) bool {
	if res.State.CurrentCount < res.Target {
		return true
	}
	return res.Target == 0 && res.State.AttemptCount < l.opts.AttemptCap
}

// iterate runs a single activation and applies the progress rules to res.
func (l *Loader) iterate(ctx context.Context, res *Result) (step, error) {
	st := &res.State
	st.AttemptCount++

	if res.Mode == ModeCount {
		l.log.Debug().
			Int("current", st.CurrentCount).
			Int("target", res.Target).
			Int("percent", st.CurrentCount*100/res.Target).
			Msg("Progress")
	} else {
		l.log.Debug().
			Int("current", st.CurrentCount).
			Int("attempt", st.AttemptCount).
			Int("cap", l.opts.AttemptCap).
			Msg("Progress")
	}

	control, reason, err := l.locateVisible(ctx)
	if err != nil {
		return stepStop, err
	}
	if control == nil {
		res.Reason = reason
		return stepStop, nil
	}

	newCount, err := l.activate(ctx, control, l.opts.ClickDelay)
	if err != nil {
		return stepStop, err
	}

	if newCount > st.CurrentCount {
		st.CurrentCount = newCount
		st.RetryCount = 0
		st.ConsecutiveFailures = 0
		return stepContinue, nil
	}

	st.RetryCount++
	st.ConsecutiveFailures++
	l.log.Debug().
		Int("retry", st.RetryCount).
		Int("max_retries", l.opts.MaxRetries).
		Int("consecutive_failures", st.ConsecutiveFailures).
		Msg("No reviews were added")

	if l.opts.MaxConsecutiveFailures > 0 && st.ConsecutiveFailures >= l.opts.MaxConsecutiveFailures {
		l.log.Info().Msg("Too many consecutive failures, treating load as complete")
		res.Reason = ReasonStagnated
		return stepStop, nil
	}

	if st.RetryCount >= l.opts.MaxRetries {
		return l.escalate(ctx, res, control)
	}

	if err := l.sleep(ctx, l.opts.BackoffUnit*time.Duration(st.RetryCount)); err != nil {
		return stepStop, err
	}
	return stepContinue, nil
}

// escalate scrolls the control into view, re-locates it and activates it
// once more with a longer wait.
func (l *Loader) escalate(ctx context.Context, res *Result, control Control) (step, error) {
	st := &res.State
	res.Escalations++
	l.log.Info().Msg("Max retries reached, scrolling to the load-more control and retrying")

	if err := control.ScrollIntoView(ctx); err != nil {
		return stepStop, err
	}
	if err := l.sleep(ctx, l.opts.ScrollDelay); err != nil {
		return stepStop, err
	}

	retryControl, reason, err := l.locateVisible(ctx)
	if err != nil {
		return stepStop, err
	}
	if retryControl == nil {
		res.Reason = reason
		return stepStop, nil
	}

	finalCount, err := l.activate(ctx, retryControl, l.opts.EscalationDelay)
	if err != nil {
		return stepStop, err
	}
	if finalCount <= st.CurrentCount {
		l.log.Info().Msg("No more reviews can be loaded")
		res.Reason = ReasonEscalationFailed
		return stepStop, nil
	}

	st.CurrentCount = finalCount
	st.RetryCount = 0
	st.ConsecutiveFailures = 0
	return stepContinue, nil
}

// locateVisible returns the control, or nil with the reason it is unusable.
func (l *Loader) locateVisible(ctx context.Context) (Control, Reason, error) {
	control, ok, err := l.doc.LocateMore(ctx)
	if err != nil {
		return nil, "", err
	}
	if !ok || control == nil {
		l.log.Info().Msg("Load-more control not found")
		return nil, ReasonControlMissing, nil
	}

	visible, err := control.Visible(ctx)
	if err != nil {
		return nil, "", err
	}
	if !visible {
		l.log.Info().Msg("Load-more control is hidden, all reviews loaded")
		return nil, ReasonControlHidden, nil
	}
	return control, "", nil
}

// activate clicks the control, waits and re-reads the item count.
func (l *Loader) activate(ctx context.Context, control Control, wait time.Duration) (int, error) {
	if err := control.Activate(ctx); err != nil {
		return 0, err
	}
	if err := l.sleep(ctx, wait); err != nil {
		return 0, err
	}
	return l.doc.CountItems(ctx)
}
