package exifai

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go"
	"github.com/hashicorp/errwrap"
	"k8s.io/klog/v2"
)

// State is the position of an attempt loop.
type State int

const (
	Attempting State = iota
	Accepted
	Exhausted
)

func (s State) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case Accepted:
		return "accepted"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Outcome is the result of Attempt. Value is only meaningful when State is
// Accepted. Last holds the most recent result that was produced but rejected.
type Outcome[T any] struct {
	State    State
	Value    T
	Last     T
	HasLast  bool
	Attempts int
	// Err is the most recent call error, which Attempt never propagates.
	Err error
}

// OK reports whether an acceptable value was found.
func (o Outcome[T]) OK() bool {
	return o.State == Accepted
}

type rejectedError struct{}

func (rejectedError) Error() string { return "result rejected" }

type attemptOpts struct {
	name  string
	delay time.Duration
}

// AttemptOption configures Attempt.
type AttemptOption func(*attemptOpts)

// WithName sets the label used in log lines.
func WithName(name string) AttemptOption {
	return func(o *attemptOpts) { o.name = name }
}

// WithDelay sets a fixed pause between attempts.
func WithDelay(d time.Duration) AttemptOption {
	return func(o *attemptOpts) { o.delay = d }
}

// Attempt runs call up to repeat+1 times, one after another, until accept
// returns true for a result. Errors from call are logged and swallowed.
func Attempt[T any](ctx context.Context, call func(context.Context) (T, error), accept func(T) bool, repeat int, opts ...AttemptOption) Outcome[T] {
	o := attemptOpts{name: "attempt"}
	for _, opt := range opts {
		opt(&o)
	}
	if repeat < 0 {
		repeat = 0
	}
	total := repeat + 1

	out := Outcome[T]{State: Attempting}
	err := retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return retry.Unrecoverable(err)
			}
			out.Attempts++
			v, err := call(ctx)
			if err != nil {
				out.Err = err
				return err
			}
			if !accept(v) {
				out.Last = v
				out.HasLast = true
				return rejectedError{}
			}
			out.Value = v
			out.State = Accepted
			return nil
		},
		retry.Attempts(uint(total)),
		retry.Delay(o.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			if errwrap.ContainsType(err, rejectedError{}) {
				klog.V(1).Infof("%s: attempt %d/%d rejected", o.name, n+1, total)
				return
			}
			klog.V(1).Infof("%s: attempt %d/%d failed: %v", o.name, n+1, total, err)
		}),
	)

	if out.State == Accepted {
		return out
	}
	out.State = Exhausted
	if ctxErr := ctx.Err(); ctxErr != nil {
		out.Err = ctxErr
	}
	klog.V(1).Infof("%s: exhausted after %d attempt(s): %v", o.name, out.Attempts, err)
	return out
}

// AcceptDescription rejects short answers and answers formatted as markdown.
func AcceptDescription(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) > 10 && !strings.ContainsAny(s, "*#>`")
}

// AcceptTags rejects responses that collapsed into a single tag or none.
func AcceptTags(tags []string) bool {
	return len(tags) > 1
}
