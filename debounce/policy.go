package debounce

import (
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidPolicy is returned when a policy is rejected at
	// construction or reconfiguration time.
	ErrInvalidPolicy = errors.New("debounce: invalid policy")

	// ErrDisposed is returned by Trigger, Flush and Reconfigure once the
	// engine has been disposed.
	ErrDisposed = errors.New("debounce: engine disposed")
)

// Policy controls when a burst of triggers turns into action invocations.
// A burst is a maximal run of triggers spaced at most Delay apart.
//
// If both Leading and Trailing are false the policy is valid but the
// engine never invokes: triggers are still recorded, nothing is emitted.
type Policy struct {
	// Delay is the quiet period that ends a burst.
	Delay time.Duration

	// Leading invokes on the first trigger of a burst, synchronously
	// inside Trigger.
	Leading bool

	// Trailing invokes once the burst has been quiet for Delay, carrying
	// the last payload of the burst.
	Trailing bool

	// MaxWait, when non-zero, guarantees at least one invocation every
	// MaxWait during a continuous burst. Must be at least Delay.
	MaxWait time.Duration
}

// NewPolicy returns the default policy for delay: trailing edge only,
// no leading invocation, no maximum wait.
func NewPolicy(delay time.Duration) Policy {
	return Policy{Delay: delay, Trailing: true}
}

// Validate checks the policy. Errors unwrap to ErrInvalidPolicy.
func (p Policy) Validate() error {
	if p.Delay < 0 {
		return errors.Wrapf(ErrInvalidPolicy, "negative delay %s", p.Delay)
	}
	if p.MaxWait != 0 && p.MaxWait < p.Delay {
		return errors.Wrapf(ErrInvalidPolicy, "max wait %s is shorter than delay %s", p.MaxWait, p.Delay)
	}
	return nil
}
