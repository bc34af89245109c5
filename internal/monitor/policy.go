package monitor

import (
	"math/rand"
	"time"

	"github.com/aleister1102/sitewatch/internal/models"
)

// MaxBackoffDelay caps exponential growth so a long-failing site still
// gets rechecked at least daily.
const MaxBackoffDelay = 24 * time.Hour

// DelayPolicy computes the wait between two checks of the same site.
type DelayPolicy struct {
	jitterMax time.Duration
}

// NewDelayPolicy creates a delay policy with the given jitter ceiling
func NewDelayPolicy(jitterMaxMs int) *DelayPolicy {
	if jitterMaxMs < 0 {
		jitterMaxMs = 0
	}

	return &DelayPolicy{
		jitterMax: time.Duration(jitterMaxMs) * time.Millisecond,
	}
}

// NextDelay returns the delay before the site's next check. base is the
// site's configured interval and previous the delay used for the cycle
// that just finished.
//
// none polls at the fixed base interval. random adds fresh uniform jitter
// from [0, jitterMax) on every cycle. exponential doubles the previous
// delay on failure up to MaxBackoffDelay and snaps back to base on
// success.
func (dp *DelayPolicy) NextDelay(style models.CheckStyle, base, previous time.Duration, failed bool) time.Duration {
	switch style {
	case models.CheckStyleRandom:
		return base + dp.jitter()
	case models.CheckStyleExponential:
		if !failed {
			return base
		}
		return nextBackoff(base, previous)
	default:
		return base
	}
}

func (dp *DelayPolicy) jitter() time.Duration {
	if dp.jitterMax <= 0 {
		return 0
	}

	return time.Duration(rand.Int63n(int64(dp.jitterMax)))
}

func nextBackoff(base, previous time.Duration) time.Duration {
	if previous < base {
		previous = base
	}

	next := previous * 2
	if next > MaxBackoffDelay {
		next = MaxBackoffDelay
	}

	return next
}
