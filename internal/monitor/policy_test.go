package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aleister1102/sitewatch/internal/models"
)

func TestNextDelay_NoneIsFixed(t *testing.T) {
	policy := NewDelayPolicy(1500)
	base := 5 * time.Second

	for i := 0; i < 10; i++ {
		delay := policy.NextDelay(models.CheckStyleNone, base, base, i%2 == 0)
		assert.Equal(t, base, delay)
	}
}

func TestNextDelay_RandomStaysWithinJitterWindow(t *testing.T) {
	policy := NewDelayPolicy(1500)
	base := 5 * time.Second

	for i := 0; i < 100; i++ {
		delay := policy.NextDelay(models.CheckStyleRandom, base, base, false)
		assert.GreaterOrEqual(t, delay, base)
		assert.Less(t, delay, base+1500*time.Millisecond)
	}
}

func TestNextDelay_RandomWithZeroJitter(t *testing.T) {
	policy := NewDelayPolicy(0)
	base := 2 * time.Second

	delay := policy.NextDelay(models.CheckStyleRandom, base, base, false)
	assert.Equal(t, base, delay)
}

func TestNextDelay_ExponentialDoublesOnFailure(t *testing.T) {
	policy := NewDelayPolicy(0)
	base := 5 * time.Second

	delay := policy.NextDelay(models.CheckStyleExponential, base, base, true)
	assert.Equal(t, 10*time.Second, delay)

	delay = policy.NextDelay(models.CheckStyleExponential, base, delay, true)
	assert.Equal(t, 20*time.Second, delay)

	delay = policy.NextDelay(models.CheckStyleExponential, base, delay, true)
	assert.Equal(t, 40*time.Second, delay)
}

func TestNextDelay_ExponentialResetsOnSuccess(t *testing.T) {
	policy := NewDelayPolicy(0)
	base := 5 * time.Second

	delay := policy.NextDelay(models.CheckStyleExponential, base, 40*time.Second, false)
	assert.Equal(t, base, delay)
}

func TestNextDelay_ExponentialCapped(t *testing.T) {
	policy := NewDelayPolicy(0)
	base := 5 * time.Second

	delay := policy.NextDelay(models.CheckStyleExponential, base, 20*time.Hour, true)
	assert.Equal(t, MaxBackoffDelay, delay)

	// Stays pinned at the cap while failures continue.
	delay = policy.NextDelay(models.CheckStyleExponential, base, delay, true)
	assert.Equal(t, MaxBackoffDelay, delay)
}

func TestNextDelay_ExponentialClampsPreviousBelowBase(t *testing.T) {
	policy := NewDelayPolicy(0)
	base := 10 * time.Second

	// A stale previous below base never shrinks the backoff under 2x base.
	delay := policy.NextDelay(models.CheckStyleExponential, base, time.Second, true)
	assert.Equal(t, 20*time.Second, delay)
}
