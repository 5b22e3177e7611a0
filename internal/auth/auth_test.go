package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"member-faucet/internal/ratelimit"
)

func TestTryBypass(t *testing.T) {
	assert := assert.New(t)

	t.Run("disabled gate never grants", func(t *testing.T) {
		gate := New("", ratelimit.New(5, time.Hour))
		assert.False(gate.Enabled())
		assert.False(gate.TryBypass("1.2.3.4", "anything"))
	})

	t.Run("missing key is denied", func(t *testing.T) {
		gate := New("secret", ratelimit.New(5, time.Hour))
		assert.False(gate.TryBypass("1.2.3.4", ""))
	})

	t.Run("wrong key is denied", func(t *testing.T) {
		gate := New("secret", ratelimit.New(5, time.Hour))
		assert.False(gate.TryBypass("1.2.3.4", "wrong"))
	})

	t.Run("correct key is granted", func(t *testing.T) {
		gate := New("secret", ratelimit.New(5, time.Hour))
		assert.True(gate.TryBypass("1.2.3.4", "secret"))
	})

	t.Run("throttled submitter is denied even with the correct key", func(t *testing.T) {
		gate := New("secret", ratelimit.New(2, time.Hour))
		assert.False(gate.TryBypass("1.2.3.4", "wrong"))
		assert.False(gate.TryBypass("1.2.3.4", "wrong"))
		assert.False(gate.TryBypass("1.2.3.4", "secret"))
	})

	t.Run("throttling is per submitter", func(t *testing.T) {
		gate := New("secret", ratelimit.New(1, time.Hour))
		assert.False(gate.TryBypass("1.2.3.4", "wrong"))
		assert.True(gate.TryBypass("5.6.7.8", "secret"))
	})

	t.Run("success clears earlier failures", func(t *testing.T) {
		gate := New("secret", ratelimit.New(2, time.Hour))
		assert.False(gate.TryBypass("1.2.3.4", "wrong"))
		assert.True(gate.TryBypass("1.2.3.4", "secret"))
		// cleared, so the submitter has a full budget again
		assert.False(gate.TryBypass("1.2.3.4", "wrong"))
		assert.True(gate.TryBypass("1.2.3.4", "secret"))
	})
}
