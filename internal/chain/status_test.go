package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTracker(t *testing.T) {
	assert := assert.New(t)

	t.Run("happy path", func(t *testing.T) {
		tracker := NewStatusTracker()
		assert.Equal(StateSubmitted, tracker.State())
		assert.Nil(tracker.Advance(StateInBlock))
		assert.Nil(tracker.Advance(StateFinalized))
	})

	t.Run("failure before inclusion", func(t *testing.T) {
		for _, state := range []SubmitState{StateDropped, StateFinalityTimeout, StateInvalid, StateUsurped} {
			tracker := NewStatusTracker()
			assert.Nil(tracker.Advance(state))
			assert.True(tracker.State().Failed())
		}
	})

	t.Run("failure after inclusion", func(t *testing.T) {
		tracker := NewStatusTracker()
		assert.Nil(tracker.Advance(StateInBlock))
		assert.Nil(tracker.Advance(StateFinalityTimeout))
	})

	t.Run("terminal states do not advance", func(t *testing.T) {
		tracker := NewStatusTracker()
		assert.Nil(tracker.Advance(StateDropped))
		assert.NotNil(tracker.Advance(StateInBlock))
	})

	t.Run("cannot skip to finalized", func(t *testing.T) {
		tracker := NewStatusTracker()
		assert.NotNil(tracker.Advance(StateFinalized))
	})
}

func TestSubmitStatePredicates(t *testing.T) {
	assert := assert.New(t)

	assert.True(StateInBlock.Included())
	assert.True(StateFinalized.Included())
	assert.False(StateDropped.Included())
	assert.False(StateSubmitted.Failed())
	assert.True(StateUsurped.Failed())
}
