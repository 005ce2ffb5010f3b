package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/hr-console/internal/model"
)

func TestPublish_DeliversInSubscriptionOrder(t *testing.T) {
	b := New()
	var got []string
	require.NoError(t, b.OnTransition(func(Transition) { got = append(got, "first") }))
	require.NoError(t, b.OnTransition(func(Transition) { got = append(got, "second") }))

	b.PublishTransition(Transition{Entity: model.EntityShifts, To: model.StatusLoading})
	assert.Equal(t, []string{"first", "second"}, got)
	assert.True(t, b.HasSubscribers(TopicTransition))
	assert.False(t, b.HasSubscribers(TopicAuthFailure))
}

// A handler that publishes must not deadlock; the nested event is
// delivered after the outer one reached every subscriber.
func TestPublish_NestedPublishIsQueued(t *testing.T) {
	b := New()
	var got []string

	require.NoError(t, b.OnTransition(func(tr Transition) {
		got = append(got, "transition:"+tr.Message)
		if tr.ErrorKind == "auth" {
			b.PublishAuthFailure(AuthFailure{Message: tr.Message})
		}
	}))
	require.NoError(t, b.OnTransition(func(tr Transition) {
		got = append(got, "observer:"+tr.Message)
	}))
	require.NoError(t, b.OnAuthFailure(func(f AuthFailure) {
		got = append(got, "auth:"+f.Message)
	}))

	b.PublishTransition(Transition{To: model.StatusFailed, ErrorKind: "auth", Message: "expired"})

	assert.Equal(t, []string{"transition:expired", "observer:expired", "auth:expired"}, got)

	// The queue is empty afterwards and normal publishing resumes.
	got = nil
	b.PublishAuthFailure(AuthFailure{Message: "again"})
	assert.Equal(t, []string{"auth:again"}, got)
}

func TestSubscribe_RejectsNonFunction(t *testing.T) {
	b := New()
	assert.Error(t, b.bus.Subscribe(TopicTransition, "not a func"))
}
