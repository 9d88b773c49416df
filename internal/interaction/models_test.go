package interaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantor/pkg/domain"
	"grantor/pkg/platform/sentinel"
)

func TestNew(t *testing.T) {
	grantID := domain.NewGrantID()
	i := New(grantID, time.Now())

	assert.Equal(t, grantID, i.GrantID)
	assert.Equal(t, StatePending, i.State)
	assert.NotEmpty(t, i.Nonce)
	assert.Empty(t, i.Ref, "ref must be absent while pending")

	other := New(grantID, time.Now())
	assert.NotEqual(t, i.ID, other.ID)
	assert.NotEqual(t, i.Nonce, other.Nonce)
}

func TestDecide(t *testing.T) {
	t.Run("approve mints a ref", func(t *testing.T) {
		i := New(domain.NewGrantID(), time.Now())
		require.NoError(t, i.Approve(time.Now()))
		assert.Equal(t, StateApproved, i.State)
		assert.NotEmpty(t, i.Ref)
	})

	t.Run("deny leaves the ref absent", func(t *testing.T) {
		i := New(domain.NewGrantID(), time.Now())
		require.NoError(t, i.Deny(time.Now()))
		assert.Equal(t, StateDenied, i.State)
		assert.Empty(t, i.Ref)
	})

	t.Run("second decision fails and mutates nothing", func(t *testing.T) {
		i := New(domain.NewGrantID(), time.Now())
		require.NoError(t, i.Approve(time.Now()))
		ref := i.Ref

		require.ErrorIs(t, i.Deny(time.Now()), sentinel.ErrAlreadyDecided)
		require.ErrorIs(t, i.Approve(time.Now()), sentinel.ErrAlreadyDecided)
		assert.Equal(t, StateApproved, i.State)
		assert.Equal(t, ref, i.Ref, "ref must survive replayed decisions")
	})

	t.Run("denied interactions stay denied", func(t *testing.T) {
		i := New(domain.NewGrantID(), time.Now())
		require.NoError(t, i.Deny(time.Now()))
		require.ErrorIs(t, i.Approve(time.Now()), sentinel.ErrAlreadyDecided)
		assert.Empty(t, i.Ref)
	})
}
