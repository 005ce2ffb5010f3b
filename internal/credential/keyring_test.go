package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_SetGetDelete(t *testing.T) {
	s := NewMemoryStorage()

	_, err := s.Get("session")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("session", []byte(`{"token":"t"}`)))
	got, err := s.Get("session")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"token":"t"}`), got)

	require.NoError(t, s.Set("session", []byte(`{"token":"u"}`)))
	got, err = s.Get("session")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"token":"u"}`), got)

	require.NoError(t, s.Delete("session"))
	_, err = s.Get("session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_DeleteMissingIsNotAnError(t *testing.T) {
	s := NewMemoryStorage()
	assert.NoError(t, s.Delete("never-set"))
}
