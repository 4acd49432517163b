package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SingleConcurrentFlow(t *testing.T) {
	m := NewManager()

	job, err := m.Begin(1, "https://t.me/chan")
	require.NoError(t, err)
	require.NotNil(t, job)

	_, err = m.Begin(2, "https://t.me/other")
	assert.ErrorIs(t, err, ErrFlowRunning)

	m.Finish(job.ID)

	next, err := m.Begin(2, "https://t.me/other")
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, next.ID)
}

func TestManager_FinishIgnoresStaleID(t *testing.T) {
	m := NewManager()

	first, err := m.Begin(1, "https://t.me/chan")
	require.NoError(t, err)
	m.Finish(first.ID)

	second, err := m.Begin(1, "https://t.me/chan")
	require.NoError(t, err)

	// the old flow's cleanup must not release the new slot
	m.Finish(first.ID)
	current := m.Current()
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)
}

func TestManager_CurrentReturnsCopy(t *testing.T) {
	m := NewManager()
	assert.Nil(t, m.Current())

	job, err := m.Begin(7, "https://t.me/chan")
	require.NoError(t, err)

	current := m.Current()
	require.NotNil(t, current)
	assert.Equal(t, job.ID, current.ID)
	assert.Equal(t, int64(7), current.UserID)

	current.UserID = 99
	assert.Equal(t, int64(7), m.Current().UserID)
}
