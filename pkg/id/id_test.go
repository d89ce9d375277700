package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunIsSortable(t *testing.T) {
	at := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

	a := newAt(at)
	b := newAt(at)
	c := newAt(at.Add(time.Millisecond))

	assert.Len(t, a, 26)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestTime(t *testing.T) {
	at := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

	got, err := Time(newAt(at))
	require.NoError(t, err)
	assert.True(t, got.Equal(at))

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}
