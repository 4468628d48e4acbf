package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacementTransitions(t *testing.T) {
	pl := newPlacement(context.Background(), uuid.New())
	assert.Error(t, pl.advance(StateReserving), "reservation must follow validation")

	require.NoError(t, pl.advance(StateValidating))
	require.NoError(t, pl.advance(StateReserving))
	require.NoError(t, pl.advance(StateCommitted))
	assert.Error(t, pl.advance(StateFailed))

	pl.fail(errors.New("late"))
	assert.Equal(t, StateCommitted, pl.state)
}

func TestPlacementFail(t *testing.T) {
	pl := newPlacement(context.Background(), uuid.New())
	pl.fail(errors.New("unauthorized"))
	assert.Equal(t, StateOpen, pl.state, "nothing ran")

	require.NoError(t, pl.advance(StateValidating))
	pl.fail(errors.New("not found"))
	assert.Equal(t, StateFailed, pl.state)
	assert.Error(t, pl.advance(StateReserving))
}

func TestGenerateOrderNumber(t *testing.T) {
	a := generateOrderNumber(mustTime(t, "2026-10-17T09:30:00Z"))
	b := generateOrderNumber(mustTime(t, "2026-10-17T09:30:00Z"))
	assert.Regexp(t, `^ORD-20261017-[0-9A-F]{8}$`, a)
	assert.NotEqual(t, a, b)
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	at, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return at
}
