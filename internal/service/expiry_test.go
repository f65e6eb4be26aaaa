package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExpirer struct {
	calls atomic.Int32
	n     int64
	err   error
}

func (c *countingExpirer) ExpireLapsed(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	return c.n, c.err
}

func TestNewExpirySweeper_InvalidSchedule(t *testing.T) {
	_, err := NewExpirySweeper(&countingExpirer{}, "toda hora", time.Second)
	assert.Error(t, err)
}

func TestExpirySweeper_Sweep(t *testing.T) {
	expirer := &countingExpirer{n: 3}
	sweeper, err := NewExpirySweeper(expirer, "@every 1h", time.Second)
	require.NoError(t, err)

	assert.Equal(t, int64(3), sweeper.Sweep(context.Background()))

	expirer.err = errBackend
	assert.Equal(t, int64(0), sweeper.Sweep(context.Background()))
	assert.Equal(t, int32(2), expirer.calls.Load())
}

func TestExpirySweeper_StartRunsImmediately(t *testing.T) {
	expirer := &countingExpirer{}
	sweeper, err := NewExpirySweeper(expirer, "@every 1h", time.Second)
	require.NoError(t, err)

	sweeper.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sweeper.Stop(ctx)

	assert.Equal(t, int32(1), expirer.calls.Load())
}

func TestExpirySweeper_WithService(t *testing.T) {
	f := newFixture(t, "2024-01-10T00:00:00Z")
	_, err := f.svc.Create(context.Background(), contaA, planMensal.ID)
	require.NoError(t, err)

	sweeper, err := NewExpirySweeper(f.svc, "@every 1h", 0)
	require.NoError(t, err)

	f.now = mustTime("2024-02-10T00:00:00Z")
	assert.Equal(t, int64(1), sweeper.Sweep(context.Background()))
	assert.Equal(t, int64(0), sweeper.Sweep(context.Background()))
}
