package cmd

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dukex/operion-designer/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventBus(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewEventBus("", log.Discard()))
	assert.Nil(t, NewEventBus("none", log.Discard()))

	bus := NewEventBus("gochannel", log.Discard())
	require.NotNil(t, bus)
	assert.NotEmpty(t, bus.GenerateID())
	require.NoError(t, bus.Close())

	assert.Panics(t, func() { NewEventBus("kafka", log.Discard()) })
}

func TestNewRedisClient(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	client, err := NewRedisClient(ctx, log.Discard(), "")
	require.NoError(t, err)
	assert.Nil(t, client)

	_, err = NewRedisClient(ctx, log.Discard(), "not a url")
	require.Error(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err = NewRedisClient(ctx, log.Discard(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.NoError(t, client.Close())
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(log.Discard())
	_, ok := reg.HealthCheck()
	assert.True(t, ok)
}
