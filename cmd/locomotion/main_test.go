package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Versifine/locomotion/internal/config"
	"github.com/Versifine/locomotion/internal/locomotion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Console.Enabled = false
	return cfg
}

func TestNewApp_BuildsScene(t *testing.T) {
	cfg := testConfig()
	a, err := newApp(cfg, slog.Default())
	require.NoError(t, err)

	assert.Len(t, a.world.Objects(), len(cfg.Scene.Boxes)+1)
	assert.Nil(t, a.view)
	assert.Equal(t, locomotion.VariantDynamic, a.character.Variant())
}

func TestNewApp_RejectsBadCharacter(t *testing.T) {
	cfg := testConfig()
	cfg.Character.Radius = 0

	_, err := newApp(cfg, slog.Default())
	assert.Error(t, err)
}

func TestApp_EveryVariantRestsOnFloor(t *testing.T) {
	variants := []locomotion.Variant{
		locomotion.VariantDynamic,
		locomotion.VariantKinematic,
		locomotion.VariantKinematicSimple,
	}
	for _, v := range variants {
		t.Run(string(v), func(t *testing.T) {
			cfg := testConfig()
			cfg.Character.Variant = string(v)
			a, err := newApp(cfg, slog.Default())
			require.NoError(t, err)

			for i := 0; i < 60; i++ {
				a.step()
			}

			snap := a.character.Snapshot()
			assert.Equal(t, uint64(60), snap.Tick)
			assert.True(t, snap.OnGround)
			assert.InDelta(t, 1.0, snap.Position.Y(), 1e-3)
		})
	}
}

func TestApp_StepPublishesToDebugView(t *testing.T) {
	cfg := testConfig()
	cfg.DebugView.Enabled = true
	cfg.DebugView.BroadcastEvery = 3
	a, err := newApp(cfg, slog.Default())
	require.NoError(t, err)
	require.NotNil(t, a.view)

	a.step()
	a.step()
	_, ok := a.view.LastSnapshot()
	assert.False(t, ok)

	a.step()
	snap, ok := a.view.LastSnapshot()
	require.True(t, ok)
	assert.Equal(t, uint64(3), snap.Tick)
}

func TestRun_StopsAtTickLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.TickRate = 1000
	cfg.Simulation.MaxTicks = 20
	cfg.DebugView.Enabled = true
	cfg.DebugView.Listen = "127.0.0.1:0"

	done := make(chan error, 1)
	go func() { done <- run(context.Background(), cfg, slog.Default()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop at the tick limit")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, slog.Default()) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
