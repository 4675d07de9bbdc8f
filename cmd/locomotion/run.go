package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Versifine/locomotion/internal/body"
	"github.com/Versifine/locomotion/internal/config"
	"github.com/Versifine/locomotion/internal/debug"
	"github.com/Versifine/locomotion/internal/debugview"
	"github.com/Versifine/locomotion/internal/event"
	"github.com/Versifine/locomotion/internal/locomotion"
	"github.com/Versifine/locomotion/internal/physics"
	"golang.org/x/sync/errgroup"
)

// app is one simulated scene with a single character.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	world     *physics.World
	bus       *event.Bus
	character *body.Character
	view      *debugview.Hub
	ticks     uint64
}

func characterOptions(c config.CharacterConfig) body.Options {
	return body.Options{
		Name:       c.Name,
		Variant:    locomotion.Variant(c.Variant),
		Radius:     c.Radius,
		HalfHeight: c.HalfHeight,
		Spawn:      c.Spawn,
		WalkSpeed:  c.WalkSpeed,
		Dynamic:    c.Dynamic,
		Kinematic:  c.Kinematic,
	}
}

func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	world := physics.NewWorld(cfg.Simulation.Gravity)
	world.SetLogger(log.With("component", "physics"))
	for _, box := range cfg.Scene.Boxes {
		world.AddStaticBox(box.Center, box.HalfExtents)
	}

	bus := event.NewBus()
	event.SubscribeLogging(bus)

	character, err := body.New(world, characterOptions(cfg.Character), bus, log.With("component", "character"))
	if err != nil {
		return nil, fmt.Errorf("create character: %w", err)
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		world:     world,
		bus:       bus,
		character: character,
	}
	if cfg.DebugView.Enabled {
		a.view = debugview.NewHub(log.With("component", "debugview"))
		a.view.Forward(bus)
	}
	return a, nil
}

// step advances the world by one fixed tick.
func (a *app) step() {
	a.ticks++
	a.world.StepSimulation(a.cfg.Simulation.TimeStep())

	if a.view != nil && a.ticks%uint64(a.cfg.DebugView.BroadcastEvery) == 0 {
		a.character.DebugDraw(a.view)
		a.view.PublishSnapshot(a.character.Snapshot())
	}
}

// loop steps the world at the configured tick rate until ctx is done or
// MaxTicks is reached.
func (a *app) loop(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Simulation.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.step()
			if limit := a.cfg.Simulation.MaxTicks; limit > 0 && a.ticks >= limit {
				a.log.Info("Reached tick limit", "ticks", a.ticks)
				return nil
			}
		}
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return a.loop(gctx)
	})
	if a.view != nil {
		g.Go(func() error {
			return a.view.Run(gctx, cfg.DebugView.Listen)
		})
	}
	if cfg.Console.Enabled {
		// The console blocks on stdin, so it stays outside the group.
		console := debug.NewConsole(a.character, cancel)
		go func() {
			if err := console.Start(gctx); err != nil {
				log.Warn("Console stopped", "error", err)
			}
		}()
	}

	log.Info("Simulation started",
		"variant", string(a.character.Variant()),
		"tick_rate", cfg.Simulation.TickRate,
		"boxes", len(cfg.Scene.Boxes),
	)
	err = g.Wait()
	a.bus.Wait()

	snap := a.character.Snapshot()
	log.Info("Simulation stopped", "ticks", a.ticks, "position", snap.Position, "on_ground", snap.OnGround)
	return err
}
