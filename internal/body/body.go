package body

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Versifine/locomotion/internal/collision"
	"github.com/Versifine/locomotion/internal/event"
	"github.com/Versifine/locomotion/internal/locomotion"
	"github.com/Versifine/locomotion/internal/locomotion/dynamic"
	"github.com/Versifine/locomotion/internal/locomotion/kinematic"
	"github.com/Versifine/locomotion/internal/physics"
	"github.com/go-gl/mathgl/mgl64"
)

var ErrInvalidOptions = errors.New("invalid character options")

type Options struct {
	Name       string
	Variant    locomotion.Variant
	Radius     float64
	HalfHeight float64
	Spawn      mgl64.Vec3
	WalkSpeed  float64
	Dynamic    dynamic.Config
	Kinematic  kinematic.Config
}

// Snapshot is a consistent copy of a character's state after its last tick.
type Snapshot struct {
	Name     string     `json:"name"`
	Variant  string     `json:"variant"`
	Tick     uint64     `json:"tick"`
	Position mgl64.Vec3 `json:"position"`
	Velocity mgl64.Vec3 `json:"velocity"`
	Yaw      float64    `json:"yaw"`
	OnGround bool       `json:"on_ground"`
	Stepping bool       `json:"stepping"`
}

// Character owns one locomotion controller and drives it from an InputState.
// It is registered with the world as an action, so its controller runs inside
// StepSimulation. Warp and Reset requests from other goroutines are queued and
// applied at the start of the next tick.
type Character struct {
	mu     sync.Mutex
	opts   Options
	world  *physics.World
	object collision.Object
	ctrl   locomotion.Controller
	bus    *event.Bus
	log    *slog.Logger

	input        InputState
	pendingWarp  *mgl64.Vec3
	pendingReset bool

	tick     uint64
	position mgl64.Vec3
	velocity mgl64.Vec3
	onGround bool
	stepping bool
}

var _ collision.Action = (*Character)(nil)

// New adds the character's collision object to w, builds the controller for
// opts.Variant and registers the character as an action. bus may be nil.
func New(w *physics.World, opts Options, bus *event.Bus, log *slog.Logger) (*Character, error) {
	if w == nil {
		return nil, fmt.Errorf("world is nil")
	}
	if opts.Radius <= 0 || opts.HalfHeight <= 0 {
		return nil, fmt.Errorf("%w: capsule radius %.3f half height %.3f", ErrInvalidOptions, opts.Radius, opts.HalfHeight)
	}
	if opts.WalkSpeed < 0 {
		return nil, fmt.Errorf("%w: walk speed %.3f", ErrInvalidOptions, opts.WalkSpeed)
	}
	variant, err := locomotion.ParseVariant(string(opts.Variant))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	opts.Variant = variant
	if log == nil {
		log = slog.Default()
	}
	log = log.With("character", opts.Name, "variant", string(variant))

	shape := collision.NewCapsuleShape(opts.Radius, opts.HalfHeight)
	start := collision.Translation(opts.Spawn)

	c := &Character{
		opts:     opts,
		world:    w,
		bus:      bus,
		log:      log,
		position: opts.Spawn,
	}

	switch variant {
	case locomotion.VariantDynamic:
		rb := w.AddRigidBody(shape, start, collision.CharacterFilter)
		ctrl := dynamic.New(rb, shape, opts.Dynamic)
		ctrl.SetLogger(log)
		c.object, c.ctrl = rb, ctrl
	case locomotion.VariantKinematic:
		ghost := w.AddGhost(shape, start, collision.CharacterFilter)
		ctrl := kinematic.New(ghost, shape, opts.Kinematic)
		ctrl.SetLogger(log)
		c.object, c.ctrl = ghost, ctrl
	case locomotion.VariantKinematicSimple:
		ghost := w.AddGhost(shape, start, collision.CharacterFilter)
		ctrl := kinematic.NewSimple(ghost, shape, opts.Kinematic)
		ctrl.SetLogger(log)
		c.object, c.ctrl = ghost, ctrl
	}

	w.AddAction(c)
	log.Info("Character created", "spawn", opts.Spawn)
	return c, nil
}

func (c *Character) Name() string {
	return c.opts.Name
}

func (c *Character) Variant() locomotion.Variant {
	return c.opts.Variant
}

// Controller exposes the underlying controller. It must only be touched from
// the goroutine that steps the world.
func (c *Character) Controller() locomotion.Controller {
	return c.ctrl
}

func (c *Character) SetInput(input InputState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = input
}

func (c *Character) Input() InputState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Warp teleports the character to origin on its next tick.
func (c *Character) Warp(origin mgl64.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingWarp = &origin
}

// Reset clears the controller's transient state on the next tick.
func (c *Character) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingReset = true
	c.input = InputState{Yaw: c.input.Yaw}
}

func (c *Character) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Name:     c.opts.Name,
		Variant:  string(c.opts.Variant),
		Tick:     c.tick,
		Position: c.position,
		Velocity: c.velocity,
		Yaw:      c.input.Yaw,
		OnGround: c.onGround,
		Stepping: c.stepping,
	}
}

// UpdateAction applies queued requests and the current input, runs the
// controller and publishes any state transitions.
func (c *Character) UpdateAction(w collision.World, dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	if c.pendingReset {
		c.pendingReset = false
		c.ctrl.Reset(w)
		c.publish(event.EventReset)
	}
	if c.pendingWarp != nil {
		origin := *c.pendingWarp
		c.pendingWarp = nil
		c.ctrl.Warp(origin)
		c.position = origin
		c.publish(event.EventWarped)
	}

	input := normalizeMovementInput(c.input)
	c.ctrl.SetWalkDirection(desiredMoveVector(input).Mul(moveSpeed(input, c.opts.WalkSpeed)))
	if input.Jump && c.ctrl.CanJump() {
		c.ctrl.Jump()
		c.publish(event.EventJumped)
	}

	c.ctrl.UpdateAction(w, dt)
	c.observe(dt)
}

func (c *Character) observe(dt float64) {
	pos := c.object.WorldTransform().Origin
	if dt > 0 {
		c.velocity = pos.Sub(c.position).Mul(1 / dt)
	}
	c.position = pos

	onGround := c.ctrl.OnGround()
	switch {
	case onGround && !c.onGround:
		c.publish(event.EventLanded)
	case !onGround && c.onGround:
		c.publish(event.EventLeftGround)
	}
	c.onGround = onGround

	if s, ok := c.ctrl.(locomotion.Stepper); ok {
		stepping := s.Stepping()
		switch {
		case stepping && !c.stepping:
			c.publish(event.EventStepStarted)
		case !stepping && c.stepping:
			c.publish(event.EventStepFinished)
		}
		c.stepping = stepping
	}
}

func (c *Character) publish(name string) {
	c.log.Debug("Locomotion transition", "event", name, "tick", c.tick)
	if c.bus == nil {
		return
	}
	c.bus.Publish(name, event.NewLocomotionEvent(c.opts.Name, string(c.opts.Variant), c.tick, c.position))
}

// DebugDraw forwards to the controller. Call it from the stepping goroutine.
func (c *Character) DebugDraw(d locomotion.DebugDrawer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctrl.DebugDraw(d)
}

// Close removes the character and its collision object from the world.
func (c *Character) Close() {
	c.world.RemoveAction(c)
	c.world.RemoveObject(c.object)
}
