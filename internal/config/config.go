package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Versifine/locomotion/internal/locomotion"
	"github.com/Versifine/locomotion/internal/locomotion/dynamic"
	"github.com/Versifine/locomotion/internal/locomotion/kinematic"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Simulation SimulationConfig `yaml:"simulation"`
	Character  CharacterConfig  `yaml:"character"`
	Scene      SceneConfig      `yaml:"scene"`
	DebugView  DebugViewConfig  `yaml:"debug_view"`
	Console    ConsoleConfig    `yaml:"console"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type SimulationConfig struct {
	TickRate int        `yaml:"tick_rate"`
	MaxTicks uint64     `yaml:"max_ticks"`
	Gravity  mgl64.Vec3 `yaml:"gravity"`
}

// TimeStep is the fixed simulation step in seconds.
func (s SimulationConfig) TimeStep() float64 {
	return 1 / float64(s.TickRate)
}

func (s SimulationConfig) Interval() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

type CharacterConfig struct {
	Name       string           `yaml:"name"`
	Variant    string           `yaml:"variant"`
	Radius     float64          `yaml:"radius"`
	HalfHeight float64          `yaml:"half_height"`
	Spawn      mgl64.Vec3       `yaml:"spawn"`
	WalkSpeed  float64          `yaml:"walk_speed"`
	Dynamic    dynamic.Config   `yaml:"dynamic"`
	Kinematic  kinematic.Config `yaml:"kinematic"`
}

type SceneConfig struct {
	Boxes []BoxConfig `yaml:"boxes"`
}

type BoxConfig struct {
	Center      mgl64.Vec3 `yaml:"center"`
	HalfExtents mgl64.Vec3 `yaml:"half_extents"`
}

type DebugViewConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`

	// BroadcastEvery sends one snapshot every N ticks.
	BroadcastEvery int `yaml:"broadcast_every"`
}

type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a configuration that runs the demo scene with the dynamic
// controller.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Simulation: SimulationConfig{
			TickRate: 60,
			Gravity:  mgl64.Vec3{0, -9.81, 0},
		},
		Character: CharacterConfig{
			Name:       "player",
			Variant:    string(locomotion.VariantDynamic),
			Radius:     0.5,
			HalfHeight: 0.5,
			Spawn:      mgl64.Vec3{0, 1, 0},
			WalkSpeed:  4.3,
			Dynamic:    dynamic.DefaultConfig(),
			Kinematic:  kinematic.DefaultConfig(),
		},
		Scene: SceneConfig{
			Boxes: []BoxConfig{
				{Center: mgl64.Vec3{0, -0.5, 0}, HalfExtents: mgl64.Vec3{20, 0.5, 20}},
				{Center: mgl64.Vec3{4, 0.15, 0}, HalfExtents: mgl64.Vec3{1, 0.15, 3}},
				{Center: mgl64.Vec3{0, 1.5, 8}, HalfExtents: mgl64.Vec3{6, 1.5, 0.5}},
			},
		},
		DebugView: DebugViewConfig{
			Listen:         "127.0.0.1:8089",
			BroadcastEvery: 2,
		},
		Console: ConsoleConfig{
			Enabled: true,
		},
	}
}

// Load reads path over Default and validates the result. Keys missing from
// the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("%w: simulation.tick_rate must be positive, got %d", ErrInvalid, c.Simulation.TickRate)
	}

	ch := c.Character
	if _, err := locomotion.ParseVariant(ch.Variant); err != nil {
		return fmt.Errorf("%w: character.variant: %w", ErrInvalid, err)
	}
	if ch.Radius <= 0 {
		return fmt.Errorf("%w: character.radius must be positive, got %g", ErrInvalid, ch.Radius)
	}
	if ch.HalfHeight <= 0 {
		return fmt.Errorf("%w: character.half_height must be positive, got %g", ErrInvalid, ch.HalfHeight)
	}
	if ch.WalkSpeed < 0 {
		return fmt.Errorf("%w: character.walk_speed must not be negative, got %g", ErrInvalid, ch.WalkSpeed)
	}
	if ch.Kinematic.StepHeight <= 0 {
		return fmt.Errorf("%w: character.kinematic.step_height must be positive, got %g", ErrInvalid, ch.Kinematic.StepHeight)
	}
	if ch.Dynamic.MaxStepHeight <= 0 {
		return fmt.Errorf("%w: character.dynamic.max_step_height must be positive, got %g", ErrInvalid, ch.Dynamic.MaxStepHeight)
	}
	if ch.Dynamic.SpeedDamping < 0 || ch.Dynamic.SpeedDamping >= 1 {
		return fmt.Errorf("%w: character.dynamic.speed_damping must be in [0, 1), got %g", ErrInvalid, ch.Dynamic.SpeedDamping)
	}

	for i, box := range c.Scene.Boxes {
		for axis := 0; axis < 3; axis++ {
			if box.HalfExtents[axis] <= 0 {
				return fmt.Errorf("%w: scene.boxes[%d].half_extents must be positive", ErrInvalid, i)
			}
		}
	}

	if c.DebugView.Enabled {
		if c.DebugView.Listen == "" {
			return fmt.Errorf("%w: debug_view.listen is required when enabled", ErrInvalid)
		}
		if c.DebugView.BroadcastEvery <= 0 {
			return fmt.Errorf("%w: debug_view.broadcast_every must be positive", ErrInvalid)
		}
	}

	switch c.Logging.Format {
	case "", "console", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}
