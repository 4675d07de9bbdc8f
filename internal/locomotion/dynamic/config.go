package dynamic

import "github.com/Versifine/locomotion/internal/collision"

type Config struct {
	MaxLinearVelocity   float64          `yaml:"max_linear_velocity"`
	WalkAcceleration    float64          `yaml:"walk_acceleration"`
	JumpSpeed           float64          `yaml:"jump_speed"`
	SpeedDamping        float64          `yaml:"speed_damping"`
	MaxStepHeight       float64          `yaml:"max_step_height"`
	SteppingSpeed       float64          `yaml:"stepping_speed"`
	MaxCosGround        float64          `yaml:"max_cos_ground"`
	GroundSearchMargin  float64          `yaml:"ground_search_margin"`
	StepSearchOvershoot float64          `yaml:"step_search_overshoot"`
	StepDirectionMinDot float64          `yaml:"step_direction_min_dot"`
	StaticRaycast       collision.Filter `yaml:"static_raycast"`
}

func DefaultConfig() Config {
	return Config{
		MaxLinearVelocity:   11,
		WalkAcceleration:    30,
		JumpSpeed:           10,
		SpeedDamping:        0.1,
		MaxStepHeight:       1.2,
		SteppingSpeed:       5,
		MaxCosGround:        -0.70710678,
		GroundSearchMargin:  0.01,
		StepSearchOvershoot: 0.01,
		StepDirectionMinDot: 0.3,
		StaticRaycast: collision.Filter{
			Group: collision.GroupDefault,
			Mask:  collision.GroupStatic,
		},
	}
}
