// Package kinematic moves a ghost collision proxy with discrete sweep tests
// instead of simulated forces. Controller is the phased legacy strategy;
// SimpleController folds every phase into one sweep-and-slide pass.
package kinematic

type Config struct {
	StepHeight        float64 `yaml:"step_height"`
	Gravity           float64 `yaml:"gravity"`
	FallSpeed         float64 `yaml:"fall_speed"`
	JumpSpeed         float64 `yaml:"jump_speed"`
	MaxSlopeDegrees   float64 `yaml:"max_slope_degrees"`
	AddedMargin       float64 `yaml:"added_margin"`
	InterpolateUp     bool    `yaml:"interpolate_up"`
	UseGhostSweepTest bool    `yaml:"use_ghost_sweep_test"`
	BounceFix         bool    `yaml:"bounce_fix"`
}

// DefaultConfig falls at three times earth gravity up to a sky diver's
// terminal velocity.
func DefaultConfig() Config {
	return Config{
		StepHeight:        0.35,
		Gravity:           9.8 * 3,
		FallSpeed:         55,
		JumpSpeed:         10,
		MaxSlopeDegrees:   45,
		AddedMargin:       0.02,
		InterpolateUp:     true,
		UseGhostSweepTest: true,
		BounceFix:         false,
	}
}
