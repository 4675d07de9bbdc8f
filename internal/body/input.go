package body

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	SprintSpeedMultiplier = 1.0 + 0.3
	SneakSpeedMultiplier  = 1.0 - 0.7
)

// InputState is the single action format shared by the console and any other
// driver of a Character. Yaw is in degrees; yaw 0 faces +Z.
type InputState struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Jump     bool
	Sneak    bool
	Sprint   bool
	Yaw      float64
}

func normalizeMovementInput(input InputState) InputState {
	out := input

	// Sneaking and sprinting are mutually exclusive.
	if out.Sneak {
		out.Sprint = false
	}
	// Sprint requires forward movement intent.
	if !out.Forward || out.Backward {
		out.Sprint = false
	}

	return out
}

// desiredMoveVector maps the movement keys to a horizontal world direction of
// at most unit length.
func desiredMoveVector(input InputState) mgl64.Vec3 {
	var forward float64
	if input.Forward {
		forward += 1
	}
	if input.Backward {
		forward -= 1
	}

	var strafe float64
	if input.Right {
		strafe -= 1
	}
	if input.Left {
		strafe += 1
	}

	length := math.Sqrt(forward*forward + strafe*strafe)
	if length > 1 {
		forward /= length
		strafe /= length
	}

	yawRad := mgl64.DegToRad(input.Yaw)
	worldX := forward*(-math.Sin(yawRad)) + strafe*math.Cos(yawRad)
	worldZ := forward*math.Cos(yawRad) + strafe*math.Sin(yawRad)

	return mgl64.Vec3{worldX, 0, worldZ}
}

func moveSpeed(input InputState, walkSpeed float64) float64 {
	speed := walkSpeed
	if input.Sprint {
		speed *= SprintSpeedMultiplier
	}
	if input.Sneak {
		speed *= SneakSpeedMultiplier
	}
	if speed < 0 {
		return 0
	}
	return speed
}
