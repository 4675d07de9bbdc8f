package event

import "github.com/go-gl/mathgl/mgl64"

const (
	EventLanded       = "character.landed"
	EventJumped       = "character.jumped"
	EventLeftGround   = "character.left_ground"
	EventStepStarted  = "character.step_started"
	EventStepFinished = "character.step_finished"
	EventWarped       = "character.warped"
	EventReset        = "character.reset"
)

// AllLocomotionEvents lists every event a character publishes.
var AllLocomotionEvents = []string{
	EventLanded,
	EventJumped,
	EventLeftGround,
	EventStepStarted,
	EventStepFinished,
	EventWarped,
	EventReset,
}

type LocomotionEvent struct {
	Character string     `json:"character"`
	Variant   string     `json:"variant"`
	Tick      uint64     `json:"tick"`
	Position  mgl64.Vec3 `json:"position"`
}
