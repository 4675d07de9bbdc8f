package event

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

func NewLocomotionEvent(character, variant string, tick uint64, pos mgl64.Vec3) *LocomotionEvent {
	return &LocomotionEvent{
		Character: character,
		Variant:   variant,
		Tick:      tick,
		Position:  pos,
	}
}

// LogHandler returns a handler that logs locomotion events under name.
func LogHandler(name string) HandlerFunc {
	return func(raw any) {
		evt, ok := raw.(*LocomotionEvent)
		if !ok {
			slog.Error("Invalid event type for locomotion log handler", "event", name)
			return
		}
		slog.Info("Locomotion event",
			"event", name,
			"character", evt.Character,
			"variant", evt.Variant,
			"tick", evt.Tick,
			"x", evt.Position.X(),
			"y", evt.Position.Y(),
			"z", evt.Position.Z(),
		)
	}
}

// SubscribeLogging attaches LogHandler to every locomotion event.
func SubscribeLogging(b *Bus) {
	for _, name := range AllLocomotionEvents {
		b.Subscribe(name, LogHandler(name))
	}
}
