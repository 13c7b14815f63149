package settings

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/oomph-ac/locomotion/game"
)

// GaitSettings are the speeds and curves used for one rotation mode and stance pair.
type GaitSettings struct {
	// AllowDirectionDependentMovementSpeed makes the walk and run speeds depend on the angle between the velocity
	// and the view direction.
	AllowDirectionDependentMovementSpeed bool

	WalkForwardSpeed  float64
	WalkBackwardSpeed float64
	RunForwardSpeed   float64
	RunBackwardSpeed  float64
	SprintSpeed       float64

	// Curve maps the gait amount to acceleration, deceleration and ground friction. A nil curve leaves those values
	// untouched.
	Curve *CurveVector
}

// GaitKey identifies an entry of the gait table.
type GaitKey struct {
	RotationMode game.RotationMode
	Stance       game.Stance
}

// MovementSettings is the gait settings table shared by every actor using the same settings.
type MovementSettings struct {
	// VelocityAngleToSpeedInterpolationRange is the range of absolute velocity angles, in degrees, over which the
	// forward speeds blend into the backward speeds.
	VelocityAngleToSpeedInterpolationRange [2]float64

	gaits *orderedmap.OrderedMap[GaitKey, GaitSettings]
}

// NewMovementSettings returns an empty table.
func NewMovementSettings() *MovementSettings {
	return &MovementSettings{
		VelocityAngleToSpeedInterpolationRange: [2]float64{100, 125},
		gaits:                                  orderedmap.NewOrderedMap[GaitKey, GaitSettings](),
	}
}

// Set stores the gait settings for the given rotation mode and stance.
func (m *MovementSettings) Set(mode game.RotationMode, stance game.Stance, gs GaitSettings) {
	m.gaits.Set(GaitKey{RotationMode: mode, Stance: stance}, gs)
}

// Gait looks up the gait settings for the given rotation mode and stance. Missing entries yield zeroed settings.
func (m *MovementSettings) Gait(mode game.RotationMode, stance game.Stance) (GaitSettings, bool) {
	if m == nil || m.gaits == nil {
		return GaitSettings{}, false
	}
	return m.gaits.Get(GaitKey{RotationMode: mode, Stance: stance})
}

// Len returns the number of entries in the table.
func (m *MovementSettings) Len() int {
	if m == nil || m.gaits == nil {
		return 0
	}
	return m.gaits.Len()
}

// Each calls f for every entry in insertion order.
func (m *MovementSettings) Each(f func(key GaitKey, gs GaitSettings)) {
	if m == nil || m.gaits == nil {
		return
	}
	for el := m.gaits.Front(); el != nil; el = el.Next() {
		f(el.Key, el.Value)
	}
}
