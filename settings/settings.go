package settings

import (
	"errors"
	"fmt"
	"os"

	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/oerror"
	"github.com/pelletier/go-toml"
)

// Settings contains everything that can be configured for an actor and for the prediction protocol.
type Settings struct {
	Character CharacterSettings
	Network   NetworkSettings
	// VelocityAngleToSpeedInterpolationRange holds the two angles, in degrees, between which direction dependent
	// speeds blend from forward to backward.
	VelocityAngleToSpeedInterpolationRange []float64
	Gait                                   []GaitEntry
}

// CharacterSettings are the tuning values of an actor.
type CharacterSettings struct {
	Radius             float64
	HalfHeight         float64
	CrouchedHalfHeight float64
	PronedHalfHeight   float64

	MinAnalogWalkSpeed   float64
	MaxWalkSpeed         float64
	MaxWalkSpeedCrouched float64
	MaxWalkSpeedProned   float64
	MaxFlySpeed          float64
	MaxSwimSpeed         float64
	MaxCustomSpeed       float64

	MaxAcceleration             float64
	MaxAccelerationWalking      float64
	BrakingDecelerationWalking  float64
	BrakingDecelerationFalling  float64
	BrakingDecelerationFlying   float64
	BrakingDecelerationSwimming float64
	GroundFriction              float64
	BrakingFriction             float64
	BrakingFrictionFactor       float64
	UseSeparateBrakingFriction  bool
	FallingLateralFriction      float64

	AirControl                       float64
	AirControlBoostMultiplier        float64
	AirControlBoostVelocityThreshold float64

	GravityScale      float64
	JumpZVelocity     float64
	JumpMaxHoldTime   float64
	JumpMaxCount      int
	Buoyancy          float64
	OutOfWaterZ       float64
	WaterImmersionMin float64

	WalkableFloorAngle    float64
	MaxStepHeight         float64
	PerchRadiusThreshold  float64
	PerchAdditionalHeight float64

	CanCrouch                        bool
	CanProne                         bool
	CanWalkOffLedges                 bool
	CanWalkOffLedgesWhenCrouching    bool
	CanWalkOffLedgesWhenProning      bool
	IgnoreBaseRotation               bool
	AlwaysCheckFloor                 bool
	MaintainHorizontalGroundVelocity bool

	// SlideTrigger is either "SingleTap" or "DoubleTap".
	SlideTrigger                 string
	SlideEnterImpulse            float64
	MinSlideSpeed                float64
	MaxSlideSpeed                float64
	MinSlideGaitAmount           float64
	SlideGravityForce            float64
	SlideFrictionFactor          float64
	BrakingDecelerationSliding   float64
	SlideSteeringStrength        float64
	AllowForwardInputDuringSlide bool
	SlideForwardInputStrength    float64
}

// NetworkSettings configure client prediction and server validation.
type NetworkSettings struct {
	// MaxPositionErrorSquared is the squared distance above which the server corrects a client.
	MaxPositionErrorSquared float64
	// MaxSavedMoves is the capacity of the client's saved move buffer.
	MaxSavedMoves int
	// MaxMoveDeltaTime caps the delta time of a single move, both when combining and when verifying on the server.
	MaxMoveDeltaTime float64
	// NetSendMoveDeltaTime is the minimum time between two moves sent by the client. Moves younger than this are
	// held back so they can be combined.
	NetSendMoveDeltaTime float64
	// AccelDotThresholdCombine is the minimum dot product between two normalised accelerations for their moves to
	// be combined.
	AccelDotThresholdCombine float64
	// MinTimeBetweenTimeStampResets is the time after which the client restarts its timestamps from zero.
	MinTimeBetweenTimeStampResets float64
}

// GaitEntry is the TOML form of a gait table entry. CurveKeys holds the gait amounts at which the three value
// arrays are sampled, which must all have the same length as CurveKeys.
type GaitEntry struct {
	RotationMode            string
	Stance                  string
	DirectionDependentSpeed bool

	WalkForward  float64
	WalkBackward float64
	RunForward   float64
	RunBackward  float64
	Sprint       float64

	CurveKeys    []float64
	Acceleration []float64
	Deceleration []float64
	Friction     []float64
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	s := Settings{}

	c := &s.Character
	c.Radius = 30
	c.HalfHeight = 90
	c.CrouchedHalfHeight = 56
	c.PronedHalfHeight = 28

	c.MinAnalogWalkSpeed = 25
	c.MaxWalkSpeed = 375
	c.MaxWalkSpeedCrouched = 150
	c.MaxWalkSpeedProned = 90
	c.MaxFlySpeed = 600
	c.MaxSwimSpeed = 300
	c.MaxCustomSpeed = 600

	c.MaxAcceleration = 2000
	c.MaxAccelerationWalking = 2000
	c.BrakingDecelerationWalking = 1500
	c.BrakingDecelerationFlying = 0
	c.BrakingDecelerationSwimming = 0
	c.GroundFriction = 4
	c.BrakingFrictionFactor = 0

	c.AirControl = 0.15
	c.AirControlBoostMultiplier = 2
	c.AirControlBoostVelocityThreshold = 25

	c.GravityScale = 1
	c.JumpZVelocity = 420
	c.JumpMaxCount = 1
	c.Buoyancy = 1
	c.OutOfWaterZ = 420
	c.WaterImmersionMin = 0.5

	c.WalkableFloorAngle = 44.765
	c.MaxStepHeight = 45
	c.PerchRadiusThreshold = 15
	c.PerchAdditionalHeight = 0

	c.CanCrouch = true
	c.CanProne = true
	c.CanWalkOffLedges = true
	c.CanWalkOffLedgesWhenCrouching = true
	c.CanWalkOffLedgesWhenProning = true
	c.IgnoreBaseRotation = true
	c.AlwaysCheckFloor = true
	c.MaintainHorizontalGroundVelocity = true

	c.SlideTrigger = "SingleTap"
	c.SlideEnterImpulse = 400
	c.MinSlideSpeed = 350
	c.MaxSlideSpeed = 1200
	c.MinSlideGaitAmount = 1.5
	c.SlideGravityForce = 4000
	c.SlideFrictionFactor = 0.06
	c.BrakingDecelerationSliding = 1000
	c.SlideSteeringStrength = 0.5
	c.AllowForwardInputDuringSlide = false
	c.SlideForwardInputStrength = 0.3

	n := &s.Network
	n.MaxPositionErrorSquared = game.MaxPositionErrorSquared
	n.MaxSavedMoves = 96
	n.MaxMoveDeltaTime = 0.125
	n.NetSendMoveDeltaTime = 1.0 / 60.0
	n.AccelDotThresholdCombine = 0.996
	n.MinTimeBetweenTimeStampResets = 240

	s.VelocityAngleToSpeedInterpolationRange = []float64{100, 125}

	curveKeys := []float64{0, 1, 2, 3}
	accel := []float64{1500, 1750, 2000, 2500}
	decel := []float64{1500, 1333, 1166, 1000}
	friction := []float64{8, 7.33, 6.67, 6}
	for _, mode := range []string{"VelocityDirection", "ViewDirection", "Aiming"} {
		directional := mode != "VelocityDirection"
		s.Gait = append(s.Gait,
			GaitEntry{
				RotationMode: mode, Stance: "Standing", DirectionDependentSpeed: directional,
				WalkForward: 175, WalkBackward: 175, RunForward: 375, RunBackward: 300, Sprint: 650,
				CurveKeys: curveKeys, Acceleration: accel, Deceleration: decel, Friction: friction,
			},
			GaitEntry{
				RotationMode: mode, Stance: "Crouching", DirectionDependentSpeed: directional,
				WalkForward: 150, WalkBackward: 150, RunForward: 200, RunBackward: 175, Sprint: 300,
				CurveKeys: curveKeys, Acceleration: accel, Deceleration: decel, Friction: friction,
			},
			GaitEntry{
				RotationMode: mode, Stance: "Proning",
				WalkForward: 60, WalkBackward: 60, RunForward: 90, RunBackward: 90, Sprint: 90,
				CurveKeys: curveKeys, Acceleration: accel, Deceleration: decel, Friction: friction,
			},
		)
	}
	return s
}

// MovementSettings builds the gait table described by the settings.
func (s Settings) MovementSettings() (*MovementSettings, error) {
	m := NewMovementSettings()
	if r := s.VelocityAngleToSpeedInterpolationRange; len(r) != 0 {
		if len(r) != 2 {
			return nil, oerror.New("VelocityAngleToSpeedInterpolationRange must have two values, got %d", len(r))
		}
		m.VelocityAngleToSpeedInterpolationRange = [2]float64{r[0], r[1]}
	}

	for i, entry := range s.Gait {
		mode, err := game.ParseRotationMode(entry.RotationMode)
		if err != nil {
			return nil, fmt.Errorf("gait entry %d: %w", i, err)
		}
		stance, err := game.ParseStance(entry.Stance)
		if err != nil {
			return nil, fmt.Errorf("gait entry %d: %w", i, err)
		}
		curve, err := entry.curve()
		if err != nil {
			return nil, fmt.Errorf("gait entry %d: %w", i, err)
		}
		m.Set(mode, stance, GaitSettings{
			AllowDirectionDependentMovementSpeed: entry.DirectionDependentSpeed,
			WalkForwardSpeed:                     entry.WalkForward,
			WalkBackwardSpeed:                    entry.WalkBackward,
			RunForwardSpeed:                      entry.RunForward,
			RunBackwardSpeed:                     entry.RunBackward,
			SprintSpeed:                          entry.Sprint,
			Curve:                                curve,
		})
	}
	return m, nil
}

func (e GaitEntry) curve() (*CurveVector, error) {
	if len(e.CurveKeys) == 0 {
		return nil, nil
	}
	n := len(e.CurveKeys)
	if len(e.Acceleration) != n || len(e.Deceleration) != n || len(e.Friction) != n {
		return nil, oerror.New("curve channels must have %d values each", n)
	}

	accel, decel, friction := make([]Key, n), make([]Key, n), make([]Key, n)
	for i, t := range e.CurveKeys {
		accel[i] = Key{Time: t, Value: e.Acceleration[i]}
		decel[i] = Key{Time: t, Value: e.Deceleration[i]}
		friction[i] = Key{Time: t, Value: e.Friction[i]}
	}
	return &CurveVector{
		Acceleration: NewCurve(accel...),
		Deceleration: NewCurve(decel...),
		Friction:     NewCurve(friction...),
	}, nil
}

// SaveDefault will create and save the default settings file. If the file already exists, it will return an error.
func SaveDefault(path string) error {
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return oerror.New("settings file %s already exists", path)
	}
	data, err := toml.Marshal(DefaultSettings())
	if err != nil {
		return fmt.Errorf("failed encoding default settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed creating settings file: %w", err)
	}
	return nil
}

// Load will load the settings from your settings file, and return an error if the file does not exist.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Settings{}, oerror.New("settings file %s doesn't exist", path)
	} else if err != nil {
		return Settings{}, fmt.Errorf("error reading settings: %w", err)
	}

	settings := DefaultSettings()
	settings.Gait = nil
	if err = toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("error decoding settings: %w", err)
	}
	if _, err := settings.MovementSettings(); err != nil {
		return Settings{}, fmt.Errorf("invalid gait settings: %w", err)
	}
	return settings, nil
}
