package movement

import "github.com/go-gl/mathgl/mgl64"

// Config holds the simulation switches that are not part of the tuning of an actor.
type Config struct {
	// GravityDirection is the unit direction of gravity. Up is its opposite.
	GravityDirection mgl64.Vec3

	// MaxSimulationTimeStep is the longest time slice simulated in one iteration of an integrator.
	MaxSimulationTimeStep float64
	// MaxSimulationIterations caps the iterations of the integrators per tick.
	MaxSimulationIterations int
	// MaxJumpApexAttemptsPerSimulation caps the sub steps inserted to land exactly on the apex of a jump.
	MaxJumpApexAttemptsPerSimulation int
	// ForceJumpPeakSubstep enables the apex sub steps.
	ForceJumpPeakSubstep bool

	// ImprovedPenetrationAdjust resolves floor penetrations even when the floor is walkable.
	ImprovedPenetrationAdjust bool
	// LedgeMovementApplyDirectMove moves the actor along a ledge move directly instead of redirecting its velocity.
	LedgeMovementApplyDirectMove bool

	// TerminalVelocity is the fastest an actor can fall.
	TerminalVelocity float64
	// FluidFriction is the friction of water, and half of it the friction of air while flying.
	FluidFriction float64

	MaxDepenetrationWithGeometry        float64
	MaxDepenetrationWithGeometryAsProxy float64

	// NetworkSmoothing shifts the mesh offset when the capsule height changes on smoothed actors.
	NetworkSmoothing bool
	// RunPhysicsWithNoController allows physics rotation events for actors without a controller.
	RunPhysicsWithNoController bool
	// DebugMovement logs mode changes and stance transitions at debug level.
	DebugMovement bool
}

// DefaultConfig returns the default simulation config.
func DefaultConfig() Config {
	return Config{
		GravityDirection:                    mgl64.Vec3{0, 0, -1},
		MaxSimulationTimeStep:               0.05,
		MaxSimulationIterations:             8,
		MaxJumpApexAttemptsPerSimulation:    2,
		ForceJumpPeakSubstep:                true,
		ImprovedPenetrationAdjust:           true,
		LedgeMovementApplyDirectMove:        true,
		TerminalVelocity:                    4000,
		FluidFriction:                       0.3,
		MaxDepenetrationWithGeometry:        500,
		MaxDepenetrationWithGeometryAsProxy: 100,
		NetworkSmoothing:                    true,
		RunPhysicsWithNoController:          true,
	}
}
