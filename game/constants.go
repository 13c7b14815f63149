package game

const (
	// MinTickTime is the smallest time slice the integrators will simulate.
	MinTickTime = 1e-6
	// MaxFloorDist and MinFloorDist bound the gap kept between a walking capsule and its floor.
	MaxFloorDist = 2.4
	MinFloorDist = 1.9
	// SweepEdgeRejectDistance is the band near the capsule radius where floor hits are rejected.
	SweepEdgeRejectDistance = 0.15
	// BrakeToStopVelocity is the speed below which braking stops the actor.
	BrakeToStopVelocity = 10.0
	// MaxStepSideZ is the maximum Z component of a wall normal that can be stepped over.
	MaxStepSideZ = 0.08
	// SwimBobSpeed is the vertical speed used when entering water from above.
	SwimBobSpeed = -80.0
	// PenetrationPullbackDistance is added to penetration depths when escaping overlaps.
	PenetrationPullbackDistance = 0.125
	// LedgeCheckThreshold is the extra depth traced below a side step when searching for ledge moves.
	LedgeCheckThreshold = 4.0
	// DefaultGravityZ is the gravity acceleration in cm/s².
	DefaultGravityZ = -980.0
	// MaxPositionErrorSquared is the default squared error above which a server corrects a client.
	MaxPositionErrorSquared = 3.0
)
