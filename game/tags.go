package game

import (
	"strings"

	"github.com/oomph-ac/locomotion/oerror"
)

// RotationMode is the replicated rotation mode tag of an actor.
type RotationMode uint8

const (
	RotationModeVelocityDirection RotationMode = iota
	RotationModeViewDirection
	RotationModeAiming
)

// Stance is the replicated stance tag of an actor.
type Stance uint8

const (
	StanceStanding Stance = iota
	StanceCrouching
	StanceProning
)

// Gait is the replicated maximum allowed gait tag of an actor.
type Gait uint8

const (
	GaitWalking Gait = iota
	GaitRunning
	GaitSprinting
)

var (
	rotationModeNames = [...]string{"VelocityDirection", "ViewDirection", "Aiming"}
	stanceNames       = [...]string{"Standing", "Crouching", "Proning"}
	gaitNames         = [...]string{"Walking", "Running", "Sprinting"}
)

func (m RotationMode) String() string {
	if int(m) < len(rotationModeNames) {
		return rotationModeNames[m]
	}
	return "Unknown"
}

func (s Stance) String() string {
	if int(s) < len(stanceNames) {
		return stanceNames[s]
	}
	return "Unknown"
}

func (g Gait) String() string {
	if int(g) < len(gaitNames) {
		return gaitNames[g]
	}
	return "Unknown"
}

// Valid reports whether the tag is one of the known rotation modes.
func (m RotationMode) Valid() bool { return int(m) < len(rotationModeNames) }

// Valid reports whether the tag is one of the known stances.
func (s Stance) Valid() bool { return int(s) < len(stanceNames) }

// Valid reports whether the tag is one of the known gaits.
func (g Gait) Valid() bool { return int(g) < len(gaitNames) }

// ParseRotationMode parses the case-insensitive name of a rotation mode.
func ParseRotationMode(name string) (RotationMode, error) {
	for i, n := range rotationModeNames {
		if strings.EqualFold(n, name) {
			return RotationMode(i), nil
		}
	}
	return 0, oerror.New("unknown rotation mode %q", name)
}

// ParseStance parses the case-insensitive name of a stance.
func ParseStance(name string) (Stance, error) {
	for i, n := range stanceNames {
		if strings.EqualFold(n, name) {
			return Stance(i), nil
		}
	}
	return 0, oerror.New("unknown stance %q", name)
}

// ParseGait parses the case-insensitive name of a gait.
func ParseGait(name string) (Gait, error) {
	for i, n := range gaitNames {
		if strings.EqualFold(n, name) {
			return Gait(i), nil
		}
	}
	return 0, oerror.New("unknown gait %q", name)
}
