package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/oerror"
	"github.com/oomph-ac/locomotion/physics/boxworld"
	"gopkg.in/yaml.v3"
)

//go:embed default_scenario.yaml
var defaultScenario []byte

// Scenario describes a world, the actors moving in it, the network between their clients and the server and the
// input every actor replays.
type Scenario struct {
	TickRate int   `yaml:"tick_rate"`
	Seed     int64 `yaml:"seed"`
	Actors   int   `yaml:"actors"`

	Link  LinkConfig  `yaml:"link"`
	Spawn [3]float64  `yaml:"spawn"`
	World WorldConfig `yaml:"world"`

	Timeline []Frame `yaml:"timeline"`
}

// LinkConfig configures the simulated network between every client and the server.
type LinkConfig struct {
	LatencyTicks int     `yaml:"latency_ticks"`
	Loss         float64 `yaml:"loss"`
}

type WorldConfig struct {
	Floors []struct {
		Z          float64 `yaml:"z"`
		HalfExtent float64 `yaml:"half_extent"`
	} `yaml:"floors"`
	Boxes []struct {
		Min [3]float64 `yaml:"min"`
		Max [3]float64 `yaml:"max"`
	} `yaml:"boxes"`
	Ramps []struct {
		Min    [2]float64 `yaml:"min"`
		Max    [2]float64 `yaml:"max"`
		BaseZ  float64    `yaml:"base_z"`
		Rise   float64    `yaml:"rise"`
		AlongY bool       `yaml:"along_y"`
	} `yaml:"ramps"`
	Water []struct {
		Min [3]float64 `yaml:"min"`
		Max [3]float64 `yaml:"max"`
	} `yaml:"water"`
	Platforms []struct {
		Origin   [3]float64 `yaml:"origin"`
		Min      [3]float64 `yaml:"min"`
		Max      [3]float64 `yaml:"max"`
		Velocity [3]float64 `yaml:"velocity"`
		YawRate  float64    `yaml:"yaw_rate"`
	} `yaml:"platforms"`
}

// Frame is a span of ticks during which the input of the actors does not change.
type Frame struct {
	Ticks  int        `yaml:"ticks"`
	Input  [3]float64 `yaml:"input"`
	Jump   bool       `yaml:"jump"`
	Crouch bool       `yaml:"crouch"`
	Prone  bool       `yaml:"prone"`
	Gait   string     `yaml:"gait"`

	gait game.Gait
}

// LoadScenario reads the scenario at path. An empty path loads the built-in scenario.
func LoadScenario(path string) (Scenario, error) {
	b := defaultScenario
	if path != "" {
		var err error
		if b, err = os.ReadFile(path); err != nil {
			return Scenario{}, fmt.Errorf("error reading scenario: %w", err)
		}
	}
	return ParseScenario(b)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(b []byte) (Scenario, error) {
	s := Scenario{TickRate: 60, Actors: 1}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Scenario{}, fmt.Errorf("error decoding scenario: %w", err)
	}
	if s.TickRate <= 0 {
		return Scenario{}, oerror.New("tick rate must be positive, got %d", s.TickRate)
	}
	if s.Actors <= 0 {
		return Scenario{}, oerror.New("scenario needs at least one actor, got %d", s.Actors)
	}
	if s.Link.Loss < 0 || s.Link.Loss >= 1 {
		return Scenario{}, oerror.New("packet loss must be in [0, 1), got %v", s.Link.Loss)
	}
	if s.Link.LatencyTicks < 0 {
		return Scenario{}, oerror.New("latency must not be negative, got %d", s.Link.LatencyTicks)
	}
	for i := range s.Timeline {
		f := &s.Timeline[i]
		if f.Ticks <= 0 {
			return Scenario{}, oerror.New("frame %d: ticks must be positive, got %d", i, f.Ticks)
		}
		f.gait = game.GaitRunning
		if f.Gait != "" {
			g, err := game.ParseGait(f.Gait)
			if err != nil {
				return Scenario{}, fmt.Errorf("frame %d: %w", i, err)
			}
			f.gait = g
		}
	}
	return s, nil
}

// DeltaTime returns the duration of a tick.
func (s Scenario) DeltaTime() float64 {
	return 1 / float64(s.TickRate)
}

// Ticks returns the length of the timeline in ticks.
func (s Scenario) Ticks() int {
	var n int
	for _, f := range s.Timeline {
		n += f.Ticks
	}
	return n
}

// FrameAt returns the frame active at tick.
func (s Scenario) FrameAt(tick int) (Frame, bool) {
	for _, f := range s.Timeline {
		if tick < f.Ticks {
			return f, true
		}
		tick -= f.Ticks
	}
	return Frame{}, false
}

// BuildWorld returns a new world holding the geometry of the scenario. Every actor and the server side of every
// actor get their own world so that moving platforms advance once per tick.
func (s Scenario) BuildWorld() *boxworld.World {
	w := boxworld.New()
	for _, f := range s.World.Floors {
		w.AddFloor(f.Z, f.HalfExtent)
	}
	for _, b := range s.World.Boxes {
		w.AddBox(b.Min, b.Max)
	}
	for _, r := range s.World.Ramps {
		w.AddRamp(r.Min, r.Max, r.BaseZ, r.Rise, r.AlongY)
	}
	for _, v := range s.World.Water {
		w.AddWater(v.Min, v.Max)
	}
	for _, p := range s.World.Platforms {
		w.AddPlatform(p.Origin, p.Min, p.Max, p.Velocity, p.YawRate)
	}
	return w
}

func (s Scenario) spawn() mgl64.Vec3 {
	return s.Spawn
}
