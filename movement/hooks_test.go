package movement

import (
	"testing"

	"github.com/oomph-ac/locomotion/game"
)

// stanceHandler records the stance events in the order they were received.
type stanceHandler struct {
	NopHandler
	events []string
}

func (h *stanceHandler) HandleStartCrouch(*Character, float64, float64) {
	h.events = append(h.events, "start crouch")
}
func (h *stanceHandler) HandleEndCrouch(*Character, float64, float64) {
	h.events = append(h.events, "end crouch")
}
func (h *stanceHandler) HandleStartProne(*Character, float64, float64) {
	h.events = append(h.events, "start prone")
}
func (h *stanceHandler) HandleEndProne(*Character, float64, float64) {
	h.events = append(h.events, "end prone")
}

func TestStanceExitRunsBeforeEntry(t *testing.T) {
	tests := []struct {
		name                  string
		crouch, prone         bool
		nextCrouch, nextProne bool
		want                  []string
		wantStance            game.Stance
	}{
		{"crouch to prone", true, false, true, true, []string{"end crouch", "start prone"}, game.StanceProning},
		{"prone to crouch", false, true, true, false, []string{"end prone", "start crouch"}, game.StanceCrouching},
		{"crouch to standing", true, false, false, false, []string{"end crouch"}, game.StanceStanding},
	}
	for _, tt := range tests {
		c, _ := spawnOnFloor(t)
		c.WantsToCrouch, c.WantsToProne = tt.crouch, tt.prone
		c.PerformMovement(testDeltaTime)

		h := &stanceHandler{}
		c.Handle(h)
		c.WantsToCrouch, c.WantsToProne = tt.nextCrouch, tt.nextProne
		c.PerformMovement(testDeltaTime)

		if len(h.events) != len(tt.want) {
			t.Fatalf("%s: expected events %v, got %v", tt.name, tt.want, h.events)
		}
		for i := range tt.want {
			if h.events[i] != tt.want[i] {
				t.Fatalf("%s: expected events %v, got %v", tt.name, tt.want, h.events)
			}
		}
		if c.Stance != tt.wantStance {
			t.Fatalf("%s: expected stance %v, got %v", tt.name, tt.wantStance, c.Stance)
		}
		if c.Crouched && c.Proned {
			t.Fatalf("%s: crouched and proned at once", tt.name)
		}
	}
}

func TestProneWinsOverSlide(t *testing.T) {
	c, _ := spawnOnFloor(t)
	startRunning(c, 500, 2)
	h := &stanceHandler{}
	c.Handle(h)

	c.WantsToCrouch = true
	c.WantsToProne = true
	c.PerformMovement(testDeltaTime)

	if !c.Proned || c.Crouched {
		t.Fatalf("expected prone to win over the slide crouch, got crouched=%v proned=%v", c.Crouched, c.Proned)
	}
	if c.Stance != game.StanceProning || c.HalfHeight != c.PronedHalfHeight() {
		t.Fatalf("expected the proned stance and capsule, got %v with half height %v", c.Stance, c.HalfHeight)
	}
	for _, e := range h.events {
		if e == "start crouch" {
			t.Fatalf("the slide must not crouch the actor when prone is requested, got %v", h.events)
		}
	}
}

func TestBaseHooksIgnoreProne(t *testing.T) {
	c, _ := spawnOnFloor(t)
	c.Hooks = BaseHooks{}
	c.WantsToProne = true
	c.PerformMovement(testDeltaTime)
	if c.Proned {
		t.Fatalf("expected the base hooks to ignore the prone request")
	}
}
