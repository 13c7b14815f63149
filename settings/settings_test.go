package settings

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/oomph-ac/locomotion/game"
	"github.com/pelletier/go-toml"
)

func TestCurveEval(t *testing.T) {
	c := NewCurve(Key{Time: 3, Value: 2500}, Key{Time: 0, Value: 1500}, Key{Time: 2, Value: 2000})

	cases := map[float64]float64{-1: 1500, 0: 1500, 1: 1750, 2: 2000, 2.5: 2250, 3: 2500, 10: 2500}
	for in, want := range cases {
		if got := c.Eval(in); math.Abs(got-want) > 1e-9 {
			t.Fatalf("Eval(%v) = %v, want %v", in, got, want)
		}
	}
	if v := (Curve{}).Eval(1); v != 0 {
		t.Fatalf("an empty curve should evaluate to zero, got %v", v)
	}
}

func TestDefaultSettingsTOMLRoundTrip(t *testing.T) {
	data, err := toml.Marshal(DefaultSettings())
	if err != nil {
		t.Fatalf("failed to encode defaults: %v", err)
	}
	var decoded Settings
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to decode defaults: %v", err)
	}
	if decoded.Character.MaxWalkSpeed != 375 || decoded.Character.SlideTrigger != "SingleTap" {
		t.Fatalf("character settings did not survive the round trip: %+v", decoded.Character)
	}
	if decoded.Network.MaxSavedMoves != 96 {
		t.Fatalf("network settings did not survive the round trip: %+v", decoded.Network)
	}
	if len(decoded.Gait) != len(DefaultSettings().Gait) {
		t.Fatalf("expected %d gait entries, got %d", len(DefaultSettings().Gait), len(decoded.Gait))
	}
}

func TestMovementSettingsTable(t *testing.T) {
	m, err := DefaultSettings().MovementSettings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Len() != 9 {
		t.Fatalf("expected 9 gait entries, got %d", m.Len())
	}
	gs, ok := m.Gait(game.RotationModeViewDirection, game.StanceCrouching)
	if !ok || gs.RunForwardSpeed != 200 || gs.Curve == nil {
		t.Fatalf("unexpected crouching gait settings: %+v", gs)
	}
	accel, _, friction := gs.Curve.Eval(3)
	if accel != 2500 || friction != 6 {
		t.Fatalf("unexpected curve values at gait 3: %v %v", accel, friction)
	}

	empty := NewMovementSettings()
	if gs, ok := empty.Gait(game.RotationModeAiming, game.StanceStanding); ok || gs != (GaitSettings{}) {
		t.Fatalf("a missing entry should yield zeroed settings")
	}
}

func TestMovementSettingsRejectsBadEntries(t *testing.T) {
	s := DefaultSettings()
	s.Gait[0].Stance = "Lying"
	if _, err := s.MovementSettings(); err == nil {
		t.Fatalf("expected an error for an unknown stance")
	}

	s = DefaultSettings()
	s.Gait[0].Friction = []float64{1}
	if _, err := s.MovementSettings(); err == nil {
		t.Fatalf("expected an error for mismatched curve channels")
	}
}

func TestSaveDefaultAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if _, err := Load(path); err == nil {
		t.Fatalf("loading a missing file should fail")
	}
	if err := SaveDefault(path); err != nil {
		t.Fatalf("failed to save defaults: %v", err)
	}
	if err := SaveDefault(path); err == nil {
		t.Fatalf("saving over an existing file should fail")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("settings file missing: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	if s.Character.CrouchedHalfHeight != 56 || len(s.Gait) != 9 {
		t.Fatalf("loaded settings differ from defaults: %+v", s.Character)
	}
}
