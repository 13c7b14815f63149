package network

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/movement"
)

func TestMovePacketEncoding(t *testing.T) {
	pk := MovePacket{
		HasOld: true,
		Old:    MovePayload{TimeStamp: 0.5, Flags: movement.FlagJumpPressed, Data: DefaultMoveData()},
		Moves: []MovePayload{
			{
				TimeStamp:    0.75,
				Acceleration: mgl32.Vec3{1200.5, -300, 0},
				Pitch:        -10,
				Yaw:          95.5,
				Flags:        movement.FlagWantsToCrouch | movement.FlagWantsToProne,
				Data: movement.MoveData{
					RotationMode:   game.RotationModeAiming,
					Stance:         game.StanceCrouching,
					MaxAllowedGait: game.GaitSprinting,
				},
				HasLocation: true,
				Location:    mgl32.Vec3{100.25, -50.5, 92.15},
				Mode:        packMode(movement.ModeCustom, movement.CustomSlide),
			},
		},
	}

	got, err := DecodeMovePacket(EncodeMovePacket(pk))
	if err != nil {
		t.Fatalf("failed decoding move packet: %v", err)
	}
	if !got.HasOld || got.Old != pk.Old {
		t.Fatalf("expected old move %+v, got %+v", pk.Old, got.Old)
	}
	if len(got.Moves) != 1 || got.Moves[0] != pk.Moves[0] {
		t.Fatalf("expected moves %+v, got %+v", pk.Moves, got.Moves)
	}
	if mode, custom := unpackMode(got.Moves[0].Mode); mode != movement.ModeCustom || custom != movement.CustomSlide {
		t.Fatalf("expected custom slide mode, got %v/%v", mode, custom)
	}
}

func TestDefaultTagsAreShorter(t *testing.T) {
	def := MovePacket{Moves: []MovePayload{{TimeStamp: 1, Data: DefaultMoveData()}}}
	custom := MovePacket{Moves: []MovePayload{{TimeStamp: 1, Data: movement.MoveData{
		RotationMode:   game.RotationModeVelocityDirection,
		Stance:         game.StanceProning,
		MaxAllowedGait: game.GaitWalking,
	}}}}
	a, b := EncodeMovePacket(def), EncodeMovePacket(custom)
	if len(a)+3 != len(b) {
		t.Fatalf("expected default tags to save one byte each, got %d and %d bytes", len(a), len(b))
	}
}

func TestDecodeMovePacketErrors(t *testing.T) {
	valid := EncodeMovePacket(MovePacket{Moves: []MovePayload{{TimeStamp: 1, Data: DefaultMoveData(), HasLocation: true}}})

	invalidTag := MovePacket{Moves: []MovePayload{{TimeStamp: 1, Data: DefaultMoveData()}}}
	invalidTag.Moves[0].Data.Stance = game.Stance(42)

	tests := map[string][]byte{
		"empty":       nil,
		"truncated":   valid[:len(valid)-3],
		"trailing":    append(append([]byte{}, valid...), 0x01),
		"invalid tag": EncodeMovePacket(invalidTag),
		"too many":    append([]byte{0x00, 0x03}, make([]byte, 64)...),
	}
	for name, b := range tests {
		if _, err := DecodeMovePacket(b); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestResponseEncoding(t *testing.T) {
	ack := Response{TimeStamp: 3.5, Ack: true, Hash: 0xdeadbeef}
	got, err := DecodeResponse(EncodeResponse(ack))
	if err != nil {
		t.Fatalf("failed decoding ack: %v", err)
	}
	if got != ack {
		t.Fatalf("expected %+v, got %+v", ack, got)
	}

	correction := Response{
		TimeStamp:  4,
		Location:   mgl64.Vec3{1.0 / 3.0, -2.123456789, 92.15},
		Velocity:   mgl64.Vec3{375.000001, 0, -420},
		Mode:       movement.ModeFalling,
		CustomMode: movement.CustomNone,
		BaseID:     17,
	}
	got, err = DecodeResponse(EncodeResponse(correction))
	if err != nil {
		t.Fatalf("failed decoding correction: %v", err)
	}
	if got != correction {
		t.Fatalf("expected the exact state %+v, got %+v", correction, got)
	}
}
