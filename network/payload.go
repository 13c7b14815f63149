package network

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/internal"
	"github.com/oomph-ac/locomotion/movement"
	"github.com/oomph-ac/locomotion/oerror"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

// maxMovesPerPacket is the most moves a packet may carry besides the old move: the pending move and the new one.
const maxMovesPerPacket = 2

// DefaultMoveData returns the tags that are left out of a payload.
func DefaultMoveData() movement.MoveData {
	return movement.MoveData{
		RotationMode:   game.RotationModeViewDirection,
		Stance:         game.StanceStanding,
		MaxAllowedGait: game.GaitRunning,
	}
}

// MovePayload is one move as sent from the client to the server.
type MovePayload struct {
	TimeStamp    float32
	Acceleration mgl32.Vec3
	Pitch, Yaw   float32
	Flags        uint8
	Data         movement.MoveData

	// HasLocation is set on the move the server checks the client position against.
	HasLocation bool
	Location    mgl32.Vec3
	// Mode is the packed movement mode of the client after the move.
	Mode uint8
}

// Marshal encodes or decodes the payload. Tags equal to their default are only sent as a single flag.
func (m *MovePayload) Marshal(io protocol.IO) {
	io.Float32(&m.TimeStamp)
	io.Vec3(&m.Acceleration)
	io.Float32(&m.Pitch)
	io.Float32(&m.Yaw)
	io.Uint8(&m.Flags)

	def := DefaultMoveData()
	optionalTag(io, &m.Data.RotationMode, def.RotationMode)
	optionalTag(io, &m.Data.Stance, def.Stance)
	optionalTag(io, &m.Data.MaxAllowedGait, def.MaxAllowedGait)

	io.Bool(&m.HasLocation)
	if m.HasLocation {
		io.Vec3(&m.Location)
		io.Uint8(&m.Mode)
	}
}

// ControlRotation returns the view rotation the move was made with.
func (m *MovePayload) ControlRotation() game.Rotator {
	return game.Rotator{Pitch: float64(m.Pitch), Yaw: float64(m.Yaw)}
}

func (m *MovePayload) validate() error {
	if !m.Data.RotationMode.Valid() || !m.Data.Stance.Valid() || !m.Data.MaxAllowedGait.Valid() {
		return oerror.New("invalid move tags %v/%v/%v", m.Data.RotationMode, m.Data.Stance, m.Data.MaxAllowedGait)
	}
	if math.IsNaN(float64(m.TimeStamp)) || math.IsInf(float64(m.TimeStamp), 0) {
		return oerror.New("invalid move timestamp %v", m.TimeStamp)
	}
	return nil
}

// optionalTag writes a presence flag followed by the tag if it differs from def. When reading, an absent tag
// yields def.
func optionalTag[T ~uint8](io protocol.IO, v *T, def T) {
	present := *v != def
	io.Bool(&present)
	if !present {
		*v = def
		return
	}
	raw := uint8(*v)
	io.Uint8(&raw)
	*v = T(raw)
}

// MovePacket is everything the client sends for one network update: an optional important move that was
// already sent before, the pending move that was held back and the new move.
type MovePacket struct {
	HasOld bool
	Old    MovePayload
	Moves  []MovePayload
}

func (p *MovePacket) Marshal(io protocol.IO) {
	io.Bool(&p.HasOld)
	if p.HasOld {
		p.Old.Marshal(io)
	}
	count := uint32(len(p.Moves))
	io.Varuint32(&count)
	if count > maxMovesPerPacket {
		panic(oerror.New("move packet holds %d moves, at most %d allowed", count, maxMovesPerPacket))
	}
	if int(count) != len(p.Moves) {
		p.Moves = make([]MovePayload, count)
	}
	for i := range p.Moves {
		p.Moves[i].Marshal(io)
	}
}

// Response is the answer of the server to the newest move of a packet: either an acknowledgement or a
// correction carrying the authoritative state.
type Response struct {
	TimeStamp float32
	Ack       bool
	// Hash is the HashState of the server after the acknowledged move.
	Hash uint64

	Location   mgl64.Vec3
	Velocity   mgl64.Vec3
	Mode       movement.Mode
	CustomMode movement.CustomMode
	// BaseID is the ID of the movement base, or zero if there is none.
	BaseID uint64
}

// Marshal encodes or decodes the response. Corrections carry the exact server state so that the client replays
// from the same values the server has.
func (r *Response) Marshal(io protocol.IO) {
	io.Float32(&r.TimeStamp)
	io.Bool(&r.Ack)
	if r.Ack {
		io.Uint64(&r.Hash)
		return
	}
	exactVec3(io, &r.Location)
	exactVec3(io, &r.Velocity)
	mode := packMode(r.Mode, r.CustomMode)
	io.Uint8(&mode)
	r.Mode, r.CustomMode = unpackMode(mode)
	io.Varuint64(&r.BaseID)
}

func exactVec3(io protocol.IO, v *mgl64.Vec3) {
	for i := range v {
		bits := math.Float64bits(v[i])
		io.Uint64(&bits)
		v[i] = math.Float64frombits(bits)
	}
}

type marshaler interface {
	Marshal(io protocol.IO)
}

func encode(m marshaler) []byte {
	buf := internal.BufferPool.Get().(*bytes.Buffer)
	defer internal.BufferPool.Put(buf)

	buf.Reset()
	m.Marshal(protocol.NewWriter(buf, 0))
	return bytes.Clone(buf.Bytes())
}

func decode(b []byte, m marshaler) (err error) {
	buf := internal.BufferPool.Get().(*bytes.Buffer)
	defer internal.BufferPool.Put(buf)

	buf.Reset()
	buf.Write(b)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed payload: %v", r)
		}
	}()
	m.Marshal(protocol.NewReader(buf, 0, false))
	if buf.Len() != 0 {
		return oerror.New("%d unread bytes after payload", buf.Len())
	}
	return nil
}

// EncodeMovePacket returns the wire form of the packet.
func EncodeMovePacket(p MovePacket) []byte {
	return encode(&p)
}

// DecodeMovePacket decodes a packet and validates every move in it.
func DecodeMovePacket(b []byte) (MovePacket, error) {
	var p MovePacket
	if err := decode(b, &p); err != nil {
		return MovePacket{}, fmt.Errorf("error decoding move packet: %w", err)
	}
	if p.HasOld {
		if err := p.Old.validate(); err != nil {
			return MovePacket{}, fmt.Errorf("old move: %w", err)
		}
	}
	for i := range p.Moves {
		if err := p.Moves[i].validate(); err != nil {
			return MovePacket{}, fmt.Errorf("move %d: %w", i, err)
		}
	}
	return p, nil
}

// EncodeResponse returns the wire form of the response.
func EncodeResponse(r Response) []byte {
	return encode(&r)
}

// DecodeResponse decodes a response of the server.
func DecodeResponse(b []byte) (Response, error) {
	var r Response
	if err := decode(b, &r); err != nil {
		return Response{}, fmt.Errorf("error decoding response: %w", err)
	}
	return r, nil
}
