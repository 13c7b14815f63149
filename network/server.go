package network

import (
	"log/slog"
	"math"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/oomph-ac/locomotion/movement"
	"github.com/oomph-ac/locomotion/settings"
	"github.com/oomph-ac/locomotion/utils"
)

// Server runs the moves of a remote autonomous proxy and checks the client position after each packet.
type Server struct {
	c    *movement.Character
	conf settings.NetworkSettings
	log  *slog.Logger

	currentClientTimeStamp float32
	// accumulated is the time simulated for the client since the last timestamp reset.
	accumulated float64
	received    bool

	response    Response
	hasResponse bool

	// Corrections counts the corrections sent to the client.
	Corrections int
}

// NewServer makes the actor the authority over a remote autonomous proxy.
func NewServer(c *movement.Character, conf settings.NetworkSettings, log *slog.Logger) *Server {
	if log == nil {
		log = c.Logger()
	}
	c.LocalRole = movement.RoleAuthority
	c.RemoteRole = movement.RoleAutonomousProxy
	return &Server{c: c, conf: conf, log: log}
}

// Character returns the simulated actor.
func (s *Server) Character() *movement.Character {
	return s.c
}

// CurrentClientTimeStamp returns the timestamp of the newest move that was run.
func (s *Server) CurrentClientTimeStamp() float32 {
	return s.currentClientTimeStamp
}

// HandleMovePacket runs every move of the packet. The old move is run without checking the client position.
func (s *Server) HandleMovePacket(pk MovePacket) {
	if pk.HasOld {
		s.ServerMove(pk.Old)
	}
	for _, m := range pk.Moves {
		s.ServerMove(m)
	}
}

// ServerMove runs a single move of the client. Moves with an outdated timestamp are dropped.
func (s *Server) ServerMove(m MovePayload) {
	if !s.verifyClientTimeStamp(m.TimeStamp) {
		s.log.Debug("dropped outdated move", "timeStamp", m.TimeStamp, "current", s.currentClientTimeStamp)
		return
	}
	deltaTime := s.serverMoveDeltaTime(m.TimeStamp)
	s.currentClientTimeStamp = m.TimeStamp
	s.received = true

	c := s.c
	c.ControlRotation = m.ControlRotation()
	c.MoveAutonomous(float64(m.TimeStamp), deltaTime, m.Flags, vec64(m.Acceleration), m.Data)

	if m.HasLocation {
		s.handleClientError(m)
	}
}

// verifyClientTimeStamp reports whether the timestamp is newer than the last one run. A timestamp far below the
// current one means the client reset its clock.
func (s *Server) verifyClientTimeStamp(timeStamp float32) bool {
	if !s.received {
		return true
	}
	delta := float64(timeStamp) - float64(s.currentClientTimeStamp)
	if delta > 0 {
		return true
	}
	return s.isTimeStampReset(delta)
}

func (s *Server) isTimeStampReset(delta float64) bool {
	reset := s.conf.MinTimeBetweenTimeStampResets
	return reset > 0 && delta < -0.5*reset
}

// serverMoveDeltaTime returns the time simulated by the move with the timestamp passed.
func (s *Server) serverMoveDeltaTime(timeStamp float32) float64 {
	if !s.received {
		// The first move of a client carries its delta time in the timestamp.
		return s.clampDeltaTime(float64(timeStamp))
	}
	delta := float64(timeStamp) - float64(s.currentClientTimeStamp)
	if s.isTimeStampReset(delta) {
		delta = float64(timeStamp) - (float64(s.currentClientTimeStamp) - float64(float32(s.conf.MinTimeBetweenTimeStampResets)))
		s.accumulated = 0
		s.log.Debug("client timestamp was reset", "timeStamp", timeStamp)
	}
	s.accumulated += delta
	return s.clampDeltaTime(delta)
}

func (s *Server) clampDeltaTime(deltaTime float64) float64 {
	if s.conf.MaxMoveDeltaTime > 0 {
		return math.Min(deltaTime, s.conf.MaxMoveDeltaTime)
	}
	return deltaTime
}

// handleClientError compares the client position after the move with the simulated one and queues either an
// acknowledgement or a correction.
func (s *Server) handleClientError(m MovePayload) {
	c := s.c
	mode, custom := unpackMode(m.Mode)
	clientLocation := vec64(m.Location)
	errSquared := clientLocation.Sub(c.Location).LenSqr()

	if errSquared <= s.conf.MaxPositionErrorSquared && mode == c.Mode && custom == c.CustomMode {
		s.response = Response{TimeStamp: m.TimeStamp, Ack: true, Hash: HashState(c)}
		s.hasResponse = true
		return
	}

	r := Response{
		TimeStamp:  m.TimeStamp,
		Location:   c.Location,
		Velocity:   c.Velocity,
		Mode:       c.Mode,
		CustomMode: c.CustomMode,
	}
	if c.Base != nil {
		r.BaseID = c.Base.ID()
	}
	s.response = r
	s.hasResponse = true
	s.Corrections++

	data := orderedmap.NewOrderedMap[string, any]()
	data.Set("timeStamp", m.TimeStamp)
	data.Set("client", clientLocation)
	data.Set("server", c.Location)
	data.Set("error", math.Sqrt(errSquared))
	data.Set("clientMode", modeName(mode, custom))
	data.Set("serverMode", modeName(c.Mode, c.CustomMode))
	s.log.Debug("correcting client: " + utils.OrderedMapToString(data))
}

// Response returns the response queued by the last packet, if any, and clears it.
func (s *Server) Response() (Response, bool) {
	if !s.hasResponse {
		return Response{}, false
	}
	s.hasResponse = false
	return s.response, true
}

func modeName(mode movement.Mode, custom movement.CustomMode) string {
	if mode == movement.ModeCustom {
		return custom.String()
	}
	return mode.String()
}
