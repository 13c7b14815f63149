package network

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/movement"
	"github.com/oomph-ac/locomotion/physics/boxworld"
	"github.com/oomph-ac/locomotion/settings"
)

const testDeltaTime = 1.0 / 60.0

var spawnLocation = mgl64.Vec3{0, 0, 92.15}

func newActor(t *testing.T, log *slog.Logger) *movement.Character {
	t.Helper()
	w := boxworld.New()
	w.AddFloor(0, 20000)

	s := settings.DefaultSettings()
	table, err := s.MovementSettings()
	if err != nil {
		t.Fatalf("failed building gait table: %v", err)
	}
	c, err := movement.New(w, s.Character, table, log)
	if err != nil {
		t.Fatalf("failed creating actor: %v", err)
	}
	c.Spawn(spawnLocation, game.Rotator{})
	return c
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func testNetworkSettings(edit func(n *settings.NetworkSettings)) settings.NetworkSettings {
	n := settings.DefaultSettings().Network
	if edit != nil {
		edit(&n)
	}
	return n
}

// link connects a client to a server, delivering packets and responses after a fixed number of ticks.
type link struct {
	t      *testing.T
	client *Client
	server *Server
	delay  int

	packets   [][]byte
	responses [][]byte
}

func newLink(t *testing.T, conf settings.NetworkSettings, delay int) *link {
	t.Helper()
	log := discardLogger()
	return &link{
		t:      t,
		client: NewClient(newActor(t, log), conf, log),
		server: NewServer(newActor(t, log), conf, log),
		delay:  delay,
	}
}

func (l *link) tick(input mgl64.Vec3) {
	l.t.Helper()
	if pk, ok := l.client.Tick(input, testDeltaTime); ok {
		l.packets = append(l.packets, EncodeMovePacket(pk))
	} else {
		l.packets = append(l.packets, nil)
	}

	if len(l.packets) > l.delay {
		b := l.packets[0]
		l.packets = l.packets[1:]
		if b != nil {
			pk, err := DecodeMovePacket(b)
			if err != nil {
				l.t.Fatalf("failed decoding move packet: %v", err)
			}
			l.server.HandleMovePacket(pk)
		}
	}
	if r, ok := l.server.Response(); ok {
		l.responses = append(l.responses, EncodeResponse(r))
	} else {
		l.responses = append(l.responses, nil)
	}

	if len(l.responses) > l.delay {
		b := l.responses[0]
		l.responses = l.responses[1:]
		if b != nil {
			r, err := DecodeResponse(b)
			if err != nil {
				l.t.Fatalf("failed decoding response: %v", err)
			}
			l.client.HandleResponse(r)
		}
	}
}

func (l *link) tickN(input mgl64.Vec3, n int) {
	l.t.Helper()
	for i := 0; i < n; i++ {
		l.tick(input)
	}
}

func (l *link) drain() {
	l.t.Helper()
	l.tickN(mgl64.Vec3{}, l.delay+2)
}

// flush sends the pending move of the client and delivers everything still in flight, so that the server has
// simulated every move the client made.
func (l *link) flush() {
	l.t.Helper()
	if pk, ok := l.client.FlushServerMoves(); ok {
		l.packets = append(l.packets, EncodeMovePacket(pk))
	}
	for _, b := range l.packets {
		if b == nil {
			continue
		}
		pk, err := DecodeMovePacket(b)
		if err != nil {
			l.t.Fatalf("failed decoding move packet: %v", err)
		}
		l.server.HandleMovePacket(pk)
		if r, ok := l.server.Response(); ok {
			l.responses = append(l.responses, EncodeResponse(r))
		}
	}
	l.packets = nil

	for _, b := range l.responses {
		if b == nil {
			continue
		}
		r, err := DecodeResponse(b)
		if err != nil {
			l.t.Fatalf("failed decoding response: %v", err)
		}
		l.client.HandleResponse(r)
	}
	l.responses = nil
}

func TestClientServerLockstep(t *testing.T) {
	for _, send := range []float64{0, 1.0 / 60.0, 1.0 / 30.0} {
		l := newLink(t, testNetworkSettings(func(n *settings.NetworkSettings) {
			n.NetSendMoveDeltaTime = send
		}), 0)
		l.tickN(mgl64.Vec3{1, 0, 0}, 90)
		l.tickN(mgl64.Vec3{0, 1, 0}, 30)
		l.tickN(mgl64.Vec3{}, 60)
		l.drain()

		if l.server.Corrections != 0 {
			t.Fatalf("send interval %v: expected no corrections, got %d", send, l.server.Corrections)
		}
		client, server := l.client.Character().Location, l.server.Character().Location
		if d := client.Sub(server).Len(); d > 1 {
			t.Fatalf("send interval %v: client %v and server %v diverged by %v", send, client, server, d)
		}
		if client.X() < 100 {
			t.Fatalf("send interval %v: expected the actor to move, got %v", send, client)
		}
	}
}

func TestCorrectionConverges(t *testing.T) {
	for _, delay := range []int{0, 3} {
		l := newLink(t, testNetworkSettings(nil), delay)
		l.tickN(mgl64.Vec3{1, 0, 0}, 30)

		srv := l.server.Character()
		srv.Teleport(srv.Location.Add(mgl64.Vec3{0, 150, 0}))

		l.tickN(mgl64.Vec3{1, 0, 0}, 30)
		if l.server.Corrections == 0 {
			t.Fatalf("delay %d: expected a correction", delay)
		}
		if l.client.Corrections == 0 {
			t.Fatalf("delay %d: expected the client to apply a correction", delay)
		}

		corrections := l.server.Corrections
		l.tickN(mgl64.Vec3{1, 0, 0}, 60)
		l.drain()
		l.flush()
		if l.client.PendingMove != nil {
			t.Fatalf("delay %d: expected no pending move after flushing", delay)
		}
		if l.server.Corrections != corrections {
			t.Fatalf("delay %d: expected no corrections after converging, got %d more", delay, l.server.Corrections-corrections)
		}
		client, server := l.client.Character().Location, l.server.Character().Location
		if d := client.Sub(server).Len(); d > 1 {
			t.Fatalf("delay %d: client %v and server %v did not converge (%v)", delay, client, server, d)
		}
	}
}

func TestFlushServerMovesSendsPendingMove(t *testing.T) {
	log := discardLogger()
	p := NewClient(newActor(t, log), testNetworkSettings(func(n *settings.NetworkSettings) {
		n.NetSendMoveDeltaTime = 1.0 / 20.0
	}), log)
	s := NewServer(newActor(t, log), testNetworkSettings(nil), log)

	if _, ok := p.Tick(mgl64.Vec3{1, 0, 0}, testDeltaTime); ok {
		t.Fatalf("expected the first move to be held back")
	}
	pending := p.PendingMove
	if pending == nil {
		t.Fatalf("expected a pending move")
	}

	pk, ok := p.FlushServerMoves()
	if !ok {
		t.Fatalf("expected the pending move to be sent")
	}
	if len(pk.Moves) != 1 || pk.Moves[0].TimeStamp != pending.TimeStamp || pk.HasOld {
		t.Fatalf("expected a packet holding only the pending move, got %+v", pk)
	}
	if p.PendingMove != nil {
		t.Fatalf("expected the pending move to be cleared")
	}
	if _, ok := p.FlushServerMoves(); ok {
		t.Fatalf("expected nothing to flush twice")
	}

	s.HandleMovePacket(pk)
	r, ok := s.Response()
	if !ok || !r.Ack {
		t.Fatalf("expected the flushed move to be acknowledged, got %+v", r)
	}
	if d := p.Character().Location.Sub(s.Character().Location).Len(); d > 1e-3 {
		t.Fatalf("expected the server to match the client after the flush, off by %v", d)
	}
}

func TestReplayReproducesPrediction(t *testing.T) {
	log := discardLogger()
	p := NewClient(newActor(t, log), testNetworkSettings(func(n *settings.NetworkSettings) {
		n.NetSendMoveDeltaTime = 0
	}), log)
	for i := 0; i < 40; i++ {
		p.Tick(mgl64.Vec3{1, 0.5, 0}, testDeltaTime)
	}
	c := p.Character()
	predicted := c.Location

	m, err := p.SavedMoves.Get(10)
	if err != nil {
		t.Fatalf("expected a saved move: %v", err)
	}
	p.ClientAdjustPosition(Response{
		TimeStamp: m.TimeStamp,
		Location:  m.SavedLocation,
		Velocity:  m.SavedVelocity,
		Mode:      m.EndMode,
	})
	if p.SavedMoves.Size() != 40-11 {
		t.Fatalf("expected %d unacknowledged moves, got %d", 40-11, p.SavedMoves.Size())
	}
	if !p.ClientUpdatePositionAfterServerUpdate() {
		t.Fatalf("expected moves to be replayed")
	}
	if d := c.Location.Sub(predicted).Len(); d > 0.01 {
		t.Fatalf("replay moved the actor to %v, predicted %v (%v)", c.Location, predicted, d)
	}
}

func TestAckDropsMoves(t *testing.T) {
	log := discardLogger()
	p := NewClient(newActor(t, log), testNetworkSettings(func(n *settings.NetworkSettings) {
		n.NetSendMoveDeltaTime = 0
	}), log)
	for i := 0; i < 10; i++ {
		p.Tick(mgl64.Vec3{1, 0, 0}, testDeltaTime)
	}
	if p.SavedMoves.Size() != 10 {
		t.Fatalf("expected 10 saved moves, got %d", p.SavedMoves.Size())
	}
	m, _ := p.SavedMoves.Get(4)
	p.ClientAckGoodMove(m.TimeStamp, 0)
	if p.SavedMoves.Size() != 5 {
		t.Fatalf("expected 5 saved moves after ack, got %d", p.SavedMoves.Size())
	}
	if p.LastAckedMove != m {
		t.Fatalf("expected the acknowledged move to be remembered")
	}

	// Older acknowledgements are ignored.
	p.ClientAckGoodMove(m.TimeStamp-0.05, 0)
	if p.SavedMoves.Size() != 5 {
		t.Fatalf("expected an outdated ack to be ignored, got %d saved moves", p.SavedMoves.Size())
	}
}

func TestSavedMovesFlushWhenFull(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(buf, nil))
	p := NewClient(newActor(t, log), testNetworkSettings(func(n *settings.NetworkSettings) {
		n.NetSendMoveDeltaTime = 0
		n.MaxSavedMoves = 8
	}), log)
	for i := 0; i < 20; i++ {
		p.Tick(mgl64.Vec3{1, 0, 0}, testDeltaTime)
	}
	if p.SavedMoves.Size() > 8 {
		t.Fatalf("expected at most 8 saved moves, got %d", p.SavedMoves.Size())
	}
	if !strings.Contains(buf.String(), "hit limit of saved moves") {
		t.Fatalf("expected a warning about the saved move limit, got %q", buf.String())
	}
}

func TestReplayKeepsCurrentInput(t *testing.T) {
	log := discardLogger()
	p := NewClient(newActor(t, log), testNetworkSettings(nil), log)
	// Standing still at half the send interval alternates between holding a move back and combining it.
	for i := 0; i < 3; i++ {
		p.Tick(mgl64.Vec3{}, testDeltaTime/2)
	}
	if p.PendingMove == nil {
		t.Fatalf("expected a pending move")
	}
	if p.SavedMoves.Size() != 2 {
		t.Fatalf("expected the first two moves to be combined, got %d saved moves", p.SavedMoves.Size())
	}
	first, _ := p.SavedMoves.Get(0)
	if first.DeltaTime < testDeltaTime*0.99 {
		t.Fatalf("expected a combined delta time of %v, got %v", testDeltaTime, first.DeltaTime)
	}

	c := p.Character()
	c.PressedJump = true
	c.WantsToProne = true
	p.ClientAdjustPosition(Response{
		TimeStamp: first.TimeStamp,
		Location:  first.SavedLocation,
		Velocity:  first.SavedVelocity,
		Mode:      first.EndMode,
	})
	if !p.ClientUpdatePositionAfterServerUpdate() {
		t.Fatalf("expected the pending move to be replayed")
	}
	if !c.PressedJump || !c.WantsToProne {
		t.Fatalf("expected the replay to keep the current input, got jump=%v prone=%v", c.PressedJump, c.WantsToProne)
	}
	if !p.PendingMove.ForceNoCombine {
		t.Fatalf("expected the pending move to no longer be combinable after a replay")
	}
}

func TestClientResetsTimeStamp(t *testing.T) {
	log := discardLogger()
	p := NewClient(newActor(t, log), testNetworkSettings(func(n *settings.NetworkSettings) {
		n.NetSendMoveDeltaTime = 0
		n.MinTimeBetweenTimeStampResets = 1
	}), log)
	for i := 0; i < 80; i++ {
		p.Tick(mgl64.Vec3{}, testDeltaTime)
	}
	if p.CurrentTimeStamp > 1 {
		t.Fatalf("expected the timestamp to be reset, got %v", p.CurrentTimeStamp)
	}
	stale := 0
	for _, m := range p.SavedMoves.Iter() {
		if m.OldTimeStampBeforeReset {
			stale++
		}
	}
	if stale == 0 || stale == p.SavedMoves.Size() {
		t.Fatalf("expected only moves before the reset to be marked, got %d of %d", stale, p.SavedMoves.Size())
	}
}

func TestServerDropsOutdatedMoves(t *testing.T) {
	s := NewServer(newActor(t, discardLogger()), testNetworkSettings(nil), discardLogger())
	move := MovePayload{TimeStamp: 0.1, Acceleration: vec32(mgl64.Vec3{2000, 0, 0}), Data: DefaultMoveData()}
	s.ServerMove(move)
	after := s.Character().Location

	move.TimeStamp = 0.05
	s.ServerMove(move)
	if s.Character().Location != after {
		t.Fatalf("expected an outdated move to be dropped, actor moved to %v", s.Character().Location)
	}
	if s.CurrentClientTimeStamp() != 0.1 {
		t.Fatalf("expected the timestamp to stay at 0.1, got %v", s.CurrentClientTimeStamp())
	}
}

func TestServerDetectsTimeStampReset(t *testing.T) {
	s := NewServer(newActor(t, discardLogger()), testNetworkSettings(nil), discardLogger())
	move := MovePayload{TimeStamp: 239.95, Data: DefaultMoveData()}
	s.ServerMove(move)

	if d := s.serverMoveDeltaTime(0.02); d < 0.069 || d > 0.071 {
		t.Fatalf("expected a delta time of 0.07 across the reset, got %v", d)
	}

	move.TimeStamp = 0.02
	move.Acceleration = vec32(mgl64.Vec3{2000, 0, 0})
	before := s.Character().Location
	s.ServerMove(move)
	if s.CurrentClientTimeStamp() != 0.02 {
		t.Fatalf("expected the move after the reset to run, timestamp is %v", s.CurrentClientTimeStamp())
	}
	if s.Character().Location == before {
		t.Fatalf("expected the actor to move after the reset")
	}
}

func TestServerAcksGoodMove(t *testing.T) {
	s := NewServer(newActor(t, discardLogger()), testNetworkSettings(nil), discardLogger())
	c := s.Character()
	s.ServerMove(MovePayload{
		TimeStamp:   float32(testDeltaTime),
		Data:        DefaultMoveData(),
		HasLocation: true,
		Location:    quantizeLocation(c.Location),
		Mode:        packMode(movement.ModeWalking, movement.CustomNone),
	})
	r, ok := s.Response()
	if !ok || !r.Ack {
		t.Fatalf("expected an acknowledgement, got %+v", r)
	}
	if r.Hash != HashState(c) {
		t.Fatalf("expected the acknowledgement to carry the state hash")
	}
	if _, ok := s.Response(); ok {
		t.Fatalf("expected the response to be consumed")
	}
}

func TestServerCorrectsLargeError(t *testing.T) {
	s := NewServer(newActor(t, discardLogger()), testNetworkSettings(nil), discardLogger())
	c := s.Character()
	s.ServerMove(MovePayload{
		TimeStamp:   float32(testDeltaTime),
		Data:        DefaultMoveData(),
		HasLocation: true,
		Location:    quantizeLocation(c.Location.Add(mgl64.Vec3{10, 0, 0})),
		Mode:        packMode(movement.ModeWalking, movement.CustomNone),
	})
	r, ok := s.Response()
	if !ok || r.Ack {
		t.Fatalf("expected a correction, got %+v", r)
	}
	if r.Location != c.Location || r.Mode != movement.ModeWalking {
		t.Fatalf("expected the correction to carry the server state, got %+v", r)
	}
	if s.Corrections != 1 {
		t.Fatalf("expected one correction, got %d", s.Corrections)
	}
}

func TestServerCorrectsModeMismatch(t *testing.T) {
	s := NewServer(newActor(t, discardLogger()), testNetworkSettings(nil), discardLogger())
	c := s.Character()
	s.ServerMove(MovePayload{
		TimeStamp:   float32(testDeltaTime),
		Data:        DefaultMoveData(),
		HasLocation: true,
		Location:    quantizeLocation(c.Location),
		Mode:        packMode(movement.ModeFalling, movement.CustomNone),
	})
	if r, ok := s.Response(); !ok || r.Ack {
		t.Fatalf("expected a correction for a different movement mode, got %+v", r)
	}
}
