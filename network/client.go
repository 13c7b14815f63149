package network

import (
	"log/slog"
	"math"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/movement"
	"github.com/oomph-ac/locomotion/physics"
	"github.com/oomph-ac/locomotion/settings"
	"github.com/oomph-ac/locomotion/utils"
)

// Client predicts the movement of a locally controlled actor. Every tick is simulated immediately and saved
// until the server acknowledges it; a correction from the server moves the actor back and replays every move
// the server has not seen yet.
type Client struct {
	c    *movement.Character
	conf settings.NetworkSettings
	log  *slog.Logger

	// SavedMoves holds the moves that were not acknowledged yet, oldest first.
	SavedMoves *utils.CircularQueue[*SavedMove]
	// PendingMove is a move that was held back so it can be combined with the next one.
	PendingMove *SavedMove
	// LastAckedMove is the newest move acknowledged by the server.
	LastAckedMove *SavedMove

	CurrentTimeStamp float32
	// Corrections counts the corrections received from the server.
	Corrections int

	worldTime        float64
	clientUpdateTime float64
	updatePosition   bool
	bases            func(id uint64) (physics.Base, bool)
}

// NewClient makes the actor an autonomous proxy predicted by the returned client.
func NewClient(c *movement.Character, conf settings.NetworkSettings, log *slog.Logger) *Client {
	if log == nil {
		log = c.Logger()
	}
	c.LocalRole = movement.RoleAutonomousProxy
	c.RemoteRole = movement.RoleAuthority
	return &Client{
		c:          c,
		conf:       conf,
		log:        log,
		SavedMoves: utils.NewCircularQueue[*SavedMove](max(conf.MaxSavedMoves, 1), nil),
	}
}

// ResolveBasesWith sets the function used to look up the movement base named by a correction.
func (p *Client) ResolveBasesWith(f func(id uint64) (physics.Base, bool)) {
	p.bases = f
}

// Character returns the predicted actor.
func (p *Client) Character() *movement.Character {
	return p.c
}

// Tick runs one tick of the actor with the raw input vector passed. It returns the packet to send to the server,
// if the move was not held back.
func (p *Client) Tick(input mgl64.Vec3, deltaTime float64) (MovePacket, bool) {
	p.ClientUpdatePositionAfterServerUpdate()

	c := p.c
	p.worldTime += deltaTime
	c.ControlledCharacterMove(c.ConsumeInput(input, deltaTime), deltaTime)
	return p.ReplicateMoveToServer(deltaTime, c.Acceleration)
}

// ReplicateMoveToServer saves a new move, combining it with the pending move if possible, and simulates it.
func (p *Client) ReplicateMoveToServer(deltaTime float64, acceleration mgl64.Vec3) (MovePacket, bool) {
	c := p.c
	deltaTime = p.updateTimeStampAndDeltaTime(deltaTime)
	if c.InputBlocked {
		acceleration = mgl64.Vec3{}
	}
	// The server only sees the rotation at the precision it is sent with.
	c.ControlRotation = quantizeRotator(c.ControlRotation)

	var oldMove *SavedMove
	if p.LastAckedMove != nil {
		for _, m := range p.SavedMoves.Iter() {
			if m.IsImportantMove(p.LastAckedMove) {
				oldMove = m
				break
			}
		}
	}

	newMove := p.createSavedMove()
	newMove.SetMoveFor(c, deltaTime, acceleration, p.CurrentTimeStamp)

	if pending := p.PendingMove; pending != nil && pending.CanCombineWith(newMove, p.conf.AccelDotThresholdCombine, p.conf.MaxMoveDeltaTime) {
		// Only combine if moving back to the start of the pending move does not put the actor inside something.
		prevStart := pending.StartLocation
		if !c.World.Overlaps(prevStart, c.Shape()) {
			newMove.CombineWith(pending, c, prevStart)
			if last, ok := p.SavedMoves.Last(); ok && last == pending {
				p.SavedMoves.PopLast()
			}
			p.PendingMove = nil

			c.SaveBaseLocation()
			newMove.SetInitialPosition(c)
		}
	}

	c.SetAcceleration(newMove.Acceleration)
	c.PerformMovement(newMove.DeltaTime)
	newMove.PostUpdate(c, PostUpdateRecord)

	if err := p.SavedMoves.Append(newMove); err != nil {
		p.log.Error("failed saving move", "err", err)
	}

	if p.conf.NetSendMoveDeltaTime > 0 && p.PendingMove == nil && !newMove.ForceNoCombine {
		if p.worldTime-p.clientUpdateTime < p.netSendDeltaTime() {
			p.PendingMove = newMove
			return MovePacket{}, false
		}
	}
	p.clientUpdateTime = p.worldTime

	packet := p.callServerMove(newMove, oldMove)
	p.PendingMove = nil
	return packet, true
}

// FlushServerMoves sends the move held back by ReplicateMoveToServer right away. It reports false if no move was
// pending.
func (p *Client) FlushServerMoves() (MovePacket, bool) {
	pending := p.PendingMove
	if pending == nil {
		return MovePacket{}, false
	}
	p.PendingMove = nil
	p.clientUpdateTime = p.worldTime
	return p.callServerMove(pending, nil), true
}

// netSendDeltaTime returns the minimum time between two packets.
func (p *Client) netSendDeltaTime() float64 {
	return math.Min(math.Max(p.conf.NetSendMoveDeltaTime, 1.0/120.0), 0.2)
}

// callServerMove builds the packet for the new move, adding the pending move and the oldest important move
// that was not acknowledged.
func (p *Client) callServerMove(newMove, oldMove *SavedMove) MovePacket {
	var pk MovePacket
	if oldMove != nil && !oldMove.OldTimeStampBeforeReset && oldMove != p.PendingMove && oldMove != newMove {
		pk.HasOld = true
		pk.Old = oldMove.payload(false)
	}
	if pending := p.PendingMove; pending != nil && !pending.OldTimeStampBeforeReset {
		pk.Moves = append(pk.Moves, pending.payload(false))
	}
	pk.Moves = append(pk.Moves, newMove.payload(true))
	return pk
}

// updateTimeStampAndDeltaTime advances the client timestamp and returns the delta time of the move. The delta
// time is derived from the timestamps as the server will see them.
func (p *Client) updateTimeStampAndDeltaTime(deltaTime float64) float64 {
	if reset := float32(p.conf.MinTimeBetweenTimeStampResets); reset > 0 && p.CurrentTimeStamp > reset {
		p.CurrentTimeStamp -= reset
		for _, m := range p.SavedMoves.Iter() {
			m.OldTimeStampBeforeReset = true
		}
		if p.LastAckedMove != nil {
			p.LastAckedMove.OldTimeStampBeforeReset = true
		}
		p.log.Debug("reset client timestamp")
	}

	if p.conf.MaxMoveDeltaTime > 0 {
		deltaTime = math.Min(deltaTime, p.conf.MaxMoveDeltaTime)
	}
	prev := p.CurrentTimeStamp
	p.CurrentTimeStamp += float32(deltaTime)
	return float64(p.CurrentTimeStamp) - float64(prev)
}

// createSavedMove returns a cleared move. All saved moves are dropped if the buffer is full, which only happens
// when the server stopped answering.
func (p *Client) createSavedMove() *SavedMove {
	if p.SavedMoves.Full() {
		p.log.Warn("hit limit of saved moves, dropping all of them", "count", p.SavedMoves.Size())
		p.SavedMoves.Clear()
		p.PendingMove = nil
	}
	m := &SavedMove{}
	m.Clear()
	return m
}

// HandleResponse applies a response of the server.
func (p *Client) HandleResponse(r Response) {
	if r.Ack {
		p.ClientAckGoodMove(r.TimeStamp, r.Hash)
		return
	}
	p.ClientAdjustPosition(r)
}

// ClientAckGoodMove drops every saved move up to the acknowledged one.
func (p *Client) ClientAckGoodMove(timeStamp float32, hash uint64) {
	index := p.savedMoveIndex(timeStamp)
	if index < 0 {
		if p.LastAckedMove != nil {
			p.log.Debug("could not find acknowledged move", "timeStamp", timeStamp)
		}
		return
	}
	if m, err := p.SavedMoves.Get(index); err == nil && hash != 0 && m.Hash != hash {
		p.log.Debug("acknowledged move diverged from the server below the correction threshold", "timeStamp", timeStamp)
	}
	p.ackMove(index)
}

// ClientAdjustPosition moves the actor to the state sent by the server. The moves after the corrected one are
// replayed on the next tick.
func (p *Client) ClientAdjustPosition(r Response) {
	index := p.savedMoveIndex(r.TimeStamp)
	if index < 0 {
		if p.LastAckedMove != nil {
			p.log.Debug("could not find corrected move", "timeStamp", r.TimeStamp)
		}
		return
	}
	p.ackMove(index)

	c := p.c
	data := orderedmap.NewOrderedMap[string, any]()
	data.Set("timeStamp", r.TimeStamp)
	data.Set("client", c.Location)
	data.Set("server", r.Location)
	data.Set("mode", r.Mode)

	// The mode goes first: entering a mode may change the velocity, which the server state then replaces.
	c.SetMovementMode(r.Mode, r.CustomMode)
	var base physics.Base
	if r.BaseID != 0 && p.bases != nil {
		base, _ = p.bases(r.BaseID)
	}
	c.SetBase(base)
	c.Location = r.Location
	c.Velocity = r.Velocity
	if c.IsMovingOnGround() {
		c.Floor = c.FindFloor(c.Location, false, nil)
	}
	c.JustTeleported = true

	p.updatePosition = true
	p.Corrections++
	data.Set("unacked", p.SavedMoves.Size())
	p.log.Debug("received correction", utils.OrderedMapToAttrs(data)...)
}

// replaySnapshot holds the values a replay must not change.
type replaySnapshot struct {
	analogInputModifier float64
	rootMotion          movement.RootMotion
	pressedJump         bool
	wantsToProne        bool
	forceMaxAccel       bool
	controlRotation     game.Rotator
}

// ClientUpdatePositionAfterServerUpdate replays every unacknowledged move after a correction. It reports whether
// any moves were replayed.
func (p *Client) ClientUpdatePositionAfterServerUpdate() bool {
	if !p.updatePosition {
		return false
	}
	p.updatePosition = false

	c := p.c
	if c.SimulatingPhysics || p.SavedMoves.Size() == 0 {
		return false
	}

	snap := replaySnapshot{
		analogInputModifier: c.AnalogInputModifier,
		rootMotion:          c.RootMotion,
		pressedJump:         c.PressedJump,
		wantsToProne:        c.WantsToProne,
		forceMaxAccel:       c.ForceMaxAccel,
		controlRotation:     c.ControlRotation,
	}
	c.ForceNextFloorCheck = true

	first, _ := p.SavedMoves.Get(0)
	p.log.Debug("replaying saved moves", "count", p.SavedMoves.Size(), "from", first.TimeStamp)
	for _, m := range p.SavedMoves.Iter() {
		m.PrepMoveFor(c)
		c.MoveAutonomous(float64(m.TimeStamp), m.DeltaTime, m.CompressedFlags(), m.Acceleration, m.Data)
		m.PostUpdate(c, PostUpdateReplay)
	}
	postReplayPressedJump := c.PressedJump

	if p.PendingMove != nil {
		p.PendingMove.ForceNoCombine = true
	}

	c.AnalogInputModifier = snap.analogInputModifier
	c.RootMotion = snap.rootMotion
	c.PressedJump = snap.pressedJump || postReplayPressedJump
	c.WantsToProne = snap.wantsToProne
	c.ForceMaxAccel = snap.forceMaxAccel
	c.ControlRotation = snap.controlRotation
	c.ForceNextFloorCheck = true

	return p.SavedMoves.Size() > 0
}

// savedMoveIndex returns the index of the saved move with the timestamp passed, or -1.
func (p *Client) savedMoveIndex(timeStamp float32) int {
	if p.SavedMoves.Size() == 0 {
		return -1
	}
	if last := p.LastAckedMove; last != nil && !last.OldTimeStampBeforeReset && timeStamp <= last.TimeStamp {
		return -1
	}
	for i, m := range p.SavedMoves.Iter() {
		if m.TimeStamp == timeStamp {
			return i
		}
	}
	return -1
}

// ackMove drops every saved move up to and including the one at index.
func (p *Client) ackMove(index int) {
	acked, err := p.SavedMoves.Get(index)
	if err != nil {
		return
	}
	p.LastAckedMove = acked
	p.SavedMoves.Discard(index + 1)
	if p.PendingMove != nil && p.PendingMove.TimeStamp <= acked.TimeStamp && !p.PendingMove.OldTimeStampBeforeReset {
		p.PendingMove = nil
	}
}
