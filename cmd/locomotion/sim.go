package main

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/oomph-ac/locomotion/game"
	"github.com/oomph-ac/locomotion/movement"
	"github.com/oomph-ac/locomotion/network"
	"github.com/oomph-ac/locomotion/physics/boxworld"
	"github.com/oomph-ac/locomotion/settings"
	"github.com/oomph-ac/locomotion/worker"
)

// delivery is a payload in flight on a link.
type delivery struct {
	at      int
	payload []byte
}

// lossyLink delays payloads by a fixed number of ticks and drops some of them.
type lossyLink struct {
	conf     LinkConfig
	rand     *rand.Rand
	inFlight []delivery

	sent, dropped int
}

func (l *lossyLink) send(tick int, payload []byte) {
	l.sent++
	if l.conf.Loss > 0 && l.rand.Float64() < l.conf.Loss {
		l.dropped++
		return
	}
	l.inFlight = append(l.inFlight, delivery{at: tick + l.conf.LatencyTicks, payload: payload})
}

// receive returns every payload due at tick, in the order they were sent.
func (l *lossyLink) receive(tick int) [][]byte {
	var due [][]byte
	n := 0
	for _, d := range l.inFlight {
		if d.at <= tick {
			due = append(due, d.payload)
			continue
		}
		l.inFlight[n] = d
		n++
	}
	l.inFlight = l.inFlight[:n]
	return due
}

// session is one actor: a predicting client, the server simulating it and the links between them.
type session struct {
	id     int
	client *network.Client
	server *network.Server

	clientWorld, serverWorld *boxworld.World
	up, down                 *lossyLink

	// errors holds the distance between the client and the server after every tick.
	errors  game.Samples
	faulted bool
	err     error
}

func newSession(id int, sc Scenario, s settings.Settings, log *slog.Logger) (*session, error) {
	table, err := s.MovementSettings()
	if err != nil {
		return nil, err
	}
	log = log.With("actor", id)

	clientWorld, serverWorld := sc.BuildWorld(), sc.BuildWorld()
	clientActor, err := movement.New(clientWorld, s.Character, table, log)
	if err != nil {
		return nil, err
	}
	serverActor, err := movement.New(serverWorld, s.Character, table, log)
	if err != nil {
		return nil, err
	}
	clientActor.Handle(movement.RotationHandler{})
	serverActor.Handle(movement.RotationHandler{})

	// Actors are spread out along Y so they do not share the same patch of geometry.
	spawn := sc.spawn().Add(mgl64.Vec3{0, float64(id) * 150, 0})
	clientActor.Spawn(spawn, game.Rotator{})
	serverActor.Spawn(spawn, game.Rotator{})

	client := network.NewClient(clientActor, s.Network, log)
	client.ResolveBasesWith(clientWorld.BaseByID)

	seed := sc.Seed + int64(id)
	return &session{
		id:          id,
		client:      client,
		server:      network.NewServer(serverActor, s.Network, log),
		clientWorld: clientWorld,
		serverWorld: serverWorld,
		up:          &lossyLink{conf: sc.Link, rand: rand.New(rand.NewSource(seed))},
		down:        &lossyLink{conf: sc.Link, rand: rand.New(rand.NewSource(seed + 1<<32))},
	}, nil
}

// tick runs one tick of the session with the frame passed.
func (s *session) tick(tick int, f Frame, deltaTime float64) error {
	s.clientWorld.Advance(deltaTime)
	s.serverWorld.Advance(deltaTime)

	c := s.client.Character()
	if f.Jump && !c.PressedJump {
		c.Jump()
	} else if !f.Jump && c.PressedJump {
		c.StopJumping()
	}
	c.WantsToCrouch = f.Crouch
	c.WantsToProne = f.Prone
	c.SetMaxAllowedGait(f.gait)
	if input := mgl64.Vec3(f.Input); input.LenSqr() > 0 {
		c.ControlRotation = game.RotatorFromXZ(input)
	}

	if pk, ok := s.client.Tick(f.Input, deltaTime); ok {
		s.up.send(tick, network.EncodeMovePacket(pk))
	}

	for _, b := range s.up.receive(tick) {
		pk, err := network.DecodeMovePacket(b)
		if err != nil {
			return err
		}
		s.server.HandleMovePacket(pk)
	}
	if r, ok := s.server.Response(); ok {
		s.down.send(tick, network.EncodeResponse(r))
	}
	for _, b := range s.down.receive(tick) {
		r, err := network.DecodeResponse(b)
		if err != nil {
			return err
		}
		s.client.HandleResponse(r)
	}
	s.errors.Add(c.Location.Sub(s.server.Character().Location).Len())
	return nil
}

// Result summarises a session after the scenario finished.
type Result struct {
	Actor                int
	ClientLocation       mgl64.Vec3
	ServerLocation       mgl64.Vec3
	Mode                 string
	Corrections          int
	PacketsSent, Dropped int
	Faulted              bool

	// The error fields summarise the distance between the client and the server over all ticks. The
	// server runs behind the client by the link latency, so the distance is not zero even without corrections.
	MeanError, P95Error, MaxError float64
}

func (r Result) String() string {
	return fmt.Sprintf("actor %d: mode=%s client=%v server=%v error=%.2f (mean %.2f, p95 %.2f, max %.2f) corrections=%d sent=%d dropped=%d faulted=%v",
		r.Actor, r.Mode, r.ClientLocation, r.ServerLocation, r.ClientLocation.Sub(r.ServerLocation).Len(),
		r.MeanError, r.P95Error, r.MaxError, r.Corrections, r.PacketsSent, r.Dropped, r.Faulted)
}

// Run plays the scenario for every actor and returns a result per actor. Actors are ticked concurrently on the
// pool; an actor whose tick panics is marked faulted and no longer ticked.
func Run(sc Scenario, s settings.Settings, pool *worker.Pool, log *slog.Logger) ([]Result, error) {
	sessions := make([]*session, sc.Actors)
	for i := range sessions {
		sess, err := newSession(i, sc, s, log)
		if err != nil {
			return nil, fmt.Errorf("error creating actor %d: %w", i, err)
		}
		sessions[i] = sess
	}

	deltaTime := sc.DeltaTime()
	for tick := 0; tick < sc.Ticks(); tick++ {
		f, _ := sc.FrameAt(tick)
		for _, sess := range sessions {
			if sess.faulted || sess.err != nil {
				continue
			}
			pool.Submit(func() {
				sess.err = sess.tick(tick, f, deltaTime)
			}, func(v any) {
				sess.faulted = true
			})
		}
		pool.Wait()
	}

	results := make([]Result, len(sessions))
	for i, sess := range sessions {
		if sess.err != nil {
			return nil, fmt.Errorf("actor %d: %w", i, sess.err)
		}
		c := sess.client.Character()
		results[i] = Result{
			Actor:          i,
			ClientLocation: c.Location,
			ServerLocation: sess.server.Character().Location,
			Mode:           c.Mode.String(),
			Corrections:    sess.client.Corrections,
			PacketsSent:    sess.up.sent,
			Dropped:        sess.up.dropped + sess.down.dropped,
			Faulted:        sess.faulted,
			MeanError:      sess.errors.Mean(),
			P95Error:       sess.errors.Percentile(95),
			MaxError:       sess.errors.Max(),
		}
	}
	return results, nil
}
