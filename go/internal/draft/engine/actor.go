package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/clock"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/state"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

type reply struct {
	val any
	err error
}

type command struct {
	fn    func(a *actor) (any, error)
	reply chan reply
}

// actor owns one DraftState. Only its run goroutine touches s.
type actor struct {
	e     *Engine
	id    uuid.UUID
	s     *state.DraftState
	clock *clock.Clock
	cmds  chan command
	done  chan struct{}

	// armID identifies the live countdown. Expiries from any other arm are stale.
	armID uint64

	dirty    bool
	released bool
}

func newActor(e *Engine, s *state.DraftState) *actor {
	a := &actor{
		e:    e,
		id:   s.DraftID,
		s:    s,
		cmds: make(chan command, e.cfg.CommandBuffer),
		done: make(chan struct{}),
	}
	opts := clock.Options{
		Clock: e.clock,
		OnExpire: func(_ uuid.UUID, token int, arm uint64) {
			a.post(func(a *actor) (any, error) {
				return a.expire(token, arm)
			})
		},
	}
	if e.cfg.TickInterval > 0 {
		opts.TickInterval = e.cfg.TickInterval
		opts.OnTick = func(_ uuid.UUID, token int, remaining time.Duration) {
			a.tryPost(func(a *actor) (any, error) {
				a.tick(token, remaining)
				return nil, nil
			})
		}
	}
	a.clock = clock.New(s.DraftID, opts)
	return a
}

func (a *actor) run() {
	defer close(a.done)
	for {
		select {
		case cmd := <-a.cmds:
			a.handle(cmd)
			if a.released {
				a.disarm()
				a.e.release(a)
				return
			}
		case <-a.e.ctx.Done():
			a.e.persister.Enqueue(a.snapshot())
			a.disarm()
			return
		}
	}
}

func (a *actor) handle(cmd command) {
	v, err := cmd.fn(a)
	if a.dirty {
		a.dirty = false
		a.e.persister.Enqueue(a.snapshot())
	}
	if cmd.reply != nil {
		cmd.reply <- reply{val: v, err: err}
	}
}

// call runs fn on the actor and waits for its result.
func (a *actor) call(ctx context.Context, fn func(a *actor) (any, error)) (any, error) {
	cmd := command{fn: fn, reply: make(chan reply, 1)}
	select {
	case a.cmds <- cmd:
	case <-a.done:
		return nil, errActorGone
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-cmd.reply:
		return r.val, r.err
	case <-a.done:
		select {
		case r := <-cmd.reply:
			return r.val, r.err
		default:
			return nil, errActorGone
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// post queues fn without waiting for its result.
func (a *actor) post(fn func(a *actor) (any, error)) {
	select {
	case a.cmds <- command{fn: fn}:
	case <-a.done:
	case <-a.e.ctx.Done():
	}
}

// tryPost queues fn only if the queue has room.
func (a *actor) tryPost(fn func(a *actor) (any, error)) {
	select {
	case a.cmds <- command{fn: fn}:
	default:
	}
}

// arm starts the countdown for the current pick.
func (a *actor) arm(remaining time.Duration) {
	a.armID = a.clock.Arm(remaining, a.s.CurrentPickNumber)
}

func (a *actor) disarm() {
	a.clock.Disarm()
	a.armID = 0
}

// snapshot copies the state with the live clock reading.
func (a *actor) snapshot() *state.DraftState {
	c := a.s.Clone()
	if c.Status == models.DraftStatusInProgress {
		c.TimeRemainingMs = a.clock.Remaining().Milliseconds()
	}
	return c
}

// bump marks a mutation: new version, pending persistence.
func (a *actor) bump() {
	a.s.Version++
	a.dirty = true
}

// touch records participant activity for idle detection.
func (a *actor) touch() {
	a.s.LastActivity = a.e.clock.Now()
}

func (a *actor) emit(t events.EventType, payload any) {
	evt, err := events.New(a.id, t, a.s.Version, a.e.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("draft_id", a.id.String()).Msg("failed to build event")
		return
	}
	a.e.publish(evt)
}
