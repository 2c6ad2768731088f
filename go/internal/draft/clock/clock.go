// Package clock implements the per-draft pick timer.
package clock

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ExpireFunc is called once when an armed timer runs out. token is the value passed to Arm
// and arm is the id Arm (or Resume) returned for that countdown.
type ExpireFunc func(draftID uuid.UUID, token int, arm uint64)

// TickFunc is called every tick interval while the timer is running.
type TickFunc func(draftID uuid.UUID, token int, remaining time.Duration)

// Options configures a Clock.
type Options struct {
	Clock        clockwork.Clock
	OnExpire     ExpireFunc
	OnTick       TickFunc
	TickInterval time.Duration
}

// Clock is a pausable countdown for one draft. Every Arm, Pause, Resume and Disarm
// bumps a generation so that expiries from earlier arms are dropped.
type Clock struct {
	draftID  uuid.UUID
	clock    clockwork.Clock
	onExpire ExpireFunc
	onTick   TickFunc
	interval time.Duration

	mu        sync.Mutex
	gen       uint64
	token     int
	armed     bool
	paused    bool
	deadline  time.Time
	remaining time.Duration
	timer     clockwork.Timer
	done      chan struct{}
}

// New creates a disarmed clock for draftID.
func New(draftID uuid.UUID, opts Options) *Clock {
	c := opts.Clock
	if c == nil {
		c = clockwork.NewRealClock()
	}
	return &Clock{
		draftID:  draftID,
		clock:    c,
		onExpire: opts.OnExpire,
		onTick:   opts.OnTick,
		interval: opts.TickInterval,
	}
}

// Arm starts a countdown of remaining for the turn identified by token, replacing
// any pending countdown. It returns the arm id the expiry will carry.
func (c *Clock) Arm(remaining time.Duration, token int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armLocked(remaining, token)
	return c.gen
}

func (c *Clock) armLocked(remaining time.Duration, token int) {
	c.stopLocked()
	if remaining < 0 {
		remaining = 0
	}
	c.gen++
	c.token = token
	c.armed = true
	c.paused = false
	c.remaining = remaining
	c.deadline = c.clock.Now().Add(remaining)
	c.timer = c.clock.NewTimer(remaining)
	c.done = make(chan struct{})

	var ticks <-chan time.Time
	var ticker clockwork.Ticker
	if c.onTick != nil && c.interval > 0 {
		ticker = c.clock.NewTicker(c.interval)
		ticks = ticker.Chan()
	}
	go c.run(c.gen, c.timer, ticker, ticks, c.done)

	log.Debug().
		Str("draft_id", c.draftID.String()).
		Int("token", token).
		Dur("remaining", remaining).
		Msg("clock armed")
}

func (c *Clock) run(gen uint64, timer clockwork.Timer, ticker clockwork.Ticker, ticks <-chan time.Time, done <-chan struct{}) {
	if ticker != nil {
		defer ticker.Stop()
	}
	for {
		select {
		case <-timer.Chan():
			c.expire(gen)
			return
		case <-ticks:
			c.tick(gen)
		case <-done:
			return
		}
	}
}

func (c *Clock) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.armed || c.paused {
		c.mu.Unlock()
		return
	}
	c.armed = false
	c.remaining = 0
	token := c.token
	c.mu.Unlock()

	log.Debug().Str("draft_id", c.draftID.String()).Int("token", token).Uint64("arm", gen).Msg("clock expired")
	if c.onExpire != nil {
		c.onExpire(c.draftID, token, gen)
	}
}

func (c *Clock) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.armed || c.paused {
		c.mu.Unlock()
		return
	}
	token := c.token
	remaining := c.remainingLocked()
	c.mu.Unlock()

	c.onTick(c.draftID, token, remaining)
}

// Pause freezes the countdown and returns the time left.
func (c *Clock) Pause() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed || c.paused {
		return c.remainingLocked()
	}
	left := c.remainingLocked()
	c.stopLocked()
	c.gen++
	c.paused = true
	c.remaining = left
	return left
}

// Resume restarts a paused countdown with the time it had left and returns its
// new arm id. It returns zero when nothing was paused.
func (c *Clock) Resume() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return 0
	}
	c.armLocked(c.remaining, c.token)
	return c.gen
}

// Disarm cancels any pending or paused countdown.
func (c *Clock) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.gen++
	c.armed = false
	c.paused = false
	c.remaining = 0
}

// Remaining returns the time left on the current countdown, or zero when disarmed.
func (c *Clock) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingLocked()
}

// Armed reports whether a countdown is running.
func (c *Clock) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed && !c.paused
}

// Token returns the token of the latest Arm.
func (c *Clock) Token() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Clock) remainingLocked() time.Duration {
	switch {
	case c.paused:
		return c.remaining
	case c.armed:
		left := c.deadline.Sub(c.clock.Now())
		if left < 0 {
			return 0
		}
		return left
	default:
		return 0
	}
}

func (c *Clock) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}
