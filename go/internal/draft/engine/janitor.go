package engine

import (
	"github.com/rs/zerolog/log"
)

func (e *Engine) runJanitor() {
	ticker := e.clock.NewTicker(e.cfg.JanitorInterval)
	defer ticker.Stop()
	log.Info().
		Dur("interval", e.cfg.JanitorInterval).
		Dur("idle_timeout", e.cfg.IdleTimeout).
		Dur("abandon_timeout", e.cfg.AbandonTimeout).
		Msg("draft janitor started")

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.Chan():
			e.sweep()
		}
	}
}

// sweep asks every live draft to check itself for idleness.
func (e *Engine) sweep() {
	now := e.clock.Now()
	e.mu.RLock()
	actors := make([]*actor, 0, len(e.actors))
	for _, a := range e.actors {
		actors = append(actors, a)
	}
	e.mu.RUnlock()

	for _, a := range actors {
		a.post(func(a *actor) (any, error) {
			a.sweep(now)
			return nil, nil
		})
	}
}
