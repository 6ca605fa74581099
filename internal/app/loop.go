package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/mudra/internal/engine"
)

// runLoop is the only goroutine that touches the engine while the app runs.
// Pointer results never wait behind classification results: each arrives on
// its own queue and is stepped as soon as it is received.
func (a *App) runLoop(ctx context.Context, requests <-chan request, done chan<- struct{}) {
	defer a.wg.Done()
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return

		case lm := <-a.landmarks:
			move, status := a.engine.StepPointer(lm.hands)
			if move != nil {
				if err := a.executor.Move(*move); err != nil {
					log.Warn().Err(err).Msg("cursor move failed")
				}
			}
			log.Trace().Str("pointer", status.String()).Msg("pointer step")
			a.publish()

		case g := <-a.gestures:
			res := a.engine.StepGesture(g.gestures, g.hand, g.at)
			if res.Changed {
				log.Info().
					Str("gesture", res.Accepted).
					Str("hand", string(res.Handedness)).
					Msg("gesture accepted")
			}
			if res.Action != nil {
				a.dispatch(job{action: *res.Action, gesture: res.Accepted, hand: res.Handedness})
			}
			a.publish()

		case req := <-requests:
			req.reply <- req.fn(a.engine)
			a.publish()
		}
	}
}

// dispatch queues an action for the action worker without blocking the loop.
func (a *App) dispatch(j job) {
	select {
	case a.actions <- j:
	default:
		log.Warn().Str("action", j.action.String()).Msg("action queue full, dropping action")
	}
}

// publish records the engine state and hands it to the observers.
func (a *App) publish() {
	snap := a.engine.Snapshot()

	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()

	for _, o := range a.deps.Observers {
		o.Publish(snap)
	}
}

// actionWorker executes dispatched actions in order, off the run loop, so a
// slow plugin cannot stall the pointer.
func (a *App) actionWorker(ctx context.Context) {
	defer a.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-a.actions:
			log.Info().
				Str("action", j.action.String()).
				Str("gesture", j.gesture).
				Str("hand", string(j.hand)).
				Msg("executing action")
			if err := a.executor.Execute(ctx, j.action, j.gesture, j.hand); err != nil {
				log.Warn().Err(err).Str("action", j.action.String()).Msg("action failed")
			}
		}
	}
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(engine.Snapshot)

// Publish calls f(snap).
func (f ObserverFunc) Publish(snap engine.Snapshot) { f(snap) }
