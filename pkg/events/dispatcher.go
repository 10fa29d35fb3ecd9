package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/outpost-sh/outpost/pkg/log"
	"github.com/outpost-sh/outpost/pkg/metrics"
	"github.com/outpost-sh/outpost/pkg/types"
)

// InterruptionHandler consumes interruption signals.
type InterruptionHandler interface {
	HandleInterruption(ctx context.Context, sig types.InterruptionSignal) error
}

// StateChangeHandler consumes lifecycle state-change signals.
type StateChangeHandler interface {
	HandleStateChange(ctx context.Context, sig types.StateChangeSignal) error
}

// Dispatcher routes signals to the two controllers and owns the bounded
// redelivery contract: a handler error is retried with the same signal up
// to Redeliveries more times before the failure is final. Handlers are
// idempotent against duplicates by design, so redelivering a signal whose
// first attempt partially succeeded is safe.
type Dispatcher struct {
	recovery     InterruptionHandler
	reconciler   StateChangeHandler
	redeliveries int
	logger       zerolog.Logger
}

// NewDispatcher creates a dispatcher. redeliveries is the number of extra
// attempts after a failed one, not the total.
func NewDispatcher(recovery InterruptionHandler, reconciler StateChangeHandler, redeliveries int) *Dispatcher {
	if redeliveries < 0 {
		redeliveries = 0
	}
	return &Dispatcher{
		recovery:     recovery,
		reconciler:   reconciler,
		redeliveries: redeliveries,
		logger:       log.WithComponent("dispatcher"),
	}
}

// Dispatch delivers one signal to its handler, redelivering on failure
// within the bounded budget. The returned error is the last handler error
// once the budget is spent.
func (d *Dispatcher) Dispatch(ctx context.Context, sig *Signal) error {
	logger := d.logger.With().
		Str("signal_id", sig.ID).
		Str("kind", string(sig.Kind)).
		Str("instance_id", sig.InstanceID).
		Logger()

	var handle func() error
	switch sig.Kind {
	case KindInterruption:
		handle = func() error {
			return d.recovery.HandleInterruption(ctx, types.InterruptionSignal{
				InstanceID: sig.InstanceID,
				Action:     sig.Action,
			})
		}
	case KindStateChange:
		handle = func() error {
			return d.reconciler.HandleStateChange(ctx, types.StateChangeSignal{
				InstanceID: sig.InstanceID,
				State:      sig.State,
			})
		}
	default:
		metrics.SignalsTotal.WithLabelValues(string(sig.Kind), metrics.OutcomeFailed).Inc()
		return fmt.Errorf("unknown signal kind %q", sig.Kind)
	}

	var err error
	for attempt := 0; attempt <= d.redeliveries; attempt++ {
		if attempt > 0 {
			metrics.SignalRedeliveries.WithLabelValues(string(sig.Kind)).Inc()
			logger.Warn().Err(err).Int("redelivery", attempt).Msg("handler failed, redelivering signal")
		}
		if err = handle(); err == nil {
			metrics.SignalsTotal.WithLabelValues(string(sig.Kind), metrics.OutcomeHandled).Inc()
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	metrics.SignalsTotal.WithLabelValues(string(sig.Kind), metrics.OutcomeFailed).Inc()
	logger.Error().Err(err).Msg("signal failed after all redeliveries")
	return err
}

// Run consumes signals from the subscription until ctx is done or the
// channel closes. Dispatch failures are already logged and counted; the
// loop keeps going because the next signal may well be actionable.
func (d *Dispatcher) Run(ctx context.Context, sub Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sub:
			if !ok {
				return
			}
			_ = d.Dispatch(ctx, sig)
		}
	}
}
