package recovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/outpost-sh/outpost/pkg/compute"
	"github.com/outpost-sh/outpost/pkg/config"
	"github.com/outpost-sh/outpost/pkg/log"
	"github.com/outpost-sh/outpost/pkg/metrics"
	"github.com/outpost-sh/outpost/pkg/statestore"
	"github.com/outpost-sh/outpost/pkg/types"
)

// Controller reacts to interruption signals by replacing the managed
// instance. It is stateless between invocations; everything it knows about
// the world comes from the state store and the platform.
type Controller struct {
	store        statestore.Store
	platform     compute.Platform
	templateID   string
	pollInterval time.Duration
	pollAttempts int
	logger       zerolog.Logger
}

// New creates a recovery controller.
func New(store statestore.Store, platform compute.Platform, templateID string, policy config.Policy) *Controller {
	return &Controller{
		store:        store,
		platform:     platform,
		templateID:   templateID,
		pollInterval: policy.PollInterval.Std(),
		pollAttempts: policy.PollAttempts,
		logger:       log.WithComponent("recovery"),
	}
}

// HandleInterruption processes one interruption signal.
//
// The applicability check against the authoritative instance reference is
// the only idempotency guard: duplicate or stale signals fail it and are
// discarded without side effects. There is no lock or conditional write on
// the reference, so two near-simultaneous signals for the same instance
// could both pass the check before either records its replacement; with at
// most one interruption per instance and rare duplicate delivery this
// window is accepted.
//
// The reference is written before the readiness wait on purpose: if the
// process dies between the write and the wait, the worst outcome is a
// missed wait, not a second launch.
func (c *Controller) HandleInterruption(ctx context.Context, sig types.InterruptionSignal) error {
	timer := metrics.NewTimer()
	logger := c.logger.With().Str("instance_id", sig.InstanceID).Logger()

	logger.Info().Str("action", sig.Action).Msg("interruption signal received")

	ref, err := c.store.Get(ctx, statestore.KeyInstanceID)
	if errors.Is(err, statestore.ErrNotFound) {
		// A missing reference means provisioning never wrote one; treat
		// it like the sentinel so the first recovery can still happen.
		logger.Info().Msg("no instance reference recorded, treating as bootstrap")
		ref = types.SentinelInstanceID
	} else if err != nil {
		metrics.RecoveriesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error().Err(err).Msg("failed to read instance reference")
		return fmt.Errorf("failed to read instance reference: %w", err)
	}

	if ref != sig.InstanceID && ref != types.SentinelInstanceID {
		logger.Info().Str("current_instance", ref).Msg("signal is for an instance we no longer manage, ignoring")
		metrics.RecoveriesTotal.WithLabelValues(metrics.OutcomeIgnored).Inc()
		return nil
	}

	replacementID, err := c.platform.CreateFromTemplate(ctx, c.templateID)
	if err != nil {
		metrics.RecoveriesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error().Err(err).Str("template_id", c.templateID).Msg("failed to launch replacement instance")
		return fmt.Errorf("failed to launch replacement: %w", err)
	}
	logger.Info().Str("replacement_id", replacementID).Msg("replacement instance launched")

	if err := c.store.Put(ctx, statestore.KeyInstanceID, replacementID); err != nil {
		metrics.RecoveriesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error().Err(err).Str("replacement_id", replacementID).Msg("failed to record replacement instance")
		return fmt.Errorf("failed to record replacement %s: %w", replacementID, err)
	}

	if err := c.waitRunning(ctx, replacementID); err != nil {
		metrics.RecoveriesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error().Err(err).Str("replacement_id", replacementID).Msg("replacement instance did not become ready")
		return err
	}

	metrics.RecoveriesTotal.WithLabelValues(metrics.OutcomeHandled).Inc()
	timer.ObserveDuration(metrics.RecoveryDuration)
	logger.Info().
		Str("replacement_id", replacementID).
		Dur("elapsed", timer.Duration()).
		Msg("recovery complete, replacement running")
	return nil
}

// waitRunning polls the replacement's lifecycle state on a fixed interval
// until it reports running, hits a terminal state, or the attempt budget
// runs out. A failed poll counts as an attempt; transient describe errors
// are logged and absorbed by the budget rather than aborting the wait.
func (c *Controller) waitRunning(ctx context.Context, instanceID string) error {
	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		metrics.ReadinessPolls.Inc()

		inst, err := c.platform.Describe(ctx, instanceID)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("failed to poll replacement state")
		case inst.State == types.StateRunning:
			return nil
		case inst.State.Terminal():
			return fmt.Errorf("replacement instance %s reached terminal state %q while booting", instanceID, inst.State)
		default:
			c.logger.Debug().Str("state", string(inst.State)).Int("attempt", attempt).Msg("replacement not running yet")
		}

		if attempt == c.pollAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
	return fmt.Errorf("replacement instance %s did not reach running within %d polls", instanceID, c.pollAttempts)
}
