package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/outpost-sh/outpost/pkg/compute"
	"github.com/outpost-sh/outpost/pkg/config"
	"github.com/outpost-sh/outpost/pkg/dnsprovider"
	"github.com/outpost-sh/outpost/pkg/log"
	"github.com/outpost-sh/outpost/pkg/metrics"
	"github.com/outpost-sh/outpost/pkg/retry"
	"github.com/outpost-sh/outpost/pkg/statestore"
	"github.com/outpost-sh/outpost/pkg/types"
)

// errNoAddress marks "instance exists but has no public address yet",
// which is retryable until the lookup budget runs out.
var errNoAddress = errors.New("instance has no public address yet")

// Reconciler pushes the managed instance's public address into the DNS
// record once the instance reports running. Like the recovery controller
// it is stateless; the authoritative instance reference decides whether a
// signal concerns us at all.
type Reconciler struct {
	store    statestore.Store
	platform compute.Platform
	dns      *dnsprovider.Client
	zoneID   string
	recordID string
	lookup   retry.Policy
	update   retry.Policy
	logger   zerolog.Logger
}

// New creates a DNS reconciler.
func New(store statestore.Store, platform compute.Platform, dns *dnsprovider.Client, zoneID, recordID string, policy config.Policy) *Reconciler {
	return &Reconciler{
		store:    store,
		platform: platform,
		dns:      dns,
		zoneID:   zoneID,
		recordID: recordID,
		lookup:   retry.Policy{MaxAttempts: policy.LookupAttempts, BaseDelay: policy.LookupBaseDelay.Std()},
		update:   retry.Policy{MaxAttempts: policy.UpdateAttempts, BaseDelay: policy.UpdateBaseDelay.Std()},
		logger:   log.WithComponent("reconciler"),
	}
}

// HandleStateChange processes one lifecycle state-change signal. Only the
// transition into running for the currently-referenced instance does any
// work; everything else is discarded successfully. The live address is
// re-resolved from the platform on every run — nothing cached from earlier
// reconciliations is trusted.
func (r *Reconciler) HandleStateChange(ctx context.Context, sig types.StateChangeSignal) error {
	timer := metrics.NewTimer()
	logger := r.logger.With().Str("instance_id", sig.InstanceID).Logger()

	if sig.State != types.StateRunning {
		logger.Info().Str("state", string(sig.State)).Msg("state change is not a transition into running, ignoring")
		metrics.DNSUpdatesTotal.WithLabelValues(metrics.OutcomeIgnored).Inc()
		return nil
	}

	ref, err := r.store.Get(ctx, statestore.KeyInstanceID)
	if errors.Is(err, statestore.ErrNotFound) {
		logger.Info().Msg("no instance reference recorded, signal is not ours, ignoring")
		metrics.DNSUpdatesTotal.WithLabelValues(metrics.OutcomeIgnored).Inc()
		return nil
	}
	if err != nil {
		metrics.DNSUpdatesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error().Err(err).Msg("failed to read instance reference")
		return fmt.Errorf("failed to read instance reference: %w", err)
	}
	if ref != sig.InstanceID {
		logger.Info().Str("current_instance", ref).Msg("signal is for an instance we do not manage, ignoring")
		metrics.DNSUpdatesTotal.WithLabelValues(metrics.OutcomeIgnored).Inc()
		return nil
	}

	address, err := r.resolveAddress(ctx, sig.InstanceID)
	if err != nil {
		metrics.DNSUpdatesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error().Err(err).Msg("failed to resolve public address")
		return fmt.Errorf("failed to resolve public address of %s: %w", sig.InstanceID, err)
	}

	token, err := r.store.Get(ctx, statestore.KeyDNSToken)
	if err != nil {
		metrics.DNSUpdatesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error().Err(err).Msg("failed to read dns credential")
		return fmt.Errorf("failed to read dns credential: %w", err)
	}

	record, err := r.updateRecord(ctx, token, address)
	if err != nil {
		metrics.DNSUpdatesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error().Err(err).Str("address", address).Msg("failed to update dns record")
		return fmt.Errorf("failed to update dns record %s: %w", r.recordID, err)
	}

	metrics.DNSUpdatesTotal.WithLabelValues(metrics.OutcomeHandled).Inc()
	timer.ObserveDuration(metrics.ReconcileDuration)
	logger.Info().
		Str("record_name", record.Name).
		Str("record_content", record.Content).
		Msg("dns record updated")
	return nil
}

// resolveAddress polls the platform for the instance's public address
// under the lookup retry policy. "No address yet" is retryable; the
// instance disappearing from the platform is not.
func (r *Reconciler) resolveAddress(ctx context.Context, instanceID string) (string, error) {
	var address string
	err := retry.DoNotify(ctx, r.lookup, func() error {
		inst, err := r.platform.Describe(ctx, instanceID)
		if err != nil {
			if errors.Is(err, compute.ErrInstanceNotFound) {
				return retry.Permanent(err)
			}
			return err
		}
		if inst.PublicIP == "" {
			return errNoAddress
		}
		address = inst.PublicIP
		return nil
	}, func(err error, next time.Duration) {
		metrics.RetryAttempts.WithLabelValues("address_lookup").Inc()
		r.logger.Warn().Err(err).Dur("next_attempt_in", next).Msg("address lookup attempt failed")
	})
	return address, err
}

// updateRecord PATCHes the record under the update retry policy. Every
// provider failure, HTTP-level or envelope-level, is retryable within the
// budget; the final error carries the provider payload verbatim.
func (r *Reconciler) updateRecord(ctx context.Context, token, address string) (*dnsprovider.Record, error) {
	var record *dnsprovider.Record
	err := retry.DoNotify(ctx, r.update, func() error {
		rec, err := r.dns.UpdateRecordContent(ctx, token, r.zoneID, r.recordID, address)
		if err != nil {
			return err
		}
		record = rec
		return nil
	}, func(err error, next time.Duration) {
		metrics.RetryAttempts.WithLabelValues("dns_update").Inc()
		r.logger.Warn().Err(err).Dur("next_attempt_in", next).Msg("dns update attempt failed")
	})
	return record, err
}
