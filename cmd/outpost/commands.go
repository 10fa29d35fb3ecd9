package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/outpost-sh/outpost/pkg/compute"
	"github.com/outpost-sh/outpost/pkg/dnsprovider"
	"github.com/outpost-sh/outpost/pkg/probe"
	"github.com/outpost-sh/outpost/pkg/reconciler"
	"github.com/outpost-sh/outpost/pkg/recovery"
	"github.com/outpost-sh/outpost/pkg/statestore"
	"github.com/outpost-sh/outpost/pkg/types"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Run the recovery controller once for an interruption signal",
	Long: `Invoke the recovery controller by hand, as if an interruption warning
for the given instance had arrived on the queue. Useful when a signal
was lost or a recovery needs to be replayed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		instanceID, _ := cmd.Flags().GetString("instance-id")

		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}

		ctx := context.Background()
		store, platform, err := buildClients(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctrl := recovery.New(store, platform, cfg.LaunchTemplateID, cfg.Policy)
		sig := types.InterruptionSignal{InstanceID: instanceID, Action: "terminate"}
		if err := ctrl.HandleInterruption(ctx, sig); err != nil {
			return fmt.Errorf("recovery failed: %v", err)
		}

		fmt.Println("✓ Recovery complete")
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the DNS reconciler once for a state-change signal",
	Long: `Invoke the DNS reconciler by hand, as if a state-change notification
for the given instance had arrived on the queue.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		instanceID, _ := cmd.Flags().GetString("instance-id")
		state, _ := cmd.Flags().GetString("state")

		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}

		ctx := context.Background()
		store, platform, err := buildClients(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		recon := reconciler.New(store, platform, dnsprovider.NewClient(),
			cfg.DNSZoneID, cfg.DNSRecordID, cfg.Policy)
		sig := types.StateChangeSignal{
			InstanceID: instanceID,
			State:      types.InstanceState(state),
		}
		if err := recon.HandleStateChange(ctx, sig); err != nil {
			return fmt.Errorf("reconcile failed: %v", err)
		}

		fmt.Println("✓ Reconcile complete")
		return nil
	},
}

func init() {
	recoverCmd.Flags().String("instance-id", "", "Instance the interruption signal names")
	recoverCmd.MarkFlagRequired("instance-id")

	reconcileCmd.Flags().String("instance-id", "", "Instance the state-change signal names")
	reconcileCmd.Flags().String("state", "running", "Lifecycle state carried by the signal")
	reconcileCmd.MarkFlagRequired("instance-id")
}

// State commands
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Read and write the shared state store",
}

var stateGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print the value stored at KEY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}

		ctx := context.Background()
		store, _, err := buildClients(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		value, err := store.Get(ctx, args[0])
		if errors.Is(err, statestore.ErrNotFound) {
			return fmt.Errorf("key %q not found under %s", args[0], cfg.StatePrefix)
		}
		if err != nil {
			return fmt.Errorf("failed to read key: %v", err)
		}

		fmt.Println(value)
		return nil
	},
}

var stateSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Write VALUE at KEY, overwriting any existing value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetBool("secret")

		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}

		ctx := context.Background()
		store, _, err := buildClients(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if secret {
			err = store.PutSecret(ctx, args[0], args[1])
		} else {
			err = store.Put(ctx, args[0], args[1])
		}
		if err != nil {
			return fmt.Errorf("failed to write key: %v", err)
		}

		fmt.Printf("✓ Wrote %s\n", statestore.Join(cfg.StatePrefix, args[0]))
		return nil
	},
}

func init() {
	stateCmd.AddCommand(stateGetCmd)
	stateCmd.AddCommand(stateSetCmd)

	stateSetCmd.Flags().Bool("secret", false, "Store the value encrypted at rest")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current endpoint and probe its VPN port",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}

		ctx := context.Background()
		store, platform, err := buildClients(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ref, err := store.Get(ctx, statestore.KeyInstanceID)
		if errors.Is(err, statestore.ErrNotFound) {
			fmt.Println("No instance reference recorded yet.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read instance reference: %v", err)
		}

		fmt.Printf("Instance reference: %s\n", ref)
		if ref == types.SentinelInstanceID {
			fmt.Println("Reference holds the bootstrap sentinel; no instance adopted yet.")
			return nil
		}

		inst, err := platform.Describe(ctx, ref)
		if errors.Is(err, compute.ErrInstanceNotFound) {
			fmt.Println("✗ Referenced instance no longer exists")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to describe instance: %v", err)
		}

		fmt.Printf("  State:     %s\n", inst.State)
		if inst.PublicIP == "" {
			fmt.Println("  Public IP: (none)")
			return nil
		}
		fmt.Printf("  Public IP: %s\n", inst.PublicIP)

		addr := net.JoinHostPort(inst.PublicIP, strconv.Itoa(port))
		result := probe.NewTCPProbe(addr).Check(ctx)
		if result.Reachable {
			fmt.Printf("✓ VPN port %d reachable (%s)\n", port, result.Duration)
		} else {
			fmt.Printf("✗ VPN port %d unreachable: %s\n", port, result.Message)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Int("port", 51820, "VPN port to probe on the instance's public address")
}
