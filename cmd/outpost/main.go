package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"

	"github.com/outpost-sh/outpost/pkg/compute"
	"github.com/outpost-sh/outpost/pkg/config"
	"github.com/outpost-sh/outpost/pkg/dnsprovider"
	"github.com/outpost-sh/outpost/pkg/events"
	"github.com/outpost-sh/outpost/pkg/log"
	"github.com/outpost-sh/outpost/pkg/metrics"
	"github.com/outpost-sh/outpost/pkg/reconciler"
	"github.com/outpost-sh/outpost/pkg/recovery"
	"github.com/outpost-sh/outpost/pkg/statestore"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "outpost",
	Short: "Outpost - keeper for a spot-instance VPN endpoint",
	Long: `Outpost keeps a single spot-instance VPN endpoint alive and reachable.

When the cloud provider reclaims the instance, Outpost launches a
replacement from a launch template and adopts it as the authoritative
endpoint. When the replacement starts running, Outpost points the
endpoint's DNS record at its fresh public address.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Outpost version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "", "Path to YAML configuration file")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(statusCmd)
}

// loadConfig reads the configuration named by --config (plus OUTPOST_*
// environment overrides) and initializes the global logger.
func loadConfig(cmd *cobra.Command, jsonLogs bool) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: jsonLogs,
	})
	return cfg, nil
}

// openStore picks the state-store backend: SSM Parameter Store by default,
// a local bbolt file when local_store_path is set.
func openStore(cfg *config.Config, awsCfg aws.Config) (statestore.Store, error) {
	if cfg.LocalStorePath != "" {
		return statestore.NewBoltStore(cfg.LocalStorePath, cfg.StatePrefix, cfg.StorePassphrase)
	}
	return statestore.NewSSMStore(ssm.NewFromConfig(awsCfg), cfg.StatePrefix), nil
}

// buildClients wires the store and compute platform shared by every
// subcommand.
func buildClients(ctx context.Context, cfg *config.Config) (statestore.Store, compute.Platform, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AWS configuration: %v", err)
	}
	store, err := openStore(cfg, awsCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state store: %v", err)
	}
	return store, compute.NewEC2Platform(ec2.NewFromConfig(awsCfg)), nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Outpost daemon",
	Long: `Run the Outpost daemon: long-poll the signal queue, route interruption
and state-change signals to the recovery and DNS controllers, and serve
metrics and health endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}
		if cfg.QueueURL == "" {
			return fmt.Errorf("queue_url (OUTPOST_QUEUE_URL) is required to run the daemon")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to load AWS configuration: %v", err)
		}

		store, err := openStore(cfg, awsCfg)
		if err != nil {
			return fmt.Errorf("failed to open state store: %v", err)
		}
		defer store.Close()

		platform := compute.NewEC2Platform(ec2.NewFromConfig(awsCfg))
		dns := dnsprovider.NewClient()

		rec := recovery.New(store, platform, cfg.LaunchTemplateID, cfg.Policy)
		recon := reconciler.New(store, platform, dns, cfg.DNSZoneID, cfg.DNSRecordID, cfg.Policy)

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		dispatcher := events.NewDispatcher(rec, recon, cfg.Policy.Redeliveries)
		sub := broker.Subscribe()
		go dispatcher.Run(ctx, sub)

		source := events.NewSQSSource(sqs.NewFromConfig(awsCfg), cfg.QueueURL, broker)
		errCh := make(chan error, 1)
		go func() {
			if err := source.Run(ctx); err != nil && ctx.Err() == nil {
				errCh <- fmt.Errorf("signal source error: %v", err)
			}
		}()

		metrics.SetVersion(Version)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/healthz", metrics.HealthHandler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("metrics server error: %v", err)
			}
		}()

		fmt.Printf("Outpost is running (metrics on %s). Press Ctrl+C to stop.\n", cfg.MetricsAddr)

		select {
		case <-ctx.Done():
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		broker.Unsubscribe(sub)

		fmt.Println("✓ Shutdown complete")
		return nil
	},
}
