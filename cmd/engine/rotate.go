package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qovery-clone/cluster-engine/internal/config"
	infraselfmanaged "github.com/qovery-clone/cluster-engine/internal/infra/selfmanaged"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

// rotateCmd gives infraselfmanaged.RotateKubeconfigToken a real call site:
// DigitalOcean-style rotating clusters mint a fresh kubeconfig outside this
// engine's scope (there is no DigitalOcean SDK in this stack to call), so
// an external scheduler (a CronJob on DigitalOceanKubeconfigRotationCadence)
// drops the newly-minted kubeconfig at --fresh-kubeconfig-file and invokes
// this subcommand to persist and re-distribute it the same way the create
// flow does on first boot.
var rotateCmd = &cobra.Command{
	Use:   "rotate-kubeconfig",
	Short: "Persist a freshly-minted kubeconfig for a rotating-token cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := initLogging()

		cfg, _, err := config.Load(viper.GetString("config"))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		id, err := types.ParseClusterID(viper.GetString("cluster-id"))
		if err != nil {
			return fmt.Errorf("parse cluster id: %w", err)
		}

		freshPath := viper.GetString("fresh-kubeconfig-file")
		fetch := func(ctx context.Context) ([]byte, error) {
			return os.ReadFile(freshPath)
		}

		stack, err := buildCloudStack(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("build cloud stack: %w", err)
		}

		localPath := localKubeconfigPath(cfg, id)
		if err := infraselfmanaged.RotateKubeconfigToken(cmd.Context(), stack.Store, id, fetch, localPath); err != nil {
			return fmt.Errorf("rotate kubeconfig for cluster %s: %w", id.Long, err)
		}
		logger.Infof("rotated kubeconfig for cluster %s", id.Long)
		return nil
	},
}

func init() {
	rotateCmd.Flags().String("cluster-id", "", "Cluster long id (UUID) whose kubeconfig to rotate")
	rotateCmd.Flags().String("fresh-kubeconfig-file", "", "Path to the freshly-minted kubeconfig dropped by the external rotation job")
	_ = rotateCmd.MarkFlagRequired("cluster-id")
	_ = rotateCmd.MarkFlagRequired("fresh-kubeconfig-file")
	_ = viper.BindPFlags(rotateCmd.Flags())

	rootCmd.AddCommand(rotateCmd)
}
