package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qovery-clone/cluster-engine/internal/config"
	"github.com/qovery-clone/cluster-engine/internal/metrics"
	"github.com/qovery-clone/cluster-engine/internal/version"
)

// metricsPort mirrors the teacher's dedicated health-check listener: a
// second mux served on its own port rather than piggybacking the one
// carrying engine traffic.
const metricsPort = 8082

var rootCmd = &cobra.Command{
	Use:   "cluster-engine [command] [options]",
	Short: "Multi-cloud Kubernetes infrastructure and environment engine",
	Long: `
cluster-engine provisions and tears down Kubernetes clusters across AWS,
Azure, GCP, Scaleway, self-managed and on-premise fleets, and deploys
environments onto already-bootstrapped clusters.

  # show this help
  cluster-engine -h

  # show version information
  cluster-engine --version

  # run the request read from stdin
  cluster-engine run

  # run the request read from a file
  cluster-engine run --request-file ./request.json

  # persist a freshly-minted kubeconfig for a rotating-token cluster
  cluster-engine rotate-kubeconfig --cluster-id <uuid> --fresh-kubeconfig-file ./fresh.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("version") {
			fmt.Println(version.BinaryName, version.Version)
			return
		}
		_ = cmd.Help()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one infrastructure or environment engine request to completion",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := initLogging()

		cfg, v, err := config.Load(viper.GetString("config"))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		watcher, err := config.NewWatcher(v, viper.GetString("config"))
		if err != nil {
			logger.Warnf("config watcher disabled: %v", err)
		} else {
			defer watcher.Close()
			go func() {
				for updated := range watcher.Changes {
					logger.Infof("config reloaded (cloud kind now %q)", updated.Cloud.Kind)
					cfg = updated
				}
			}()
		}

		reg := metrics.NewRegistry()
		healthServer := startMetricsServer(reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = healthServer.Shutdown(shutdownCtx)
		}()

		env, err := loadRequest(viper.GetString("request-file"))
		if err != nil {
			return fmt.Errorf("load request: %w", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			logger.Infof("received signal %v, cancelling in-flight task", sig)
			cancel()
		}()

		rt := &runtime{cfg: cfg, logBase: logger, metrics: reg}
		if err := dispatch(ctx, rt, env); err != nil {
			return fmt.Errorf("dispatch %s request: %w", env.Kind, err)
		}
		return nil
	},
}

func startMetricsServer(reg *metrics.Registry, logger *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: fmt.Sprintf(":%d", metricsPort), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics server error: %v", err)
		}
	}()
	return srv
}

func init() {
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Print version information and quit")
	rootCmd.PersistentFlags().String("config", "", "Path to the engine config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	_ = viper.BindPFlags(rootCmd.PersistentFlags())

	runCmd.Flags().String("request-file", "", "Path to the JSON request envelope (defaults to stdin)")
	_ = viper.BindPFlags(runCmd.Flags())

	rootCmd.AddCommand(runCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}
