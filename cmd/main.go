package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"marketplace/internal/bootstrap"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "marketplace",
	Short: "Marketplace agents: price suggestion and chat moderation",
	Long: `Runs the marketplace agents either as an HTTP service or as one-shot commands.

Configuration is read from the environment (and a .env file when present).
Without any generation API key the offline mock backend is used.`,
	SilenceUsage: true,
}

// serveCmd runs the HTTP service until interrupted
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP service",
	Long: `Serves POST /negotiate, /moderate, /batch/negotiate and /batch/moderate
together with /stats, /health, /ready, /live and /metrics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, suggestCmd, moderateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	container := bootstrap.NewContainer()
	container.MustInit()

	if err := container.Start(); err != nil {
		container.Shutdown()
		return err
	}

	waitForShutdown(container)
	return nil
}

// waitForShutdown blocks until a signal arrives or the container cancels itself
func waitForShutdown(container *bootstrap.Container) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		container.Log.Infow("Shutdown signal received", "signal", sig.String())
	case <-container.Context.Done():
		container.Log.Warn("Application context cancelled, shutting down")
	}

	container.Shutdown()
}
