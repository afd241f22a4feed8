// Package cmd is the classifier command line.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mur0dDev/Classification-Bot/internal/config"
	"github.com/Mur0dDev/Classification-Bot/internal/logging"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
	flush  = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "classifier",
	Short: "Telegram bot that classifies humans, animals and aliens",
	Long: `classifier walks Telegram users through a short questionnaire per
category, posts the finished report to a group and appends it as a row to
the configured store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			c.Log.Level = "debug"
		}
		log, sync, err := logging.New(c.Log)
		if err != nil {
			return err
		}
		cfg, logger, flush = c, log, sync
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		flush()
	},
}

// Execute runs the command tree until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		flush()
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./classifier.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(flowsCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(tokenCmd)
}
