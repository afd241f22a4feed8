package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mur0dDev/Classification-Bot/internal/console"
	"github.com/Mur0dDev/Classification-Bot/internal/engine"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/session"
	"github.com/Mur0dDev/Classification-Bot/internal/submission"
)

var consoleName string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Classify from the terminal without Telegram",
	Long: `console runs the same questionnaires in the terminal. Reports that
would go to the group are shown in a side pane; rows go to the configured
store.`,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().StringVar(&consoleName, "name", "Console User", "submitter name written to rows")
}

func runConsole(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	flows, err := loadFlows(cfg)
	if err != nil {
		return err
	}
	sheet, closeStore, err := openStore(ctx, cfg, logger.Named("store"))
	if err != nil {
		return err
	}
	defer closeStore()
	if err := ensureHeaders(ctx, flows, sheet); err != nil {
		return err
	}

	// the terminal belongs to the UI from here on
	quiet := zap.NewNop()
	gw := console.NewGateway()
	sessions := session.NewMemoryStore(cfg.Session.IdleTimeout, quiet)
	coord := submission.NewCoordinator(flows, sheet, gw, quiet)
	eng := engine.New(flows, sessions, gw, coord, quiet)
	return console.Run(ctx, eng, gw, models.User{ID: 1, Name: consoleName})
}
