package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Validate the questionnaires and print their table layouts",
	RunE: func(cmd *cobra.Command, args []string) error {
		flows, err := loadFlows(cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, f := range flows.Flows() {
			fmt.Fprintf(out, "%s %s -> %s (%d steps)\n", f.Emoji, f.Title, f.Table, len(f.Steps))
			fmt.Fprintf(out, "  columns: %s\n", strings.Join(f.Header(), " | "))
			for _, st := range f.Steps {
				fmt.Fprintf(out, "  %-14s %-7s %s\n", st.Field, st.Kind, st.Prompt)
			}
		}
		return nil
	},
}
