package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func addSync(topLevel *cobra.Command, load func() (*app, error)) {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the agenda once and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := load()
			if err != nil {
				return err
			}
			if err := a.store.Refresh(cmd.Context()); err != nil {
				return err
			}
			records := a.store.Snapshot()
			dated := 0
			for _, r := range records {
				if r.Day != "" {
					dated++
				}
			}
			_, _ = fmt.Fprintf(color.Output, "%s %d records (%d dated) at %s\n",
				bold("synced"), len(records), dated, a.civil.Clock(a.store.LastSync()))
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
