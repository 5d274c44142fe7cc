package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"simacca/internal/report"
)

func addReport(topLevel *cobra.Command, load func() (*app, error)) {
	var from, to, out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the daily agenda PDF for a date range",
		Long: `Report fetches the agenda once and prints one page per day in the range
(at most 31 days, inclusive) to a PDF file.

Examples:
  simacca report --from 2026-02-16 --to 2026-02-20
  simacca report --from 2026-02-01 --to 2026-02-28 --out ./laporan`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := load()
			if err != nil {
				return err
			}
			// Validate before touching the network.
			if _, err := report.ParseRange(from, to, a.civil); err != nil {
				return err
			}
			if err := a.store.Refresh(cmd.Context()); err != nil {
				return err
			}

			res, err := a.generator(cmd.Context()).Generate(cmd.Context(), a.store.Snapshot(), from, to)
			if errors.Is(err, report.ErrNoData) {
				_, _ = fmt.Fprintln(color.Output, faint("No agenda between "+from+" and "+to+"; nothing written."))
				return nil
			}
			if err != nil {
				return err
			}

			dir := out
			if dir == "" {
				dir = a.cfg.Report.OutputDir
			}
			path, err := res.Save(dir)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(color.Output, "%s %s (%d days, %d pages)\n",
				bold("saved"), path, len(res.Document.Days), res.Document.Pages)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&out, "out", "", "output directory (defaults to report.output_dir)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	topLevel.AddCommand(cmd)
}
