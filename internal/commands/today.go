package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"simacca/internal/agenda"
	"simacca/internal/locale"
	"simacca/internal/model"
)

func addToday(topLevel *cobra.Command, load func() (*app, error)) {
	var date, filter string

	cmd := &cobra.Command{
		Use:   "today",
		Short: "List the agenda of a day (today by default)",
		Long: `Today fetches the agenda once and lists one day's entries.

Examples:
  simacca today
  simacca today --date 2026-02-19
  simacca today --filter LURAH`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := load()
			if err != nil {
				return err
			}
			if err := a.store.Refresh(cmd.Context()); err != nil {
				return err
			}

			now := time.Now()
			day := a.civil.Midnight(now)
			if date != "" {
				if day, err = a.civil.ParseDate(date); err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}
			records := a.store.Snapshot()
			rows := agenda.OnDate(records, day.Format(locale.DateLayout), filter)

			var next *model.Agenda
			if a.civil.SameDay(day, now) && (filter == "" || filter == agenda.FilterAll) {
				n := agenda.Next(records, now, a.civil)
				next = &n
			}
			renderDay(color.Output, a.civil.LongDate(day), rows, next)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to list as YYYY-MM-DD")
	cmd.Flags().StringVar(&filter, "filter", agenda.FilterAll, "only entries referred to this target")
	topLevel.AddCommand(cmd)
}

const maxColumn = 48

var (
	bold     = color.New(color.Bold).SprintFunc()
	present  = color.New(color.FgGreen).SprintFunc()
	referred = color.New(color.FgYellow).SprintFunc()
	faint    = color.New(color.Faint).SprintFunc()
)

func renderDay(w io.Writer, label string, rows []model.Agenda, next *model.Agenda) {
	_, _ = fmt.Fprintln(w, bold(label))

	if next != nil {
		if next.ID == model.NoAgendaID {
			_, _ = fmt.Fprintln(w, faint(next.Title))
		} else {
			_, _ = fmt.Fprintf(w, "Next: %s  %s\n", next.Time, next.Title)
		}
	}

	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, faint("No agenda."))
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = maxColumn
	tbl.Wrap = true
	tbl.AddRow(bold("WAKTU"), bold("KEGIATAN"), bold("LOKASI"), bold("STATUS"), bold("DISPOSISI"))
	for _, r := range rows {
		status := present(string(r.Status))
		if r.Status == model.StatusReferred {
			status = referred(string(r.Status))
		}
		targets := strings.Join(r.ReferralTargets, ", ")
		if targets == "" {
			targets = model.EmptyPlaceholder
		}
		tbl.AddRow(r.Time, r.Title, orDash(r.Location), status, targets)
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return model.EmptyPlaceholder
	}
	return s
}
